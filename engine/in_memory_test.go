package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/memweave/core"
)

// Interface compliance (compile-time assertion)
var _ core.Engine = (*InMemoryEngine)(nil)

func mustEpisode(t *testing.T, groupID, name string, contents ...string) core.Episode {
	t.Helper()
	msgs := make([]core.Message, len(contents))
	for i, c := range contents {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		msgs[i] = core.Message{Role: role, Content: c}
	}
	ep, err := core.NewEpisode(msgs, name, "", groupID, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return ep
}

func TestInMemoryEngine_AddAndSearch(t *testing.T) {
	e := NewInMemory(func(o *Options) { o.GroupID = "g1" })
	ctx := context.Background()

	require.NoError(t, e.AddEpisode(ctx, mustEpisode(t, "g1", "e1",
		"I was charged 20 dollars extra on my last bill",
		"The extra charge is for exceeding your data limit",
	)))

	results, err := e.SearchContext(ctx, "data limit", core.SearchConfig{Limit: 10, GroupIDs: []string{"g1"}})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "The extra charge is for exceeding your data limit", results[len(results)-1].Fact)
	require.NotNil(t, results[0].CreatedAt)
	assert.NotEmpty(t, results[0].SourceNodeUUID)
}

func TestInMemoryEngine_GroupIsolation(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()

	require.NoError(t, e.AddEpisode(ctx, mustEpisode(t, "alice", "e1", "Alice loves hiking", "noted")))
	require.NoError(t, e.AddEpisode(ctx, mustEpisode(t, "bob", "e2", "Bob likes Italian cooking", "noted")))

	results, err := e.SearchContext(ctx, "hiking", core.SearchConfig{Limit: 10, GroupIDs: []string{"bob"}})
	require.NoError(t, err)
	assert.Empty(t, results, "retrieval must never cross group boundaries")

	results, err = e.SearchContext(ctx, "hiking", core.SearchConfig{Limit: 10, GroupIDs: []string{"alice"}})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestInMemoryEngine_SearchLimit(t *testing.T) {
	e := NewInMemory(func(o *Options) { o.GroupID = "g1" })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, e.AddEpisode(ctx, mustEpisode(t, "g1", string(rune('a'+i)), "shipping info", "shipping answer")))
	}

	results, err := e.SearchContext(ctx, "shipping", core.SearchConfig{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestInMemoryEngine_ReplayedEpisodeCollapsed(t *testing.T) {
	e := NewInMemory(func(o *Options) { o.GroupID = "g1" })
	ctx := context.Background()
	ep := mustEpisode(t, "g1", "e1", "fact one", "fact two")

	require.NoError(t, e.AddEpisode(ctx, ep))
	require.NoError(t, e.AddEpisode(ctx, ep), "replay must not error")

	stats, err := e.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EpisodeCount, "replayed flush must not duplicate the episode")

	results, err := e.SearchContext(ctx, "fact", core.SearchConfig{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestInMemoryEngine_AddEpisodesBatch(t *testing.T) {
	e := NewInMemory(func(o *Options) { o.GroupID = "kb" })
	ctx := context.Background()

	err := e.AddEpisodes(ctx, []core.Episode{
		mustEpisode(t, "kb", "e1", "Refunds are available within 30 days", "noted"),
		mustEpisode(t, "kb", "e2", "Shipping is free for orders over $50", "noted"),
	})
	require.NoError(t, err)

	stats, err := e.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.EpisodeCount)
	assert.Equal(t, "kb", stats.GroupID)
}

func TestInMemoryEngine_SearchNodes(t *testing.T) {
	e := NewInMemory(func(o *Options) { o.GroupID = "kb" })
	ctx := context.Background()

	require.NoError(t, e.AddEpisode(ctx, mustEpisode(t, "kb", "e1",
		"billing questions go to the billing team", "understood")))

	nodes, err := e.SearchNodes(ctx, "billing", 3)
	require.NoError(t, err)
	require.NotEmpty(t, nodes)
	assert.NotEmpty(t, nodes[0].UUID)
	assert.Contains(t, nodes[0].Summary, "billing")
}

func TestInMemoryEngine_CloseExactlyOnce(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()

	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Close(), ErrEngineClosed)

	err := e.AddEpisode(ctx, mustEpisode(t, "g1", "e1", "too late", "indeed"))
	assert.ErrorIs(t, err, ErrEngineClosed)

	_, err = e.SearchContext(ctx, "q", core.SearchConfig{Limit: 1})
	assert.ErrorIs(t, err, ErrEngineClosed)

	_, err = e.GetStats(ctx)
	assert.ErrorIs(t, err, ErrEngineClosed)
}
