package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/memweave/core"
)

// MockEngine for testing the turn pipeline
type MockEngine struct{ mock.Mock }

func (m *MockEngine) AddEpisode(ctx context.Context, episode core.Episode) error {
	args := m.Called(ctx, episode)
	return args.Error(0)
}

func (m *MockEngine) AddEpisodes(ctx context.Context, episodes []core.Episode) error {
	args := m.Called(ctx, episodes)
	return args.Error(0)
}

func (m *MockEngine) SearchContext(ctx context.Context, query string, cfg core.SearchConfig) ([]core.SearchResult, error) {
	args := m.Called(ctx, query, cfg)
	if res, ok := args.Get(0).([]core.SearchResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEngine) SearchNodes(ctx context.Context, query string, limit int) ([]core.Node, error) {
	args := m.Called(ctx, query, limit)
	if res, ok := args.Get(0).([]core.Node); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEngine) GetStats(ctx context.Context) (core.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(core.Stats), args.Error(1)
}

func (m *MockEngine) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockGenerator for testing generation outcomes
type MockGenerator struct{ mock.Mock }

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestOrchestrator_TurnAssemblesPrompt(t *testing.T) {
	eng := &MockEngine{}
	eng.On("SearchContext", mock.Anything, "do you remember my hobbies?", mock.Anything).
		Return([]core.SearchResult{{Fact: "Alice loves hiking"}}, nil)

	var prompt string
	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		prompt = args.String(1)
	}).Return("You told me you love hiking.", nil)

	o := New("user_001", eng, gen)
	out, err := o.Turn(context.Background(), "do you remember my hobbies?")

	require.NoError(t, err)
	assert.Equal(t, "You told me you love hiking.", out)
	assert.True(t, strings.HasPrefix(prompt, DefaultPreamble))
	assert.Contains(t, prompt, "1. Alice loves hiking")
	assert.Contains(t, prompt, "Recent conversation:")
	assert.True(t, strings.HasSuffix(prompt, "User: do you remember my hobbies?\nAssistant:"))
}

func TestOrchestrator_HistoryWindowInSecondTurn(t *testing.T) {
	eng := &MockEngine{}
	eng.On("SearchContext", mock.Anything, mock.Anything, mock.Anything).
		Return([]core.SearchResult{}, nil)
	eng.On("AddEpisode", mock.Anything, mock.Anything).Return(nil)

	var prompts []string
	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		prompts = append(prompts, args.String(1))
	}).Return("ok", nil)

	o := New("user_001", eng, gen)
	_, err := o.Turn(context.Background(), "hi, I'm Alice")
	require.NoError(t, err)
	_, err = o.Turn(context.Background(), "recommend a trail")
	require.NoError(t, err)

	require.Len(t, prompts, 2)
	// First prompt: no prior turns, sentinel context.
	assert.Contains(t, prompts[0], "No relevant context found.")
	assert.NotContains(t, prompts[0], "user: hi, I'm Alice")
	// Second prompt: prior exchange appears in the window, the new input
	// only as the closing line.
	assert.Contains(t, prompts[1], "user: hi, I'm Alice\nassistant: ok\n")
	assert.Equal(t, 1, strings.Count(prompts[1], "recommend a trail"))
}

func TestOrchestrator_FlushAfterSecondExchange(t *testing.T) {
	eng := &MockEngine{}
	eng.On("SearchContext", mock.Anything, mock.Anything, mock.Anything).
		Return([]core.SearchResult{}, nil)
	eng.On("AddEpisode", mock.Anything, mock.Anything).Return(nil)

	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)

	o := New("user_001", eng, gen, func(opts *Options) { opts.GroupID = "g1" })

	_, err := o.Turn(context.Background(), "first")
	require.NoError(t, err)
	eng.AssertNumberOfCalls(t, "AddEpisode", 0)

	_, err = o.Turn(context.Background(), "second")
	require.NoError(t, err)
	eng.AssertNumberOfCalls(t, "AddEpisode", 1)
	assert.Equal(t, 0, o.Unflushed())

	_, err = o.Turn(context.Background(), "third")
	require.NoError(t, err)
	eng.AssertNumberOfCalls(t, "AddEpisode", 1)
	assert.Equal(t, 2, o.Unflushed())
}

func TestOrchestrator_RetrievalFailureDegrades(t *testing.T) {
	eng := &MockEngine{}
	eng.On("SearchContext", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	var prompt string
	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		prompt = args.String(1)
	}).Return("still answering", nil)

	o := New("user_001", eng, gen)
	out, err := o.Turn(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, "still answering", out)
	assert.Contains(t, prompt, "No relevant context found.")
}

func TestOrchestrator_GenerationFailureIsFatal(t *testing.T) {
	eng := &MockEngine{}
	eng.On("SearchContext", mock.Anything, mock.Anything, mock.Anything).
		Return([]core.SearchResult{}, nil)

	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

	o := New("user_001", eng, gen)
	_, err := o.Turn(context.Background(), "hello")

	var gErr *core.GenerationError
	require.ErrorAs(t, err, &gErr)
	// The user turn stays buffered: the buffer is append-only.
	assert.Equal(t, 1, o.Unflushed())
}

func TestOrchestrator_FlushFailureNonFatal(t *testing.T) {
	eng := &MockEngine{}
	eng.On("SearchContext", mock.Anything, mock.Anything, mock.Anything).
		Return([]core.SearchResult{}, nil)
	eng.On("AddEpisode", mock.Anything, mock.Anything).Return(errors.New("unavailable"))

	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)

	o := New("user_001", eng, gen)
	_, err := o.Turn(context.Background(), "first")
	require.NoError(t, err)

	out, err := o.Turn(context.Background(), "second")
	require.NoError(t, err, "deferred flush failure must not fail the turn")
	assert.Equal(t, "ok", out)
	assert.Equal(t, 4, o.Unflushed(), "failed batch stays eligible")
}

func TestOrchestrator_TurnAfterEndRejected(t *testing.T) {
	eng := &MockEngine{}
	eng.On("SearchContext", mock.Anything, mock.Anything, mock.Anything).
		Return([]core.SearchResult{}, nil)
	eng.On("AddEpisode", mock.Anything, mock.Anything).Return(nil)

	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)

	o := New("user_001", eng, gen)
	_, err := o.Turn(context.Background(), "hello")
	require.NoError(t, err)
	require.NoError(t, o.End(context.Background()))

	_, err = o.Turn(context.Background(), "anyone there?")
	var sErr *core.StateError
	assert.ErrorAs(t, err, &sErr)
}

func TestOrchestrator_RetrievalFanOutUsesConfiguredLimit(t *testing.T) {
	eng := &MockEngine{}
	eng.On("SearchContext", mock.Anything, "q", core.SearchConfig{Limit: 6, GroupIDs: []string{"g1"}}).
		Return([]core.SearchResult{}, nil)

	gen := &MockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)

	o := New("user_001", eng, gen, func(opts *Options) {
		opts.GroupID = "g1"
		opts.RetrievalLimit = 3
	})
	_, err := o.Turn(context.Background(), "q")

	require.NoError(t, err)
	eng.AssertExpectations(t)
}
