package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/memweave/core"
)

// ErrEngineClosed is returned when any method is called after Close.
var ErrEngineClosed = fmt.Errorf("engine is closed")

// storedFact is the internal representation of one ingested fact with its
// provenance.
type storedFact struct {
	text      string
	createdAt time.Time
	nodeUUID  string
}

// Options configure the in-memory engine.
type Options struct {
	// GroupID is the default memory space used when searches and stats do
	// not name one.
	GroupID string
}

// InMemoryEngine is a volatile core.Engine storing episode-derived facts in
// process-local maps. Search is a case-insensitive substring scan in
// insertion order, suitable only for tests and demos; real deployments plug
// in an engine that does semantic plus lexical ranking.
//
// Episodes are recorded under their deterministic UUID, so a replayed flush
// of the same batch is collapsed instead of duplicated. Concurrency:
// protected by RWMutex.
type InMemoryEngine struct {
	mu       sync.RWMutex
	groupID  string
	facts    map[string][]storedFact // groupID -> ordered facts
	episodes map[string]struct{}     // episode UUID -> seen
	counts   map[string]int          // groupID -> episode count
	closed   bool
}

// NewInMemory creates an empty in-memory engine.
func NewInMemory(optFns ...func(o *Options)) *InMemoryEngine {
	opts := Options{GroupID: "default"}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &InMemoryEngine{
		groupID:  opts.GroupID,
		facts:    make(map[string][]storedFact),
		episodes: make(map[string]struct{}),
		counts:   make(map[string]int),
	}
}

// AddEpisode ingests one episode, deriving a fact per message. Re-submission
// of an episode with the same deterministic UUID is a no-op.
func (e *InMemoryEngine) AddEpisode(ctx context.Context, episode core.Episode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if len(episode.Messages) == 0 {
		return fmt.Errorf("episode %q has no messages", episode.Name)
	}

	uuid := episode.UUID()
	if _, seen := e.episodes[uuid]; seen {
		return nil
	}
	e.episodes[uuid] = struct{}{}

	groupID := episode.GroupID
	if groupID == "" {
		groupID = e.groupID
	}
	for _, msg := range episode.Messages {
		e.facts[groupID] = append(e.facts[groupID], storedFact{
			text:      msg.Content,
			createdAt: episode.ReferenceTime,
			nodeUUID:  uuid,
		})
	}
	e.counts[groupID]++
	return nil
}

// AddEpisodes ingests a batch sequentially. The first failure aborts the
// batch; already ingested episodes stay stored (at-least-once, partial
// success visible).
func (e *InMemoryEngine) AddEpisodes(ctx context.Context, episodes []core.Episode) error {
	for _, episode := range episodes {
		if err := e.AddEpisode(ctx, episode); err != nil {
			return err
		}
	}
	return nil
}

// SearchContext scans the scoped groups for facts containing the query,
// case-insensitive, preserving insertion order up to the config limit.
func (e *InMemoryEngine) SearchContext(ctx context.Context, query string, cfg core.SearchConfig) ([]core.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, ErrEngineClosed
	}

	groupIDs := cfg.GroupIDs
	if len(groupIDs) == 0 {
		groupIDs = []string{e.groupID}
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = 10
	}

	needle := strings.ToLower(query)
	results := make([]core.SearchResult, 0, limit)
	for _, groupID := range groupIDs {
		for _, fact := range e.facts[groupID] {
			if len(results) >= limit {
				return results, nil
			}
			if needle == "" || containsAnyWord(strings.ToLower(fact.text), needle) {
				createdAt := fact.createdAt
				results = append(results, core.SearchResult{
					Fact:           fact.text,
					CreatedAt:      &createdAt,
					SourceNodeUUID: fact.nodeUUID,
				})
			}
		}
	}
	return results, nil
}

// containsAnyWord reports whether the haystack contains the full needle or
// any of its whitespace-separated terms. A crude lexical stand-in for the
// hybrid ranking a real engine performs.
func containsAnyWord(haystack, needle string) bool {
	if strings.Contains(haystack, needle) {
		return true
	}
	for _, term := range strings.Fields(needle) {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// SearchNodes returns one synthetic entity per matching group. Real engines
// return extracted entities; this keeps the interface exercised in demos.
func (e *InMemoryEngine) SearchNodes(ctx context.Context, query string, limit int) ([]core.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, ErrEngineClosed
	}
	if limit <= 0 {
		limit = 10
	}

	needle := strings.ToLower(query)
	nodes := make([]core.Node, 0, limit)
	for _, fact := range e.facts[e.groupID] {
		if len(nodes) >= limit {
			break
		}
		if needle != "" && !containsAnyWord(strings.ToLower(fact.text), needle) {
			continue
		}
		nodes = append(nodes, core.Node{
			UUID:    fact.nodeUUID,
			Name:    firstWords(fact.text, 4),
			Summary: fact.text,
			Labels:  []string{"Fact"},
		})
	}
	return nodes, nil
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// GetStats reports the episode count for the default group.
func (e *InMemoryEngine) GetStats(ctx context.Context) (core.Stats, error) {
	if err := ctx.Err(); err != nil {
		return core.Stats{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return core.Stats{}, ErrEngineClosed
	}
	return core.Stats{EpisodeCount: e.counts[e.groupID], GroupID: e.groupID}, nil
}

// Close releases the engine. Must be called exactly once; repeat calls
// return ErrEngineClosed.
func (e *InMemoryEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	e.closed = true
	e.facts = nil
	e.episodes = nil
	e.counts = nil
	return nil
}
