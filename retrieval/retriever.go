package retrieval

import (
	"context"
	"strings"
	"time"

	"github.com/hupe1980/memweave/core"
	"github.com/hupe1980/memweave/logging"
)

// Options configure a Retriever.
type Options struct {
	// Limit caps the number of results returned after dedup.
	Limit int
	// Dedup collapses results sharing the same trimmed fact text.
	Dedup bool
	// FanOutFactor multiplies Limit on the engine request when dedup is
	// enabled, compensating for collapsed duplicates.
	FanOutFactor int
	// GroupIDs scopes every search to the given memory spaces.
	GroupIDs []string
	// Logger receives best-effort failure reports.
	Logger logging.Logger
}

// Retriever queries the memory engine for facts relevant to a query string.
// Retrieval is best-effort: failures are logged and an empty slice is
// returned so the enclosing conversation turn never aborts.
type Retriever struct {
	engine       core.Engine
	limit        int
	dedup        bool
	fanOutFactor int
	groupIDs     []string
	logger       logging.Logger
}

// New constructs a Retriever with optional overrides.
func New(engine core.Engine, optFns ...func(o *Options)) *Retriever {
	opts := Options{
		Limit:        10,
		Dedup:        true,
		FanOutFactor: 2,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Limit < 1 {
		opts.Limit = 1
	}
	if opts.FanOutFactor < 1 {
		opts.FanOutFactor = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Retriever{
		engine:       engine,
		limit:        opts.Limit,
		dedup:        opts.Dedup,
		fanOutFactor: opts.FanOutFactor,
		groupIDs:     opts.GroupIDs,
		logger:       opts.Logger,
	}
}

// Retrieve returns at most the configured limit of facts for the query,
// preserving the engine's relative order. No local re-ranking is performed.
func (r *Retriever) Retrieve(ctx context.Context, query string) []core.SearchResult {
	fetch := r.limit
	if r.dedup {
		fetch = r.limit * r.fanOutFactor
	}

	start := time.Now()
	results, err := r.engine.SearchContext(ctx, query, core.SearchConfig{Limit: fetch, GroupIDs: r.groupIDs})
	if err != nil {
		rErr := &core.RetrievalError{Query: query, Err: err}
		r.logger.Error("context retrieval failed", "query", query, "duration", time.Since(start), "error", rErr.Error())
		return []core.SearchResult{}
	}

	if !r.dedup {
		if len(results) > r.limit {
			results = results[:r.limit]
		}
		return results
	}

	seen := make(map[string]struct{}, len(results))
	deduped := make([]core.SearchResult, 0, r.limit)
	for _, result := range results {
		fact := strings.TrimSpace(result.Fact)
		if fact == "" {
			continue
		}
		if _, ok := seen[fact]; ok {
			continue
		}
		seen[fact] = struct{}{}
		deduped = append(deduped, result)
		if len(deduped) == r.limit {
			break
		}
	}

	r.logger.Debug("context retrieved", "query", query, "raw", len(results), "deduped", len(deduped), "duration", time.Since(start))
	return deduped
}

// RetrieveNodes returns entities relevant to the query with the same
// best-effort semantics as Retrieve.
func (r *Retriever) RetrieveNodes(ctx context.Context, query string, limit int) []core.Node {
	nodes, err := r.engine.SearchNodes(ctx, query, limit)
	if err != nil {
		rErr := &core.RetrievalError{Query: query, Err: err}
		r.logger.Error("node retrieval failed", "query", query, "error", rErr.Error())
		return []core.Node{}
	}
	return nodes
}
