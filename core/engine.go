package core

import "context"

// Engine is the external episodic memory collaborator. It ingests episodes,
// extracts entities and relationships, and answers semantic plus lexical
// search queries over them. All the heavy lifting (graph construction, hybrid
// ranking, temporal edge invalidation) happens behind this interface.
//
// The handle is acquired once at construction and released exactly once via
// Close; calling any other method after Close is an error. Implementations
// must be safe for concurrent use across sessions.
type Engine interface {
	// AddEpisode persists a single episode. Failures surface as
	// *PersistenceError.
	AddEpisode(ctx context.Context, episode Episode) error

	// AddEpisodes persists a batch with at-least-once semantics; partial
	// success behavior is engine-defined.
	AddEpisodes(ctx context.Context, episodes []Episode) error

	// SearchContext returns facts relevant to the query, ranked by the
	// engine, scoped to the config's group ids.
	SearchContext(ctx context.Context, query string, cfg SearchConfig) ([]SearchResult, error)

	// SearchNodes returns entities relevant to the query.
	SearchNodes(ctx context.Context, query string, limit int) ([]Node, error)

	// GetStats reports stored episode counts for the engine's memory space.
	GetStats(ctx context.Context) (Stats, error)

	// Close releases the engine connection. Must be called exactly once;
	// repeat calls return an error.
	Close() error
}

// Generator is the external response-generation collaborator. Failures
// surface as *GenerationError and are fatal to the enclosing turn.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
