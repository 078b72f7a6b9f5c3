package core

import "time"

// SearchResult is a retrieved fact with provenance timestamps, returned by the
// engine's hybrid search. Values are read-only; Fact is the dedup key used by
// the retrieval layer.
type SearchResult struct {
	Fact           string     `json:"fact"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
	ValidAt        *time.Time `json:"valid_at,omitempty"`
	InvalidAt      *time.Time `json:"invalid_at,omitempty"`
	SourceNodeUUID string     `json:"source_node_uuid,omitempty"`
}

// Node is an entity surfaced by the engine's node search.
type Node struct {
	UUID       string         `json:"uuid"`
	Name       string         `json:"name"`
	Summary    string         `json:"summary"`
	Labels     []string       `json:"labels,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Stats summarizes the engine's stored state for one memory space.
type Stats struct {
	EpisodeCount int    `json:"episode_count"`
	GroupID      string `json:"group_id"`
}

// SearchConfig is the explicit search-recipe value object passed to
// Engine.SearchContext. Recognized options are enumerated fields; engines
// ignore what they do not support rather than dispatching on untyped keys.
type SearchConfig struct {
	// Limit caps the number of results returned by the engine.
	Limit int
	// GroupIDs scopes the search to one or more memory spaces. Empty means
	// the engine's default space.
	GroupIDs []string
}

// DefaultSearchConfig returns a baseline configuration with the given limit.
func DefaultSearchConfig(limit int) SearchConfig {
	return SearchConfig{Limit: limit}
}
