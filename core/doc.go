// Package core provides the foundational domain types, interfaces and error
// taxonomy used by MemWeave. It defines the core abstractions for:
//
//   - Messages (immutable conversational turns with a closed role set)
//   - Episodes (named, timestamped batches of turns submitted for storage)
//   - Search results and entity nodes returned by the memory engine
//   - The Engine interface consumed for persistence and retrieval
//   - The Generator interface consumed for response generation
//
// The package intentionally keeps implementation concerns (engine backends,
// orchestration, buffering policy) out of scope, exposing small interfaces to
// enable custom backends and extensions. Higher level packages depend on
// core.Engine and core.Generator; concrete implementations are selected at
// wiring time.
package core
