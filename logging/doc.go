// Package logging provides a minimal logging interface and adapters for MemWeave.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) used across the orchestration pipeline for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - MemWeaveLogger with contextual helpers (component, user, group) and
//     domain specific helpers for retrieval, flush and generation calls
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	orch := orchestrator.New("user_001", eng, gen, func(o *orchestrator.Options) {
//		o.Logger = logger
//	})
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
