package core

import "fmt"

// RetrievalError wraps an engine-side search failure. It never crosses the
// orchestrator boundary: callers degrade to empty context and log it.
type RetrievalError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed for query %q: %v", e.Query, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RetrievalError) Unwrap() error { return e.Err }

// PersistenceError wraps an engine-side episode submission failure. The
// unflushed turns stay buffered and remain eligible for a later flush.
type PersistenceError struct {
	Episode string
	Err     error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed for episode %q: %v", e.Episode, e.Err)
}

// Unwrap returns the underlying cause.
func (e *PersistenceError) Unwrap() error { return e.Err }

// GenerationError wraps a response-generation failure. It is fatal to the
// current turn since no assistant output exists without it.
type GenerationError struct {
	Err error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error { return e.Err }

// StateError reports an operation attempted against a session in a state that
// forbids it (e.g. appending to an ended session). It indicates a programming
// error and is surfaced immediately.
type StateError struct {
	Op    string
	State string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("invalid operation %s in session state %s", e.Op, e.State)
}
