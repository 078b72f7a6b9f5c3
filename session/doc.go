// Package session implements the per-conversation turn buffer and its flush
// policy. A Buffer accumulates turns append-only, converts them into episodes
// in fixed-size batches aligned to user/assistant exchanges, and submits the
// batches to the memory engine with at-least-once semantics.
//
// The Episode type and the Engine interface live in the core package to keep
// domain contracts centralized; this package owns only the buffering state
// machine and the batching policy. Failed flushes leave the buffer untouched
// so the same turns stay eligible for the next flush attempt.
package session
