// Package engine contains concrete core.Engine implementations. The Engine
// interface itself resides in the core package; depend on core.Engine in your
// code and select an implementation at wiring time.
//
// The in-memory engine below is a naive process-local stand-in for a real
// episodic memory service (graph construction, hybrid ranking and temporal
// validity tracking all live in such external services). It exists so tests,
// demos and local development do not need a running engine. Add real backends
// in sub-packages without changing any calling code.
package engine
