// Package memweave provides a high-level façade over the session-memory
// orchestration pipeline (buffering, retrieval, context assembly & flushing)
// enabling rapid construction of conversational agents with long-term memory.
// Most applications interact with this package by:
//  1. Creating a MemWeave via New() with a response generator (optionally
//     overriding the default in-memory engine)
//  2. Opening one session per (user, conversation) pair via Session()
//  3. Driving turns through Orchestrator.Turn and ending sessions explicitly
//
// The façade delegates per-turn work to orchestrator.Orchestrator while
// keeping setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments supply a durable engine
// implementation and a structured logger.
package memweave

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/memweave/core"
	"github.com/hupe1980/memweave/engine"
	"github.com/hupe1980/memweave/logging"
	"github.com/hupe1980/memweave/orchestrator"
)

// Options configures the MemWeave instance.
type Options struct {
	// Engine is the episodic memory collaborator shared by all sessions.
	// Defaults to the in-memory engine if not provided.
	Engine core.Engine

	// GroupID partitions the memory space for all sessions opened through
	// this instance.
	GroupID string

	// FlushThreshold is the per-session turn batch size.
	FlushThreshold int

	// RetrievalLimit is the retrieval fan-out per turn.
	RetrievalLimit int

	// ContextBudget caps the facts rendered into each prompt.
	ContextBudget int

	// HistoryWindow bounds the raw recent turns included per prompt.
	HistoryWindow int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// MemWeave is the high-level façade aggregating the shared engine handle and
// per-user session orchestrators.
type MemWeave struct {
	opts      Options
	generator core.Generator

	mu       sync.Mutex
	sessions map[string]*orchestrator.Orchestrator
	closed   bool
}

// New creates a new MemWeave instance with optional overrides. The engine
// defaults to an in-memory implementation; the generator is required since
// no response exists without one.
func New(generator core.Generator, optFns ...func(o *Options)) *MemWeave {
	opts := Options{
		FlushThreshold: 4,
		RetrievalLimit: 10,
		ContextBudget:  5,
		HistoryWindow:  6,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Engine == nil {
		groupID := opts.GroupID
		if groupID == "" {
			groupID = "default"
		}
		opts.Engine = engine.NewInMemory(func(o *engine.Options) { o.GroupID = groupID })
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &MemWeave{
		opts:      opts,
		generator: generator,
		sessions:  make(map[string]*orchestrator.Orchestrator),
	}
}

// Session returns the orchestrator for the given user, creating it on first
// interaction. A fresh session is created if the previous one ended.
func (m *MemWeave) Session(userID string) (*orchestrator.Orchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("memweave is closed")
	}

	if orch, ok := m.sessions[userID]; ok && !orch.Ended() {
		return orch, nil
	}

	orch := orchestrator.New(userID, m.opts.Engine, m.generator, func(o *orchestrator.Options) {
		o.GroupID = m.opts.GroupID
		o.FlushThreshold = m.opts.FlushThreshold
		o.RetrievalLimit = m.opts.RetrievalLimit
		o.ContextBudget = m.opts.ContextBudget
		o.HistoryWindow = m.opts.HistoryWindow
		o.Logger = m.opts.Logger
	})
	m.sessions[userID] = orch
	return orch, nil
}

// EndSession flushes and closes the user's session. The session handle is
// discarded so a later Session call starts a fresh buffer.
func (m *MemWeave) EndSession(ctx context.Context, userID string) error {
	m.mu.Lock()
	orch, ok := m.sessions[userID]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("no session for user %q", userID)
	}
	if err := orch.End(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return nil
}

// Stats reports the engine's stored state.
func (m *MemWeave) Stats(ctx context.Context) (core.Stats, error) {
	return m.opts.Engine.GetStats(ctx)
}

// Close releases the engine handle. Must be called exactly once, after all
// sessions relying on it have ended; repeat calls return an error.
func (m *MemWeave) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("memweave already closed")
	}
	m.closed = true
	return m.opts.Engine.Close()
}
