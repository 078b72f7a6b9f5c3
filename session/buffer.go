package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/memweave/core"
	"github.com/hupe1980/memweave/logging"
)

// State tracks the buffer lifecycle: Empty until the first append, then
// Accumulating through flush cycles, Ended after End.
type State int

const (
	// StateEmpty is the initial state before any turn arrives.
	StateEmpty State = iota
	// StateAccumulating holds once at least one turn is buffered.
	StateAccumulating
	// StateEnded is terminal; an ended buffer rejects further appends.
	StateEnded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateAccumulating:
		return "accumulating"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Options configure a Buffer.
type Options struct {
	// FlushThreshold is the batch size in turns. A flush becomes due when
	// the unflushed count reaches an exact multiple of it.
	FlushThreshold int
	// GroupID partitions the memory space episodes are written to.
	GroupID string
	// Logger receives flush reports.
	Logger logging.Logger
	// Now supplies timestamps; overridable for tests.
	Now func() time.Time
}

// Buffer is the per-conversation ordered accumulation of turns. Turns are
// append-only: persistence never mutates or removes entries, it only advances
// the flush boundary. Safe for concurrent access, though within one session
// the orchestrator calls it strictly in turn order.
type Buffer struct {
	mu             sync.Mutex
	userID         string
	groupID        string
	engine         core.Engine
	flushThreshold int
	logger         logging.Logger
	now            func() time.Time

	turns          []core.Message
	lastFlushIndex int
	state          State
}

// NewBuffer constructs a Buffer for one (user, conversation) pair with
// optional overrides.
func NewBuffer(userID string, engine core.Engine, optFns ...func(o *Options)) *Buffer {
	opts := Options{
		FlushThreshold: 4,
		Logger:         logging.NoOpLogger{},
		Now:            time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.FlushThreshold < 2 {
		opts.FlushThreshold = 2
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Buffer{
		userID:         userID,
		groupID:        opts.GroupID,
		engine:         engine,
		flushThreshold: opts.FlushThreshold,
		logger:         opts.Logger,
		now:            opts.Now,
		state:          StateEmpty,
	}
}

// Append adds a turn to the buffer. Returns *core.StateError if the session
// has ended; the buffer is left unchanged in that case.
func (b *Buffer) Append(msg core.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateEnded {
		return &core.StateError{Op: "append", State: b.state.String()}
	}
	if !msg.Role.Valid() {
		return fmt.Errorf("unknown message role %q", msg.Role)
	}

	b.turns = append(b.turns, msg)
	b.state = StateAccumulating
	return nil
}

// State returns the current lifecycle state.
func (b *Buffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Len returns the total number of buffered turns, flushed boundary included.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.turns)
}

// Unflushed returns the number of turns accumulated since the last flush.
func (b *Buffer) Unflushed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.turns) - b.lastFlushIndex
}

// FlushDue reports whether the batch policy fires: the unflushed count has
// reached the threshold and is an exact multiple of it. The orchestrator
// evaluates this after every assistant append, which bounds persistence call
// frequency while limiting crash loss to one incomplete batch.
func (b *Buffer) FlushDue() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	unflushed := len(b.turns) - b.lastFlushIndex
	return unflushed >= b.flushThreshold && unflushed%b.flushThreshold == 0
}

// RecentTurns returns a defensive copy of the last n turns for short-term
// prompt continuity.
func (b *Buffer) RecentTurns(n int) []core.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n > len(b.turns) {
		n = len(b.turns)
	}
	if n <= 0 {
		return []core.Message{}
	}
	recent := make([]core.Message, n)
	copy(recent, b.turns[len(b.turns)-n:])
	return recent
}

// Flush packages all unflushed turns into an episode and submits it to the
// engine. Requires at least one full exchange (2 turns). On success the flush
// boundary advances; on failure it does not, so the same turns are retried on
// the next flush opportunity (at-least-once).
func (b *Buffer) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked(ctx, 2)
}

// End forces a final flush of any remaining turns regardless of the batch
// condition, then transitions to StateEnded. No turns are silently dropped:
// if the final flush fails the buffer stays accumulating so End can be
// retried.
func (b *Buffer) End(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateEnded {
		return &core.StateError{Op: "end", State: b.state.String()}
	}

	if len(b.turns)-b.lastFlushIndex > 0 {
		if err := b.flushLocked(ctx, 1); err != nil {
			return err
		}
	}

	b.state = StateEnded
	b.turns = nil
	b.lastFlushIndex = 0
	b.logger.Info("session ended", "user_id", b.userID)
	return nil
}

// flushLocked submits the unflushed tail as one episode; caller must hold the
// mutex. minTurns distinguishes the regular policy (a full exchange) from the
// forced final flush on End.
func (b *Buffer) flushLocked(ctx context.Context, minTurns int) error {
	unflushed := b.turns[b.lastFlushIndex:]
	if len(unflushed) < minTurns {
		return fmt.Errorf("flush requires at least %d buffered turns, have %d", minTurns, len(unflushed))
	}

	now := b.now().UTC()
	name := fmt.Sprintf("Session_%s_%s", b.userID, now.Format("20060102_150405"))
	episode, err := core.NewEpisode(
		unflushed,
		name,
		fmt.Sprintf("Conversation session for user %s", b.userID),
		b.groupID,
		now,
	)
	if err != nil {
		return err
	}

	start := b.now()
	if err := b.engine.AddEpisode(ctx, episode); err != nil {
		pErr := &core.PersistenceError{Episode: name, Err: err}
		b.logger.Error("episode flush failed", "episode", name, "turns", len(unflushed), "error", pErr.Error())
		return pErr
	}

	b.lastFlushIndex = len(b.turns)
	b.logger.Debug("episode flushed", "episode", name, "turns", len(unflushed), "duration", b.now().Sub(start))
	return nil
}
