package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/hupe1980/memweave/core"
	"github.com/hupe1980/memweave/logging"
	"github.com/hupe1980/memweave/retrieval"
	"github.com/hupe1980/memweave/session"
)

// DefaultPreamble is the fixed instruction text prepended to every
// generation request.
const DefaultPreamble = "You are a helpful assistant with access to conversation history.\n" +
	"Use the provided context to give personalized and consistent responses.\n" +
	"Remember previous interactions and build upon them."

// Options configure an Orchestrator.
type Options struct {
	// GroupID partitions the memory space for both retrieval and flushes.
	GroupID string
	// FlushThreshold is the turn batch size converting buffered turns into
	// an episode.
	FlushThreshold int
	// RetrievalLimit is the retrieval fan-out, kept larger than the display
	// budget to leave dedup headroom.
	RetrievalLimit int
	// ContextBudget caps the number of facts rendered into the prompt.
	ContextBudget int
	// HistoryWindow bounds the raw recent turns included for short-term
	// continuity (6 turns = 3 exchanges).
	HistoryWindow int
	// Preamble overrides the fixed instruction text.
	Preamble string
	// Logger receives turn, retrieval and flush reports.
	Logger logging.Logger
	// Now supplies timestamps; overridable for tests.
	Now func() time.Time
}

// Orchestrator is the per-session memory orchestration pipeline: append the
// user turn, retrieve grounding context, build a generation prompt, append
// the assistant turn, flush when the batch policy fires.
type Orchestrator struct {
	userID        string
	generator     core.Generator
	retriever     *retrieval.Retriever
	buffer        *session.Buffer
	contextBudget int
	historyWindow int
	preamble      string
	logger        logging.Logger
}

// New constructs an Orchestrator for one user conversation. The engine handle
// is shared across sessions and injected explicitly; the orchestrator never
// reaches for global state.
func New(userID string, engine core.Engine, generator core.Generator, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		FlushThreshold: 4,
		RetrievalLimit: 10,
		ContextBudget:  5,
		HistoryWindow:  6,
		Preamble:       DefaultPreamble,
		Logger:         logging.NoOpLogger{},
		Now:            time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var groupIDs []string
	if opts.GroupID != "" {
		groupIDs = []string{opts.GroupID}
	}

	retriever := retrieval.New(engine, func(o *retrieval.Options) {
		o.Limit = opts.RetrievalLimit
		o.GroupIDs = groupIDs
		o.Logger = opts.Logger
	})

	buffer := session.NewBuffer(userID, engine, func(o *session.Options) {
		o.FlushThreshold = opts.FlushThreshold
		o.GroupID = opts.GroupID
		o.Logger = opts.Logger
		o.Now = opts.Now
	})

	return &Orchestrator{
		userID:        userID,
		generator:     generator,
		retriever:     retriever,
		buffer:        buffer,
		contextBudget: opts.ContextBudget,
		historyWindow: opts.HistoryWindow,
		preamble:      opts.Preamble,
		logger:        opts.Logger,
	}
}

// UserID returns the session owner.
func (o *Orchestrator) UserID() string { return o.userID }

// Turn processes one user input and returns the assistant output.
//
// Retrieval failures degrade to the no-context sentinel and never block the
// turn. Generation failures are fatal and returned as *core.GenerationError;
// the user turn stays buffered since the buffer is append-only. Deferred
// flush failures are logged and the turns stay eligible for the next flush.
func (o *Orchestrator) Turn(ctx context.Context, userInput string) (string, error) {
	if err := o.buffer.Append(core.NewUserMessage(userInput)); err != nil {
		return "", err
	}

	results := o.retriever.Retrieve(ctx, userInput)
	grounding := retrieval.FormatContext(results, o.contextBudget)
	if len(results) > 0 {
		o.logger.Debug("retrieved grounding context", "user_id", o.userID, "facts", len(results))
	}

	prompt := o.buildPrompt(grounding, userInput)

	start := time.Now()
	output, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		gErr := &core.GenerationError{Err: err}
		o.logger.Error("generation failed", "user_id", o.userID, "duration", time.Since(start), "error", gErr.Error())
		return "", gErr
	}

	if err := o.buffer.Append(core.NewAssistantMessage(output)); err != nil {
		return "", err
	}

	if o.buffer.FlushDue() {
		// Non-fatal: the buffer logs the failure and keeps the turns for
		// the next flush opportunity.
		_ = o.buffer.Flush(ctx)
	}

	return output, nil
}

// End forces a final flush of any unpersisted turns and closes the session.
// Further Turn calls return *core.StateError.
func (o *Orchestrator) End(ctx context.Context) error {
	return o.buffer.End(ctx)
}

// Unflushed reports how many turns have not yet been persisted.
func (o *Orchestrator) Unflushed() int { return o.buffer.Unflushed() }

// Ended reports whether the session has been closed via End.
func (o *Orchestrator) Ended() bool { return o.buffer.State() == session.StateEnded }

// buildPrompt combines the instruction preamble, the grounding text, a
// bounded window of recent raw turns and the new user input. The window
// excludes the just-appended user turn, which closes the prompt on its own
// line.
func (o *Orchestrator) buildPrompt(grounding, userInput string) string {
	recent := o.buffer.RecentTurns(o.historyWindow + 1)
	if len(recent) > 0 {
		recent = recent[:len(recent)-1]
	}

	var b strings.Builder
	b.WriteString(o.preamble)
	b.WriteString("\n\n")
	b.WriteString(grounding)
	b.WriteString("\n\nRecent conversation:\n")
	for _, msg := range recent {
		b.WriteString(msg.String())
		b.WriteByte('\n')
	}
	b.WriteString("\nUser: ")
	b.WriteString(userInput)
	b.WriteString("\nAssistant:")
	return b.String()
}
