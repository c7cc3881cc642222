package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"estateflow/internal/collection"
	"estateflow/internal/model"
)

const (
	DefaultContextTurns = 4

	welcomeTurnID  = "welcome"
	welcomeMessage = "👋 Hi! I'm your AI property assistant. I can help you find properties, answer questions, and provide recommendations. Try asking me something like 'Show me 3-bedroom apartments' or 'What's available in Dubai Marina?'"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a message is already being sent")
)

// AssistantState is the submission state machine:
// Idle -> Sending -> {Responded | Failed} -> Idle, plus Idle -> Resetting ->
// Idle while the transcript is cleared.
type AssistantState int

const (
	StateIdle AssistantState = iota
	StateSending
	StateResponded
	StateFailed
	StateResetting
)

func (s AssistantState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateResponded:
		return "responded"
	case StateFailed:
		return "failed"
	case StateResetting:
		return "resetting"
	}
	return "unknown"
}

// ChatObserver receives one outcome per finished submission.
type ChatObserver interface {
	ObserveChat(outcome string)
}

type noopChatObserver struct{}

func (noopChatObserver) ObserveChat(string) {}

// Assistant orchestrates chat submissions: it records turns in the
// transcript, calls the conversation service and attaches catalog matches to
// the reply.
type Assistant struct {
	transcript   *collection.Transcript
	catalog      *Catalog
	conversation Conversation
	extractor    *Extractor
	observer     ChatObserver
	logger       *slog.Logger
	newID        func() string
	now          func() time.Time
	contextTurns int
	maxResults   int

	mu    sync.Mutex
	state AssistantState

	subMu   sync.Mutex
	subs    map[int]func(model.ChatState)
	nextSub int
}

// AssistantOption configures an Assistant.
type AssistantOption func(*Assistant)

func WithAssistantLogger(l *slog.Logger) AssistantOption {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithChatObserver(o ChatObserver) AssistantOption {
	return func(a *Assistant) {
		if o != nil {
			a.observer = o
		}
	}
}

func WithExtractor(e *Extractor) AssistantOption {
	return func(a *Assistant) {
		if e != nil {
			a.extractor = e
		}
	}
}

// WithContextTurns sets how many earlier turns are sent with each prompt.
func WithContextTurns(n int) AssistantOption {
	return func(a *Assistant) {
		if n >= 0 {
			a.contextTurns = n
		}
	}
}

// WithMaxResults caps the number of properties attached to a reply.
func WithMaxResults(n int) AssistantOption {
	return func(a *Assistant) {
		if n > 0 {
			a.maxResults = n
		}
	}
}

// WithClock overrides the id generator and clock used for new turns.
func WithClock(newID func() string, now func() time.Time) AssistantOption {
	return func(a *Assistant) {
		if newID != nil {
			a.newID = newID
		}
		if now != nil {
			a.now = now
		}
	}
}

// NewAssistant creates an idle assistant.
func NewAssistant(transcript *collection.Transcript, catalog *Catalog, conversation Conversation, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		transcript:   transcript,
		catalog:      catalog,
		conversation: conversation,
		extractor:    NewExtractor(),
		observer:     noopChatObserver{},
		logger:       slog.Default(),
		newID:        uuid.NewString,
		now:          time.Now,
		contextTurns: DefaultContextTurns,
		maxResults:   DefaultResultLimit,
		state:        StateIdle,
		subs:         map[int]func(model.ChatState){},
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "assistant")
	return a
}

// Submit sends one user message and returns the assistant turn it produced.
// A conversation failure is not returned as an error: it becomes the
// returned assistant turn, whose content names the failure category.
//
// Submit ignores cancellation of ctx: once accepted, a message runs to a
// reply or a failure turn and both turns are persisted.
func (a *Assistant) Submit(ctx context.Context, text string) (model.Turn, error) {
	ctx = context.WithoutCancel(ctx)
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Turn{}, ErrEmptyMessage
	}
	if err := a.begin(); err != nil {
		a.observer.ObserveChat("busy")
		return model.Turn{}, err
	}
	defer a.settle()

	history := a.transcript.Recent(a.contextTurns)
	a.transcript.Append(ctx, model.Turn{
		ID:        a.newID(),
		Role:      model.RoleUser,
		Content:   text,
		Timestamp: a.now(),
	})

	catalog := a.catalog.Snapshot()
	prompt := BuildPrompt(ComputeStats(catalog), history, text)

	reply, err := a.conversation.Converse(ctx, prompt)
	if err != nil {
		a.transition(StateFailed)
		category := FailureCategory(err)
		a.logger.Warn("conversation failed", "category", category, "error", err)
		a.observer.ObserveChat(category)

		turn := model.Turn{
			ID:        a.newID(),
			Role:      model.RoleAssistant,
			Content:   FailureMessage(err),
			Timestamp: a.now(),
		}
		a.transcript.Append(ctx, turn)
		return turn, nil
	}

	a.transition(StateResponded)
	intent := a.extractor.Extract(text, reply)
	matches := Decide(intent, catalog, a.maxResults)
	a.observer.ObserveChat("ok")
	a.logger.Debug("conversation reply",
		"matched_rules", intent.Matched,
		"search_requested", intent.SearchRequested,
		"properties", len(matches),
	)

	turn := model.Turn{
		ID:         a.newID(),
		Role:       model.RoleAssistant,
		Content:    reply,
		Timestamp:  a.now(),
		Properties: matches,
	}
	a.transcript.Append(ctx, turn)
	return turn, nil
}

// Greet appends the welcome turn when the transcript is empty. It reports
// whether a turn was added.
func (a *Assistant) Greet(ctx context.Context) bool {
	if a.transcript.Len() > 0 {
		return false
	}
	a.transcript.Append(context.WithoutCancel(ctx), model.Turn{
		ID:        welcomeTurnID,
		Role:      model.RoleAssistant,
		Content:   welcomeMessage,
		Timestamp: a.now(),
	})
	return true
}

// Reset clears the transcript. It fails with ErrBusy while a message is in
// flight, and submissions are refused with ErrBusy until the clear is done.
func (a *Assistant) Reset(ctx context.Context) error {
	a.mu.Lock()
	if a.state != StateIdle {
		a.mu.Unlock()
		return ErrBusy
	}
	a.state = StateResetting
	a.mu.Unlock()
	defer a.settle()

	a.transcript.Clear(context.WithoutCancel(ctx))
	return nil
}

// State returns the current submission state.
func (a *Assistant) State() AssistantState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Typing reports whether a reply is pending.
func (a *Assistant) Typing() bool {
	return a.State().typing()
}

// Snapshot returns the transcript together with the typing state.
func (a *Assistant) Snapshot() model.ChatState {
	state := a.State()
	return model.ChatState{
		Turns:  a.transcript.Turns(),
		Typing: state.typing(),
		State:  state.String(),
	}
}

func (s AssistantState) typing() bool {
	return s == StateSending || s == StateResponded || s == StateFailed
}

// Subscribe registers fn to receive the chat state after every transcript
// change and state transition. The returned function removes the
// subscription.
func (a *Assistant) Subscribe(fn func(model.ChatState)) func() {
	a.subMu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	a.subMu.Unlock()

	unsubTranscript := a.transcript.Subscribe(func([]model.Turn) { fn(a.Snapshot()) })
	return func() {
		unsubTranscript()
		a.subMu.Lock()
		defer a.subMu.Unlock()
		delete(a.subs, id)
	}
}

// begin moves Idle -> Sending.
func (a *Assistant) begin() error {
	a.mu.Lock()
	if a.state != StateIdle {
		a.mu.Unlock()
		return ErrBusy
	}
	a.state = StateSending
	a.mu.Unlock()
	a.publish()
	return nil
}

// transition moves Sending -> Responded or Sending -> Failed.
func (a *Assistant) transition(to AssistantState) {
	a.mu.Lock()
	if a.state == StateSending {
		a.state = to
	}
	a.mu.Unlock()
}

// settle returns to Idle from any state.
func (a *Assistant) settle() {
	a.mu.Lock()
	a.state = StateIdle
	a.mu.Unlock()
	a.publish()
}

func (a *Assistant) publish() {
	a.subMu.Lock()
	fns := make([]func(model.ChatState), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.subMu.Unlock()

	if len(fns) == 0 {
		return
	}
	snapshot := a.Snapshot()
	for _, fn := range fns {
		fn(snapshot)
	}
}
