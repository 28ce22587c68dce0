package concierge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kevinbrodzinski/nightlife/itinerary"
	"github.com/kevinbrodzinski/nightlife/llm"
	"github.com/kevinbrodzinski/nightlife/venue"
)

var (
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrStaleReply means a newer send superseded this one; its reply was dropped.
	ErrStaleReply = errors.New("reply superseded by a newer message")
	// ErrAgent wraps a failed agent call.
	ErrAgent = errors.New("concierge agent failed")
	// ErrUnknownVenue is returned by AddSuggestion for an id not in the catalog.
	ErrUnknownVenue = errors.New("unknown venue")
)

// Canned messages shown without consulting the agent.
const (
	MsgEmptyPlan = "Your plan is currently empty. Let's add some stops!"
)

const (
	// DefaultHistoryLimit is how many prior chat entries accompany a send.
	DefaultHistoryLimit = 20
	// Capability is the model registry entry the session calls.
	Capability = "concierge"
)

// Role is who wrote a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one visible chat entry.
type Message struct {
	ID          string
	Role        Role
	Text        string
	Action      Action
	Suggestions []venue.Processed
	Loading     bool
	IsError     bool
	Timestamp   time.Time
	Turn        uint64
}

// Catalog supplies the raw venue list. *venue.Catalog implements it.
type Catalog interface {
	Load(ctx context.Context) ([]venue.Venue, error)
}

// Recorder is told how each agent call ended and which interpreter
// fallback was taken.
type Recorder interface {
	ObserveAgentReply(outcome string)
	ObserveFallback(reason string)
}

// Agent call outcomes reported to the Recorder.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// Session is one conversation driving a planner.
type Session struct {
	client  llm.Completer
	planner *itinerary.Planner
	catalog Catalog

	persona      string
	historyLimit int
	temperature  *float64
	recorder     Recorder
	logger       *slog.Logger
	now          func() time.Time

	mu       sync.Mutex
	turn     uint64
	messages []Message
	history  []llm.Message
}

// Option configures a Session.
type Option func(*Session)

// WithPersona sets the agent's name.
func WithPersona(name string) Option {
	return func(s *Session) {
		if name != "" {
			s.persona = name
		}
	}
}

// WithHistoryLimit bounds the prior entries sent with each message. Odd
// limits round down to whole exchanges.
func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithTemperature sets the sampling temperature for agent calls.
func WithTemperature(t float64) Option {
	return func(s *Session) { s.temperature = &t }
}

// WithRecorder reports outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the message timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession starts a conversation with the greeting for the planner's date.
func NewSession(client llm.Completer, planner *itinerary.Planner, catalog Catalog, opts ...Option) *Session {
	s := &Session{
		client:       client,
		planner:      planner,
		catalog:      catalog,
		persona:      DefaultPersona,
		historyLimit: DefaultHistoryLimit,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset(Greeting(s.persona, planner.Context().Date))
	return s
}

// Persona returns the agent's name.
func (s *Session) Persona() string { return s.persona }

// Planner returns the planner the session mutates.
func (s *Session) Planner() *itinerary.Planner { return s.planner }

// Messages returns a copy of the visible conversation.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Reset clears the conversation and posts greeting. A reply still in flight
// is discarded when it arrives.
func (s *Session) Reset(greeting string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turn++
	s.history = nil
	s.messages = []Message{s.agentMessage(Clarify{greeting}, s.turn)}
}

// Post appends a local agent message without calling the agent.
func (s *Session) Post(a Action) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.agentMessage(a, s.turn)
	s.messages = append(s.messages, msg)
	return msg
}

// Send posts a user message and returns the agent's reply.
func (s *Session) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	return s.exchange(ctx, text, true)
}

// SendSystem sends a context update to the agent without a visible user
// message.
func (s *Session) SendSystem(ctx context.Context, text string) (Message, error) {
	return s.exchange(ctx, text, false)
}

// AddSuggestion adds a suggested venue as the next stop, labelled by its
// category, and tells the agent. A full plan posts a local notice instead.
func (s *Session) AddSuggestion(ctx context.Context, venueID, prompt string) (Message, error) {
	pctx := s.planner.Context()
	venues, err := s.currentVenues(ctx, pctx)
	if err != nil {
		return Message{}, err
	}
	idx := slices.IndexFunc(venues, func(v venue.Processed) bool { return v.ID == venueID })
	if idx < 0 {
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownVenue, venueID)
	}
	v := venues[idx]

	if s.planner.Full() {
		return s.Post(ShowPlan{fmt.Sprintf(
			"Your plan has %d stops, which is the maximum. Shall we view the plan now?",
			s.planner.Builder().MaxStops())}), nil
	}

	if _, err := s.planner.Add(v, v.Category, prompt); err != nil {
		return Message{}, err
	}
	return s.SendSystem(ctx, AddedUpdate(v, pctx, prompt, s.planner.Len()))
}

// exchange runs one agent turn. The call is made without holding the lock so
// a newer send can supersede it.
func (s *Session) exchange(ctx context.Context, text string, visible bool) (Message, error) {
	pctx := s.planner.Context()

	s.mu.Lock()
	s.turn++
	turn := s.turn
	if visible {
		s.messages = append(s.messages, Message{
			ID: uuid.NewString(), Role: RoleUser, Text: text, Timestamp: s.now(), Turn: turn,
		})
	}
	placeholder := Message{
		ID: uuid.NewString(), Role: RoleAgent, Text: s.persona + " is thinking...",
		Loading: true, Timestamp: s.now(), Turn: turn,
	}
	s.messages = append(s.messages, placeholder)
	req := llm.Request{
		Capability:  Capability,
		Messages:    s.requestMessages(pctx, text),
		Temperature: s.temperature,
	}
	s.mu.Unlock()

	resp, err := s.client.Complete(ctx, req)

	var msg Message
	var raw string
	if err != nil {
		s.logger.Warn("Concierge agent call failed", "turn", turn, "error", err)
		msg = s.agentMessage(ErrorMisunderstood{
			fmt.Sprintf("Sorry, I encountered a problem: %s. Please try again.", err.Error()),
		}, turn)
		msg.IsError = true
		err = fmt.Errorf("%w: %w", ErrAgent, err)
	} else {
		raw = resp.Content
		action, fallback := Decode(raw)
		if fallback != FallbackNone {
			s.logger.Debug("Agent reply needed a fallback", "turn", turn, "reason", fallback)
			s.fallback(fallback)
		}
		msg = s.handle(ctx, action, pctx, turn)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if turn != s.turn {
		s.removeMessage(placeholder.ID)
		s.outcome(OutcomeStale)
		s.logger.Debug("Dropped stale agent reply", "turn", turn, "latest", s.turn)
		return Message{}, ErrStaleReply
	}

	s.replaceMessage(placeholder.ID, msg)
	if err != nil {
		s.outcome(OutcomeError)
		return msg, err
	}
	s.history = append(s.history,
		llm.Message{Role: "user", Content: text},
		llm.Message{Role: "assistant", Content: raw},
	)
	s.outcome(OutcomeOK)
	return msg, nil
}

// handle applies one interpreted action. Every variant has a case.
func (s *Session) handle(ctx context.Context, a Action, pctx venue.Context, turn uint64) Message {
	switch a := a.(type) {
	case FilterVenues:
		return s.handleFilter(ctx, a, pctx, turn)
	case ShowPlan, CompletePlan:
		if s.planner.Len() == 0 {
			return s.agentMessage(Clarify{MsgEmptyPlan}, turn)
		}
		return s.agentMessage(a, turn)
	case Clarify, AskNext, ErrorMisunderstood, NoVenuesFound:
		return s.agentMessage(a, turn)
	default:
		return s.agentMessage(ErrorMisunderstood{MsgStructureMismatch}, turn)
	}
}

func (s *Session) handleFilter(ctx context.Context, a FilterVenues, pctx venue.Context, turn uint64) Message {
	venues, err := s.currentVenues(ctx, pctx)
	if err != nil {
		s.logger.Warn("Venue catalog unavailable for suggestions", "error", err)
		msg := s.agentMessage(ErrorMisunderstood{
			fmt.Sprintf("Sorry, I encountered a problem: %s. Please try again.", err.Error()),
		}, turn)
		msg.IsError = true
		return msg
	}

	suggested := Suggest(venues, a.Keywords)
	if len(suggested) == 0 {
		return s.agentMessage(NoVenuesFound{fmt.Sprintf(
			"Hmm, I couldn't find exactly that for %s. How about we try a different vibe or activity?",
			venue.ShortDate(pctx.Date))}, turn)
	}
	msg := s.agentMessage(a, turn)
	msg.Suggestions = suggested
	return msg
}

func (s *Session) currentVenues(ctx context.Context, pctx venue.Context) ([]venue.Processed, error) {
	raw, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, err
	}
	return venue.Process(raw, pctx)
}

// requestMessages builds system instruction, bounded history, then text.
// Caller holds s.mu.
func (s *Session) requestMessages(pctx venue.Context, text string) []llm.Message {
	// History holds user/assistant pairs; cut on a pair boundary so the
	// first turn after the system prompt is always the user's.
	history := s.history
	if keep := s.historyLimit - s.historyLimit%2; len(history) > keep {
		history = history[len(history)-keep:]
	}
	out := make([]llm.Message, 0, len(history)+2)
	out = append(out, llm.Message{Role: "system", Content: SystemInstruction(PromptParams{
		Persona:   s.persona,
		Day:       venue.LongDate(pctx.Date),
		TimeLabel: pctx.HourLabel(),
		MaxStops:  s.planner.Builder().MaxStops(),
	})})
	out = append(out, history...)
	return append(out, llm.Message{Role: "user", Content: text})
}

func (s *Session) agentMessage(a Action, turn uint64) Message {
	return Message{
		ID: uuid.NewString(), Role: RoleAgent, Text: a.Text(), Action: a,
		Timestamp: s.now(), Turn: turn,
	}
}

func (s *Session) replaceMessage(id string, msg Message) {
	if i := slices.IndexFunc(s.messages, func(m Message) bool { return m.ID == id }); i >= 0 {
		s.messages[i] = msg
		return
	}
	s.messages = append(s.messages, msg)
}

func (s *Session) removeMessage(id string) {
	s.messages = slices.DeleteFunc(s.messages, func(m Message) bool { return m.ID == id })
}

func (s *Session) outcome(o string) {
	if s.recorder != nil {
		s.recorder.ObserveAgentReply(o)
	}
}

func (s *Session) fallback(f Fallback) {
	if s.recorder != nil {
		s.recorder.ObserveFallback(string(f))
	}
}
