// ABOUTME: ConversationSession: owns the chat thread id lifecycle and mediates message exchanges
// ABOUTME: Reconciles persisted, page-embedded and server-issued thread ids; emits display events

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/coven-chat/internal/chatapi"
	"github.com/2389/coven-chat/internal/store"
)

// Session errors. Both are returned without rendering anything or issuing a
// request.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a request is already in flight")
)

// State is the session's position in its lifecycle.
type State int

// Session states
const (
	StateUninitialized State = iota
	StateResolving
	StateIdle
	StateSending
	StateResettingThread
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateResolving:
		return "resolving"
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateResettingThread:
		return "resetting_thread"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// busy reports whether a request is in flight in this state.
func (s State) busy() bool {
	return s == StateResolving || s == StateSending || s == StateResettingThread
}

// API is the subset of the backend client a Session uses.
type API interface {
	GetHistory(ctx context.Context, threadID, chatbotType string) (*chatapi.HistoryResponse, error)
	SendMessage(ctx context.Context, req chatapi.SendMessageRequest) (*chatapi.SendMessageResponse, error)
	NewUser(ctx context.Context, chatbotType string) (*chatapi.NewUserResponse, error)
}

// Config holds per-session settings and display texts.
type Config struct {
	ChatbotType string

	// EmbeddedThreadID is the id the hosting page carried. It takes precedence
	// over the persisted id during Resolve.
	EmbeddedThreadID string

	DefaultName   string // human label before the server reports one
	AnonymousName string // human label after StartNew; never adopted from history
	AssistantName string

	Greeting          string
	NewThreadGreeting string
	HistoryError      string
	SendError         string
	ErrorPrefix       string // prefix for application-reported errors
	NewThreadError    string // prefix for StartNew failures

	// KickoffMessage, when set, is posted to the new thread right after
	// StartNew succeeds. It is not rendered.
	KickoffMessage string

	// Markdown marks assistant replies for markdown rendering.
	Markdown bool
}

// DefaultConfig returns the stock texts.
func DefaultConfig() Config {
	return Config{
		DefaultName:       "Usuário",
		AnonymousName:     "Usuário Anônimo",
		AssistantName:     "Assistente IA",
		Greeting:          "Hello! How can I help you today?",
		NewThreadGreeting: "Hello! Please tell me your name so we can get started.",
		HistoryError:      "Failed to load history. Please reload.",
		SendError:         "Something went wrong while processing your message. Please try again.",
		ErrorPrefix:       "Error: ",
		NewThreadError:    "Failed to start a new conversation: ",
		Markdown:          true,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&c.DefaultName, d.DefaultName)
	fill(&c.AnonymousName, d.AnonymousName)
	fill(&c.AssistantName, d.AssistantName)
	fill(&c.Greeting, d.Greeting)
	fill(&c.NewThreadGreeting, d.NewThreadGreeting)
	fill(&c.HistoryError, d.HistoryError)
	fill(&c.SendError, d.SendError)
	fill(&c.ErrorPrefix, d.ErrorPrefix)
	fill(&c.NewThreadError, d.NewThreadError)
	return c
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l.With("component", "session")
		}
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator overrides how entry and placeholder ids are made.
func WithIDGenerator(gen func() string) Option {
	return func(s *Session) { s.newID = gen }
}

// Session is a single conversation with the backend. Create one per run with
// New, call Resolve once, then Send and StartNew as the user acts.
//
// At most one request is in flight: Send and StartNew return ErrBusy while
// Resolve, Send or StartNew is running.
type Session struct {
	api    API
	store  store.Store
	sink   Sink
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu          sync.Mutex
	state       State
	threadID    string
	displayName string
}

// New creates a session. A nil sink discards events.
func New(api API, st store.Store, sink Sink, cfg Config, opts ...Option) *Session {
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	cfg = cfg.withDefaults()

	s := &Session{
		api:         api,
		store:       st,
		sink:        sink,
		cfg:         cfg,
		logger:      slog.Default().With("component", "session"),
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
		state:       StateUninitialized,
		displayName: cfg.DefaultName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ThreadID returns the active thread id ("" before one is known).
func (s *Session) ThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadID
}

// DisplayName returns the human participant's current label.
func (s *Session) DisplayName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayName
}

// ChatbotType returns the assistant configuration this session talks to.
func (s *Session) ChatbotType() string {
	return s.cfg.ChatbotType
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending reports whether a request is in flight.
func (s *Session) Pending() bool {
	return s.State().busy()
}

// begin moves into a busy state, or returns ErrBusy.
func (s *Session) begin(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.busy() {
		return ErrBusy
	}
	s.state = next
	return nil
}

func (s *Session) finish() {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

// Resolve establishes the thread id and renders its history.
//
// The page-embedded id wins over the persisted one. The server may answer
// with its own thread_id, which then wins over both. An empty or
// error-bearing history renders one greeting; a failed request renders one
// error notice and the error is returned for diagnostics only.
func (s *Session) Resolve(ctx context.Context) error {
	if err := s.begin(StateResolving); err != nil {
		return err
	}
	defer s.finish()

	persisted := s.readPersisted(ctx)
	candidate := s.cfg.EmbeddedThreadID
	if candidate == "" {
		candidate = persisted
	}
	history, err := s.api.GetHistory(ctx, candidate, s.cfg.ChatbotType)
	if err != nil {
		// keep the candidate so a later Send still targets it
		s.mu.Lock()
		s.threadID = candidate
		s.mu.Unlock()
		s.logger.Error("failed to load history", "error", err, "thread_id", candidate)
		s.notice(EntryError, s.cfg.HistoryError)
		return fmt.Errorf("resolving session: %w", err)
	}

	resolved := candidate
	if history.ThreadID != "" {
		resolved = history.ThreadID
	}
	if resolved != "" {
		s.adoptThread(ctx, resolved, persisted)
	}

	if history.Error != "" || len(history.Messages) == 0 {
		if history.Error != "" {
			s.logger.Warn("history returned an error, treating as empty", "error", history.Error)
		}
		s.notice(EntryGreeting, s.cfg.Greeting)
		return nil
	}

	s.emit(Event{Type: EventTranscriptCleared})
	startName := s.DisplayName()
	for _, msg := range history.Messages {
		switch msg.Role {
		case chatapi.RoleUser:
			sender := msg.UserName
			if sender == "" {
				sender = s.DisplayName()
			}
			s.appendEntry(EntryHuman, sender, msg.Content, msg.Time(), false)
			if msg.UserName != "" && msg.UserName != s.cfg.AnonymousName {
				s.mu.Lock()
				s.displayName = msg.UserName
				s.mu.Unlock()
			}
		case chatapi.RoleAssistant:
			s.appendEntry(EntryAssistant, s.cfg.AssistantName, msg.Content, msg.Time(), s.cfg.Markdown)
		default:
			s.logger.Debug("skipping history message with unknown role", "role", msg.Role)
		}
	}

	// Entries rendered before the name appeared in the history get relabeled.
	if name := s.DisplayName(); name != startName {
		s.emit(Event{Type: EventDisplayNameChanged, DisplayName: name})
	}
	return nil
}

// Send posts text to the active thread.
//
// Blank text returns ErrEmptyMessage and a call while another request is in
// flight returns ErrBusy; neither renders anything. Otherwise the outgoing
// message, an input clear and a loading placeholder are emitted before the
// request is made. Failures render one error notice and are returned for
// diagnostics.
func (s *Session) Send(ctx context.Context, text string) error {
	message := strings.TrimSpace(text)
	if message == "" {
		return ErrEmptyMessage
	}
	if err := s.begin(StateSending); err != nil {
		return err
	}
	defer s.finish()

	s.mu.Lock()
	name, threadID := s.displayName, s.threadID
	s.mu.Unlock()

	s.appendEntry(EntryHuman, name, message, s.now(), false)
	s.emit(Event{Type: EventInputCleared})
	placeholder := s.addPlaceholder()

	resp, err := s.api.SendMessage(ctx, chatapi.NewSendMessageRequest(message, threadID, s.cfg.ChatbotType))
	s.removePlaceholder(placeholder)
	if err != nil {
		s.logger.Error("failed to send message", "error", err, "thread_id", threadID)
		s.notice(EntryError, s.cfg.SendError)
		return fmt.Errorf("sending message: %w", err)
	}

	if resp.Error != "" {
		s.logger.Warn("backend reported send failure", "error", resp.Error, "thread_id", threadID)
		s.notice(EntryError, s.cfg.ErrorPrefix+resp.Error)
		return &chatapi.AppError{Op: "send_message", Message: resp.Error}
	}

	if resp.UserName != "" && resp.UserName != name {
		s.mu.Lock()
		s.displayName = resp.UserName
		s.mu.Unlock()
		s.emit(Event{Type: EventDisplayNameChanged, DisplayName: resp.UserName})
	}

	if resp.ThreadID != "" && resp.ThreadID != threadID {
		s.adoptThread(ctx, resp.ThreadID, threadID)
	}

	s.appendEntry(EntryAssistant, s.cfg.AssistantName, resp.Response, s.now(), s.cfg.Markdown)
	return nil
}

// StartNew asks the backend for a fresh thread and switches to it.
//
// On success the old id is discarded, the new one persisted, the transcript
// cleared, the display name reset and one greeting rendered. On failure one
// error notice is rendered and the previous thread and transcript are left
// as they were.
func (s *Session) StartNew(ctx context.Context) error {
	if err := s.begin(StateResettingThread); err != nil {
		return err
	}
	defer s.finish()

	placeholder := s.addPlaceholder()
	resp, err := s.api.NewUser(ctx, s.cfg.ChatbotType)
	s.removePlaceholder(placeholder)

	if err == nil {
		switch {
		case resp.Error != "":
			err = &chatapi.AppError{Op: "new_user", Message: resp.Error}
		case !resp.Success || resp.ThreadID == "":
			err = &chatapi.AppError{Op: "new_user", Message: "no thread id in response"}
		}
	}
	if err != nil {
		s.logger.Error("failed to start new conversation", "error", err)
		s.notice(EntryError, s.cfg.NewThreadError+failureReason(err))
		return fmt.Errorf("starting new conversation: %w", err)
	}

	if derr := s.store.Delete(ctx, store.ThreadIDKey); derr != nil {
		s.logger.Warn("failed to discard persisted thread id", "error", derr)
	}
	if serr := s.store.Set(ctx, store.ThreadIDKey, resp.ThreadID); serr != nil {
		s.logger.Error("failed to persist thread id", "error", serr, "thread_id", resp.ThreadID)
	}

	s.mu.Lock()
	old, oldName := s.threadID, s.displayName
	s.threadID = resp.ThreadID
	s.displayName = s.cfg.AnonymousName
	s.mu.Unlock()

	s.emit(Event{Type: EventTranscriptCleared})
	s.emit(Event{Type: EventThreadChanged, OldThreadID: old, ThreadID: resp.ThreadID})
	if oldName != s.cfg.AnonymousName {
		s.emit(Event{Type: EventDisplayNameChanged, DisplayName: s.cfg.AnonymousName})
	}

	greeting := resp.Message
	if greeting == "" {
		greeting = s.cfg.NewThreadGreeting
	}
	s.notice(EntryGreeting, greeting)
	s.emit(Event{Type: EventInputEnabled})

	s.logger.Info("started new conversation", "old_thread_id", old, "thread_id", resp.ThreadID)

	if s.cfg.KickoffMessage != "" {
		req := chatapi.NewSendMessageRequest(s.cfg.KickoffMessage, resp.ThreadID, s.cfg.ChatbotType)
		if _, kerr := s.api.SendMessage(ctx, req); kerr != nil {
			s.logger.Warn("kickoff message failed", "error", kerr, "thread_id", resp.ThreadID)
		}
	}
	return nil
}

// readPersisted returns the stored thread id, or "" when absent or unreadable.
func (s *Session) readPersisted(ctx context.Context) string {
	id, ok, err := s.store.Get(ctx, store.ThreadIDKey)
	if err != nil {
		s.logger.Warn("failed to read persisted thread id", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return id
}

// adoptThread makes id the active thread, persisting it unless it equals
// known (the value already stored or in use).
func (s *Session) adoptThread(ctx context.Context, id, known string) {
	s.mu.Lock()
	old := s.threadID
	s.threadID = id
	s.mu.Unlock()

	if id != known {
		if err := s.store.Set(ctx, store.ThreadIDKey, id); err != nil {
			s.logger.Error("failed to persist thread id", "error", err, "thread_id", id)
		}
	}
	if id != old {
		s.emit(Event{Type: EventThreadChanged, OldThreadID: old, ThreadID: id})
	}
}

func (s *Session) appendEntry(kind EntryKind, sender, content string, at time.Time, markdown bool) {
	if at.IsZero() {
		at = s.now()
	}
	s.emit(Event{
		Type: EventMessageAppended,
		Entry: Entry{
			ID:       s.newID(),
			Kind:     kind,
			Sender:   sender,
			Content:  content,
			Time:     at,
			Markdown: markdown,
		},
	})
}

func (s *Session) notice(kind EntryKind, text string) {
	s.appendEntry(kind, "", text, s.now(), false)
}

func (s *Session) addPlaceholder() string {
	id := "loading-" + s.newID()
	s.emit(Event{Type: EventPlaceholderAdded, PlaceholderID: id})
	return id
}

func (s *Session) removePlaceholder(id string) {
	s.emit(Event{Type: EventPlaceholderRemoved, PlaceholderID: id})
}

func (s *Session) emit(e Event) {
	s.sink.Apply(e)
}

// failureReason is the short reason shown to the user.
func failureReason(err error) string {
	var appErr *chatapi.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	var se *chatapi.StatusError
	if errors.As(err, &se) {
		return se.Error()
	}
	return err.Error()
}
