// ABOUTME: Fake chat backend serving the endpoints the chat client talks to
// ABOUTME: In-memory accounts and threads, bcrypt login, JWT session cookie

package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/coven-chat/internal/chatapi"
	"github.com/2389/coven-chat/internal/config"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "session"

// AnonymousName is the name of an account that has not introduced itself.
const AnonymousName = "Usuário Anônimo"

// Server is the fake backend.
type Server struct {
	cfg    config.BackendConfig
	signer *SessionSigner
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu       sync.Mutex
	accounts map[string]*account
	threads  map[string]*thread

	httpServer *http.Server
}

type account struct {
	email   string
	hash    []byte
	name    string
	threads map[string]string // chatbot type -> current thread id
}

type thread struct {
	id          string
	owner       string
	chatbotType string
	messages    []chatapi.Message
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l.With("component", "backend")
		}
	}
}

// WithClock overrides the time source for message timestamps and tokens.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithThreadIDs overrides thread id generation.
func WithThreadIDs(gen func() string) Option {
	return func(s *Server) {
		s.newID = gen
	}
}

// New creates a backend from its configuration.
func New(cfg config.BackendConfig, opts ...Option) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if len(cfg.ChatbotTypes) == 0 {
		return nil, fmt.Errorf("at least one chatbot type is required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   slog.Default().With("component", "backend"),
		now:      time.Now,
		newID:    func() string { return "thread_" + uuid.NewString() },
		accounts: make(map[string]*account),
		threads:  make(map[string]*thread),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.signer = NewSessionSigner([]byte(cfg.JWTSecret), cfg.SessionTTL, s.now)

	for _, u := range cfg.Users {
		s.addAccount(u.Email, []byte(u.PasswordHash), u.Name)
	}
	return s, nil
}

// AddUser registers an account with a plaintext password.
func (s *Server) AddUser(email, password, name string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addAccount(email, hash, name)
	return nil
}

func (s *Server) addAccount(email string, hash []byte, name string) {
	if name == "" {
		name = AnonymousName
	}
	s.accounts[strings.ToLower(email)] = &account{
		email:   email,
		hash:    hash,
		name:    name,
		threads: make(map[string]string),
	}
}

// HashPassword returns a bcrypt hash suitable for the users config section.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Handler returns the HTTP handler with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("GET /select_chatbot", s.requirePage(s.handleSelect))
	mux.HandleFunc("GET /chat/{type}", s.requirePage(s.handleChat))
	mux.HandleFunc("GET /get_chat_history", s.requireAPI(s.handleHistory))
	mux.HandleFunc("POST /send_message", s.requireAPI(s.handleSendMessage))
	mux.HandleFunc("POST /new_user", s.requireAPI(s.handleNewUser))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// Run serves on the configured address until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		s.logger.Error("server error", "error", serverErr)
	}

	// The caller's context is already done; shut down on a fresh one.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := s.httpServer.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

func (s *Server) validType(chatbotType string) bool {
	return slices.Contains(s.cfg.ChatbotTypes, chatbotType)
}

// threadFor returns the account's current thread for chatbotType, creating
// one when there is none. Callers hold s.mu.
func (s *Server) threadFor(acct *account, chatbotType string) string {
	if id, ok := acct.threads[chatbotType]; ok {
		return id
	}
	return s.newThread(acct, chatbotType)
}

// newThread allocates a thread and makes it the account's current one.
// Callers hold s.mu.
func (s *Server) newThread(acct *account, chatbotType string) string {
	id := s.newID()
	s.threads[id] = &thread{id: id, owner: acct.email, chatbotType: chatbotType}
	acct.threads[chatbotType] = id
	s.logger.Info("thread created", "email", acct.email, "chatbot_type", chatbotType, "thread_id", id)
	return id
}

func (s *Server) timestamp() float64 {
	return float64(s.now().UnixMilli()) / 1000
}
