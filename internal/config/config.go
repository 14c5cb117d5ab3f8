// ABOUTME: Configuration loading and parsing for coven-chat
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/coven-chat/internal/session"
)

// EnvConfigPath names the environment variable that overrides the config location.
const EnvConfigPath = "COVEN_CHAT_CONFIG"

// Config represents the complete coven-chat configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Chatbot ChatbotConfig `yaml:"chatbot" toml:"chatbot"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`
	Session SessionConfig `yaml:"session" toml:"session"`
	Auth    AuthConfig    `yaml:"auth" toml:"auth"`
	Render  RenderConfig  `yaml:"render" toml:"render"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Backend BackendConfig `yaml:"backend" toml:"backend"`
}

// ServerConfig points the client at the chat backend
type ServerConfig struct {
	BaseURL string        `yaml:"base_url" toml:"base_url"`
	Timeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// ChatbotConfig selects the assistant and optionally pins a thread
type ChatbotConfig struct {
	Type     string `yaml:"type" toml:"type"`
	ThreadID string `yaml:"thread_id" toml:"thread_id"`
}

// StorageConfig holds the client-side store location
type StorageConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// SessionConfig holds the user-visible session texts
type SessionConfig struct {
	DefaultName       string `yaml:"default_name" toml:"default_name"`
	AnonymousName     string `yaml:"anonymous_name" toml:"anonymous_name"`
	AssistantName     string `yaml:"assistant_name" toml:"assistant_name"`
	Greeting          string `yaml:"greeting" toml:"greeting"`
	NewThreadGreeting string `yaml:"new_thread_greeting" toml:"new_thread_greeting"`
	KickoffMessage    string `yaml:"kickoff_message" toml:"kickoff_message"`
}

// AuthConfig holds the backend login credentials. Empty email skips login.
type AuthConfig struct {
	Email    string `yaml:"email" toml:"email"`
	Password string `yaml:"password" toml:"password"`
}

// RenderConfig controls how replies are displayed
type RenderConfig struct {
	Markdown bool `yaml:"markdown" toml:"markdown"`
	Color    bool `yaml:"color" toml:"color"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// BackendConfig configures the local fake backend
type BackendConfig struct {
	Addr         string        `yaml:"addr" toml:"addr"`
	JWTSecret    string        `yaml:"jwt_secret" toml:"jwt_secret"`
	SessionTTL   time.Duration `yaml:"-" toml:"-"`
	ChatbotTypes []string      `yaml:"chatbot_types" toml:"chatbot_types"`
	Users        []UserConfig  `yaml:"users" toml:"users"`

	SessionTTLRaw string `yaml:"session_ttl" toml:"session_ttl"`
}

// UserConfig is one account the fake backend accepts
type UserConfig struct {
	Email        string `yaml:"email" toml:"email"`
	PasswordHash string `yaml:"password_hash" toml:"password_hash"`
	Name         string `yaml:"name" toml:"name"`
}

// Default returns a configuration usable without a file.
func Default() *Config {
	st := session.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			BaseURL:    "http://localhost:5000",
			Timeout:    30 * time.Second,
			TimeoutRaw: "30s",
		},
		Chatbot: ChatbotConfig{Type: "atual"},
		Storage: StorageConfig{Path: defaultStoragePath()},
		Session: SessionConfig{
			DefaultName:       st.DefaultName,
			AnonymousName:     st.AnonymousName,
			AssistantName:     st.AssistantName,
			Greeting:          st.Greeting,
			NewThreadGreeting: st.NewThreadGreeting,
		},
		Render:  RenderConfig{Markdown: true, Color: true},
		Logging: LoggingConfig{Level: "warn", Format: "text"},
		Backend: BackendConfig{
			Addr:          "127.0.0.1:5000",
			SessionTTL:    30 * time.Minute,
			SessionTTLRaw: "30m",
			ChatbotTypes:  []string{"atual", "novo", "vendas"},
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Unset fields keep the values from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Path returns the config file location: the explicit path if given, then
// $COVEN_CHAT_CONFIG, then $XDG_CONFIG_HOME/coven/chat.yaml, then
// ~/.config/coven/chat.yaml.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(configDir(), "chat.yaml")
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "coven")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".coven")
	}
	return filepath.Join(home, ".config", "coven")
}

func defaultStoragePath() string {
	return filepath.Join(configDir(), "chat.db")
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks the fields the chat client needs.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("server.base_url must start with http:// or https://")
	}
	if c.Chatbot.Type == "" {
		return fmt.Errorf("chatbot.type is required")
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Auth.Email != "" && c.Auth.Password == "" {
		return fmt.Errorf("auth.password is required when auth.email is set")
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative")
	}
	return nil
}

// ValidateBackend checks the fields the fake backend needs.
func (c *Config) ValidateBackend() error {
	if c.Backend.Addr == "" {
		return fmt.Errorf("backend.addr is required")
	}
	if len(c.Backend.JWTSecret) < 32 {
		return fmt.Errorf("backend.jwt_secret must be at least 32 bytes")
	}
	if c.Backend.SessionTTL <= 0 {
		return fmt.Errorf("backend.session_ttl must be positive")
	}
	if len(c.Backend.ChatbotTypes) == 0 {
		return fmt.Errorf("backend.chatbot_types must not be empty")
	}
	seen := make(map[string]bool, len(c.Backend.Users))
	for i, u := range c.Backend.Users {
		if u.Email == "" || u.PasswordHash == "" {
			return fmt.Errorf("backend.users[%d]: email and password_hash are required", i)
		}
		key := strings.ToLower(u.Email)
		if seen[key] {
			return fmt.Errorf("backend.users[%d]: duplicate email %q", i, u.Email)
		}
		seen[key] = true
	}
	return nil
}

// SessionSettings maps the configuration onto session.Config.
func (c *Config) SessionSettings(embeddedThreadID string) session.Config {
	cfg := session.DefaultConfig()
	cfg.ChatbotType = c.Chatbot.Type
	cfg.EmbeddedThreadID = embeddedThreadID
	cfg.Markdown = c.Render.Markdown
	cfg.KickoffMessage = c.Session.KickoffMessage

	if c.Session.DefaultName != "" {
		cfg.DefaultName = c.Session.DefaultName
	}
	if c.Session.AnonymousName != "" {
		cfg.AnonymousName = c.Session.AnonymousName
	}
	if c.Session.AssistantName != "" {
		cfg.AssistantName = c.Session.AssistantName
	}
	if c.Session.Greeting != "" {
		cfg.Greeting = c.Session.Greeting
	}
	if c.Session.NewThreadGreeting != "" {
		cfg.NewThreadGreeting = c.Session.NewThreadGreeting
	}
	return cfg
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.TimeoutRaw != "" {
		cfg.Server.Timeout, err = time.ParseDuration(cfg.Server.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing server.timeout %q: %w", cfg.Server.TimeoutRaw, err)
		}
	}

	if cfg.Backend.SessionTTLRaw != "" {
		cfg.Backend.SessionTTL, err = time.ParseDuration(cfg.Backend.SessionTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing backend.session_ttl %q: %w", cfg.Backend.SessionTTLRaw, err)
		}
	}

	return nil
}
