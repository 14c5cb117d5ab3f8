// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "chat.yaml", `
server:
  base_url: "https://chat.example.com"
  timeout: "10s"

chatbot:
  type: "vendas"
  thread_id: "thread_abc"

storage:
  path: "./chat.db"

session:
  default_name: "Guest"
  kickoff_message: "Olá"

render:
  markdown: false
  color: false

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.BaseURL != "https://chat.example.com" {
		t.Errorf("Server.BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Timeout != 10*time.Second {
		t.Errorf("Server.Timeout = %v, want 10s", cfg.Server.Timeout)
	}
	if cfg.Chatbot.Type != "vendas" || cfg.Chatbot.ThreadID != "thread_abc" {
		t.Errorf("Chatbot = %+v", cfg.Chatbot)
	}
	if cfg.Storage.Path != "./chat.db" {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Session.DefaultName != "Guest" {
		t.Errorf("Session.DefaultName = %q", cfg.Session.DefaultName)
	}
	if cfg.Render.Markdown || cfg.Render.Color {
		t.Errorf("Render = %+v, want both false", cfg.Render)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}

	// Unset sections keep their defaults
	if cfg.Session.AnonymousName != "Usuário Anônimo" {
		t.Errorf("Session.AnonymousName = %q, want default", cfg.Session.AnonymousName)
	}
	if cfg.Backend.SessionTTL != 30*time.Minute {
		t.Errorf("Backend.SessionTTL = %v, want 30m", cfg.Backend.SessionTTL)
	}
}

func TestLoad_ValidTOML(t *testing.T) {
	path := writeConfig(t, "chat.toml", `
[server]
base_url = "http://localhost:9000"
timeout = "5s"

[chatbot]
type = "novo"

[backend]
addr = "127.0.0.1:9000"
jwt_secret = "0123456789abcdef0123456789abcdef"
session_ttl = "1h"
chatbot_types = ["novo"]

[[backend.users]]
email = "ana@example.com"
password_hash = "$2a$10$hash"
name = "Ana"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Timeout != 5*time.Second {
		t.Errorf("Server.Timeout = %v, want 5s", cfg.Server.Timeout)
	}
	if cfg.Chatbot.Type != "novo" {
		t.Errorf("Chatbot.Type = %q", cfg.Chatbot.Type)
	}
	if cfg.Backend.SessionTTL != time.Hour {
		t.Errorf("Backend.SessionTTL = %v, want 1h", cfg.Backend.SessionTTL)
	}
	if len(cfg.Backend.ChatbotTypes) != 1 || cfg.Backend.ChatbotTypes[0] != "novo" {
		t.Errorf("Backend.ChatbotTypes = %v", cfg.Backend.ChatbotTypes)
	}
	if len(cfg.Backend.Users) != 1 || cfg.Backend.Users[0].Name != "Ana" {
		t.Fatalf("Backend.Users = %+v", cfg.Backend.Users)
	}
	if err := cfg.ValidateBackend(); err != nil {
		t.Errorf("ValidateBackend() error = %v", err)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_CHAT_PASSWORD", "s3cret")
	t.Setenv("TEST_CHAT_URL", "http://backend:5000")

	path := writeConfig(t, "chat.yaml", `
server:
  base_url: "${TEST_CHAT_URL}"
auth:
  email: "ana@example.com"
  password: "${TEST_CHAT_PASSWORD}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.BaseURL != "http://backend:5000" {
		t.Errorf("Server.BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Auth.Password != "s3cret" {
		t.Errorf("Auth.Password = %q", cfg.Auth.Password)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"timeout", "server:\n  timeout: \"soon\"\n", "server.timeout"},
		{"session_ttl", "backend:\n  session_ttl: \"forever\"\n", "backend.session_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "chat.yaml", tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error for invalid duration")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q should name %s", err, tt.field)
			}
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "chat.yaml", "server: [unclosed\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/chat.yaml"); err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Chatbot.Type != "atual" {
		t.Errorf("Chatbot.Type = %q, want atual", cfg.Chatbot.Type)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_A", "alpha")

	tests := []struct {
		in, want string
	}{
		{"${TEST_A}", "alpha"},
		{"x-${TEST_A}-y", "x-alpha-y"},
		{"${TEST_UNSET_VAR_XYZ}", ""},
		{"no vars", "no vars"},
		{"$TEST_A", "$TEST_A"},
	}
	for _, tt := range tests {
		if got := expandEnvVars(tt.in); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"no base url", func(c *Config) { c.Server.BaseURL = "" }, "server.base_url is required"},
		{"bad scheme", func(c *Config) { c.Server.BaseURL = "ftp://x" }, "http:// or https://"},
		{"no chatbot", func(c *Config) { c.Chatbot.Type = "" }, "chatbot.type"},
		{"no storage", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"email without password", func(c *Config) { c.Auth.Email = "a@b.c" }, "auth.password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateBackend(t *testing.T) {
	valid := func() *Config {
		c := Default()
		c.Backend.JWTSecret = strings.Repeat("k", 32)
		c.Backend.Users = []UserConfig{{Email: "ana@example.com", PasswordHash: "h"}}
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"short secret", func(c *Config) { c.Backend.JWTSecret = "short" }, "jwt_secret"},
		{"no addr", func(c *Config) { c.Backend.Addr = "" }, "backend.addr"},
		{"zero ttl", func(c *Config) { c.Backend.SessionTTL = 0 }, "session_ttl"},
		{"no types", func(c *Config) { c.Backend.ChatbotTypes = nil }, "chatbot_types"},
		{"user without hash", func(c *Config) { c.Backend.Users[0].PasswordHash = "" }, "users[0]"},
		{"duplicate user", func(c *Config) {
			c.Backend.Users = append(c.Backend.Users, UserConfig{Email: "ANA@example.com", PasswordHash: "h"})
		}, "duplicate email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.ValidateBackend()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateBackend() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateBackend() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	if got := Path("/explicit.yaml"); got != "/explicit.yaml" {
		t.Errorf("Path(explicit) = %q", got)
	}
	if got := Path(""); got != filepath.Join("/xdg", "coven", "chat.yaml") {
		t.Errorf("Path(\"\") = %q", got)
	}

	t.Setenv(EnvConfigPath, "/env/chat.toml")
	if got := Path(""); got != "/env/chat.toml" {
		t.Errorf("Path(\"\") with env = %q", got)
	}
}

func TestSessionSettings(t *testing.T) {
	cfg := Default()
	cfg.Chatbot.Type = "vendas"
	cfg.Session.DefaultName = "Guest"
	cfg.Session.KickoffMessage = "Olá"
	cfg.Render.Markdown = false

	sc := cfg.SessionSettings("thread_7")
	if sc.ChatbotType != "vendas" || sc.EmbeddedThreadID != "thread_7" {
		t.Errorf("identifiers = %q/%q", sc.ChatbotType, sc.EmbeddedThreadID)
	}
	if sc.DefaultName != "Guest" {
		t.Errorf("DefaultName = %q", sc.DefaultName)
	}
	if sc.AnonymousName != "Usuário Anônimo" {
		t.Errorf("AnonymousName = %q", sc.AnonymousName)
	}
	if sc.KickoffMessage != "Olá" || sc.Markdown {
		t.Errorf("KickoffMessage/Markdown = %q/%v", sc.KickoffMessage, sc.Markdown)
	}
}
