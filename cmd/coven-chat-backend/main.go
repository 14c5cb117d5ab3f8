// ABOUTME: Entry point for the local fake chat backend
// ABOUTME: Serves the chat endpoints and helps create accounts and config files

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/2389/coven-chat/internal/backend"
	"github.com/2389/coven-chat/internal/config"
	"github.com/2389/coven-chat/internal/logging"
)

// Version is set at build time.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: coven-chat-backend <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve [-config PATH]   Start the fake backend")
		fmt.Println("  init                   Create a config file with one account")
		fmt.Println("  hash PASSWORD          Print a bcrypt hash for backend.users")
		fmt.Println("  health [-config PATH]  Check that the backend is up")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "init":
		err = runInit()
	case "hash":
		err = runHash(os.Args[2:])
	case "health":
		err = runHealth(ctx, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(name string, args []string) (*config.Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file path")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, args []string) error {
	cfg, err := loadConfig("serve", args)
	if err != nil {
		return err
	}
	if err := cfg.ValidateBackend(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format, cfg.Render.Color)
	slog.SetDefault(logger)

	gray := color.New(color.FgHiBlack)
	gray.Printf("coven-chat-backend %s\n\n", version)

	srv, err := backend.New(cfg.Backend, backend.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating backend: %w", err)
	}

	logger.Info("starting backend",
		"addr", cfg.Backend.Addr,
		"chatbot_types", cfg.Backend.ChatbotTypes,
		"users", len(cfg.Backend.Users),
		"session_ttl", cfg.Backend.SessionTTL,
	)
	return srv.Run(ctx)
}

func runHash(args []string) error {
	if len(args) != 1 || args[0] == "" {
		return fmt.Errorf("usage: coven-chat-backend hash PASSWORD")
	}
	hash, err := backend.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func runHealth(ctx context.Context, args []string) error {
	cfg, err := loadConfig("health", args)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("http://%s/health", cfg.Backend.Addr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("coven-chat configuration setup")
	fmt.Println("==============================")
	fmt.Println()

	outputFile := prompt(reader, "Config file path", config.Path(""))
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	cfg := config.Default()

	fmt.Println("\n--- Backend ---")
	cfg.Backend.Addr = prompt(reader, "Listen address", cfg.Backend.Addr)
	cfg.Server.BaseURL = "http://" + cfg.Backend.Addr

	fmt.Println("\n--- Account ---")
	email := prompt(reader, "Email", "ana@example.com")
	password := prompt(reader, "Password", "")
	if password == "" {
		return fmt.Errorf("a password is required")
	}
	name := prompt(reader, "Display name (empty for anonymous)", "")

	hash, err := backend.HashPassword(password)
	if err != nil {
		return err
	}
	secret, err := generateSecret()
	if err != nil {
		return err
	}

	cfg.Backend.JWTSecret = secret
	cfg.Backend.Users = []config.UserConfig{{Email: email, PasswordHash: hash, Name: name}}
	cfg.Auth = config.AuthConfig{Email: email, Password: password}

	fmt.Println("\n--- Chat ---")
	cfg.Chatbot.Type = prompt(reader, "Chatbot type ("+strings.Join(cfg.Backend.ChatbotTypes, "/")+")", cfg.Chatbot.Type)
	cfg.Logging.Level = prompt(reader, "Log level (debug/info/warn/error)", cfg.Logging.Level)

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	header := "# coven-chat configuration\n# Generated by coven-chat-backend init\n\n"
	// The file holds a password and the signing secret.
	if err := os.WriteFile(outputFile, append([]byte(header), data...), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the backend and chat:")
	fmt.Println("  coven-chat-backend serve")
	fmt.Println("  coven-chat")
	return nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
