// ABOUTME: Terminal chat client for the assistant backend
// ABOUTME: Resolves the persisted conversation, then reads messages and commands from stdin

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/coven-chat/internal/chatapi"
	"github.com/2389/coven-chat/internal/config"
	"github.com/2389/coven-chat/internal/console"
	"github.com/2389/coven-chat/internal/logging"
	"github.com/2389/coven-chat/internal/session"
	"github.com/2389/coven-chat/internal/store"
	"github.com/2389/coven-chat/internal/transcript"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default $COVEN_CHAT_CONFIG or ~/.config/coven/chat.yaml)")
	server := flag.String("server", "", "Backend base URL (overrides server.base_url)")
	chatbot := flag.String("chatbot", "", "Chatbot type (overrides chatbot.type)")
	threadID := flag.String("thread", "", "Thread ID to open instead of the persisted one")
	flag.Parse()

	cfg, err := config.LoadOrDefault(config.Path(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.Server.BaseURL = *server
	}
	if *chatbot != "" {
		cfg.Chatbot.Type = *chatbot
	}
	if *threadID != "" {
		cfg.Chatbot.ThreadID = *threadID
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid config: %v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format, cfg.Render.Color))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

// chat bundles what the command loop works with.
type chat struct {
	cfg     *config.Config
	client  *chatapi.Client
	session *session.Session
	view    *transcript.Transcript
	out     io.Writer
	lines   <-chan string
	dim     *color.Color
}

func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	logger := slog.Default().With("component", "coven-chat")

	client, err := chatapi.New(cfg.Server.BaseURL,
		chatapi.WithTimeout(cfg.Server.Timeout),
		chatapi.WithLogger(slog.Default()),
	)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	if cfg.Auth.Email != "" {
		if err := client.Login(ctx, cfg.Auth.Email, cfg.Auth.Password); err != nil {
			return fmt.Errorf("logging in as %s: %w", cfg.Auth.Email, err)
		}
		logger.Info("logged in", "email", cfg.Auth.Email)
	}

	embedded := cfg.Chatbot.ThreadID
	if embedded == "" && cfg.Auth.Email != "" {
		page, err := client.OpenChat(ctx, cfg.Chatbot.Type)
		if err != nil {
			logger.Warn("could not open chat page, using persisted thread", "error", err)
		} else {
			embedded = page.ThreadID
		}
	}

	st, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var view *transcript.Transcript
	if cfg.Render.Markdown {
		view = transcript.NewWithMarkdown()
	} else {
		view = transcript.New(nil)
	}
	printer := console.New(out, cfg.Render.Color)

	sess := session.New(client, st, session.Tee(view, printer), cfg.SessionSettings(embedded),
		session.WithLogger(slog.Default()))

	dim := color.New(color.Faint)
	if !cfg.Render.Color {
		dim.DisableColor()
	}
	dim.Fprintf(out, "coven-chat connected to %s (%s)\n", client.BaseURL(), cfg.Chatbot.Type)
	dim.Fprintln(out, "Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Fprintln(out)

	if err := sess.Resolve(ctx); err != nil {
		logger.Debug("resolve failed", "error", err)
	}

	c := &chat{
		cfg:     cfg,
		client:  client,
		session: sess,
		view:    view,
		out:     out,
		lines:   readLines(ctx, in),
		dim:     dim,
	}
	return c.loop(ctx)
}

// readLines feeds stdin lines to a channel, closing it at EOF.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case ch <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// next waits for an input line. ok is false at EOF or cancellation.
func (c *chat) next(ctx context.Context) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-c.lines:
		return strings.TrimSpace(line), ok
	}
}

func (c *chat) loop(ctx context.Context) error {
	for {
		fmt.Fprintf(c.out, "%s> ", c.session.DisplayName())

		input, ok := c.next(ctx)
		if !ok {
			return nil
		}
		if input == "" {
			continue
		}

		switch input {
		case "/quit", "/exit", "/q":
			return nil
		case "/help":
			c.printHelp()
		case "/whoami":
			fmt.Fprintf(c.out, "%s\n", c.session.DisplayName())
		case "/thread":
			c.printThread()
		case "/new":
			c.startNew(ctx)
		case "/logout":
			if err := c.client.Logout(ctx); err != nil {
				return fmt.Errorf("logging out: %w", err)
			}
			c.dim.Fprintln(c.out, "Logged out.")
			return nil
		default:
			if strings.HasPrefix(input, "/") {
				fmt.Fprintf(c.out, "Unknown command %s. /help lists commands.\n", input)
				continue
			}
			c.send(ctx, input)
		}
	}
}

func (c *chat) send(ctx context.Context, text string) {
	err := c.session.Send(ctx, text)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrEmptyMessage), errors.Is(err, session.ErrBusy):
	case chatapi.IsUnauthorized(err):
		c.dim.Fprintln(c.out, "Session expired. Restart coven-chat to log in again.")
	default:
		slog.Debug("send failed", "error", err)
	}
}

// startNew confirms before replacing the conversation. Input stays disabled
// until the session announces the new thread, or the prompt is declined.
func (c *chat) startNew(ctx context.Context) {
	c.view.SetInputEnabled(false)
	fmt.Fprint(c.out, "Start a new conversation? The current one will no longer be shown. [y/N] ")
	answer, ok := c.next(ctx)
	if !ok || !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		c.view.SetInputEnabled(true)
		c.dim.Fprintln(c.out, "Cancelled.")
		return
	}
	if err := c.session.StartNew(ctx); err != nil {
		c.view.SetInputEnabled(true)
		slog.Debug("start new failed", "error", err)
	}
}

func (c *chat) printThread() {
	id := c.session.ThreadID()
	if id == "" {
		fmt.Fprintln(c.out, "No thread yet.")
		return
	}
	fmt.Fprintf(c.out, "%s (%d messages shown", id, c.view.Len())
	if last := c.view.LastActivity(); !last.IsZero() {
		fmt.Fprintf(c.out, ", last at %s", last.Local().Format("15:04:05"))
	}
	fmt.Fprintln(c.out, ")")
}

func (c *chat) printHelp() {
	fmt.Fprintln(c.out, "Commands:")
	fmt.Fprintln(c.out, "  /new      Start a new conversation")
	fmt.Fprintln(c.out, "  /whoami   Show the name the assistant knows you by")
	fmt.Fprintln(c.out, "  /thread   Show the current thread id")
	fmt.Fprintln(c.out, "  /logout   End the backend session and quit")
	fmt.Fprintln(c.out, "  /help     Show this help")
	fmt.Fprintln(c.out, "  /quit     Exit")
}
