// ABOUTME: Tests for the terminal renderer
// ABOUTME: Runs with color disabled and checks the printed lines

package console

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/2389/coven-chat/internal/session"
)

func TestPrinter_Messages(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)
	at := time.Date(2026, 1, 2, 9, 5, 7, 0, time.Local)

	p.Apply(session.Event{Type: session.EventMessageAppended, Entry: session.Entry{
		Kind: session.EntryHuman, Sender: "Ana", Content: "oi", Time: at,
	}})
	p.Apply(session.Event{Type: session.EventPlaceholderAdded, PlaceholderID: "loading-1"})
	p.Apply(session.Event{Type: session.EventPlaceholderRemoved, PlaceholderID: "loading-1"})
	p.Apply(session.Event{Type: session.EventMessageAppended, Entry: session.Entry{
		Kind: session.EntryAssistant, Sender: "Assistente IA", Content: "**olá**, Ana", Time: at, Markdown: true,
	}})
	p.Apply(session.Event{Type: session.EventMessageAppended, Entry: session.Entry{
		Kind: session.EntryError, Content: "Error: boom", Time: at,
	}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"[09:05:07] Ana: oi",
		"...",
		"[09:05:07] Assistente IA: olá, Ana",
		"! Error: boom",
	}, lines)
}

func TestPrinter_StatusLines(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, false)

	p.Apply(session.Event{Type: session.EventDisplayNameChanged, DisplayName: "Alice"})
	p.Apply(session.Event{Type: session.EventThreadChanged, ThreadID: "T2"})
	p.Apply(session.Event{Type: session.EventMessageAppended, Entry: session.Entry{Kind: session.EntryGreeting, Content: "hi"}})
	p.Apply(session.Event{Type: session.EventInputEnabled})

	out := buf.String()
	assert.Contains(t, out, "(now chatting as Alice)\n")
	assert.Contains(t, out, "(thread T2)\n")
	assert.Contains(t, out, "* hi\n")
	assert.NotContains(t, out, "\x1b[")
}
