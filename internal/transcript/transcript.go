// ABOUTME: In-memory model of the rendered chat: ordered entries, placeholders and input state
// ABOUTME: Applies session events; converts markdown replies to HTML with goldmark

package transcript

import (
	"bytes"
	"html"
	"log/slog"
	"sync"
	"time"

	"github.com/yuin/goldmark"

	"github.com/2389/coven-chat/internal/session"
)

// clockLayout is how entry times are shown.
const clockLayout = "15:04:05"

// Entry is a rendered message.
type Entry struct {
	session.Entry

	// HTML is the markdown rendering of Content; empty for plain entries.
	HTML string
}

// Clock returns the entry time as a local wall-clock label.
func (e Entry) Clock() string {
	return e.Time.Local().Format(clockLayout)
}

// Transcript is the display-side state of a conversation. It is safe for
// concurrent use.
type Transcript struct {
	mu           sync.RWMutex
	entries      []Entry
	placeholders []string
	inputEnabled bool
	inputClears  int
	displayName  string
	threadID     string

	md     goldmark.Markdown
	logger *slog.Logger
}

// New creates an empty transcript. A nil md disables markdown rendering and
// every entry is kept as plain text.
func New(md goldmark.Markdown) *Transcript {
	return &Transcript{
		md:           md,
		inputEnabled: true,
		logger:       slog.Default().With("component", "transcript"),
	}
}

// NewWithMarkdown creates a transcript using goldmark's default renderer.
func NewWithMarkdown() *Transcript {
	return New(goldmark.New())
}

// Apply implements session.Sink.
func (t *Transcript) Apply(e session.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch e.Type {
	case session.EventMessageAppended:
		t.entries = append(t.entries, t.render(e.Entry))
	case session.EventPlaceholderAdded:
		t.placeholders = append(t.placeholders, e.PlaceholderID)
	case session.EventPlaceholderRemoved:
		for i, id := range t.placeholders {
			if id == e.PlaceholderID {
				t.placeholders = append(t.placeholders[:i], t.placeholders[i+1:]...)
				break
			}
		}
	case session.EventInputCleared:
		t.inputClears++
	case session.EventInputEnabled:
		t.inputEnabled = true
	case session.EventDisplayNameChanged:
		t.displayName = e.DisplayName
		for i := range t.entries {
			if t.entries[i].Kind == session.EntryHuman {
				t.entries[i].Sender = e.DisplayName
			}
		}
	case session.EventThreadChanged:
		t.threadID = e.ThreadID
	case session.EventTranscriptCleared:
		t.entries = nil
		t.placeholders = nil
	}
}

func (t *Transcript) render(se session.Entry) Entry {
	out := Entry{Entry: se}
	if !se.Markdown {
		return out
	}
	if t.md == nil {
		out.Markdown = false
		return out
	}

	var buf bytes.Buffer
	if err := t.md.Convert([]byte(se.Content), &buf); err != nil {
		t.logger.Error("failed to convert markdown", "error", err, "entry_id", se.ID)
		out.HTML = "<p>" + html.EscapeString(se.Content) + "</p>"
		return out
	}
	out.HTML = buf.String()
	return out
}

// Entries returns a copy of the rendered entries in display order.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Entry(nil), t.entries...)
}

// Humans returns the entries attributed to the human participant.
func (t *Transcript) Humans() []Entry {
	return t.ofKind(session.EntryHuman)
}

// Notices returns synthetic entries (greetings and errors).
func (t *Transcript) Notices() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Entry
	for _, e := range t.entries {
		if e.Kind.Synthetic() {
			out = append(out, e)
		}
	}
	return out
}

func (t *Transcript) ofKind(kind session.EntryKind) []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Entry
	for _, e := range t.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of rendered entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Loading reports whether a loading placeholder is showing.
func (t *Transcript) Loading() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.placeholders) > 0
}

// InputEnabled reports whether input controls are enabled.
func (t *Transcript) InputEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inputEnabled
}

// SetInputEnabled toggles input controls. Hosts disable input during flows
// like a confirmation prompt; StartNew re-enables it.
func (t *Transcript) SetInputEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputEnabled = enabled
}

// InputClears counts how many times the input was cleared.
func (t *Transcript) InputClears() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.inputClears
}

// DisplayName returns the last display name announced by the session.
func (t *Transcript) DisplayName() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.displayName
}

// ThreadID returns the last thread id announced by the session.
func (t *Transcript) ThreadID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.threadID
}

// LastActivity returns the time of the newest entry, or the zero time.
func (t *Transcript) LastActivity() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.entries) == 0 {
		return time.Time{}
	}
	return t.entries[len(t.entries)-1].Time
}

var _ session.Sink = (*Transcript)(nil)
