// ABOUTME: Tests for the transcript display model
// ABOUTME: Covers relabeling, placeholders, clearing and markdown conversion

package transcript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-chat/internal/session"
)

func appended(id string, kind session.EntryKind, sender, content string, markdown bool) session.Event {
	return session.Event{
		Type: session.EventMessageAppended,
		Entry: session.Entry{
			ID:       id,
			Kind:     kind,
			Sender:   sender,
			Content:  content,
			Time:     time.Unix(1700000000, 0),
			Markdown: markdown,
		},
	}
}

func TestTranscript_RelabelsEveryHumanEntry(t *testing.T) {
	tr := NewWithMarkdown()

	tr.Apply(appended("1", session.EntryHuman, "Usuário", "hi", false))
	tr.Apply(appended("2", session.EntryAssistant, "Assistente IA", "hello", true))
	tr.Apply(appended("3", session.EntryHuman, "Bob", "my name is Alice", false))
	tr.Apply(session.Event{Type: session.EventDisplayNameChanged, DisplayName: "Alice"})

	humans := tr.Humans()
	require.Len(t, humans, 2)
	for _, h := range humans {
		assert.Equal(t, "Alice", h.Sender)
	}
	assert.Equal(t, "Assistente IA", tr.Entries()[1].Sender)
	assert.Equal(t, "Alice", tr.DisplayName())
}

func TestTranscript_MarkdownRendered(t *testing.T) {
	tr := NewWithMarkdown()
	tr.Apply(appended("1", session.EntryAssistant, "A", "**bold** reply", true))
	tr.Apply(appended("2", session.EntryHuman, "U", "**not rendered**", false))

	entries := tr.Entries()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].HTML, "<strong>bold</strong>")
	assert.Empty(t, entries[1].HTML)
}

func TestTranscript_NoMarkdownRendererKeepsPlainText(t *testing.T) {
	tr := New(nil)
	tr.Apply(appended("1", session.EntryAssistant, "A", "**bold**", true))

	e := tr.Entries()[0]
	assert.Empty(t, e.HTML)
	assert.False(t, e.Markdown)
	assert.Equal(t, "**bold**", e.Content)
}

func TestTranscript_Placeholders(t *testing.T) {
	tr := New(nil)

	tr.Apply(session.Event{Type: session.EventPlaceholderAdded, PlaceholderID: "loading-1"})
	assert.True(t, tr.Loading())
	assert.Equal(t, 0, tr.Len(), "placeholders are not entries")

	tr.Apply(session.Event{Type: session.EventPlaceholderRemoved, PlaceholderID: "unknown"})
	assert.True(t, tr.Loading())

	tr.Apply(session.Event{Type: session.EventPlaceholderRemoved, PlaceholderID: "loading-1"})
	assert.False(t, tr.Loading())
}

func TestTranscript_ClearAndInputState(t *testing.T) {
	tr := New(nil)
	tr.Apply(appended("1", session.EntryHuman, "U", "a", false))
	tr.Apply(appended("2", session.EntryError, "", "oops", false))
	tr.Apply(session.Event{Type: session.EventInputCleared})
	tr.SetInputEnabled(false)

	assert.Len(t, tr.Notices(), 1)
	assert.Equal(t, 1, tr.InputClears())
	assert.False(t, tr.InputEnabled())
	assert.True(t, tr.LastActivity().Equal(time.Unix(1700000000, 0)))

	tr.Apply(session.Event{Type: session.EventTranscriptCleared})
	tr.Apply(session.Event{Type: session.EventThreadChanged, OldThreadID: "T1", ThreadID: "T2"})
	tr.Apply(session.Event{Type: session.EventInputEnabled})

	assert.Equal(t, 0, tr.Len())
	assert.True(t, tr.LastActivity().IsZero())
	assert.Equal(t, "T2", tr.ThreadID())
	assert.True(t, tr.InputEnabled())
}

func TestEntry_Clock(t *testing.T) {
	at := time.Date(2026, 1, 2, 9, 5, 7, 0, time.Local)
	e := Entry{Entry: session.Entry{Time: at}}
	assert.Equal(t, "09:05:07", e.Clock())
}
