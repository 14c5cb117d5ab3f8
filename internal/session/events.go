// ABOUTME: Events emitted by a Session describing display changes
// ABOUTME: Renderers implement Sink to turn events into output

package session

import "time"

// EventType identifies what changed.
type EventType string

// Event types
const (
	EventMessageAppended    EventType = "message_appended"
	EventPlaceholderAdded   EventType = "placeholder_added"
	EventPlaceholderRemoved EventType = "placeholder_removed"
	EventInputCleared       EventType = "input_cleared"
	EventInputEnabled       EventType = "input_enabled"
	EventDisplayNameChanged EventType = "display_name_changed"
	EventThreadChanged      EventType = "thread_changed"
	EventTranscriptCleared  EventType = "transcript_cleared"
)

// EntryKind classifies a rendered message.
type EntryKind string

// Entry kinds. Greeting and Error entries are synthetic: they come from
// neither participant.
const (
	EntryHuman     EntryKind = "human"
	EntryAssistant EntryKind = "assistant"
	EntryGreeting  EntryKind = "greeting"
	EntryError     EntryKind = "error"
)

// Synthetic reports whether the entry is a UI-only notice.
func (k EntryKind) Synthetic() bool {
	return k == EntryGreeting || k == EntryError
}

// Entry is one message to display.
type Entry struct {
	ID       string
	Kind     EntryKind
	Sender   string // empty for synthetic entries
	Content  string
	Time     time.Time
	Markdown bool // content should be rendered as markdown
}

// Event describes a single display change. Only the fields relevant to Type
// are set.
type Event struct {
	Type EventType

	Entry         Entry  // EventMessageAppended
	PlaceholderID string // EventPlaceholderAdded, EventPlaceholderRemoved
	DisplayName   string // EventDisplayNameChanged
	OldThreadID   string // EventThreadChanged
	ThreadID      string // EventThreadChanged
}

// Sink consumes session events. Apply is called synchronously, in order, on
// the goroutine running the session operation.
type Sink interface {
	Apply(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Apply calls f(e).
func (f SinkFunc) Apply(e Event) { f(e) }

type teeSink []Sink

func (t teeSink) Apply(e Event) {
	for _, s := range t {
		s.Apply(e)
	}
}

// Tee returns a Sink that forwards every event to each non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	out := make(teeSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
