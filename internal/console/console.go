// ABOUTME: Terminal renderer for session events using fatih/color
// ABOUTME: Prints messages, notices and status lines as they are emitted

package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/2389/coven-chat/internal/session"
)

// Printer writes session events to a terminal.
type Printer struct {
	mu sync.Mutex
	w  io.Writer

	human     *color.Color
	assistant *color.Color
	greeting  *color.Color
	failure   *color.Color
	dim       *color.Color
}

// New creates a printer writing to w. With useColor false no escape codes
// are written.
func New(w io.Writer, useColor bool) *Printer {
	p := &Printer{
		w:         w,
		human:     color.New(color.FgCyan, color.Bold),
		assistant: color.New(color.FgGreen, color.Bold),
		greeting:  color.New(color.FgYellow),
		failure:   color.New(color.FgRed),
		dim:       color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.human, p.assistant, p.greeting, p.failure, p.dim} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Apply implements session.Sink.
func (p *Printer) Apply(e session.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Type {
	case session.EventMessageAppended:
		p.printEntry(e.Entry)
	case session.EventPlaceholderAdded:
		p.dim.Fprintln(p.w, "...")
	case session.EventDisplayNameChanged:
		p.dim.Fprintf(p.w, "(now chatting as %s)\n", e.DisplayName)
	case session.EventThreadChanged:
		p.dim.Fprintf(p.w, "(thread %s)\n", e.ThreadID)
	case session.EventTranscriptCleared:
		p.dim.Fprintln(p.w, strings.Repeat("-", 60))
	}
}

func (p *Printer) printEntry(e session.Entry) {
	clock := p.dim.Sprintf("[%s]", e.Time.Local().Format("15:04:05"))

	switch e.Kind {
	case session.EntryHuman:
		fmt.Fprintf(p.w, "%s %s %s\n", clock, p.human.Sprint(e.Sender+":"), e.Content)
	case session.EntryAssistant:
		content := e.Content
		if e.Markdown {
			content = stripMarkdown(content)
		}
		fmt.Fprintf(p.w, "%s %s %s\n", clock, p.assistant.Sprint(e.Sender+":"), content)
	case session.EntryGreeting:
		p.greeting.Fprintf(p.w, "* %s\n", e.Content)
	case session.EntryError:
		p.failure.Fprintf(p.w, "! %s\n", e.Content)
	}
}

// stripMarkdown removes emphasis markers that read badly in a terminal.
func stripMarkdown(s string) string {
	// single * is kept; lists use it
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return s
}

var _ session.Sink = (*Printer)(nil)
