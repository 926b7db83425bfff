package runner

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// ContentRenderer is a function that transforms voice text before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NameStyler decorates an actor name, e.g. with terminal colours.
type NameStyler func(name string) string

// TextListener presents a conversation on a terminal: it prints voice lines, lists choices as
// a numbered menu and reads the selection from its input.
//
// Callbacks run on the driver goroutine; selections are read on a separate goroutine and handed
// back through the Poster, so a slow reader never stalls other conversations.
type TextListener struct {
	poster   Poster
	writer   io.Writer
	renderer ContentRenderer
	styler   NameStyler

	mu    sync.Mutex // guards writer
	input *lineSource
}

// TextListenerOption configures a TextListener.
type TextListenerOption func(*TextListener)

// WithRenderer configures the content renderer (e.g. glamour markdown).
func WithRenderer(renderer ContentRenderer) TextListenerOption {
	return func(l *TextListener) {
		l.renderer = renderer
	}
}

// WithNameStyler configures how actor names are decorated.
func WithNameStyler(styler NameStyler) TextListenerOption {
	return func(l *TextListener) {
		l.styler = styler
	}
}

// NewTextListener creates a listener reading selections from r and writing to w.
// Nil streams default to os.Stdin and os.Stdout.
func NewTextListener(poster Poster, r io.Reader, w io.Writer, opts ...TextListenerOption) *TextListener {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	l := &TextListener{
		poster: poster,
		writer: w,
		input:  newLineSource(r),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Done is closed when the conversation exits or the input is exhausted.
func (l *TextListener) Done() <-chan struct{} {
	return l.input.Done()
}

// Err returns the input error that ended the listener, if any.
func (l *TextListener) Err() error {
	return l.input.Err()
}

func (l *TextListener) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.writer, format, args...)
}

func (l *TextListener) render(text string) string {
	if l.renderer == nil {
		return text
	}
	out, err := l.renderer(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

func (l *TextListener) actorName(a *domain.Actor) string {
	if a == nil {
		return ""
	}
	name := a.Name
	if name == "" {
		name = a.ID
	}
	if l.styler != nil {
		name = l.styler(name)
	}
	return name
}

// OnConversationEnter prints the conversation title.
func (l *TextListener) OnConversationEnter(c *domain.Conversation, ready ports.ReadyNotifier) {
	title := c.Name
	if title == "" {
		title = c.ID
	}
	l.printf("== %s ==\n", title)
	ready.Ready()
}

// OnNodeEnter prints the node's voice line, if any.
func (l *TextListener) OnNodeEnter(n *domain.Node, ready ports.ReadyNotifier) {
	if n.VoiceText != "" {
		if name := l.actorName(n.Actor); name != "" {
			l.printf("%s: %s\n", name, l.render(n.VoiceText))
		} else {
			l.printf("%s\n", l.render(n.VoiceText))
		}
	}
	ready.Ready()
}

// OnNodeDecision lists the candidates and waits for a selection off the driver goroutine.
func (l *TextListener) OnNodeDecision(candidates []*domain.Node, decide ports.DecisionNotifier) {
	var b strings.Builder
	for i, n := range candidates {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, choiceLabel(n))
	}
	b.WriteString("> ")
	l.printf("%s", b.String())

	go l.await(candidates, decide)
}

func choiceLabel(n *domain.Node) string {
	switch {
	case n.HasResponseText():
		return n.ResponseText
	case n.VoiceText != "":
		return n.VoiceText
	default:
		return n.ID
	}
}

func (l *TextListener) await(candidates []*domain.Node, decide ports.DecisionNotifier) {
	for {
		text, ok := l.input.Next()
		if !ok {
			return
		}

		choice, err := parseChoice(text, len(candidates))
		if err != nil {
			l.printf("%v\n> ", err)
			continue
		}
		node := candidates[choice]
		if err := l.poster.Post(func() { decide.Decide(node) }); err != nil {
			l.input.Finish(err)
		}
		return
	}
}

func parseChoice(text string, n int) (int, error) {
	clean, err := SanitizeInput(strings.TrimSpace(text))
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(clean)
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("invalid choice %q: enter a number between 1 and %d", clean, n)
	}
	return i - 1, nil
}

// OnNodeExit acknowledges immediately.
func (l *TextListener) OnNodeExit(_ *domain.Node, ready ports.ReadyNotifier) {
	ready.Ready()
}

// OnConversationExit prints a footer and closes Done.
func (l *TextListener) OnConversationExit(_ *domain.Conversation, ready ports.ReadyNotifier) {
	l.printf("== end ==\n")
	ready.Ready()
	l.input.Finish(nil)
}

// OnError prints the failure.
func (l *TextListener) OnError(_ *domain.Conversation, err error) {
	l.printf("error: %v\n", err)
}
