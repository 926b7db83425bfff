package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// JSONEvent is one JSON-Lines record written by JSONListener.
type JSONEvent struct {
	Type           domain.EventType `json:"type"`
	ConversationID string           `json:"conversation_id,omitempty"`
	NodeID         string           `json:"node_id,omitempty"`
	ActorID        string           `json:"actor_id,omitempty"`
	Voice          string           `json:"voice,omitempty"`
	Candidates     []JSONCandidate  `json:"candidates,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// JSONCandidate is an option offered in a node_decision event.
type JSONCandidate struct {
	NodeID   string `json:"node_id"`
	Response string `json:"response,omitempty"`
}

// JSONListener is the headless counterpart of TextListener: it emits one JSON object per
// callback and reads selections as a node id or a 1-based index, either raw or JSON-quoted.
type JSONListener struct {
	poster Poster
	input  *lineSource

	mu      sync.Mutex // guards encoder
	encoder *json.Encoder
	convID  string
}

// NewJSONListener creates a listener for JSON-Lines IO.
func NewJSONListener(poster Poster, r io.Reader, w io.Writer) *JSONListener {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONListener{
		poster:  poster,
		input:   newLineSource(r),
		encoder: json.NewEncoder(w),
	}
}

// Done is closed when the conversation exits or the input is exhausted.
func (l *JSONListener) Done() <-chan struct{} {
	return l.input.Done()
}

// Err returns the input error that ended the listener, if any.
func (l *JSONListener) Err() error {
	return l.input.Err()
}

func (l *JSONListener) emit(ev JSONEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ev.ConversationID == "" {
		ev.ConversationID = l.convID
	}
	// Write failures surface as a closed pipe on the next read.
	_ = l.encoder.Encode(ev)
}

func (l *JSONListener) OnConversationEnter(c *domain.Conversation, ready ports.ReadyNotifier) {
	l.mu.Lock()
	l.convID = c.ID
	l.mu.Unlock()
	l.emit(JSONEvent{Type: domain.EventConversationEnter})
	ready.Ready()
}

func (l *JSONListener) OnNodeEnter(n *domain.Node, ready ports.ReadyNotifier) {
	ev := JSONEvent{Type: domain.EventNodeEnter, NodeID: n.ID, Voice: n.VoiceText}
	if n.Actor != nil {
		ev.ActorID = n.Actor.ID
	}
	l.emit(ev)
	ready.Ready()
}

func (l *JSONListener) OnNodeDecision(candidates []*domain.Node, decide ports.DecisionNotifier) {
	ev := JSONEvent{Type: domain.EventNodeDecision}
	for _, n := range candidates {
		ev.Candidates = append(ev.Candidates, JSONCandidate{NodeID: n.ID, Response: n.ResponseText})
	}
	l.emit(ev)
	go l.await(candidates, decide)
}

func (l *JSONListener) await(candidates []*domain.Node, decide ports.DecisionNotifier) {
	for {
		text, ok := l.input.Next()
		if !ok {
			return
		}
		node, err := selectCandidate(text, candidates)
		if err != nil {
			l.emit(JSONEvent{Type: domain.EventError, Error: err.Error()})
			continue
		}
		if err := l.poster.Post(func() { decide.Decide(node) }); err != nil {
			l.input.Finish(err)
		}
		return
	}
}

func selectCandidate(text string, candidates []*domain.Node) (*domain.Node, error) {
	text = strings.TrimSpace(text)
	var quoted string
	if err := json.Unmarshal([]byte(text), &quoted); err == nil {
		text = quoted
	}
	text, err := SanitizeInput(text)
	if err != nil {
		return nil, err
	}
	for _, n := range candidates {
		if n.ID == text {
			return n, nil
		}
	}
	if i, err := strconv.Atoi(text); err == nil && i >= 1 && i <= len(candidates) {
		return candidates[i-1], nil
	}
	return nil, fmt.Errorf("unknown choice %q", text)
}

func (l *JSONListener) OnNodeExit(n *domain.Node, ready ports.ReadyNotifier) {
	l.emit(JSONEvent{Type: domain.EventNodeExit, NodeID: n.ID})
	ready.Ready()
}

func (l *JSONListener) OnConversationExit(c *domain.Conversation, ready ports.ReadyNotifier) {
	l.emit(JSONEvent{Type: domain.EventConversationExit, ConversationID: c.ID})
	ready.Ready()
	l.input.Finish(nil)
}

func (l *JSONListener) OnError(c *domain.Conversation, err error) {
	l.emit(JSONEvent{Type: domain.EventError, ConversationID: c.ID, Error: err.Error()})
}
