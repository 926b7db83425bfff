package runner

import (
	"log/slog"
	"sync"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// AutoListener plays a conversation without a user: every phase is readied immediately
// and every decision takes the first candidate. It is meant for servers and smoke tests.
type AutoListener struct {
	logger *slog.Logger
	done   chan struct{}
	once   sync.Once
	err    error
}

// NewAutoListener creates an AutoListener. A nil logger discards output.
func NewAutoListener(logger *slog.Logger) *AutoListener {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &AutoListener{logger: logger, done: make(chan struct{})}
}

// Done is closed when the conversation exits.
func (l *AutoListener) Done() <-chan struct{} {
	return l.done
}

// Err returns the error that terminated the conversation, if any.
func (l *AutoListener) Err() error {
	return l.err
}

func (l *AutoListener) OnConversationEnter(c *domain.Conversation, ready ports.ReadyNotifier) {
	l.logger.Debug("auto: conversation enter", "conversation", c.ID)
	ready.Ready()
}

func (l *AutoListener) OnNodeEnter(n *domain.Node, ready ports.ReadyNotifier) {
	if n.VoiceText != "" {
		l.logger.Info("auto: line", "node", n.ID, "voice", n.VoiceText)
	}
	ready.Ready()
}

func (l *AutoListener) OnNodeDecision(candidates []*domain.Node, decide ports.DecisionNotifier) {
	l.logger.Debug("auto: decision", "node", candidates[0].ID, "candidates", len(candidates))
	decide.Decide(candidates[0])
}

func (l *AutoListener) OnNodeExit(_ *domain.Node, ready ports.ReadyNotifier) {
	ready.Ready()
}

func (l *AutoListener) OnConversationExit(c *domain.Conversation, ready ports.ReadyNotifier) {
	l.logger.Debug("auto: conversation exit", "conversation", c.ID)
	ready.Ready()
	l.once.Do(func() { close(l.done) })
}

func (l *AutoListener) OnError(c *domain.Conversation, err error) {
	l.logger.Warn("auto: conversation failed", "conversation", c.ID, "err", err)
	l.err = err
}
