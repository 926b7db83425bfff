package runtime

import "github.com/aretw0/parley/pkg/domain"

type completionKind int

const (
	completionNone completionKind = iota
	completionConversationEnter
	completionNodeEnter
	completionNodeExit
	completionDecision
	completionConversationExit
)

// completion is a listener callback recorded for the wait state that asked for it.
type completion struct {
	kind  completionKind
	token uint64
	node  *domain.Node
}

// readyNotifier is the one-shot ports.ReadyNotifier handed to listeners.
type readyNotifier struct {
	ctx   *Context
	seq   uint64
	kind  completionKind
	token uint64
	fired bool
}

func (n *readyNotifier) IsValid() bool {
	return !n.fired && n.ctx.seq == n.seq
}

func (n *readyNotifier) Ready() {
	if !n.IsValid() {
		return
	}
	n.fired = true
	n.ctx.complete(completion{kind: n.kind, token: n.token})
}

// decisionNotifier is the one-shot ports.DecisionNotifier handed to listeners.
type decisionNotifier struct {
	ctx   *Context
	seq   uint64
	token uint64
	fired bool
}

func (n *decisionNotifier) IsValid() bool {
	return !n.fired && n.ctx.seq == n.seq
}

func (n *decisionNotifier) Decide(node *domain.Node) {
	if !n.IsValid() {
		return
	}
	n.fired = true
	n.ctx.complete(completion{kind: completionDecision, token: n.token, node: node})
}
