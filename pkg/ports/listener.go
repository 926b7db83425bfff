package ports

import "github.com/aretw0/parley/pkg/domain"

// ReadyNotifier unblocks a conversation waiting in an enter or exit phase.
// Ready is one-shot; calls after the first, or after the conversation ended, are ignored.
type ReadyNotifier interface {
	Ready()
	// IsValid reports whether Ready would still have an effect.
	IsValid() bool
}

// DecisionNotifier resumes a conversation waiting for a choice between candidate nodes.
type DecisionNotifier interface {
	// Decide selects the next node. It must be one of the offered candidates.
	Decide(node *domain.Node)
	IsValid() bool
}

// Listener is the presentation side of a running conversation.
// Every call happens on the driver goroutine. Notifiers may be kept and invoked later from
// that goroutine, including from within the call itself.
type Listener interface {
	// OnConversationEnter is called before the root node is traversed.
	OnConversationEnter(conversation *domain.Conversation, ready ReadyNotifier)

	// OnNodeEnter is called before a node's code routine runs.
	OnNodeEnter(node *domain.Node, ready ReadyNotifier)

	// OnNodeDecision is called when the next node must be chosen by the listener.
	// The candidates slice is owned by the listener.
	OnNodeDecision(candidates []*domain.Node, decide DecisionNotifier)

	// OnNodeExit is called after a node's code routine has completed.
	OnNodeExit(node *domain.Node, ready ReadyNotifier)

	// OnConversationExit is called exactly once per conversation, whether it ended
	// naturally, was stopped or failed.
	OnConversationExit(conversation *domain.Conversation, ready ReadyNotifier)

	// OnError reports the error that terminated the conversation.
	OnError(conversation *domain.Conversation, err error)
}
