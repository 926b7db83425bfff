package observability

import (
	"log/slog"

	"github.com/aretw0/parley/pkg/domain"
)

// LogHooks returns lifecycle hooks that log every event at debug level.
// Errors are logged at warn level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnConversationEnter: func(e *domain.ConversationEvent) {
			logger.Debug("conversation enter", "conversation", e.ConversationID, "context", e.ContextID, "seq", e.SequenceNumber)
		},
		OnConversationExit: func(e *domain.ConversationEvent) {
			logger.Debug("conversation exit", "conversation", e.ConversationID, "context", e.ContextID, "seq", e.SequenceNumber)
		},
		OnNodeEnter: func(e *domain.NodeEvent) {
			logger.Debug("node enter", "conversation", e.ConversationID, "node", e.NodeID, "actor", e.ActorID)
		},
		OnNodeExit: func(e *domain.NodeEvent) {
			logger.Debug("node exit", "conversation", e.ConversationID, "node", e.NodeID)
		},
		OnNodeDecision: func(e *domain.DecisionEvent) {
			logger.Debug("node decision", "conversation", e.ConversationID, "node", e.NodeID, "candidates", e.Candidates)
		},
		OnError: func(e *domain.ErrorEvent) {
			logger.Warn("traversal failed", "conversation", e.ConversationID, "context", e.ContextID, "err", e.Err)
		},
	}
}

// Combine merges hook sets. Each callback invokes the non-nil callbacks of all sets in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnConversationEnter = chain(out.OnConversationEnter, h.OnConversationEnter)
		out.OnConversationExit = chain(out.OnConversationExit, h.OnConversationExit)
		out.OnNodeEnter = chain(out.OnNodeEnter, h.OnNodeEnter)
		out.OnNodeExit = chain(out.OnNodeExit, h.OnNodeExit)
		out.OnNodeDecision = chain(out.OnNodeDecision, h.OnNodeDecision)
		out.OnError = chain(out.OnError, h.OnError)
	}
	return out
}

func chain[E any](a, b func(E)) func(E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e E) {
		a(e)
		b(e)
	}
}
