package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventConversationEnter EventType = "conversation_enter"
	EventConversationExit  EventType = "conversation_exit"
	EventNodeEnter         EventType = "node_enter"
	EventNodeExit          EventType = "node_exit"
	EventNodeDecision      EventType = "node_decision"
	EventError             EventType = "error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	ContextID      uint64    `json:"context_id"`
	SequenceNumber uint64    `json:"seq"`
	ConversationID string    `json:"conversation_id"`
}

// ConversationEvent represents entry into or exit from a conversation.
type ConversationEvent struct {
	EventBase
}

// NodeEvent represents entry into or exit from a node.
type NodeEvent struct {
	EventBase
	NodeID  string `json:"node_id"`
	ActorID string `json:"actor_id,omitempty"`
}

// DecisionEvent is emitted when the choice of the next node is delegated to the listener.
type DecisionEvent struct {
	EventBase
	NodeID     string   `json:"node_id"`
	Candidates []string `json:"candidates"`
}

// ErrorEvent is emitted when a traversal is terminated by an error.
type ErrorEvent struct {
	EventBase
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// They run on the driver goroutine and must not block.
type LifecycleHooks struct {
	OnConversationEnter func(*ConversationEvent)
	OnConversationExit  func(*ConversationEvent)
	OnNodeEnter         func(*NodeEvent)
	OnNodeExit          func(*NodeEvent)
	OnNodeDecision      func(*DecisionEvent)
	OnError             func(*ErrorEvent)
}
