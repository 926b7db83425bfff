package runtime

import "fmt"

// TraversalError wraps a failure that terminated a conversation during a tick.
type TraversalError struct {
	ConversationID string
	NodeID         string
	State          State
	Err            error
}

func (e *TraversalError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("conversation %s failed in %s: %v", e.ConversationID, e.State, e.Err)
	}
	return fmt.Sprintf("conversation %s failed at node %s in %s: %v", e.ConversationID, e.NodeID, e.State, e.Err)
}

func (e *TraversalError) Unwrap() error {
	return e.Err
}

// recovered turns a recovered panic value into an error.
func recovered(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
