package runtime

import "fmt"

// State is a phase of a context's traversal state machine.
type State int

const (
	StateIdle State = iota
	StateConversationEnter
	StateConversationEnterWait
	StateNodeEnter
	StateNodeEnterWait
	StateNodeExecute
	StateNodeExit
	StateNodeExitWait
	StateNodeDecision
	StateNodeDecisionWait
	StateConversationExitWait
)

var stateNames = [...]string{
	StateIdle:                  "idle",
	StateConversationEnter:     "conversation_enter",
	StateConversationEnterWait: "conversation_enter_wait",
	StateNodeEnter:             "node_enter",
	StateNodeEnterWait:         "node_enter_wait",
	StateNodeExecute:           "node_execute",
	StateNodeExit:              "node_exit",
	StateNodeExitWait:          "node_exit_wait",
	StateNodeDecision:          "node_decision",
	StateNodeDecisionWait:      "node_decision_wait",
	StateConversationExitWait:  "conversation_exit_wait",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}
