package runtime

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/routine"
)

// FlagListener observes flags raised in a running conversation.
type FlagListener func(flag int)

// ListenerID identifies a registered FlagListener.
type ListenerID uint64

type flagSubscription struct {
	id ListenerID
	fn FlagListener
}

// Context runs one conversation at a time as a cooperative state machine.
// Contexts are pooled by the Scheduler; each started conversation gets a fresh
// sequence number, and every handle, notifier and lease captured for an earlier
// sequence number turns into a no-op.
type Context struct {
	id    uint64
	seq   uint64
	state State

	conversation *domain.Conversation
	node         *domain.Node
	listener     ports.Listener

	directory *routine.Directory
	settings  domain.Settings
	routines  *routineState

	pending      completion
	token        uint64
	candidates   []*domain.Node
	exitNotified bool

	flagListeners  []flagSubscription
	nextListenerID ListenerID

	hooks  domain.LifecycleHooks
	logger *slog.Logger

	// pooledActive is owned by the Scheduler: true while the context sits in the active list.
	pooledActive bool
}

var _ routine.Context = (*Context)(nil)

func newContext(id uint64, directory *routine.Directory, settings domain.Settings, hooks domain.LifecycleHooks, logger *slog.Logger) *Context {
	return &Context{
		id:         id,
		directory:  directory,
		settings:   settings,
		routines:   newRoutineState(settings.MaxFlags),
		candidates: make([]*domain.Node, 0, 16),
		hooks:      hooks,
		logger:     logger,
	}
}

// ID is the stable identity of the context across conversations.
func (c *Context) ID() uint64 { return c.id }

// SequenceNumber identifies the running conversation. Zero means idle.
func (c *Context) SequenceNumber() uint64 { return c.seq }

// State returns the current traversal phase.
func (c *Context) State() State { return c.state }

// Conversation returns the running conversation, or nil when idle.
func (c *Context) Conversation() *domain.Conversation { return c.conversation }

// Node returns the node being traversed, or nil when idle.
func (c *Context) Node() *domain.Node { return c.node }

func (c *Context) start(conversation *domain.Conversation, listener ports.Listener, seq uint64) {
	c.seq = seq
	c.conversation = conversation
	c.node = conversation.Root
	c.listener = listener
	c.state = StateConversationEnter
	c.logger.Debug("conversation start", "context_id", c.id, "seq", seq, "conversation", conversation.ID)
}

// stop notifies the listener of the exit, unless that already happened, and resets the context.
func (c *Context) stop() {
	seq := c.seq
	if seq == 0 {
		return
	}
	if !c.exitNotified {
		c.safeCall("OnConversationExit", c.notifyExit)
		if c.seq != seq {
			// The listener stopped or restarted this context itself.
			return
		}
	}
	c.logger.Debug("conversation stop", "context_id", c.id, "seq", seq)
	c.reset()
}

func (c *Context) reset() {
	c.seq = 0
	c.state = StateIdle
	c.conversation = nil
	c.node = nil
	c.listener = nil
	c.routines.reset()
	c.pending = completion{}
	clear(c.candidates)
	c.candidates = c.candidates[:0]
	c.exitNotified = false
	c.flagListeners = nil
}

// Tick advances the conversation until it has to wait and reports whether it is still running.
// Errors and panics raised by routines or listener callbacks end the conversation and are
// reported through OnError.
func (c *Context) Tick() (active bool) {
	seq := c.seq
	if seq == 0 {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			c.fail(seq, recovered(r))
			active = false
		}
	}()
	active, err := c.advance(seq)
	if err != nil {
		c.fail(seq, err)
		return false
	}
	return active
}

// advance runs the state machine. Every listener or routine call may stop the conversation,
// so the sequence number is checked after each one.
func (c *Context) advance(seq uint64) (bool, error) {
	for {
		switch c.state {
		case StateIdle:
			return false, nil

		case StateConversationEnter:
			c.state = StateConversationEnterWait
			c.emitConversation(domain.EventConversationEnter)
			c.listener.OnConversationEnter(c.conversation, c.newReady(completionConversationEnter))
			if c.seq != seq {
				return false, nil
			}

		case StateConversationEnterWait:
			if _, ok := c.consume(completionConversationEnter); !ok {
				return true, nil
			}
			c.state = StateNodeEnter

		case StateNodeEnter:
			c.state = StateNodeEnterWait
			c.logger.Debug("node enter", "context_id", c.id, "seq", seq, "node", c.node.ID)
			c.emitNode(domain.EventNodeEnter)
			c.listener.OnNodeEnter(c.node, c.newReady(completionNodeEnter))
			if c.seq != seq {
				return false, nil
			}

		case StateNodeEnterWait:
			if _, ok := c.consume(completionNodeEnter); !ok {
				return true, nil
			}
			c.state = StateNodeExecute

		case StateNodeExecute:
			err := c.directory.Run(c.node.Code, c)
			if c.seq != seq {
				return false, nil
			}
			if err != nil {
				return false, fmt.Errorf("code routine of node %s: %w", c.node.ID, err)
			}
			if !c.routines.isComplete() {
				return true, nil
			}
			c.routines.reset()
			c.state = StateNodeExit

		case StateNodeExit:
			c.state = StateNodeExitWait
			c.emitNode(domain.EventNodeExit)
			c.listener.OnNodeExit(c.node, c.newReady(completionNodeExit))
			if c.seq != seq {
				return false, nil
			}

		case StateNodeExitWait:
			if _, ok := c.consume(completionNodeExit); !ok {
				return true, nil
			}
			c.state = StateNodeDecision

		case StateNodeDecision:
			if err := c.decide(seq); err != nil {
				return false, err
			}
			if c.seq != seq {
				return false, nil
			}

		case StateNodeDecisionWait:
			done, ok := c.consume(completionDecision)
			if !ok {
				return true, nil
			}
			if done.node == nil || !slices.Contains(c.candidates, done.node) {
				return false, fmt.Errorf("%w: %s", domain.ErrInvalidDecision, nodeID(done.node))
			}
			c.node = done.node
			clear(c.candidates)
			c.candidates = c.candidates[:0]
			c.state = StateNodeEnter

		case StateConversationExitWait:
			if _, ok := c.consume(completionConversationExit); !ok {
				return true, nil
			}
			return false, nil

		default:
			return false, fmt.Errorf("invalid state %s", c.state)
		}
	}
}

// decide evaluates the conditions of every outgoing edge and either ends the conversation,
// hands the candidates to the listener or moves to the highest priority candidate.
// Ties keep the first candidate seen.
func (c *Context) decide(seq uint64) error {
	clear(c.candidates)
	c.candidates = c.candidates[:0]

	var (
		actor        string
		sameActor    = true
		best         *domain.Node
		bestPriority int
	)
	for _, edge := range c.node.OutgoingEdges {
		ok, err := c.evaluate(seq, edge.Target.Condition)
		if c.seq != seq {
			return nil
		}
		if err != nil {
			return fmt.Errorf("condition of node %s: %w", edge.Target.ID, err)
		}
		if !ok {
			continue
		}

		c.candidates = append(c.candidates, edge.Target)
		if len(c.candidates) == 1 {
			actor = actorID(edge.Target)
		} else if sameActor && actor != actorID(edge.Target) {
			sameActor = false
		}
		if best == nil || bestPriority < edge.Priority {
			best = edge.Target
			bestPriority = edge.Priority
		}
	}

	count := len(c.candidates)
	if count == 0 {
		c.state = StateConversationExitWait
		c.notifyExit()
		return nil
	}

	choice := count > 1 || (count == 1 && !c.settings.PreventSingleNodeChoices && c.candidates[0].HasResponseText())
	if choice && sameActor && !c.node.PreventResponse {
		c.state = StateNodeDecisionWait
		offered := slices.Clone(c.candidates)
		c.emitDecision(offered)
		c.listener.OnNodeDecision(offered, c.newDecision())
		return nil
	}

	clear(c.candidates)
	c.candidates = c.candidates[:0]
	c.node = best
	c.state = StateNodeEnter
	return nil
}

// evaluate runs a condition routine and resets the routine state afterwards.
func (c *Context) evaluate(seq uint64, index int) (bool, error) {
	if err := c.directory.Run(index, c); err != nil {
		if c.seq == seq {
			c.routines.reset()
		}
		return false, err
	}
	if c.seq != seq {
		return false, nil
	}
	result, err := c.routines.result()
	c.routines.reset()
	return result, err
}

func (c *Context) notifyExit() {
	c.exitNotified = true
	c.logger.Debug("conversation exit", "context_id", c.id, "seq", c.seq)
	c.emitConversation(domain.EventConversationExit)
	c.listener.OnConversationExit(c.conversation, c.newReady(completionConversationExit))
}

func (c *Context) fail(seq uint64, err error) {
	if c.seq != seq {
		c.logger.Warn("error after conversation ended", "context_id", c.id, "seq", seq, "error", err)
		return
	}
	terr := &TraversalError{ConversationID: c.conversation.ID, State: c.state, Err: err}
	if c.node != nil {
		terr.NodeID = c.node.ID
	}
	c.logger.Error("conversation failed", "context_id", c.id, "seq", seq, "error", terr)
	if c.hooks.OnError != nil {
		c.hooks.OnError(&domain.ErrorEvent{EventBase: c.event(domain.EventError), Err: terr})
	}
	c.safeCall("OnError", func() { c.listener.OnError(c.conversation, terr) })
}

// safeCall runs a listener callback outside of Tick's recovery.
func (c *Context) safeCall(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("listener panicked", "context_id", c.id, "callback", name, "error", recovered(r))
		}
	}()
	fn()
}

func (c *Context) newReady(kind completionKind) ports.ReadyNotifier {
	c.token++
	c.pending = completion{}
	return &readyNotifier{ctx: c, seq: c.seq, kind: kind, token: c.token}
}

func (c *Context) newDecision() ports.DecisionNotifier {
	c.token++
	c.pending = completion{}
	return &decisionNotifier{ctx: c, seq: c.seq, token: c.token}
}

// complete records a notifier callback if it belongs to the most recent wait.
func (c *Context) complete(done completion) {
	if done.token != c.token {
		return
	}
	c.pending = done
}

func (c *Context) consume(kind completionKind) (completion, bool) {
	if c.pending.kind != kind {
		return completion{}, false
	}
	done := c.pending
	c.pending = completion{}
	return done, true
}

func (c *Context) addFlagListener(fn FlagListener) ListenerID {
	c.nextListenerID++
	c.flagListeners = append(c.flagListeners, flagSubscription{id: c.nextListenerID, fn: fn})
	return c.nextListenerID
}

func (c *Context) removeFlagListener(id ListenerID) {
	c.flagListeners = slices.DeleteFunc(c.flagListeners, func(s flagSubscription) bool {
		return s.id == id
	})
}

// CurrentNode returns the node being traversed if seq still identifies the running conversation.
func (c *Context) CurrentNode(seq uint64) *domain.Node {
	if seq == 0 || seq != c.seq {
		return nil
	}
	return c.node
}

func (c *Context) SetConditionResult(result bool) { c.routines.setConditionResult(result) }

func (c *Context) SetBlocksInUse(count int)           { c.routines.setBlocksInUse(count) }
func (c *Context) IsBlockExecuted(block int) bool     { return c.routines.block(block).executed }
func (c *Context) SetBlockExecuted(block int)         { c.routines.block(block).executed = true }
func (c *Context) HaveBlockFlagsFired(block int) bool { return c.routines.block(block).flagsFired }
func (c *Context) SetBlockFlagsFired(block int)       { c.routines.block(block).flagsFired = true }

func (c *Context) HaveBlockSignalsFired(block int) bool {
	return c.routines.block(block).haveAllSignalsFired()
}

// AcquireLease allocates a signal in the given block. A stale seq yields a lease that is already spent.
func (c *Context) AcquireLease(block int, seq uint64) routine.Lease {
	if seq == 0 || seq != c.seq {
		return spentLease()
	}
	return c.routines.block(block).acquire(c, seq)
}

// SetFlag raises a flag and notifies the registered flag listeners.
// Indices outside the flag array panic with domain.ErrFlagOutOfRange.
func (c *Context) SetFlag(flag int) {
	c.routines.setFlag(flag)
	if len(c.flagListeners) == 0 {
		return
	}
	seq := c.seq
	for _, sub := range slices.Clone(c.flagListeners) {
		sub.fn(flag)
		if c.seq != seq {
			return
		}
	}
}

func (c *Context) IsFlagSet(flag int) bool { return c.routines.isFlagSet(flag) }

func (c *Context) SetFlags(flags []int) {
	for _, f := range flags {
		c.SetFlag(f)
	}
}

func (c *Context) AreFlagsSet(flags []int) bool {
	for _, f := range flags {
		if !c.IsFlagSet(f) {
			return false
		}
	}
	return true
}

func (c *Context) event(t domain.EventType) domain.EventBase {
	base := domain.EventBase{
		Timestamp:      time.Now(),
		Type:           t,
		ContextID:      c.id,
		SequenceNumber: c.seq,
	}
	if c.conversation != nil {
		base.ConversationID = c.conversation.ID
	}
	return base
}

func (c *Context) emitConversation(t domain.EventType) {
	var hook func(*domain.ConversationEvent)
	if t == domain.EventConversationEnter {
		hook = c.hooks.OnConversationEnter
	} else {
		hook = c.hooks.OnConversationExit
	}
	if hook != nil {
		hook(&domain.ConversationEvent{EventBase: c.event(t)})
	}
}

func (c *Context) emitNode(t domain.EventType) {
	hook := c.hooks.OnNodeEnter
	if t == domain.EventNodeExit {
		hook = c.hooks.OnNodeExit
	}
	if hook != nil {
		hook(&domain.NodeEvent{EventBase: c.event(t), NodeID: c.node.ID, ActorID: actorID(c.node)})
	}
}

func (c *Context) emitDecision(candidates []*domain.Node) {
	if c.hooks.OnNodeDecision == nil {
		return
	}
	ids := make([]string, len(candidates))
	for i, n := range candidates {
		ids[i] = n.ID
	}
	c.hooks.OnNodeDecision(&domain.DecisionEvent{EventBase: c.event(domain.EventNodeDecision), NodeID: c.node.ID, Candidates: ids})
}

func actorID(n *domain.Node) string {
	if n.Actor == nil {
		return ""
	}
	return n.Actor.ID
}

func nodeID(n *domain.Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.ID
}
