package runtime

import (
	"container/list"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/routine"
)

// Counters hand out context ids and sequence numbers. Both start at 1; zero is reserved
// for "unset". Schedulers sharing a Counters value never reuse a sequence number.
type Counters struct {
	nextContextID uint64
	nextSequence  uint64
}

// NewCounters returns counters starting at 1.
func NewCounters() *Counters {
	return &Counters{nextContextID: 1, nextSequence: 1}
}

func (c *Counters) contextID() uint64 {
	id := c.nextContextID
	c.nextContextID++
	return id
}

func (c *Counters) sequence() uint64 {
	seq := c.nextSequence
	c.nextSequence++
	return seq
}

// Scheduler owns a pool of contexts and ticks the active ones.
// Apart from ActiveCount, every method must be called from the goroutine the scheduler
// is bound to; other goroutines cause a panic with domain.ErrWrongGoroutine.
type Scheduler struct {
	directory *routine.Directory
	settings  domain.Settings
	counters  *Counters
	hooks     domain.LifecycleHooks
	logger    *slog.Logger

	active   *list.List
	inactive *list.List
	elements map[*Context]*list.Element
	contexts map[uint64]*Context
	running  atomic.Int64

	owner int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the structured logger used by the scheduler and its contexts.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks fired by every context.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Scheduler) {
		s.hooks = hooks
	}
}

// WithCounters shares id and sequence counters between schedulers.
func WithCounters(counters *Counters) Option {
	return func(s *Scheduler) {
		if counters != nil {
			s.counters = counters
		}
	}
}

// NewScheduler creates a scheduler bound to the calling goroutine, with
// settings.InitialConversationPool idle contexts.
func NewScheduler(directory *routine.Directory, settings domain.Settings, opts ...Option) *Scheduler {
	s := &Scheduler{
		directory: directory,
		settings:  settings,
		counters:  NewCounters(),
		logger:    logging.NewNop(),
		active:    list.New(),
		inactive:  list.New(),
		elements:  make(map[*Context]*list.Element),
		contexts:  make(map[uint64]*Context),
		owner:     goid.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for i := 0; i < settings.InitialConversationPool; i++ {
		c := s.newContext()
		s.elements[c] = s.inactive.PushBack(c)
	}
	return s
}

// Bind makes the calling goroutine the only one allowed to use the scheduler.
func (s *Scheduler) Bind() {
	s.owner = goid.Get()
}

// CheckOwner panics with domain.ErrWrongGoroutine when called off the designated goroutine.
func (s *Scheduler) CheckOwner() {
	s.ensureOwner()
}

func (s *Scheduler) ensureOwner() {
	if goid.Get() != s.owner {
		panic(domain.ErrWrongGoroutine)
	}
}

func (s *Scheduler) newContext() *Context {
	id := s.counters.contextID()
	c := newContext(id, s.directory, s.settings, s.hooks, s.logger)
	s.contexts[id] = c
	return c
}

// acquire returns an idle context, preferring the one released most recently.
func (s *Scheduler) acquire() *Context {
	var c *Context
	if back := s.inactive.Back(); back != nil {
		c = s.inactive.Remove(back).(*Context)
	} else {
		c = s.newContext()
	}
	s.elements[c] = s.active.PushBack(c)
	c.pooledActive = true
	s.running.Add(1)
	return c
}

// release stops c and moves it to the inactive list.
func (s *Scheduler) release(c *Context) {
	c.stop()
	if c.seq != 0 {
		// Restarted from inside its own exit notification.
		return
	}
	if !c.pooledActive {
		return
	}
	s.active.Remove(s.elements[c])
	s.elements[c] = s.inactive.PushBack(c)
	c.pooledActive = false
	s.running.Add(-1)
}

// find returns the context running the conversation identified by the handle.
func (s *Scheduler) find(a ActiveConversation) *Context {
	if a.seq == 0 {
		return nil
	}
	c := s.contexts[a.contextID]
	if c == nil || c.seq != a.seq {
		return nil
	}
	return c
}

// Start runs conversation on an idle context. The first tick delivers OnConversationEnter.
func (s *Scheduler) Start(conversation *domain.Conversation, listener ports.Listener) (ActiveConversation, error) {
	s.ensureOwner()
	if conversation == nil || conversation.Root == nil {
		return ActiveConversation{}, errors.New("conversation has no root node")
	}
	if listener == nil {
		return ActiveConversation{}, fmt.Errorf("conversation %s: listener is required", conversation.ID)
	}
	c := s.acquire()
	c.start(conversation, listener, s.counters.sequence())
	return ActiveConversation{seq: c.seq, contextID: c.id, scheduler: s}, nil
}

// Tick advances every active conversation once, in start order. Conversations started or
// stopped by callbacks during the pass are handled without disturbing the iteration.
func (s *Scheduler) Tick() {
	s.ensureOwner()
	for e := s.active.Front(); e != nil; {
		next := e.Next()
		c := e.Value.(*Context)
		if s.elements[c] != e {
			e = next
			continue
		}
		seq := c.seq
		if !c.Tick() && c.seq == seq {
			s.release(c)
		}
		e = next
	}
}

// Stop ends the conversation behind the handle. Stale handles are ignored.
func (s *Scheduler) Stop(a ActiveConversation) {
	s.ensureOwner()
	if c := s.find(a); c != nil {
		s.release(c)
	}
}

// StopAll ends every active conversation.
func (s *Scheduler) StopAll() {
	s.ensureOwner()
	for e := s.active.Front(); e != nil; {
		next := e.Next()
		c := e.Value.(*Context)
		if s.elements[c] == e && c.seq != 0 {
			s.release(c)
		}
		e = next
	}
}

// IsActive reports whether the handle's conversation is still running.
func (s *Scheduler) IsActive(a ActiveConversation) bool {
	s.ensureOwner()
	return s.find(a) != nil
}

// SetFlag raises a flag in the handle's conversation. Stale handles are ignored.
func (s *Scheduler) SetFlag(a ActiveConversation, flag int) {
	s.ensureOwner()
	if c := s.find(a); c != nil {
		c.SetFlag(flag)
	}
}

// SetFlagForAll raises a flag in every active conversation.
func (s *Scheduler) SetFlagForAll(flag int) {
	s.ensureOwner()
	for e := s.active.Front(); e != nil; {
		next := e.Next()
		c := e.Value.(*Context)
		if s.elements[c] == e && c.seq != 0 {
			c.SetFlag(flag)
		}
		e = next
	}
}

// RegisterFlagListener subscribes fn to flags raised in the handle's conversation.
// It returns false for stale handles. Subscriptions end with the conversation.
func (s *Scheduler) RegisterFlagListener(a ActiveConversation, fn FlagListener) (ListenerID, bool) {
	s.ensureOwner()
	c := s.find(a)
	if c == nil || fn == nil {
		return 0, false
	}
	return c.addFlagListener(fn), true
}

// UnregisterFlagListener removes a subscription. Stale handles are ignored.
func (s *Scheduler) UnregisterFlagListener(a ActiveConversation, id ListenerID) {
	s.ensureOwner()
	if c := s.find(a); c != nil {
		c.removeFlagListener(id)
	}
}

// ActiveCount returns the number of running conversations. It is safe to call from any goroutine.
func (s *Scheduler) ActiveCount() int {
	return int(s.running.Load())
}

// PoolSize returns the number of contexts ever created.
func (s *Scheduler) PoolSize() int {
	s.ensureOwner()
	return len(s.contexts)
}

// ConversationInfo describes a running conversation.
type ConversationInfo struct {
	Handle         ActiveConversation
	ConversationID string
	NodeID         string
	State          State
}

// Conversations lists the running conversations in tick order.
func (s *Scheduler) Conversations() []ConversationInfo {
	s.ensureOwner()
	out := make([]ConversationInfo, 0, s.active.Len())
	for e := s.active.Front(); e != nil; e = e.Next() {
		c := e.Value.(*Context)
		if c.seq == 0 {
			continue
		}
		info := ConversationInfo{
			Handle:         ActiveConversation{seq: c.seq, contextID: c.id, scheduler: s},
			ConversationID: c.conversation.ID,
			State:          c.state,
		}
		if c.node != nil {
			info.NodeID = c.node.ID
		}
		out = append(out, info)
	}
	return out
}
