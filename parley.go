package parley

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/parley/internal/compiler"
	"github.com/aretw0/parley/internal/importer"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/schema"
)

// Re-exported runtime types, so hosts never import internal packages.
type (
	// ActiveConversation is a handle to a running conversation. Stale handles are silent no-ops.
	ActiveConversation = runtime.ActiveConversation
	// ConversationInfo describes a running conversation.
	ConversationInfo = runtime.ConversationInfo
	// TraversalError is delivered to Listener.OnError when a conversation is terminated by a failure.
	TraversalError = runtime.TraversalError
	// FlagListener observes flags raised in one conversation.
	FlagListener = runtime.FlagListener
	// ListenerID identifies a flag listener subscription.
	ListenerID = runtime.ListenerID
	// Bindings is the host surface routines are compiled against.
	Bindings = compiler.Bindings
	// Function is a host function callable from routines.
	Function = compiler.Function
	// MapStore is a map-backed variable store for Bindings.
	MapStore = compiler.MapStore
)

// Engine is the high-level entry point for the Parley library.
// It loads a graph, compiles its routines and schedules the conversations started on it.
//
// Except for ActiveCount and Name, every method must be called from the goroutine the engine
// is bound to: the one that called New, or the last one that called Bind.
type Engine struct {
	loader    ports.GraphLoader
	logger    *slog.Logger
	settings  domain.Settings
	hooks     domain.LifecycleHooks
	bindings  compiler.Bindings
	stub      bool
	counters  *runtime.Counters
	flags     *compiler.FlagRegistry
	graph     *importer.Result
	source    *schema.Graph
	scheduler atomic.Pointer[runtime.Scheduler]
	Name      string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSettings overrides the default runtime settings.
// MaxFlags is raised automatically to the number of flags the graph uses.
func WithSettings(settings domain.Settings) Option {
	return func(e *Engine) {
		e.settings = settings
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithBindings exposes host functions and variables to routines.
func WithBindings(bindings Bindings) Option {
	return func(e *Engine) {
		e.bindings = bindings
	}
}

// WithStubFailedRoutines loads graphs whose routines fail to compile, replacing them with no-ops.
func WithStubFailedRoutines(stub bool) Option {
	return func(e *Engine) {
		e.stub = stub
	}
}

// WithName labels the engine in logs.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New loads and compiles the graph provided by loader.
// The calling goroutine becomes the engine's designated goroutine.
func New(loader ports.GraphLoader, opts ...Option) (*Engine, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	eng := &Engine{
		loader:   loader,
		settings: domain.DefaultSettings(),
		counters: runtime.NewCounters(),
		flags:    compiler.NewFlagRegistry(),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("graph", eng.Name)
	}

	if err := eng.load(context.Background()); err != nil {
		return nil, err
	}
	return eng, nil
}

func (e *Engine) load(ctx context.Context) error {
	g, err := e.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}
	imp := importer.New(
		importer.WithLogger(e.logger),
		importer.WithBindings(e.bindings),
		importer.WithFlagRegistry(e.flags),
		importer.WithStubFailedRoutines(e.stub),
	)
	res, err := imp.Import(g, e.settings)
	if err != nil {
		return fmt.Errorf("failed to import graph: %w", err)
	}

	e.graph = res
	e.source = g
	e.scheduler.Store(runtime.NewScheduler(res.Directory, res.Settings,
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithCounters(e.counters),
	))
	e.logger.Info("graph loaded",
		"conversations", len(res.Database.Conversations),
		"flags", res.Flags.Len(),
		"stubbed", res.Stubbed)
	return nil
}

// Reload stops every running conversation and recompiles the graph from the loader.
// Flag indices and sequence numbers carry over, so handles from before the reload stay stale.
// On failure the previous graph keeps running.
func (e *Engine) Reload(ctx context.Context) error {
	prev := e.sched()
	prev.CheckOwner()
	if err := e.load(ctx); err != nil {
		return err
	}
	prev.StopAll()
	return nil
}

// Bind makes the calling goroutine the engine's designated goroutine.
func (e *Engine) Bind() {
	e.sched().Bind()
}

// Start runs the conversation with the given id.
func (e *Engine) Start(conversationID string, listener ports.Listener) (ActiveConversation, error) {
	conv := e.graph.Database.FindConversation(conversationID)
	if conv == nil {
		return ActiveConversation{}, fmt.Errorf("%w: %s", domain.ErrConversationNotFound, conversationID)
	}
	return e.StartConversation(conv, listener)
}

// StartConversation runs a conversation of the loaded database.
func (e *Engine) StartConversation(conv *domain.Conversation, listener ports.Listener) (ActiveConversation, error) {
	a, err := e.sched().Start(conv, listener)
	if err != nil {
		return ActiveConversation{}, err
	}
	e.logger.Debug("conversation started", "conversation", conv.ID, "context_id", a.ContextID(), "seq", a.SequenceNumber())
	return a, nil
}

// Tick advances every running conversation once.
func (e *Engine) Tick() {
	e.sched().Tick()
}

// StopAll ends every running conversation.
func (e *Engine) StopAll() {
	e.sched().StopAll()
}

// SetFlagForAll raises a flag in every running conversation.
func (e *Engine) SetFlagForAll(flag int) {
	e.sched().SetFlagForAll(flag)
}

// Flag resolves a flag name to its index.
func (e *Engine) Flag(name string) (int, bool) {
	return e.flags.Index(name)
}

// FlagNames lists the flags referenced by the graph's routines, in index order.
func (e *Engine) FlagNames() []string {
	return e.flags.Names()
}

// Database returns the compiled conversations and actors.
func (e *Engine) Database() *domain.Database {
	return e.graph.Database
}

// Graph returns the document the current graph was compiled from.
func (e *Engine) Graph() *schema.Graph {
	return e.source
}

// Settings returns the effective runtime settings.
func (e *Engine) Settings() domain.Settings {
	return e.graph.Settings
}

// Conversations lists the running conversations.
func (e *Engine) Conversations() []ConversationInfo {
	return e.sched().Conversations()
}

// ActiveCount returns the number of running conversations. It is safe to call from any goroutine.
func (e *Engine) ActiveCount() int {
	return e.sched().ActiveCount()
}

// Watch returns a channel that signals when the underlying graph changes.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

func (e *Engine) sched() *runtime.Scheduler {
	return e.scheduler.Load()
}
