// Package importer compiles a schema.Graph into the runtime entities consumed by the scheduler.
package importer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/parley/internal/compiler"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/routine"
	"github.com/aretw0/parley/pkg/schema"
)

// Result is a compiled graph ready to run.
type Result struct {
	Database  *domain.Database
	Directory *routine.Directory
	Flags     *compiler.FlagRegistry
	// Settings carries MaxFlags raised to the number of flags the routines use.
	Settings domain.Settings
	// Stubbed counts routines replaced by no-ops after failing to compile.
	Stubbed int
}

// RoutineError locates a routine that failed to compile.
type RoutineError struct {
	ConversationID string
	NodeID         string
	Kind           routine.Kind
	Err            error
}

func (e *RoutineError) Error() string {
	return fmt.Sprintf("%s/%s %s: %v", e.ConversationID, e.NodeID, e.Kind, e.Err)
}

func (e *RoutineError) Unwrap() error {
	return e.Err
}

// Importer holds the compilation options.
type Importer struct {
	logger   *slog.Logger
	bindings compiler.Bindings
	flags    *compiler.FlagRegistry
	stub     bool
}

// Option configures the Importer.
type Option func(*Importer)

// WithLogger sets the logger used to report stubbed routines.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

// WithBindings sets the host functions and variables routines are compiled against.
func WithBindings(b compiler.Bindings) Option {
	return func(i *Importer) {
		i.bindings = b
	}
}

// WithFlagRegistry reuses a registry so flag indices survive a reload.
func WithFlagRegistry(r *compiler.FlagRegistry) Option {
	return func(i *Importer) {
		i.flags = r
	}
}

// WithStubFailedRoutines replaces routines that fail to compile with the reserved no-ops
// instead of aborting the import.
func WithStubFailedRoutines(stub bool) Option {
	return func(i *Importer) {
		i.stub = stub
	}
}

// New creates an Importer.
func New(opts ...Option) *Importer {
	i := &Importer{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	if i.flags == nil {
		i.flags = compiler.NewFlagRegistry()
	}
	return i
}

// Import validates and compiles the graph.
func (i *Importer) Import(g *schema.Graph, settings domain.Settings) (*Result, error) {
	if err := schema.Validate(g); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	res := &Result{
		Directory: routine.NewDirectory(),
		Flags:     i.flags,
	}
	comp := compiler.New(i.flags, i.bindings)

	actors := make([]*domain.Actor, 0, len(g.Actors))
	actorsByID := make(map[string]*domain.Actor, len(g.Actors))
	for _, a := range g.Actors {
		actor := &domain.Actor{ID: a.ID, Name: a.Name}
		actors = append(actors, actor)
		actorsByID[a.ID] = actor
	}

	var errs []error
	conversations := make([]*domain.Conversation, 0, len(g.Conversations))
	for ci := range g.Conversations {
		sc := &g.Conversations[ci]
		conv := &domain.Conversation{ID: sc.ID, Name: sc.Name}
		byID := make(map[string]*domain.Node, len(sc.Nodes))

		for _, sn := range sc.Nodes {
			node := &domain.Node{
				ID:              sn.ID,
				Actor:           actorsByID[sn.Actor],
				VoiceText:       sn.Voice,
				ResponseText:    sn.Response,
				PreventResponse: sn.PreventResponse,
			}

			var err error
			if node.Condition, err = i.compile(comp, res, sc.ID, sn.ID, sn.Condition, routine.KindCondition); err != nil {
				errs = append(errs, err)
			}
			if node.Code, err = i.compile(comp, res, sc.ID, sn.ID, sn.Code, routine.KindCode); err != nil {
				errs = append(errs, err)
			}
			if node.Properties, err = properties(sn.Properties); err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", sc.ID, sn.ID, err))
			}

			conv.Nodes = append(conv.Nodes, node)
			byID[sn.ID] = node
		}

		for _, se := range sc.Edges {
			source, target := byID[se.From], byID[se.To]
			source.OutgoingEdges = append(source.OutgoingEdges, &domain.Edge{
				Source:   source,
				Target:   target,
				Priority: se.Priority,
			})
		}

		rootID, err := sc.RootID()
		if err != nil {
			errs = append(errs, err)
		}
		conv.Root = byID[rootID]
		conversations = append(conversations, conv)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	res.Database = domain.NewDatabase(actors, conversations)
	res.Settings = settings
	if n := i.flags.Len(); n > res.Settings.MaxFlags {
		res.Settings.MaxFlags = n
	}
	i.logger.Debug("graph imported",
		"conversations", len(conversations),
		"routines", res.Directory.Len(),
		"flags", i.flags.Len(),
		"stubbed", res.Stubbed)
	return res, nil
}

func (i *Importer) compile(comp *compiler.Compiler, res *Result, convID, nodeID, source string, kind routine.Kind) (int, error) {
	noop := routine.NoopCode
	if kind == routine.KindCondition {
		noop = routine.NoopCondition
	}

	unit, err := comp.Compile(source, kind)
	if err != nil {
		rerr := &RoutineError{ConversationID: convID, NodeID: nodeID, Kind: kind, Err: err}
		if !i.stub {
			return noop, rerr
		}
		res.Stubbed++
		i.logger.Warn("routine stubbed", "conversation", convID, "node", nodeID, "kind", kind.String(), "err", err)
		return noop, nil
	}
	if unit.Empty() {
		return noop, nil
	}
	return res.Directory.Add(unit.Routine), nil
}

func properties(in []schema.Property) ([]domain.Property, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]domain.Property, 0, len(in))
	for _, p := range in {
		typ, err := p.ResolveType()
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", p.Name, err)
		}
		v, err := typ.Convert(p.Value)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", p.Name, err)
		}
		out = append(out, domain.Property{Name: p.Name, Value: v})
	}
	domain.SortProperties(out)
	return out, nil
}
