package runtime_test

import (
	"strings"

	"github.com/aretw0/parley/internal/runtime"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/routine"
)

// testGraph builds a conversation directly from domain types and Go routines.
type testGraph struct {
	dir  *routine.Directory
	conv *domain.Conversation
}

func newTestGraph(id string) *testGraph {
	root := &domain.Node{ID: "root", Code: routine.NoopCode, Condition: routine.NoopCondition}
	return &testGraph{
		dir:  routine.NewDirectory(),
		conv: &domain.Conversation{ID: id, Root: root, Nodes: []*domain.Node{root}},
	}
}

func (g *testGraph) root() *domain.Node { return g.conv.Root }

func (g *testGraph) node(id, actor string) *domain.Node {
	n := &domain.Node{
		ID:        id,
		Actor:     &domain.Actor{ID: actor, Name: strings.ToUpper(actor)},
		Code:      routine.NoopCode,
		Condition: routine.NoopCondition,
	}
	g.conv.Nodes = append(g.conv.Nodes, n)
	return n
}

func (g *testGraph) edge(from, to *domain.Node, priority int) {
	from.OutgoingEdges = append(from.OutgoingEdges, &domain.Edge{Source: from, Target: to, Priority: priority})
}

func (g *testGraph) condition(n *domain.Node, result bool) {
	n.Condition = g.dir.Add(func(ctx routine.Context) error {
		ctx.SetConditionResult(result)
		return nil
	})
}

func (g *testGraph) code(n *domain.Node, r routine.Routine) {
	n.Code = g.dir.Add(r)
}

func (g *testGraph) scheduler(settings domain.Settings, opts ...runtime.Option) *runtime.Scheduler {
	return runtime.NewScheduler(g.dir, settings, opts...)
}

func testSettings() domain.Settings {
	return domain.Settings{MaxFlags: 4, InitialConversationPool: 1}
}

// recorder is a ports.Listener that logs every callback.
// With hold set it keeps notifiers instead of calling them.
type recorder struct {
	events []string
	hold   bool

	ready      ports.ReadyNotifier
	decide     ports.DecisionNotifier
	candidates []*domain.Node
	errs       []error

	choose      func([]*domain.Node) *domain.Node
	onNodeEnter func(*domain.Node)
	onExit      func()
}

func (r *recorder) handle(ready ports.ReadyNotifier) {
	r.ready = ready
	if !r.hold {
		ready.Ready()
	}
}

func (r *recorder) OnConversationEnter(c *domain.Conversation, ready ports.ReadyNotifier) {
	r.events = append(r.events, "conversation_enter:"+c.ID)
	r.handle(ready)
}

func (r *recorder) OnNodeEnter(n *domain.Node, ready ports.ReadyNotifier) {
	r.events = append(r.events, "node_enter:"+n.ID)
	if r.onNodeEnter != nil {
		r.onNodeEnter(n)
	}
	r.handle(ready)
}

func (r *recorder) OnNodeDecision(candidates []*domain.Node, decide ports.DecisionNotifier) {
	ids := make([]string, len(candidates))
	for i, n := range candidates {
		ids[i] = n.ID
	}
	r.events = append(r.events, "decision:"+strings.Join(ids, ","))
	r.candidates = candidates
	r.decide = decide
	if r.choose != nil {
		decide.Decide(r.choose(candidates))
	}
}

func (r *recorder) OnNodeExit(n *domain.Node, ready ports.ReadyNotifier) {
	r.events = append(r.events, "node_exit:"+n.ID)
	r.handle(ready)
}

func (r *recorder) OnConversationExit(c *domain.Conversation, ready ports.ReadyNotifier) {
	r.events = append(r.events, "conversation_exit:"+c.ID)
	if r.onExit != nil {
		r.onExit()
	}
	r.handle(ready)
}

func (r *recorder) OnError(_ *domain.Conversation, err error) {
	r.events = append(r.events, "error")
	r.errs = append(r.errs, err)
}

func (r *recorder) count(event string) int {
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func (r *recorder) nodeEnters() []string {
	var out []string
	for _, e := range r.events {
		if id, ok := strings.CutPrefix(e, "node_enter:"); ok {
			out = append(out, id)
		}
	}
	return out
}
