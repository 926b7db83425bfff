package importer_test

import (
	"errors"
	"testing"

	"github.com/aretw0/parley/internal/compiler"
	"github.com/aretw0/parley/internal/importer"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/routine"
	"github.com/aretw0/parley/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gate() *schema.Graph {
	return &schema.Graph{
		Actors: []schema.Actor{{ID: "guard", Name: "Guard"}},
		Conversations: []schema.Conversation{{
			ID:   "gate",
			Name: "The Gate",
			Nodes: []schema.Node{
				{ID: "start"},
				{
					ID:    "halt",
					Actor: "guard",
					Voice: "Halt!",
					Code:  "@begin @end (alerted) @begin (alerted) ; @end (armed)",
					Properties: []schema.Property{
						{Name: "weight", Type: "float", Value: 2},
						{Name: "mood", Value: "grim"},
						{Name: "marker"},
					},
				},
				{ID: "friend", Actor: "guard", Response: "A friend.", Condition: "true && true"},
				{ID: "foe", Actor: "guard", Response: "A foe.", PreventResponse: true},
			},
			Edges: []schema.Edge{
				{From: "start", To: "halt"},
				{From: "halt", To: "friend", Priority: 1},
				{From: "halt", To: "foe"},
			},
		}},
	}
}

func TestImport(t *testing.T) {
	res, err := importer.New().Import(gate(), domain.Settings{MaxFlags: 1, InitialConversationPool: 2})
	require.NoError(t, err)

	conv := res.Database.FindConversation("gate")
	require.NotNil(t, conv)
	assert.Equal(t, "The Gate", conv.Name)
	require.NotNil(t, conv.Root)
	assert.Equal(t, "start", conv.Root.ID)
	assert.Len(t, conv.Nodes, 4)

	guard := res.Database.FindActor("guard")
	require.NotNil(t, guard)

	start := conv.FindNode("start")
	assert.Equal(t, routine.NoopCode, start.Code)
	assert.Equal(t, routine.NoopCondition, start.Condition)
	assert.Nil(t, start.Actor)

	halt := conv.FindNode("halt")
	assert.Same(t, guard, halt.Actor)
	assert.Equal(t, "Halt!", halt.VoiceText)
	assert.GreaterOrEqual(t, halt.Code, 2)
	assert.Equal(t, routine.NoopCondition, halt.Condition)
	assert.Equal(t, []domain.Property{
		{Name: "marker", Value: nil},
		{Name: "mood", Value: "grim"},
		{Name: "weight", Value: float64(2)},
	}, halt.Properties)

	require.Len(t, halt.OutgoingEdges, 2)
	assert.Same(t, halt, halt.OutgoingEdges[0].Source)
	assert.Equal(t, "friend", halt.OutgoingEdges[0].Target.ID)
	assert.Equal(t, 1, halt.OutgoingEdges[0].Priority)
	assert.Equal(t, "foe", halt.OutgoingEdges[1].Target.ID)

	friend := conv.FindNode("friend")
	assert.GreaterOrEqual(t, friend.Condition, 2)
	assert.Equal(t, routine.NoopCode, friend.Code)
	assert.True(t, conv.FindNode("foe").PreventResponse)

	// Every index resolves in the directory.
	for _, n := range conv.Nodes {
		_, err := res.Directory.Get(n.Code)
		assert.NoError(t, err)
		_, err = res.Directory.Get(n.Condition)
		assert.NoError(t, err)
	}

	assert.Equal(t, []string{"alerted", "armed"}, res.Flags.Names())
	assert.Equal(t, 2, res.Settings.MaxFlags)
	assert.Equal(t, 2, res.Settings.InitialConversationPool)
	assert.Zero(t, res.Stubbed)
}

func TestImport_KeepsLargerMaxFlags(t *testing.T) {
	res, err := importer.New().Import(gate(), domain.Settings{MaxFlags: 16})
	require.NoError(t, err)
	assert.Equal(t, 16, res.Settings.MaxFlags)
}

func TestImport_InvalidGraph(t *testing.T) {
	g := gate()
	g.Conversations[0].Edges = append(g.Conversations[0].Edges, schema.Edge{From: "foe", To: "ghost"})

	_, err := importer.New().Import(g, domain.DefaultSettings())
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid graph")
	assert.Len(t, schema.ValidationErrors(err), 1)
}

func TestImport_CompileErrors(t *testing.T) {
	g := gate()
	g.Conversations[0].Nodes[2].Condition = "1 +"
	g.Conversations[0].Nodes[3].Code = "@end"

	_, err := importer.New().Import(g, domain.DefaultSettings())
	require.Error(t, err)

	var rerr *importer.RoutineError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "gate", rerr.ConversationID)
	assert.Equal(t, "friend", rerr.NodeID)
	assert.Equal(t, routine.KindCondition, rerr.Kind)

	var cerr *compiler.CompileError
	assert.True(t, errors.As(err, &cerr))
	assert.ErrorContains(t, err, "gate/foe code")
}

func TestImport_StubFailedRoutines(t *testing.T) {
	g := gate()
	g.Conversations[0].Nodes[2].Condition = "1 +"
	g.Conversations[0].Nodes[3].Code = "@end"

	res, err := importer.New(importer.WithStubFailedRoutines(true)).Import(g, domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stubbed)

	conv := res.Database.FindConversation("gate")
	assert.Equal(t, routine.NoopCondition, conv.FindNode("friend").Condition)
	assert.Equal(t, routine.NoopCode, conv.FindNode("foe").Code)
}

func TestImport_UnknownFunction(t *testing.T) {
	g := gate()
	g.Conversations[0].Nodes[1].Code = "give(\"sword\");"

	_, err := importer.New().Import(g, domain.DefaultSettings())
	require.Error(t, err)

	bound := importer.WithBindings(compiler.Bindings{Functions: map[string]compiler.Function{
		"give": func(routine.Context, []any) (any, error) { return nil, nil },
	}})
	_, err = importer.New(bound).Import(g, domain.DefaultSettings())
	assert.NoError(t, err)
}

func TestImport_SharedFlagRegistry(t *testing.T) {
	flags := compiler.NewFlagRegistry()
	flags.Register("preexisting")

	res, err := importer.New(importer.WithFlagRegistry(flags)).Import(gate(), domain.DefaultSettings())
	require.NoError(t, err)
	assert.Same(t, flags, res.Flags)
	assert.Equal(t, []string{"preexisting", "alerted", "armed"}, flags.Names())
	assert.Equal(t, 3, res.Settings.MaxFlags)

	// A second import keeps the indices stable.
	_, err = importer.New(importer.WithFlagRegistry(flags)).Import(gate(), domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, 3, flags.Len())
}
