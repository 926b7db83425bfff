package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/dsl"
	"github.com/aretw0/parley/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gate() *dsl.Builder {
	b := dsl.New()
	b.Actor("guard", "Guard").Actor("hero", "Hero")

	c := b.Conversation("gate").Name("The Gate")
	c.Add("start").Go("halt")
	c.Add("halt").
		Actor("guard").
		Voice("Halt!").
		Code("alerted = true;").
		PreventResponse().
		Go("friend").
		GoPriority("run", 2)
	c.Add("friend").Actor("hero").Response("A friend.").Property("mood", "calm")
	c.Add("run").Actor("hero").Response("Run!").Condition("alerted").TypedProperty("weight", "float", 2)
	return b
}

func TestBuilder_Graph(t *testing.T) {
	g, err := gate().Graph()
	require.NoError(t, err)

	assert.Equal(t, []schema.Actor{{ID: "guard", Name: "Guard"}, {ID: "hero", Name: "Hero"}}, g.Actors)
	require.Len(t, g.Conversations, 1)

	c := g.Conversations[0]
	assert.Equal(t, "The Gate", c.Name)
	var ids []string
	for _, n := range c.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"start", "halt", "friend", "run"}, ids)
	assert.Equal(t, []schema.Edge{
		{From: "start", To: "halt"},
		{From: "halt", To: "friend"},
		{From: "halt", To: "run", Priority: 2},
	}, c.Edges)

	halt := c.FindNode("halt")
	require.NotNil(t, halt)
	assert.True(t, halt.PreventResponse)
	assert.Equal(t, "alerted = true;", halt.Code)

	root, err := c.RootID()
	require.NoError(t, err)
	assert.Equal(t, "start", root)
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := dsl.New()
	c := b.Conversation("c")
	c.Add("a").Voice("first")
	c.Add("a").Go("b")
	c.Add("b")
	assert.Same(t, c, b.Conversation("c"))

	g, err := b.Graph()
	require.NoError(t, err)
	assert.Len(t, g.Conversations[0].Nodes, 2)
	assert.Equal(t, "first", g.Conversations[0].FindNode("a").Voice)
}

func TestBuilder_Build(t *testing.T) {
	loader, err := gate().Build()
	require.NoError(t, err)

	g, err := loader.Load(context.Background())
	require.NoError(t, err)
	want, err := gate().Graph()
	require.NoError(t, err)
	assert.Equal(t, len(want.Conversations[0].Nodes), len(g.Conversations[0].Nodes))
	assert.Equal(t, "Halt!", g.FindConversation("gate").FindNode("halt").Voice)
}

func TestBuilder_Invalid(t *testing.T) {
	b := dsl.New()
	b.Conversation("c").Add("a").Actor("ghost").Go("missing")

	_, err := b.Build()
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid graph")
	assert.Len(t, schema.ValidationErrors(err), 2)
}
