package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/adapters/memory"
	contract "github.com/aretw0/parley/pkg/ports/tests"
	"github.com/aretw0/parley/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() *schema.Graph {
	return &schema.Graph{
		Actors: []schema.Actor{{ID: "npc"}},
		Conversations: []schema.Conversation{{
			ID: "hello",
			Nodes: []schema.Node{
				{ID: "start"},
				{ID: "greet", Actor: "npc", Voice: "Hello World"},
				{ID: "bye", Actor: "npc", Voice: "Goodbye"},
			},
			Edges: []schema.Edge{
				{From: "start", To: "greet"},
				{From: "greet", To: "bye"},
			},
		}},
	}
}

func TestInMemoryLoader_Contract(t *testing.T) {
	loader, err := memory.NewFromGraph(sampleGraph())
	require.NoError(t, err)

	contract.GraphLoaderContractTest(t, loader, sampleGraph())
}

func TestInMemoryLoader_FromYAML(t *testing.T) {
	loader := memory.NewLoader(`
conversations:
  - id: solo
    nodes:
      - id: only
`)
	g, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, g.Conversations, 1)
	assert.Equal(t, "only", g.Conversations[0].Nodes[0].ID)
}

func TestInMemoryLoader_NilGraph(t *testing.T) {
	_, err := memory.NewFromGraph(nil)
	assert.Error(t, err)
}
