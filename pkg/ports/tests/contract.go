package tests

import (
	"context"
	"testing"

	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/schema"
)

// GraphLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.GraphLoader.
// want is the document the loader is expected to produce.
func GraphLoaderContractTest(t *testing.T, loader ports.GraphLoader, want *schema.Graph) {
	t.Helper()

	// 1. Load returns the expected conversations
	t.Run("Load_Success", func(t *testing.T) {
		g, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error loading graph: %v", err)
		}
		if len(g.Conversations) != len(want.Conversations) {
			t.Fatalf("expected %d conversations, got %d", len(want.Conversations), len(g.Conversations))
		}
		for _, wc := range want.Conversations {
			c := g.FindConversation(wc.ID)
			if c == nil {
				t.Errorf("conversation %s missing", wc.ID)
				continue
			}
			if len(c.Nodes) != len(wc.Nodes) {
				t.Errorf("conversation %s: expected %d nodes, got %d", wc.ID, len(wc.Nodes), len(c.Nodes))
			}
			if len(c.Edges) != len(wc.Edges) {
				t.Errorf("conversation %s: expected %d edges, got %d", wc.ID, len(wc.Edges), len(c.Edges))
			}
		}
	})

	// 2. Loads are independent: mutating one result does not leak into the next
	t.Run("Load_Isolated", func(t *testing.T) {
		first, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error loading graph: %v", err)
		}
		first.Conversations = append(first.Conversations, schema.Conversation{ID: "intruder"})

		second, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error loading graph: %v", err)
		}
		if second.FindConversation("intruder") != nil {
			t.Error("loader returned a shared document")
		}
	})

	// 3. Cancelled contexts are honoured
	t.Run("Load_Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := loader.Load(ctx); err == nil {
			t.Error("expected error for cancelled context, got nil")
		}
	})
}
