package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/schema"
)

// Loader implements ports.GraphLoader over an in-memory YAML document.
// Each Load decodes a fresh copy, so callers may mutate the result.
type Loader struct {
	data []byte
}

// NewLoader creates a Loader from a raw YAML document.
func NewLoader(document string) *Loader {
	return &Loader{data: []byte(document)}
}

// NewFromGraph creates a Loader from a graph definition.
// This handles serialization automatically, improving DX for tests.
func NewFromGraph(g *schema.Graph) (*Loader, error) {
	if g == nil {
		return nil, fmt.Errorf("graph is nil")
	}
	data, err := schema.Encode(g)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal graph: %w", err)
	}
	return &Loader{data: data}, nil
}

// Load implements ports.GraphLoader.
func (l *Loader) Load(ctx context.Context) (*schema.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return schema.Decode(l.data)
}
