package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/schema"
	backend "github.com/redis/go-redis/v9"
)

// ErrGraphNotFound is returned when the graph key does not exist.
var ErrGraphNotFound = errors.New("graph not found")

// Loader reads a YAML graph document stored under a single Redis key.
type Loader struct {
	client *backend.Client
	key    string
}

var _ ports.GraphLoader = (*Loader)(nil)

// NewLoader creates a loader for the document stored at key.
func NewLoader(client *backend.Client, key string) *Loader {
	return &Loader{client: client, key: key}
}

// Load fetches and decodes the graph.
func (l *Loader) Load(ctx context.Context) (*schema.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := l.client.Get(ctx, l.key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%s: %w", l.key, ErrGraphNotFound)
		}
		return nil, fmt.Errorf("redis error loading graph: %w", err)
	}
	g, err := schema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.key, err)
	}
	return g, nil
}

// Save encodes the graph and stores it under the loader's key.
func (l *Loader) Save(ctx context.Context, g *schema.Graph) error {
	data, err := schema.Encode(g)
	if err != nil {
		return err
	}
	if err := l.client.Set(ctx, l.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis error saving graph: %w", err)
	}
	return nil
}
