package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/schema"
)

// GraphLoader defines how the engine retrieves graph documents.
// This allows the storage layer (file, memory) to be decoupled from the importer.
type GraphLoader interface {
	// Load returns the full graph document. Implementations do not validate it;
	// the importer does.
	Load(ctx context.Context) (*schema.Graph, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying graph changes.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
