// Package control is the engine access shared by the remote control surfaces (HTTP and MCP).
//
// A Controller never touches the engine from the calling goroutine: every read and write runs
// through a Caller, normally the runner.Driver that owns the engine.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/aretw0/parley/pkg/schema"
)

var (
	// ErrInvalidFlag is returned for empty or malformed flag names.
	ErrInvalidFlag = errors.New("invalid flag name")
	// ErrUnknownFlag is returned when a flag name is not referenced by the graph.
	ErrUnknownFlag = errors.New("unknown flag")
	// ErrUnknownConversation is returned when the graph has no conversation with the given id.
	ErrUnknownConversation = errors.New("conversation not found")
	// ErrPublish wraps failures of the flag publisher.
	ErrPublish = errors.New("failed to publish flag")
)

// Engine is the part of parley.Engine a control surface reads and drives.
type Engine interface {
	Conversations() []parley.ConversationInfo
	Flag(name string) (int, bool)
	FlagNames() []string
	SetFlagForAll(flag int)
	Graph() *schema.Graph
}

// Caller runs a function on the engine's goroutine and waits for it.
// runner.Driver satisfies it.
type Caller interface {
	Call(ctx context.Context, fn func() error) error
}

// Controller serializes control requests onto the engine's goroutine.
type Controller struct {
	engine    Engine
	caller    Caller
	publisher ports.FlagPublisher
	logger    *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithPublisher routes raised flags through a publisher instead of the local engine.
// The publisher is expected to deliver them back to every engine, this one included.
func WithPublisher(p ports.FlagPublisher) Option {
	return func(c *Controller) {
		c.publisher = p
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Controller for engine.
func New(engine Engine, caller Caller, opts ...Option) *Controller {
	c := &Controller{
		engine: engine,
		caller: caller,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Conversation describes a running conversation.
type Conversation struct {
	ContextID      uint64 `json:"context_id"`
	SequenceNumber uint64 `json:"seq"`
	ConversationID string `json:"conversation_id"`
	NodeID         string `json:"node_id,omitempty"`
	State          string `json:"state"`
}

// Conversations lists the running conversations.
func (c *Controller) Conversations(ctx context.Context) ([]Conversation, error) {
	var infos []parley.ConversationInfo
	err := c.caller.Call(ctx, func() error {
		infos = c.engine.Conversations()
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]Conversation, 0, len(infos))
	for _, info := range infos {
		out = append(out, Conversation{
			ContextID:      info.Handle.ContextID(),
			SequenceNumber: info.Handle.SequenceNumber(),
			ConversationID: info.ConversationID,
			NodeID:         info.NodeID,
			State:          info.State.String(),
		})
	}
	return out, nil
}

// Flags lists the flag names the graph references, in index order.
func (c *Controller) Flags(ctx context.Context) ([]string, error) {
	var names []string
	err := c.caller.Call(ctx, func() error {
		names = c.engine.FlagNames()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// RaiseFlag sets the named flag on every running conversation, or publishes it when a
// publisher is configured.
func (c *Controller) RaiseFlag(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if _, err := runner.SanitizeInput(name); err != nil || name == "" {
		return fmt.Errorf("%w: %q", ErrInvalidFlag, name)
	}

	err := c.caller.Call(ctx, func() error {
		idx, ok := c.engine.Flag(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownFlag, name)
		}
		if c.publisher == nil {
			c.engine.SetFlagForAll(idx)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, name); err != nil {
			return fmt.Errorf("%w: %w", ErrPublish, err)
		}
	}
	c.logger.Info("flag raised", "flag", name)
	return nil
}

// Mermaid renders a conversation as a Mermaid flowchart, highlighting the nodes running
// conversations sit on.
func (c *Controller) Mermaid(ctx context.Context, conversationID string) (string, error) {
	var (
		conv    *schema.Conversation
		overlay graph.GraphOverlay
	)
	err := c.caller.Call(ctx, func() error {
		conv = c.engine.Graph().FindConversation(conversationID)
		for _, info := range c.engine.Conversations() {
			if info.ConversationID == conversationID && info.NodeID != "" {
				overlay.ActiveNodes = append(overlay.ActiveNodes, info.NodeID)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if conv == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownConversation, conversationID)
	}
	return graph.GenerateMermaid(conv, &overlay), nil
}

// Document returns the loaded graph as a YAML document.
func (c *Controller) Document(ctx context.Context) ([]byte, error) {
	var g *schema.Graph
	if err := c.caller.Call(ctx, func() error {
		g = c.engine.Graph()
		return nil
	}); err != nil {
		return nil, err
	}
	return schema.Encode(g)
}
