package dsl

import (
	"fmt"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/schema"
)

// Builder manages the graph construction.
type Builder struct {
	actors        []schema.Actor
	conversations []*ConversationBuilder
	byID          map[string]*ConversationBuilder
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		byID: make(map[string]*ConversationBuilder),
	}
}

// Actor declares an actor.
func (b *Builder) Actor(id, name string) *Builder {
	b.actors = append(b.actors, schema.Actor{ID: id, Name: name})
	return b
}

// Conversation returns the builder for the conversation with the given id,
// creating it on first use.
func (b *Builder) Conversation(id string) *ConversationBuilder {
	if cb, ok := b.byID[id]; ok {
		return cb
	}
	cb := &ConversationBuilder{
		conv:  schema.Conversation{ID: id},
		nodes: make(map[string]*NodeBuilder),
	}
	b.byID[id] = cb
	b.conversations = append(b.conversations, cb)
	return cb
}

// Graph assembles and validates the document.
func (b *Builder) Graph() (*schema.Graph, error) {
	g := &schema.Graph{Actors: append([]schema.Actor(nil), b.actors...)}
	for _, cb := range b.conversations {
		g.Conversations = append(g.Conversations, cb.build())
	}
	if err := schema.Validate(g); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return g, nil
}

// Build compiles the graph into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	g, err := b.Graph()
	if err != nil {
		return nil, err
	}
	loader, err := memory.NewFromGraph(g)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

// ConversationBuilder configures one conversation. Nodes keep the order they were added in.
type ConversationBuilder struct {
	conv  schema.Conversation
	order []*NodeBuilder
	nodes map[string]*NodeBuilder
}

// Name sets the display name.
func (c *ConversationBuilder) Name(name string) *ConversationBuilder {
	c.conv.Name = name
	return c
}

// Root sets the root node explicitly.
func (c *ConversationBuilder) Root(id string) *ConversationBuilder {
	c.conv.Root = id
	return c
}

// Add returns the builder for the node with the given id, creating it on first use.
func (c *ConversationBuilder) Add(id string) *NodeBuilder {
	if nb, ok := c.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{node: schema.Node{ID: id}, conv: c}
	c.nodes[id] = nb
	c.order = append(c.order, nb)
	return nb
}

func (c *ConversationBuilder) build() schema.Conversation {
	out := c.conv
	out.Nodes = make([]schema.Node, 0, len(c.order))
	for _, nb := range c.order {
		out.Nodes = append(out.Nodes, nb.Node())
	}
	out.Edges = append([]schema.Edge(nil), c.conv.Edges...)
	return out
}
