package dsl

import "github.com/aretw0/parley/pkg/schema"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node schema.Node
	conv *ConversationBuilder
}

// Actor sets the speaking actor.
func (n *NodeBuilder) Actor(id string) *NodeBuilder {
	n.node.Actor = id
	return n
}

// Voice sets the text spoken when the node is entered.
func (n *NodeBuilder) Voice(text string) *NodeBuilder {
	n.node.Voice = text
	return n
}

// Response sets the text shown when the node is offered as a choice.
func (n *NodeBuilder) Response(text string) *NodeBuilder {
	n.node.Response = text
	return n
}

// Condition sets the routine deciding whether the node is reachable.
func (n *NodeBuilder) Condition(source string) *NodeBuilder {
	n.node.Condition = source
	return n
}

// Code sets the routine run while the node is active.
func (n *NodeBuilder) Code(source string) *NodeBuilder {
	n.node.Code = source
	return n
}

// PreventResponse keeps the node from being offered as a choice.
func (n *NodeBuilder) PreventResponse() *NodeBuilder {
	n.node.PreventResponse = true
	return n
}

// Property attaches a property whose type is inferred from value.
func (n *NodeBuilder) Property(name string, value any) *NodeBuilder {
	n.node.Properties = append(n.node.Properties, schema.Property{Name: name, Value: value})
	return n
}

// TypedProperty attaches a property with an explicit type name.
func (n *NodeBuilder) TypedProperty(name, typ string, value any) *NodeBuilder {
	n.node.Properties = append(n.node.Properties, schema.Property{Name: name, Type: typ, Value: value})
	return n
}

// Go adds an edge to target with the default priority.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	return n.GoPriority(target, 0)
}

// GoPriority adds an edge to target. Higher priorities are preferred.
func (n *NodeBuilder) GoPriority(target string, priority int) *NodeBuilder {
	n.conv.conv.Edges = append(n.conv.conv.Edges, schema.Edge{From: n.node.ID, To: target, Priority: priority})
	return n
}

// Node returns a copy of the configured node.
func (n *NodeBuilder) Node() schema.Node {
	out := n.node
	out.Properties = append([]schema.Property(nil), n.node.Properties...)
	return out
}
