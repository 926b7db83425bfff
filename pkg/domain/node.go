package domain

import "sort"

// Node represents a single step of a conversation.
//
// Condition and Code are indices into the routine directory. They are always valid:
// empty routines are mapped to the reserved no-op entries when the graph is imported.
type Node struct {
	ID    string
	Actor *Actor

	// VoiceText is the line spoken when the node is entered.
	VoiceText string
	// ResponseText is the label shown when the node is offered as a choice.
	ResponseText string

	Condition int
	Code      int

	// PreventResponse forbids delegating the next decision to the listener.
	PreventResponse bool

	OutgoingEdges []*Edge

	// Properties is sorted by name.
	Properties []Property
}

// HasResponseText reports whether the node can be labelled as a choice.
func (n *Node) HasResponseText() bool {
	return n.ResponseText != ""
}

// Property looks up a named property using binary search.
func (n *Node) Property(name string) (Property, bool) {
	i := sort.Search(len(n.Properties), func(i int) bool {
		return n.Properties[i].Name >= name
	})
	if i < len(n.Properties) && n.Properties[i].Name == name {
		return n.Properties[i], true
	}
	return Property{}, false
}

// Property is a named, typed value attached to a node.
// Value is nil (empty property), string, int64, float64 or bool.
type Property struct {
	Name  string
	Value any
}

// SortProperties orders properties by name so that Node.Property can search them.
func SortProperties(props []Property) {
	sort.SliceStable(props, func(i, j int) bool {
		return props[i].Name < props[j].Name
	})
}
