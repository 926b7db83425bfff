package schema

// Graph is the authoring-side document a loader produces.
// It holds routine source text; the importer compiles it into runtime entities.
type Graph struct {
	Actors        []Actor        `yaml:"actors,omitempty"`
	Conversations []Conversation `yaml:"conversations"`
}

// Actor is a speaker definition.
type Actor struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name,omitempty"`
}

// Conversation is a named node graph.
// Root names the entry node; when empty, the single node without incoming edges is the root.
type Conversation struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name,omitempty"`
	Root  string `yaml:"root,omitempty"`
	Nodes []Node `yaml:"nodes"`
	Edges []Edge `yaml:"edges,omitempty"`
}

// Node is a dialogue line with its routines in source form.
type Node struct {
	ID              string     `yaml:"id"`
	Actor           string     `yaml:"actor,omitempty"`
	Voice           string     `yaml:"voice,omitempty"`
	Response        string     `yaml:"response,omitempty"`
	Condition       string     `yaml:"condition,omitempty"`
	Code            string     `yaml:"code,omitempty"`
	PreventResponse bool       `yaml:"prevent_response,omitempty"`
	Properties      []Property `yaml:"properties,omitempty"`
}

// Edge links two nodes of the same conversation.
type Edge struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Priority int    `yaml:"priority,omitempty"`
}

// Property is a typed node attribute. An empty Type is inferred from Value.
type Property struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type,omitempty"`
	Value any    `yaml:"value,omitempty"`
}

// ResolveType returns the declared or inferred type of the property.
func (p Property) ResolveType() (Type, error) {
	if p.Type == "" {
		return InferType(p.Value)
	}
	return ParseType(p.Type)
}

// FindConversation returns the conversation with the given id, or nil.
func (g *Graph) FindConversation(id string) *Conversation {
	for i := range g.Conversations {
		if g.Conversations[i].ID == id {
			return &g.Conversations[i]
		}
	}
	return nil
}

// FindNode returns the node with the given id, or nil.
func (c *Conversation) FindNode(id string) *Node {
	for i := range c.Nodes {
		if c.Nodes[i].ID == id {
			return &c.Nodes[i]
		}
	}
	return nil
}

// RootID resolves the entry node of the conversation.
func (c *Conversation) RootID() (string, error) {
	if c.Root != "" {
		if c.FindNode(c.Root) == nil {
			return "", &ValidationError{Key: c.ID + ".root", Reason: "unknown node", Value: c.Root}
		}
		return c.Root, nil
	}

	incoming := make(map[string]bool, len(c.Edges))
	for _, e := range c.Edges {
		incoming[e.To] = true
	}
	var roots []string
	for _, n := range c.Nodes {
		if !incoming[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	switch len(roots) {
	case 1:
		return roots[0], nil
	case 0:
		return "", &ValidationError{Key: c.ID + ".root", Reason: "no node without incoming edges"}
	default:
		return "", &ValidationError{Key: c.ID + ".root", Reason: "ambiguous root", Value: roots}
	}
}
