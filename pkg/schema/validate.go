package schema

import "fmt"

// Validate checks the structural rules of a graph document.
// Returns an error with all validation failures found.
func Validate(g *Graph) error {
	if g == nil {
		return &ValidationError{Key: "graph", Reason: "required"}
	}

	var errs []error
	add := func(key, reason string, value any) {
		errs = append(errs, &ValidationError{Key: key, Reason: reason, Value: value})
	}

	actors := make(map[string]bool, len(g.Actors))
	for i, a := range g.Actors {
		key := fmt.Sprintf("actors[%d]", i)
		if a.ID == "" {
			add(key+".id", "required", nil)
			continue
		}
		if actors[a.ID] {
			add(key+".id", "duplicate actor", a.ID)
		}
		actors[a.ID] = true
	}

	conversations := make(map[string]bool, len(g.Conversations))
	for i := range g.Conversations {
		c := &g.Conversations[i]
		if c.ID == "" {
			add(fmt.Sprintf("conversations[%d].id", i), "required", nil)
			continue
		}
		if conversations[c.ID] {
			add(c.ID, "duplicate conversation", c.ID)
			continue
		}
		conversations[c.ID] = true
		errs = append(errs, validateConversation(c, actors)...)
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func validateConversation(c *Conversation, actors map[string]bool) []error {
	var errs []error
	add := func(key, reason string, value any) {
		errs = append(errs, &ValidationError{Key: key, Reason: reason, Value: value})
	}

	if len(c.Nodes) == 0 {
		add(c.ID+".nodes", "conversation has no nodes", nil)
		return errs
	}

	nodes := make(map[string]bool, len(c.Nodes))
	for i, n := range c.Nodes {
		if n.ID == "" {
			add(fmt.Sprintf("%s.nodes[%d].id", c.ID, i), "required", nil)
			continue
		}
		key := c.ID + "." + n.ID
		if nodes[n.ID] {
			add(key, "duplicate node", n.ID)
		}
		nodes[n.ID] = true

		if n.Actor != "" && !actors[n.Actor] {
			add(key+".actor", "unknown actor", n.Actor)
		}
		errs = append(errs, validateProperties(key, n.Properties)...)
	}

	for i, e := range c.Edges {
		key := fmt.Sprintf("%s.edges[%d]", c.ID, i)
		if !nodes[e.From] {
			add(key+".from", "unknown node", e.From)
		}
		if !nodes[e.To] {
			add(key+".to", "unknown node", e.To)
		}
	}

	if _, err := c.RootID(); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func validateProperties(key string, props []Property) []error {
	var errs []error
	seen := make(map[string]bool, len(props))
	for _, p := range props {
		pkey := key + ".properties." + p.Name
		if p.Name == "" {
			errs = append(errs, &ValidationError{Key: key + ".properties", Reason: "property name required"})
			continue
		}
		if seen[p.Name] {
			errs = append(errs, &ValidationError{Key: pkey, Reason: "duplicate property"})
		}
		seen[p.Name] = true

		typ, err := p.ResolveType()
		if err != nil {
			errs = append(errs, &ValidationError{Key: pkey, Reason: err.Error(), Value: p.Value})
			continue
		}
		if err := typ.Validate(p.Value); err != nil {
			errs = append(errs, &ValidationError{Key: pkey, Reason: err.Error(), Value: p.Value})
		}
	}
	return errs
}
