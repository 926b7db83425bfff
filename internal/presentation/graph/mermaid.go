package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/schema"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	// ActiveNodes are the nodes running conversations currently sit on.
	ActiveNodes []string
}

// GenerateMermaid produces a Mermaid flowchart for one conversation.
// It applies semantic styling:
// - Root: ((Circle))
// - Code routine: [[Subroutine]]
// - Choice (has response text): [/Parallelogram/]
// - Default: [Rectangle]
// Edge labels carry the priority and the target's condition.
func GenerateMermaid(c *schema.Conversation, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	root, _ := c.RootID()
	conditions := make(map[string]string, len(c.Nodes))

	for _, node := range c.Nodes {
		conditions[node.ID] = strings.TrimSpace(node.Condition)

		opener, closer := "[", "]"
		switch {
		case node.ID == root:
			opener, closer = "((", "))"
		case strings.TrimSpace(node.Code) != "":
			opener, closer = "[[", "]]"
		case node.Response != "":
			opener, closer = "[/", "/]"
		}

		label := node.ID
		if node.Actor != "" {
			label += " <br/> " + node.Actor
		}
		if node.Response != "" {
			label += " <br/> " + node.Response
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(node.ID), opener, escape(label), closer)
	}

	for _, e := range c.Edges {
		var parts []string
		if e.Priority != 0 {
			parts = append(parts, fmt.Sprintf("p%d", e.Priority))
		}
		if cond := conditions[e.To]; cond != "" {
			parts = append(parts, cond)
		}
		arrow := "-->"
		if len(parts) > 0 {
			arrow = fmt.Sprintf("-- \"%s\" -->", escape(strings.Join(parts, " · ")))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To))
	}

	if overlay != nil && len(overlay.ActiveNodes) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef active fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		seen := make(map[string]bool)
		for _, id := range overlay.ActiveNodes {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || seen[safeID] {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s active;\n", safeID)
		}
	}

	return sb.String()
}

// GenerateAll renders every conversation of the graph, each as its own flowchart,
// separated by a comment line naming the conversation.
func GenerateAll(g *schema.Graph) string {
	var sb strings.Builder
	for i := range g.Conversations {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%%%% conversation: %s\n", g.Conversations[i].ID)
		sb.WriteString(GenerateMermaid(&g.Conversations[i], nil))
	}
	return sb.String()
}

func escape(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", " ")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
