package domain

// Edge links two nodes of the same conversation.
// When several targets are viable, the one with the highest Priority is chosen;
// among equal priorities the first edge in OutgoingEdges order wins.
type Edge struct {
	Source   *Node
	Target   *Node
	Priority int
}
