package domain

// Actor is the speaker of a node.
type Actor struct {
	ID   string
	Name string
}

// Conversation is a dialogue graph with a single entry point.
// The root node is never spoken; it only anchors traversal.
type Conversation struct {
	ID    string
	Name  string
	Root  *Node
	Nodes []*Node
}

// FindNode returns the node with the given id, or nil.
func (c *Conversation) FindNode(id string) *Node {
	for _, n := range c.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// Database is the loaded, immutable set of actors and conversations.
type Database struct {
	Actors        []*Actor
	Conversations []*Conversation

	conversationsByID map[string]*Conversation
	actorsByID        map[string]*Actor
}

// NewDatabase indexes the given actors and conversations.
func NewDatabase(actors []*Actor, conversations []*Conversation) *Database {
	db := &Database{
		Actors:            actors,
		Conversations:     conversations,
		conversationsByID: make(map[string]*Conversation, len(conversations)),
		actorsByID:        make(map[string]*Actor, len(actors)),
	}
	for _, a := range actors {
		db.actorsByID[a.ID] = a
	}
	for _, c := range conversations {
		db.conversationsByID[c.ID] = c
	}
	return db
}

// FindConversation returns the conversation with the given id, or nil.
func (db *Database) FindConversation(id string) *Conversation {
	return db.conversationsByID[id]
}

// FindActor returns the actor with the given id, or nil.
func (db *Database) FindActor(id string) *Actor {
	return db.actorsByID[id]
}
