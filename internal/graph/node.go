package graph

import "slices"

// Node is one event in a conversation graph.
type Node struct {
	ID        string
	PubKey    string
	Content   string
	CreatedAt int64
	Kind      int

	RootID   string
	ParentID string // reply if known, else root; reaction target for reactions

	Depth         uint
	Children      []string
	ReactionCount uint

	// Seq is the insertion order, used to break created_at ties.
	Seq uint64
	// Provisional is set while ParentID names an event that has not been linked yet.
	Provisional bool
}

func (n *Node) clone() Node {
	c := *n
	c.Children = slices.Clone(n.Children)
	return c
}

func (n *Node) hasChild(id string) bool { return slices.Contains(n.Children, id) }
