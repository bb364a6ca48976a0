package graph

import (
	"threadloom/internal/logging"
	"threadloom/internal/metrics"
	"threadloom/internal/model"
	"threadloom/internal/refs"
)

// Reason says why an event was or was not added.
type Reason int

const (
	Added Reason = iota
	Duplicate
	Malformed
	SelfReference
)

func (r Reason) String() string {
	switch r {
	case Added:
		return "added"
	case Duplicate:
		return "duplicate"
	case Malformed:
		return "malformed"
	case SelfReference:
		return "self_reference"
	}
	return "unknown"
}

const reactionPlaceholder = "+"

// Ingest adds raw event JSON and reports whether a new node was created.
func (g *Graph) Ingest(raw []byte) bool {
	return g.IngestReason(raw) == Added
}

// IngestReason is Ingest with the reason an event was rejected.
func (g *Graph) IngestReason(raw []byte) Reason {
	ev, err := model.ParseEvent(raw)
	if err != nil {
		logging.Debug("graph_reject", map[string]any{"reason": Malformed.String(), "error": err.Error()})
		metrics.IncIngest(Malformed.String())
		return Malformed
	}
	return g.IngestEvent(ev)
}

// IngestEvent adds an already decoded event.
func (g *Graph) IngestEvent(ev model.Event) Reason {
	r := g.ingest(ev)
	metrics.IncIngest(r.String())
	if r == Added {
		metrics.SetGraphNodes(len(g.nodes))
	} else {
		logging.Debug("graph_reject", map[string]any{"reason": r.String(), "id": ev.ID})
	}
	return r
}

func (g *Graph) ingest(ev model.Event) Reason {
	if !model.ValidID(ev.ID) {
		return Malformed
	}
	if _, dup := g.nodes[ev.ID]; dup {
		return Duplicate
	}
	if ev.IsReaction() {
		return g.addReaction(ev)
	}
	return g.addNote(ev)
}

func (g *Graph) addReaction(ev model.Event) Reason {
	target, _ := refs.ReactionTarget(ev.Tags)
	if target.ID == ev.ID {
		return SelfReference
	}
	content := ev.Content
	if content == "" {
		content = reactionPlaceholder
	}
	n := g.insert(ev, content)
	n.ParentID = target.ID

	if target.ID != "" {
		if t, ok := g.nodes[target.ID]; ok {
			t.ReactionCount++
			g.emitUpdated(target.ID)
		} else {
			n.Provisional = true
			g.pending[target.ID] = append(g.pending[target.ID], n.ID)
		}
	}
	credited := g.adoptPending(n)
	if target.ID != "" {
		g.emitReaction(n.ID, target.ID)
	}
	if credited {
		g.emitUpdated(n.ID)
	}
	return Added
}

func (g *Graph) addNote(ev model.Event) Reason {
	ti := g.resolver.ResolveEvent(ev)
	parentID := ti.ParentID()
	if parentID == ev.ID {
		return SelfReference
	}
	n := g.insert(ev, ev.Content)
	n.RootID = ti.RootID
	n.ParentID = parentID
	g.replyCount++

	switch {
	case n.ID == g.rootID || parentID == "":
		// the thread's own root is anchored at depth 0 even if it points elsewhere
		n.Depth = 0
	default:
		if p, ok := g.nodes[parentID]; ok {
			g.link(p, n)
		} else {
			n.Depth = 1
			n.Provisional = true
			g.pending[parentID] = append(g.pending[parentID], n.ID)
		}
	}

	credited := g.adoptPending(n)
	g.emitReply(n.ID, parentID)
	if credited {
		g.emitUpdated(n.ID)
	}
	return Added
}

func (g *Graph) insert(ev model.Event, content string) *Node {
	g.seq++
	n := &Node{
		ID:        ev.ID,
		PubKey:    ev.PubKey,
		Content:   content,
		CreatedAt: int64(ev.CreatedAt),
		Kind:      ev.Kind,
		Seq:       g.seq,
	}
	g.nodes[n.ID] = n
	return n
}

// adoptPending links nodes that arrived before n and credits early reactions.
// It reports whether n's reaction count changed.
func (g *Graph) adoptPending(n *Node) bool {
	waiting, ok := g.pending[n.ID]
	if !ok {
		return false
	}
	delete(g.pending, n.ID)

	credited := false
	for _, id := range waiting {
		c, ok := g.nodes[id]
		if !ok || !c.Provisional {
			continue
		}
		if c.Kind == model.KindReaction {
			c.Provisional = false
			n.ReactionCount++
			credited = true
			continue
		}
		if n.hasChild(c.ID) || g.isAncestor(c.ID, n) {
			// linking would close a cycle; c stays an orphan
			continue
		}
		g.link(n, c)
	}
	return credited
}

func (g *Graph) link(parent, child *Node) {
	parent.Children = append(parent.Children, child.ID)
	child.Provisional = false
	g.setDepth(child, parent.Depth+1)
}

// setDepth assigns depth to n and fixes up its whole subtree.
func (g *Graph) setDepth(n *Node, depth uint) {
	n.Depth = depth
	for _, id := range n.Children {
		if c, ok := g.nodes[id]; ok {
			g.setDepth(c, depth+1)
		}
	}
}

// isAncestor reports whether id is n or sits above n on its chain of linked parents.
func (g *Graph) isAncestor(id string, n *Node) bool {
	for cur, ok := n, true; ok; cur, ok = g.linkedParent(cur) {
		if cur.ID == id {
			return true
		}
	}
	return false
}

// linkedParent follows n's child link upwards. Reactions, the anchored root and
// nodes still waiting for their parent have none.
func (g *Graph) linkedParent(n *Node) (*Node, bool) {
	if n.Provisional || n.ParentID == "" || n.ID == g.rootID || n.Kind == model.KindReaction {
		return nil, false
	}
	p, ok := g.nodes[n.ParentID]
	return p, ok
}
