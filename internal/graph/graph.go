// Package graph builds a conversation tree incrementally from nostr events.
//
// A Graph is not safe for concurrent use. Feed it from a single goroutine, or
// serialize producers in front of it (see jobs.Pump).
package graph

import (
	"errors"
	"sort"

	"threadloom/internal/metrics"
	"threadloom/internal/model"
	"threadloom/internal/refcache"
)

var ErrInvalidRoot = errors.New("graph root must be a 64 char lowercase hex event id")

// Graph owns every node of one thread, anchored at a fixed root event id.
type Graph struct {
	rootID string
	nodes  map[string]*Node
	// pending maps an absent event id to the nodes that point at it,
	// replies waiting to be linked and reactions waiting to be credited.
	pending map[string][]string

	replyCount int
	seq        uint64

	resolver  *refcache.Resolver
	listeners []Listener
}

type Option func(*Graph)

// WithResolver routes thread-reference resolution through a shared, cached resolver.
func WithResolver(r *refcache.Resolver) Option {
	return func(g *Graph) { g.resolver = r }
}

// WithListener registers l for notifications. May be given more than once.
func WithListener(l Listener) Option {
	return func(g *Graph) {
		if l != nil {
			g.listeners = append(g.listeners, l)
		}
	}
}

func New(rootID string, opts ...Option) (*Graph, error) {
	if !model.ValidID(rootID) {
		return nil, ErrInvalidRoot
	}
	g := &Graph{
		rootID:  rootID,
		nodes:   make(map[string]*Node),
		pending: make(map[string][]string),
	}
	for _, o := range opts {
		o(g)
	}
	if g.resolver == nil {
		g.resolver = refcache.NewResolver(nil)
	}
	return g, nil
}

func (g *Graph) RootID() string { return g.rootID }

// Node returns a copy of the node for id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Children returns the ids linked under id in display order
// (created_at ascending, then insertion order).
func (g *Graph) Children(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return g.sortedChildren(n)
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

// ReplyCount counts every non-reaction node, the root included.
func (g *Graph) ReplyCount() int { return g.replyCount }

// Orphans returns non-reaction nodes still waiting for their parent, in insertion order.
func (g *Graph) Orphans() []string {
	var out []*Node
	for _, n := range g.nodes {
		if n.Provisional && n.Kind != model.KindReaction {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	ids := make([]string, len(out))
	for i, n := range out {
		ids[i] = n.ID
	}
	return ids
}

// Clear drops every node. The root id and options are kept.
func (g *Graph) Clear() {
	g.nodes = make(map[string]*Node)
	g.pending = make(map[string][]string)
	g.replyCount = 0
	g.seq = 0
	metrics.SetGraphNodes(0)
}

func (g *Graph) sortedChildren(n *Node) []string {
	kids := make([]*Node, 0, len(n.Children))
	for _, id := range n.Children {
		if c, ok := g.nodes[id]; ok {
			kids = append(kids, c)
		}
	}
	sort.Slice(kids, func(i, j int) bool {
		if kids[i].CreatedAt != kids[j].CreatedAt {
			return kids[i].CreatedAt < kids[j].CreatedAt
		}
		return kids[i].Seq < kids[j].Seq
	})
	ids := make([]string, len(kids))
	for i, c := range kids {
		ids[i] = c.ID
	}
	return ids
}
