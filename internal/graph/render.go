package graph

import (
	"slices"
	"sort"

	"threadloom/internal/model"
)

// RenderOrder returns node ids in display order: a pre-order walk from the root
// with siblings by created_at, followed by every non-reaction node the walk did
// not reach, in insertion order. Reactions never appear.
func (g *Graph) RenderOrder() []string {
	out := make([]string, 0, g.replyCount)
	seen := make(map[string]struct{}, len(g.nodes))
	if root, ok := g.nodes[g.rootID]; ok {
		g.walk(root, &out, seen)
	}

	var rest []*Node
	for id, n := range g.nodes {
		if _, ok := seen[id]; ok || n.Kind == model.KindReaction {
			continue
		}
		rest = append(rest, n)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].Seq < rest[j].Seq })
	for _, n := range rest {
		out = append(out, n.ID)
	}
	return out
}

func (g *Graph) walk(n *Node, out *[]string, seen map[string]struct{}) {
	if n.Kind == model.KindReaction {
		return
	}
	if _, ok := seen[n.ID]; ok {
		return
	}
	seen[n.ID] = struct{}{}
	*out = append(*out, n.ID)
	for _, id := range g.sortedChildren(n) {
		g.walk(g.nodes[id], out, seen)
	}
}

// FocusPath returns the chain of linked ancestors ending at id, top-most first.
// A thread view uses it to highlight the branch leading to a focused note.
func (g *Graph) FocusPath(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	var path []string
	for cur, ok := n, true; ok; cur, ok = g.linkedParent(cur) {
		path = append(path, cur.ID)
	}
	slices.Reverse(path)
	return path
}
