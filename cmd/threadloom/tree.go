package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"threadloom/internal/graph"
)

const previewRunes = 60

// printTree writes one line per rendered node, indented by depth. Nodes on the
// focus path are starred; nodes still waiting for their parent are flagged.
func printTree(w io.Writer, g *graph.Graph, focus string) {
	onPath := make(map[string]bool)
	for _, id := range g.FocusPath(focus) {
		onPath[id] = true
	}
	for _, id := range g.RenderOrder() {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		mark := " "
		if onPath[id] {
			mark = "*"
		}
		line := fmt.Sprintf("%s%s %s %s", mark, strings.Repeat("  ", int(n.Depth)), short(n.ID), preview(n.Content))
		if n.ReactionCount > 0 {
			line += fmt.Sprintf(" [+%d]", n.ReactionCount)
		}
		if n.Provisional {
			line += " (orphan)"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "%d replies, %d nodes\n", g.ReplyCount(), g.NodeCount())
}

func short(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	r := []rune(s)
	return string(r[:previewRunes]) + "…"
}
