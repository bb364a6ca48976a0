package graph

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func fill(c byte) string { return strings.Repeat(string(c), 64) }

var (
	idR = fill('a')
	idB = fill('b')
	idC = fill('c')
	idD = fill('d')
	idE = fill('e')
	idF = fill('f')
	pk  = fill('9')
)

func hexID(i int) string { return fmt.Sprintf("%064x", i) }

type evt struct {
	ID        string     `json:"id"`
	PubKey    string     `json:"pubkey"`
	Kind      int        `json:"kind"`
	CreatedAt int64      `json:"created_at"`
	Content   string     `json:"content"`
	Tags      [][]string `json:"tags"`
}

func (e evt) raw(t *testing.T) []byte {
	t.Helper()
	if e.PubKey == "" {
		e.PubKey = pk
	}
	if e.Tags == nil {
		e.Tags = [][]string{}
	}
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return b
}

func note(eid string, at int64, tags ...[]string) evt {
	return evt{ID: eid, Kind: 1, CreatedAt: at, Content: "note " + eid[:4], Tags: tags}
}

// reply builds a marked NIP-10 reply.
func reply(eid, root, parent string, at int64) evt {
	tags := [][]string{{"e", root, "", "root"}}
	if parent != root {
		tags = append(tags, []string{"e", parent, "", "reply"})
	}
	return note(eid, at, tags...)
}

func reaction(eid, target string, at int64) evt {
	return evt{ID: eid, Kind: 7, CreatedAt: at, Tags: [][]string{{"p", pk}, {"e", target}}}
}

type recorder struct {
	replies   [][2]string
	reactions [][2]string
	updates   []string
}

func (r *recorder) ReplyAdded(id, parentID string)    { r.replies = append(r.replies, [2]string{id, parentID}) }
func (r *recorder) ReactionAdded(id, targetID string) { r.reactions = append(r.reactions, [2]string{id, targetID}) }
func (r *recorder) NodeUpdated(id string)             { r.updates = append(r.updates, id) }

func newGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	g, err := New(idR, opts...)
	require.NoError(t, err)
	return g
}

func ingestAll(t *testing.T, g *Graph, evs ...evt) {
	t.Helper()
	for _, e := range evs {
		require.True(t, g.Ingest(e.raw(t)), "ingest %s", e.ID[:4])
	}
}

func depth(t *testing.T, g *Graph, eid string) uint {
	t.Helper()
	n, ok := g.Node(eid)
	require.True(t, ok, "node %s missing", eid[:4])
	return n.Depth
}
