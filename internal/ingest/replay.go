package ingest

import (
	"context"
	"fmt"

	"threadloom/internal/graph"
	"threadloom/internal/logging"
	"threadloom/internal/store/eventstore"
)

// LoadThread replays every archived event of g's thread into g and returns how
// many nodes were added.
func LoadThread(ctx context.Context, db *eventstore.DB, g *graph.Graph) (int, error) {
	raws, err := db.LoadThread(ctx, g.RootID())
	if err != nil {
		return 0, fmt.Errorf("load thread %s: %w", g.RootID(), err)
	}
	added := 0
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		if g.Ingest(raw) {
			added++
		}
	}
	logging.Info("thread_replay", map[string]any{"root": g.RootID(), "events": len(raws), "added": added})
	return added, nil
}
