package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"threadloom/internal/logging"
	"threadloom/internal/model"
	"threadloom/internal/refcache"
	"threadloom/internal/refs"
	"threadloom/internal/store/eventstore"
)

const (
	maxLineBytes = 4 << 20
	lastIDCursor = "import:last_id"
)

// Stats summarizes one pass over an event stream.
type Stats struct {
	Lines      int
	Stored     int
	Duplicates int
	Malformed  int
}

// ReadJSONL calls fn with every non-blank line of r. The slice is owned by fn.
func ReadJSONL(r io.Reader, fn func(line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxLineBytes)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(bytes.Clone(line)); err != nil {
			return err
		}
	}
	return sc.Err()
}

// RecordFor places ev in its thread. Reactions hang off the event they react to.
func RecordFor(ev model.Event, res *refcache.Resolver, raw []byte) eventstore.Record {
	rec := eventstore.Record{
		ID:        ev.ID,
		PubKey:    ev.PubKey,
		Kind:      ev.Kind,
		CreatedAt: int64(ev.CreatedAt),
		Raw:       raw,
	}
	if ev.IsReaction() {
		if target, ok := refs.ReactionTarget(ev.Tags); ok {
			rec.ParentID = target.ID
		}
		return rec
	}
	ti := res.ResolveEvent(ev)
	rec.RootID = ti.RootID
	rec.ParentID = ti.ParentID()
	return rec
}

// ArchiveStream parses JSONL events from r and stores them in db.
// Malformed lines are counted and skipped.
func ArchiveStream(ctx context.Context, db *eventstore.DB, res *refcache.Resolver, r io.Reader) (Stats, error) {
	var st Stats
	var lastID string
	err := ReadJSONL(r, func(line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		st.Lines++
		ev, err := model.ParseEvent(line)
		if err != nil {
			st.Malformed++
			logging.Debug("archive_skip", map[string]any{"line": st.Lines, "error": err.Error()})
			return nil
		}
		added, err := db.PutEvent(ctx, RecordFor(ev, res, line))
		if err != nil {
			return fmt.Errorf("store %s: %w", ev.ID, err)
		}
		if added {
			st.Stored++
			lastID = ev.ID
		} else {
			st.Duplicates++
		}
		return nil
	})
	if lastID != "" {
		if cerr := db.SaveCursor(ctx, lastIDCursor, lastID); cerr != nil && err == nil {
			err = cerr
		}
	}
	logging.Info("archive_stream", map[string]any{
		"lines": st.Lines, "stored": st.Stored, "duplicates": st.Duplicates, "malformed": st.Malformed,
	})
	return st, err
}

// LastArchivedID returns the id of the newest event stored by ArchiveStream.
func LastArchivedID(ctx context.Context, db *eventstore.DB) (string, error) {
	return db.LoadCursor(ctx, lastIDCursor)
}
