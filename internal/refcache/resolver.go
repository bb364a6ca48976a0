package refcache

import (
	"fmt"

	"threadloom/internal/model"
	"threadloom/internal/refs"
)

// Resolver resolves thread references, consulting a Cache first.
// A nil cache disables memoization.
type Resolver struct {
	cache *Cache
}

func NewResolver(c *Cache) *Resolver { return &Resolver{cache: c} }

// Cache returns the backing cache, possibly nil.
func (r *Resolver) Cache() *Cache { return r.cache }

// ResolveEvent returns the ThreadInfo for ev, computing and storing it on a miss.
func (r *Resolver) ResolveEvent(ev model.Event) refs.ThreadInfo {
	if r == nil || r.cache == nil || !model.ValidID(ev.ID) {
		return refs.Resolve(ev)
	}
	if ti, ok := r.cache.Get(ev.ID); ok {
		return ti
	}
	ti := refs.Resolve(ev)
	r.cache.Put(ev.ID, ti)
	return ti
}

// ResolveJSON decodes raw event JSON and resolves it. It fails only when the
// event cannot be decoded or has no valid id.
func (r *Resolver) ResolveJSON(raw []byte) (refs.ThreadInfo, error) {
	ev, err := model.ParseEvent(raw)
	if err != nil {
		return refs.ThreadInfo{}, fmt.Errorf("resolve: %w", err)
	}
	return r.ResolveEvent(ev), nil
}
