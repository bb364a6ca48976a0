package refcache

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadloom/internal/model"
	"threadloom/internal/refs"
)

func hexID(i int) string { return fmt.Sprintf("%064x", i) }

func eventJSON(id string, tags string) []byte {
	return []byte(`{"id":"` + id + `","pubkey":"` + strings.Repeat("1", 64) + `","kind":1,"created_at":1,"content":"x","tags":` + tags + `}`)
}

func TestNewDefaults(t *testing.T) {
	assert.Equal(t, DefaultMaxSize, New(0).MaxSize())
	assert.Equal(t, 5, New(5).MaxSize())
}

func TestEvictionClearsWholeCache(t *testing.T) {
	c := New(4)
	for i := 0; i < 4; i++ {
		c.Put(hexID(i), refs.ThreadInfo{RootID: hexID(100 + i)})
	}
	require.Equal(t, 4, c.Len())

	c.Put(hexID(4), refs.ThreadInfo{})
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(hexID(0))
	assert.False(t, ok)
	_, ok = c.Get(hexID(4))
	assert.True(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Clears)
}

func TestReplaceDoesNotEvict(t *testing.T) {
	c := New(2)
	c.Put(hexID(1), refs.ThreadInfo{})
	c.Put(hexID(2), refs.ThreadInfo{})
	c.Put(hexID(2), refs.ThreadInfo{RootID: hexID(9)})
	assert.Equal(t, 2, c.Len())
	ti, ok := c.Get(hexID(2))
	require.True(t, ok)
	assert.Equal(t, hexID(9), ti.RootID)
}

func TestClear(t *testing.T) {
	c := New(8)
	c.Put(hexID(1), refs.ThreadInfo{})
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestResolveIsIdempotentAndCached(t *testing.T) {
	c := New(16)
	r := NewResolver(c)
	raw := eventJSON(hexID(1), `[["e","`+hexID(2)+`"],["e","`+hexID(3)+`","wss://r"]]`)

	first, err := r.ResolveJSON(raw)
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	second, err := r.ResolveJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, hexID(2), second.RootID)
	assert.Equal(t, hexID(3), second.ReplyID)

	st := c.Stats()
	assert.Equal(t, uint64(1), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}

func TestResolveReturnsCachedWithoutRescan(t *testing.T) {
	c := New(16)
	r := NewResolver(c)
	c.Put(hexID(1), refs.ThreadInfo{RootID: hexID(42), RootKind: refs.NoKind})

	ti, err := r.ResolveJSON(eventJSON(hexID(1), `[["e","`+hexID(2)+`"]]`))
	require.NoError(t, err)
	assert.Equal(t, hexID(42), ti.RootID)
}

func TestResolveRejectsBadEvents(t *testing.T) {
	r := NewResolver(New(4))
	_, err := r.ResolveJSON([]byte(`{"kind":1}`))
	assert.ErrorIs(t, err, model.ErrInvalidID)
	_, err = r.ResolveJSON([]byte(`nope`))
	assert.ErrorIs(t, err, model.ErrMalformedJSON)
}

func TestNilCacheResolver(t *testing.T) {
	r := NewResolver(nil)
	ti, err := r.ResolveJSON(eventJSON(hexID(1), `[["e","`+hexID(2)+`"]]`))
	require.NoError(t, err)
	assert.Equal(t, hexID(2), ti.RootID)
}

func TestConcurrentAccessStaysBounded(t *testing.T) {
	c := New(32)
	r := NewResolver(c)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_, _ = r.ResolveJSON(eventJSON(hexID(w*1000+i), `[]`))
				_ = c.Len()
			}
		}(w)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 32)
}
