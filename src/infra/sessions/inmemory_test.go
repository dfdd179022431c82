package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contre95/vinylshelf/src/features/catalog"
	"github.com/contre95/vinylshelf/src/infra/memory"
)

func newSession(id string) *catalog.Session {
	store := memory.NewStore()
	return catalog.NewSession(id, catalog.NewCoordinator(store, "vinyl", 12, 0), nil)
}

func TestInMemoryStore_AddGetRemove(t *testing.T) {
	store := NewInMemoryStore()
	sess := newSession("a")

	require.NoError(t, store.Add(sess))
	assert.ErrorIs(t, store.Add(newSession("a")), ErrAlreadyExists)
	assert.Equal(t, 1, store.Len())

	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, ok = store.Get("missing")
	assert.False(t, ok)

	removed, ok := store.Remove("a")
	require.True(t, ok)
	assert.Same(t, sess, removed)
	assert.Equal(t, 0, store.Len())

	_, ok = store.Remove("a")
	assert.False(t, ok)
}

func TestInMemoryStore_ClearClosesSessions(t *testing.T) {
	store := NewInMemoryStore()
	a, b := newSession("a"), newSession("b")
	require.NoError(t, store.Add(a))
	require.NoError(t, store.Add(b))

	seen := 0
	store.Range(func(*catalog.Session) bool {
		seen++
		return true
	})
	assert.Equal(t, 2, seen)

	store.Clear()
	assert.Equal(t, 0, store.Len())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
}
