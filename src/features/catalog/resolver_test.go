package catalog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contre95/vinylshelf/src/vinyl"
)

func TestResolver_MemoizesNames(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	source := newCountingSource(beatlesStore(t))
	r := NewResolver(source, testCollections, time.Second, nil)

	assert.Equal(t, Resolution{}, r.Name(vinyl.KindArtist, "beatles"))

	for range 3 {
		name, err := r.ResolveArtist(ctx, "beatles")
		require.NoError(t, err)
		assert.Equal(t, "The Beatles", name)
	}
	assert.Equal(t, 1, source.getCount(testCollections.Artists, "beatles"))
	assert.Equal(t, Resolution{Name: "The Beatles", Resolved: true, Found: true}, r.Name(vinyl.KindArtist, "beatles"))

	genre, err := r.ResolveGenre(ctx, "jazz")
	require.NoError(t, err)
	assert.Equal(t, "Jazz", genre)
}

func TestResolver_ConcurrentRequestsShareOneLookup(t *testing.T) {
	t.Parallel()
	source := newCountingSource(beatlesStore(t))
	r := NewResolver(source, testCollections, time.Second, nil)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name, err := r.ResolveArtist(context.Background(), "miles")
			assert.NoError(t, err)
			assert.Equal(t, "Miles Davis", name)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, source.getCount(testCollections.Artists, "miles"))
}

func TestResolver_MissingEntityIsRemembered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	source := newCountingSource(beatlesStore(t))
	r := NewResolver(source, testCollections, time.Second, nil)

	for range 2 {
		name, err := r.ResolveArtist(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, vinyl.UnknownArtist, name)
	}
	assert.Equal(t, 1, source.getCount(testCollections.Artists, "nobody"))
	assert.Equal(t, Resolution{Resolved: true}, r.Name(vinyl.KindArtist, "nobody"))

	genre, err := r.ResolveGenre(ctx, "polka")
	require.NoError(t, err)
	assert.Equal(t, vinyl.UnknownGenre, genre)
}

func TestResolver_EmptyIDNeverHitsTheSource(t *testing.T) {
	t.Parallel()
	source := newCountingSource(beatlesStore(t))
	r := NewResolver(source, testCollections, time.Second, nil)

	name, err := r.ResolveArtist(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, vinyl.UnknownArtist, name)
	assert.Zero(t, source.totalGets())
	assert.True(t, r.Name(vinyl.KindArtist, "").Resolved)
}

func TestResolver_TransportErrorIsRetried(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	source := newCountingSource(beatlesStore(t))
	r := NewResolver(source, testCollections, time.Second, nil)

	source.setGetErr(assert.AnError)
	_, err := r.ResolveArtist(ctx, "beatles")
	require.ErrorIs(t, err, assert.AnError)
	assert.False(t, r.Name(vinyl.KindArtist, "beatles").Resolved)

	source.setGetErr(nil)
	name, err := r.ResolveArtist(ctx, "beatles")
	require.NoError(t, err)
	assert.Equal(t, "The Beatles", name)
	assert.Equal(t, 2, source.getCount(testCollections.Artists, "beatles"))
}

func TestResolver_PrefetchResolvesDistinctReferences(t *testing.T) {
	t.Parallel()
	source := newCountingSource(beatlesStore(t))
	r := NewResolver(source, testCollections, time.Second, nil)

	records := []vinyl.Record{
		{ID: "1", ArtistID: "beatles", GenreID: "rock"},
		{ID: "2", ArtistID: "beatles", GenreID: "rock"},
		{ID: "3", ArtistID: "miles", GenreID: "jazz"},
		{ID: "4", ArtistID: "nobody", GenreID: "jazz"},
	}
	require.NoError(t, r.Prefetch(context.Background(), records))
	assert.Equal(t, 5, source.totalGets())

	for _, rec := range records {
		assert.True(t, r.Name(vinyl.KindArtist, rec.ArtistID).Resolved)
		assert.True(t, r.Name(vinyl.KindGenre, rec.GenreID).Resolved)
	}

	require.NoError(t, r.Prefetch(context.Background(), records))
	assert.Equal(t, 5, source.totalGets(), "second prefetch is served from memory")
}

func TestResolver_PrefetchJoinsFailures(t *testing.T) {
	t.Parallel()
	source := newCountingSource(beatlesStore(t))
	source.setGetErr(assert.AnError)
	r := NewResolver(source, testCollections, time.Second, nil)

	err := r.Prefetch(context.Background(), []vinyl.Record{{ID: "1", ArtistID: "beatles", GenreID: "rock"}})
	require.ErrorIs(t, err, assert.AnError)
	assert.False(t, r.Name(vinyl.KindArtist, "beatles").Resolved)
}

// slowSource tracks how many Gets run at once.
type slowSource struct {
	vinyl.RecordSource

	mu      sync.Mutex
	current int
	peak    int
}

func (s *slowSource) Get(ctx context.Context, collection, id string) (vinyl.Document, error) {
	s.mu.Lock()
	s.current++
	s.peak = max(s.peak, s.current)
	s.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	s.current--
	s.mu.Unlock()
	return s.RecordSource.Get(ctx, collection, id)
}

func TestResolver_PrefetchBoundsConcurrency(t *testing.T) {
	t.Parallel()
	store := numberedStore(t, 0)
	records := make([]vinyl.Record, 0, 60)
	for i := range 60 {
		id := fmt.Sprintf("artist-%02d", i)
		putDoc(t, store, testCollections.Artists, id, map[string]any{"name": "Artist " + id})
		records = append(records, vinyl.Record{ID: fmt.Sprintf("r%02d", i), ArtistID: id, GenreID: "g"})
	}
	source := &slowSource{RecordSource: store}
	r := NewResolver(source, testCollections, time.Second, nil)

	require.NoError(t, r.Prefetch(context.Background(), records))
	for _, rec := range records {
		assert.True(t, r.Name(vinyl.KindArtist, rec.ArtistID).Found, rec.ArtistID)
	}
	assert.LessOrEqual(t, source.peak, resolverConcurrency)
}
