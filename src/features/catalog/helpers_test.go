package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/contre95/vinylshelf/src/features/config"
	"github.com/contre95/vinylshelf/src/infra/memory"
	"github.com/contre95/vinylshelf/src/vinyl"
)

var testCollections = vinyl.Collections{Records: "vinyl", Artists: "artist", Genres: "genere"}

func putDoc(t *testing.T, store *memory.Store, collection, id string, fields map[string]any) {
	t.Helper()
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), collection, vinyl.Document{ID: id, Data: data}))
}

func putRecord(t *testing.T, store *memory.Store, r vinyl.Record) {
	t.Helper()
	doc, err := vinyl.EncodeRecord(r)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), testCollections.Records, doc))
}

// beatlesStore holds two Beatles records, one Miles Davis record and a
// record whose artist does not exist.
func beatlesStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	putDoc(t, store, testCollections.Artists, "beatles", map[string]any{"name": "The Beatles"})
	putDoc(t, store, testCollections.Artists, "miles", map[string]any{"name": "Miles Davis"})
	putDoc(t, store, testCollections.Genres, "rock", map[string]any{"name": "Rock"})
	putDoc(t, store, testCollections.Genres, "jazz", map[string]any{"name": "Jazz"})
	putRecord(t, store, vinyl.Record{ID: "abbey", Name: "Abbey Road", ArtistID: "beatles", GenreID: "rock", ReleaseDate: "26-09-1969", Description: "Side two medley"})
	putRecord(t, store, vinyl.Record{ID: "letitbe", Name: "Let It Be", ArtistID: "beatles", GenreID: "rock", ReleaseDate: "08-05-1970"})
	putRecord(t, store, vinyl.Record{ID: "kob", Name: "Kind of Blue", ArtistID: "miles", GenreID: "jazz", ReleaseDate: "17-08-1959", IsLiked: true})
	putRecord(t, store, vinyl.Record{ID: "ghost", Name: "Ghost Tracks", ArtistID: "nobody", GenreID: "jazz"})
	return store
}

// numberedStore holds n records named "Record 00".."Record n-1".
func numberedStore(t *testing.T, n int) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	for i := range n {
		putRecord(t, store, vinyl.Record{
			ID:       fmt.Sprintf("r%02d", i),
			Name:     fmt.Sprintf("Record %02d", i),
			ArtistID: "a",
			GenreID:  "g",
		})
	}
	return store
}

func testConfig() *config.Manager {
	cfg := config.Default()
	cfg.Source.Driver = "memory"
	cfg.Source.Collections = config.Collections{
		Records: testCollections.Records,
		Artists: testCollections.Artists,
		Genres:  testCollections.Genres,
	}
	return config.NewManager(cfg)
}

// countingSource records calls and can fail or block them.
type countingSource struct {
	vinyl.RecordSource

	mu     sync.Mutex
	gets   map[string]int
	scans  int
	getErr error
	gate   chan struct{}
}

func newCountingSource(next vinyl.RecordSource) *countingSource {
	return &countingSource{RecordSource: next, gets: map[string]int{}}
}

func (s *countingSource) Get(ctx context.Context, collection, id string) (vinyl.Document, error) {
	s.mu.Lock()
	s.gets[collection+"/"+id]++
	err := s.getErr
	s.mu.Unlock()
	if err != nil {
		return vinyl.Document{}, err
	}
	return s.RecordSource.Get(ctx, collection, id)
}

func (s *countingSource) Scan(ctx context.Context, q vinyl.ScanQuery) (vinyl.ScanResult, error) {
	s.mu.Lock()
	s.scans++
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return s.RecordSource.Scan(ctx, q)
}

func (s *countingSource) setGetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

func (s *countingSource) getCount(collection, id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gets[collection+"/"+id]
}

func (s *countingSource) totalGets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.gets {
		total += n
	}
	return total
}

func (s *countingSource) scanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scans
}

func names(list []ResolvedRecord) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.Name
	}
	return out
}

// mapSessions is a SessionStore for tests.
type mapSessions struct {
	mu    sync.Mutex
	items map[string]*Session
}

func newMapSessions() *mapSessions {
	return &mapSessions{items: map[string]*Session{}}
}

func (m *mapSessions) Add(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[s.ID]; ok {
		return fmt.Errorf("session %s exists", s.ID)
	}
	m.items[s.ID] = s
	return nil
}

func (m *mapSessions) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	return s, ok
}

func (m *mapSessions) Remove(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	delete(m.items, id)
	return s, ok
}

func (m *mapSessions) Range(fn func(s *Session) bool) {
	m.mu.Lock()
	list := make([]*Session, 0, len(m.items))
	for _, s := range m.items {
		list = append(list, s)
	}
	m.mu.Unlock()
	for _, s := range list {
		if !fn(s) {
			return
		}
	}
}

func (m *mapSessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func withCover() vinyl.Record {
	return vinyl.Record{
		ID:            "cover",
		Name:          "Zebra Sleeve",
		ArtistID:      "miles",
		GenreID:       "jazz",
		CoverImageURL: "https://example.com/cover.jpg",
	}
}
