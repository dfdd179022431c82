package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/contre95/vinylshelf/src/vinyl"
)

// Store is an in-memory implementation of vinyl.RecordSource.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{collections: make(map[string]map[string]json.RawMessage)}
}

// Put adds or replaces a document.
func (s *Store) Put(_ context.Context, collection string, doc vinyl.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document in %s has no id", collection)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]json.RawMessage)
		s.collections[collection] = docs
	}
	docs[doc.ID] = slices.Clone(doc.Data)
	return nil
}

// Get returns a single document.
func (s *Store) Get(_ context.Context, collection, id string) (vinyl.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.collections[collection][id]
	if !ok {
		return vinyl.Document{}, vinyl.ErrNotFound
	}
	return vinyl.Document{ID: id, Data: slices.Clone(data)}, nil
}

// All returns every document of the collection ordered by id.
func (s *Store) All(_ context.Context, collection string) ([]vinyl.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]vinyl.Document, 0, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		docs = append(docs, vinyl.Document{ID: id, Data: slices.Clone(data)})
	}
	slices.SortFunc(docs, func(a, b vinyl.Document) int { return cmp.Compare(a.ID, b.ID) })
	return docs, nil
}

// Scan returns up to q.Limit documents strictly after q.After, ordered by
// q.OrderBy and then id.
func (s *Store) Scan(ctx context.Context, q vinyl.ScanQuery) (vinyl.ScanResult, error) {
	if q.Limit <= 0 {
		return vinyl.ScanResult{}, fmt.Errorf("scan limit must be positive, got %d", q.Limit)
	}
	docs, err := s.All(ctx, q.Collection)
	if err != nil {
		return vinyl.ScanResult{}, err
	}
	type keyed struct {
		doc vinyl.Document
		key any
	}
	items := make([]keyed, 0, len(docs))
	for _, d := range docs {
		items = append(items, keyed{doc: d, key: d.Field(q.OrderBy)})
	}
	order := func(aKey any, aID string, bKey any, bID string) int {
		if c := CompareValues(aKey, bKey); c != 0 {
			return c
		}
		return cmp.Compare(aID, bID)
	}
	slices.SortStableFunc(items, func(a, b keyed) int { return order(a.key, a.doc.ID, b.key, b.doc.ID) })

	var result vinyl.ScanResult
	for _, it := range items {
		if q.After != nil && order(it.key, it.doc.ID, q.After.Value(), q.After.ID()) <= 0 {
			continue
		}
		result.Documents = append(result.Documents, it.doc)
		result.Next = vinyl.NewCursor(it.key, it.doc.ID)
		if len(result.Documents) == q.Limit {
			break
		}
	}
	return result, nil
}

// Update merges fields into an existing document.
func (s *Store) Update(_ context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.collections[collection][id]
	if !ok {
		return vinyl.ErrNotFound
	}
	current := map[string]any{}
	if err := json.Unmarshal(data, &current); err != nil {
		return fmt.Errorf("corrupt document %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return err
	}
	s.collections[collection][id] = merged
	return nil
}

// Clear removes every document.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string]map[string]json.RawMessage)
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// CompareValues orders JSON scalar values: null, then booleans, then
// numbers, then strings.
func CompareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		return cmp.Compare(av, b.(float64))
	case string:
		return cmp.Compare(av, b.(string))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
