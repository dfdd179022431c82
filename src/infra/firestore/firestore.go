package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/contre95/vinylshelf/src/vinyl"
)

// Store is a Google Cloud Firestore implementation of vinyl.RecordSource.
type Store struct {
	client *firestore.Client
}

// NewStore connects to the Firestore project. An empty credentialsFile
// falls back to application default credentials.
func NewStore(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	slog.Info("Firestore client initialized", "project", projectID)
	return &Store{client: client}, nil
}

func toDocument(snap *firestore.DocumentSnapshot) (vinyl.Document, error) {
	data, err := json.Marshal(snap.Data())
	if err != nil {
		return vinyl.Document{}, fmt.Errorf("encode %s: %w", snap.Ref.ID, err)
	}
	return vinyl.Document{ID: snap.Ref.ID, Data: data}, nil
}

// Scan runs an ordered query with a StartAfter cursor.
//
// Firestore leaves documents that lack the q.OrderBy field out of an ordered
// query, so records without a name are never listed here. The sqlite and
// memory stores return them first, ordered as null.
func (s *Store) Scan(ctx context.Context, q vinyl.ScanQuery) (vinyl.ScanResult, error) {
	if q.Limit <= 0 {
		return vinyl.ScanResult{}, fmt.Errorf("scan limit must be positive, got %d", q.Limit)
	}
	query := s.client.Collection(q.Collection).
		OrderByPath(firestore.FieldPath{q.OrderBy}, firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)
	if q.After != nil {
		query = query.StartAfter(q.After.Value(), q.After.ID())
	}
	snaps, err := query.Limit(q.Limit).Documents(ctx).GetAll()
	if err != nil {
		return vinyl.ScanResult{}, fmt.Errorf("scan %s: %w", q.Collection, err)
	}

	var result vinyl.ScanResult
	for _, snap := range snaps {
		doc, err := toDocument(snap)
		if err != nil {
			return vinyl.ScanResult{}, err
		}
		result.Documents = append(result.Documents, doc)
		value, _ := snap.DataAtPath(firestore.FieldPath{q.OrderBy})
		result.Next = vinyl.NewCursor(value, snap.Ref.ID)
	}
	return result, nil
}

// Get fetches a single document.
func (s *Store) Get(ctx context.Context, collection, id string) (vinyl.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return vinyl.Document{}, vinyl.ErrNotFound
		}
		return vinyl.Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return toDocument(snap)
}

// All fetches every document of a collection.
func (s *Store) All(ctx context.Context, collection string) ([]vinyl.Document, error) {
	snaps, err := s.client.Collection(collection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	docs := make([]vinyl.Document, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := toDocument(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Update applies a partial update. Field names are used verbatim as single
// path segments, so names like "artist-id" need no quoting.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return vinyl.ErrNotFound
		}
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Put writes a whole document.
func (s *Store) Put(ctx context.Context, collection string, doc vinyl.Document) error {
	var fields map[string]any
	if err := json.Unmarshal(doc.Data, &fields); err != nil {
		return fmt.Errorf("decode %s: %w", doc.ID, err)
	}
	if _, err := s.client.Collection(collection).Doc(doc.ID).Set(ctx, fields); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, doc.ID, err)
	}
	return nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}
