package vinyl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by point lookups and updates of absent documents.
var ErrNotFound = errors.New("document not found")

// Document is a raw JSON document as held by the store.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Field extracts a top-level field of the document, nil when absent.
func (d Document) Field(name string) any {
	var fields map[string]any
	if err := json.Unmarshal(d.Data, &fields); err != nil {
		return nil
	}
	return fields[name]
}

// Cursor identifies the last-seen item of an ordered scan. The zero value is
// never produced by a store; a nil *Cursor means "from the start".
type Cursor struct {
	value any
	id    string
}

// NewCursor builds a cursor from the sort value and id of the last document.
func NewCursor(value any, id string) *Cursor {
	return &Cursor{value: value, id: id}
}

// Value is the sort field value of the last-seen document.
func (c *Cursor) Value() any { return c.value }

// ID is the id of the last-seen document.
func (c *Cursor) ID() string { return c.id }

func (c *Cursor) String() string {
	if c == nil {
		return "<start>"
	}
	return fmt.Sprintf("%v/%s", c.value, c.id)
}

// ScanQuery describes an ordered range scan. Results are ordered by OrderBy
// ascending, ties broken by document id, strictly after After.
type ScanQuery struct {
	Collection string
	OrderBy    string
	After      *Cursor
	Limit      int
}

// ScanResult is one page of an ordered scan. Next points at the last raw
// document of the page and is nil when the page is empty.
type ScanResult struct {
	Documents []Document
	Next      *Cursor
}

// RecordSource is the document store the catalog reads from.
type RecordSource interface {
	Scan(ctx context.Context, q ScanQuery) (ScanResult, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	All(ctx context.Context, collection string) ([]Document, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Close() error
}

// DocumentWriter is implemented by stores that accept imports.
type DocumentWriter interface {
	Put(ctx context.Context, collection string, doc Document) error
}
