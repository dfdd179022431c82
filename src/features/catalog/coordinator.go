package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/contre95/vinylshelf/src/vinyl"
)

// Coordinator pages through the records collection ordered by name and
// accumulates the pages for one session. It owns the list and the cursor.
type Coordinator struct {
	source     vinyl.RecordSource
	collection string
	pageSize   int
	timeout    time.Duration

	// fetchMu serializes page fetches; each depends on the previous cursor.
	fetchMu sync.Mutex

	mu       sync.RWMutex
	records  []vinyl.Record
	cursor   *vinyl.Cursor
	lastPage bool
	closed   bool
}

// NewCoordinator creates a coordinator over collection. A non-positive
// timeout leaves requests bounded only by the caller's context.
func NewCoordinator(source vinyl.RecordSource, collection string, pageSize int, timeout time.Duration) *Coordinator {
	if pageSize <= 0 {
		pageSize = 12
	}
	return &Coordinator{
		source:     source,
		collection: collection,
		pageSize:   pageSize,
		timeout:    timeout,
	}
}

// LoadNextPage fetches the page after the stored cursor and appends it.
// Once the last page has been seen it returns an empty last page without
// touching the source.
func (c *Coordinator) LoadNextPage(ctx context.Context) (Page, error) {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	c.mu.RLock()
	closed, lastPage, cursor := c.closed, c.lastPage, c.cursor
	c.mu.RUnlock()
	if closed {
		return Page{}, ErrSessionClosed
	}
	if lastPage {
		return Page{IsLastPage: true}, nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	slog.Debug("Loading page", "collection", c.collection, "after", cursor.String(), "size", c.pageSize)
	res, err := c.source.Scan(ctx, vinyl.ScanQuery{
		Collection: c.collection,
		OrderBy:    vinyl.FieldName,
		After:      cursor,
		Limit:      c.pageSize,
	})
	if err != nil {
		return Page{}, fmt.Errorf("load page after %s: %w", cursor.String(), err)
	}

	items := make([]vinyl.Record, 0, len(res.Documents))
	for _, doc := range res.Documents {
		r, err := vinyl.DecodeRecord(doc)
		if err != nil {
			slog.Warn("Skipping undecodable record", "id", doc.ID, "error", err)
			continue
		}
		items = append(items, r)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		slog.Debug("Discarding page for closed session", "collection", c.collection)
		return Page{}, ErrSessionClosed
	}
	c.records = append(c.records, items...)
	if res.Next != nil {
		c.cursor = res.Next
	}
	c.lastPage = len(res.Documents) < c.pageSize
	return Page{Items: items, IsLastPage: c.lastPage}, nil
}

// Records returns a copy of the accumulated list in fetch order.
func (c *Coordinator) Records() []vinyl.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.records)
}

// Record returns one accumulated record by id.
func (c *Coordinator) Record(id string) (vinyl.Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.records {
		if r.ID == id {
			return r, true
		}
	}
	return vinyl.Record{}, false
}

// Len is the number of accumulated records.
func (c *Coordinator) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// HasMore reports whether another page may exist.
func (c *Coordinator) HasMore() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.lastPage && !c.closed
}

// SetLiked patches the favorite flag of an accumulated record.
func (c *Coordinator) SetLiked(id string, liked bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.records {
		if c.records[i].ID == id {
			c.records[i].IsLiked = liked
			return true
		}
	}
	return false
}

// Close marks the coordinator defunct. A page in flight is discarded when it
// arrives.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
