package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/contre95/vinylshelf/src/vinyl"
)

// InstrumentedSource wraps a vinyl.RecordSource and records call counts and
// latency.
type InstrumentedSource struct {
	next       vinyl.RecordSource
	collectors *Collectors
}

// Instrument decorates a source with the given collectors.
func Instrument(next vinyl.RecordSource, c *Collectors) *InstrumentedSource {
	return &InstrumentedSource{next: next, collectors: c}
}

func (s *InstrumentedSource) observe(op, collection string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case errors.Is(err, vinyl.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	s.collectors.SourceRequests.WithLabelValues(op, collection, outcome).Inc()
	s.collectors.SourceLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *InstrumentedSource) Scan(ctx context.Context, q vinyl.ScanQuery) (vinyl.ScanResult, error) {
	start := time.Now()
	res, err := s.next.Scan(ctx, q)
	s.observe("scan", q.Collection, start, err)
	return res, err
}

func (s *InstrumentedSource) Get(ctx context.Context, collection, id string) (vinyl.Document, error) {
	start := time.Now()
	doc, err := s.next.Get(ctx, collection, id)
	s.observe("get", collection, start, err)
	return doc, err
}

func (s *InstrumentedSource) All(ctx context.Context, collection string) ([]vinyl.Document, error) {
	start := time.Now()
	docs, err := s.next.All(ctx, collection)
	s.observe("all", collection, start, err)
	return docs, err
}

func (s *InstrumentedSource) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	start := time.Now()
	err := s.next.Update(ctx, collection, id, fields)
	s.observe("update", collection, start, err)
	return err
}

// Put forwards to the wrapped source when it accepts writes.
func (s *InstrumentedSource) Put(ctx context.Context, collection string, doc vinyl.Document) error {
	w, ok := s.next.(vinyl.DocumentWriter)
	if !ok {
		return errors.New("record source does not accept writes")
	}
	start := time.Now()
	err := w.Put(ctx, collection, doc)
	s.observe("put", collection, start, err)
	return err
}

func (s *InstrumentedSource) Close() error {
	return s.next.Close()
}
