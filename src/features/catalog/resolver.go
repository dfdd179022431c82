package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"golang.org/x/sync/errgroup"

	"github.com/contre95/vinylshelf/src/features/metrics"
	"github.com/contre95/vinylshelf/src/vinyl"
)

const (
	resolverWait          = 2 * time.Millisecond
	resolverBatchCapacity = 50
	resolverConcurrency   = 8
)

type resolution struct {
	name  string
	found bool
}

// Resolver turns artist and genre ids into display names. Each id is
// requested at most once per resolver; concurrent requests for the same id
// share one lookup and ids requested together are batched.
type Resolver struct {
	source      vinyl.RecordSource
	collections vinyl.Collections
	timeout     time.Duration
	collectors  *metrics.Collectors

	loaders map[vinyl.LookupKind]*dataloader.Loader[string, string]

	mu       sync.RWMutex
	resolved map[vinyl.LookupKind]map[string]resolution
}

// NewResolver creates an empty resolver. collectors may be nil.
func NewResolver(source vinyl.RecordSource, collections vinyl.Collections, timeout time.Duration, collectors *metrics.Collectors) *Resolver {
	r := &Resolver{
		source:      source,
		collections: collections,
		timeout:     timeout,
		collectors:  collectors,
		loaders:     make(map[vinyl.LookupKind]*dataloader.Loader[string, string], 2),
		resolved: map[vinyl.LookupKind]map[string]resolution{
			vinyl.KindArtist: {},
			vinyl.KindGenre:  {},
		},
	}
	for _, kind := range []vinyl.LookupKind{vinyl.KindArtist, vinyl.KindGenre} {
		r.loaders[kind] = dataloader.NewBatchedLoader(
			r.batch(kind),
			dataloader.WithWait[string, string](resolverWait),
			dataloader.WithBatchCapacity[string, string](resolverBatchCapacity),
		)
	}
	return r
}

// Name implements NameIndex. It never issues a request.
func (r *Resolver) Name(kind vinyl.LookupKind, id string) Resolution {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.resolved[kind][id]
	if !ok {
		return Resolution{}
	}
	return Resolution{Name: res.name, Resolved: true, Found: res.found}
}

// ResolveArtist returns the artist display name, or the unknown placeholder.
func (r *Resolver) ResolveArtist(ctx context.Context, id string) (string, error) {
	return r.Resolve(ctx, vinyl.KindArtist, id)
}

// ResolveGenre returns the genre display name, or the unknown placeholder.
func (r *Resolver) ResolveGenre(ctx context.Context, id string) (string, error) {
	return r.Resolve(ctx, vinyl.KindGenre, id)
}

// Resolve returns the display name of id. A missing entity resolves to the
// kind's placeholder and is remembered as such. A transport failure is
// returned and not remembered, so a later call retries.
func (r *Resolver) Resolve(ctx context.Context, kind vinyl.LookupKind, id string) (string, error) {
	loader, ok := r.loaders[kind]
	if !ok {
		return "", fmt.Errorf("unknown lookup kind %q", kind)
	}
	if res := r.Name(kind, id); res.Resolved {
		r.observe(kind, "hit")
		if !res.Found {
			return kind.Unknown(), nil
		}
		return res.Name, nil
	}
	r.observe(kind, "miss")
	if id == "" {
		r.remember(kind, id, resolution{})
		return kind.Unknown(), nil
	}
	name, err := loader.Load(ctx, id)()
	if err != nil {
		loader.Clear(ctx, id)
		return "", err
	}
	return name, nil
}

// Prefetch resolves every distinct unresolved reference of records. At most
// resolverConcurrency lookups run at once and failures are joined.
func (r *Resolver) Prefetch(ctx context.Context, records []vinyl.Record) error {
	type ref struct {
		kind vinyl.LookupKind
		id   string
	}
	seen := make(map[ref]struct{})
	var refs []ref
	for _, rec := range records {
		for _, rf := range []ref{{vinyl.KindArtist, rec.ArtistID}, {vinyl.KindGenre, rec.GenreID}} {
			if _, dup := seen[rf]; dup || r.Name(rf.kind, rf.id).Resolved {
				continue
			}
			seen[rf] = struct{}{}
			refs = append(refs, rf)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	errs := make([]error, len(refs))
	var g errgroup.Group
	g.SetLimit(resolverConcurrency)
	for i, rf := range refs {
		g.Go(func() error {
			if _, err := r.Resolve(ctx, rf.kind, rf.id); err != nil {
				errs[i] = fmt.Errorf("resolve %s %s: %w", rf.kind, rf.id, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (r *Resolver) batch(kind vinyl.LookupKind) dataloader.BatchFunc[string, string] {
	return func(ctx context.Context, ids []string) []*dataloader.Result[string] {
		slog.Debug("Resolving lookups", "kind", kind, "count", len(ids))
		results := make([]*dataloader.Result[string], len(ids))
		var g errgroup.Group
		g.SetLimit(resolverConcurrency)
		for i, id := range ids {
			g.Go(func() error {
				name, err := r.lookup(ctx, kind, id)
				results[i] = &dataloader.Result[string]{Data: name, Error: err}
				return nil
			})
		}
		_ = g.Wait()
		return results
	}
}

// lookup fetches one entity. It outlives the caller's cancellation so a
// late answer still lands in the cache.
func (r *Resolver) lookup(ctx context.Context, kind vinyl.LookupKind, id string) (string, error) {
	ctx = context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	doc, err := r.source.Get(ctx, r.collections.For(kind), id)
	switch {
	case errors.Is(err, vinyl.ErrNotFound):
		slog.Debug("Lookup not found", "kind", kind, "id", id)
		r.remember(kind, id, resolution{})
		return kind.Unknown(), nil
	case err != nil:
		slog.Warn("Lookup failed", "kind", kind, "id", id, "error", err)
		return "", fmt.Errorf("lookup %s %s: %w", kind, id, err)
	}
	entity, err := vinyl.DecodeLookup(doc)
	if err != nil || entity.Name == "" {
		slog.Warn("Lookup document has no usable name", "kind", kind, "id", id, "error", err)
		r.remember(kind, id, resolution{})
		return kind.Unknown(), nil
	}
	r.remember(kind, id, resolution{name: entity.Name, found: true})
	return entity.Name, nil
}

func (r *Resolver) remember(kind vinyl.LookupKind, id string, res resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved[kind][id] = res
}

func (r *Resolver) observe(kind vinyl.LookupKind, result string) {
	if r.collectors == nil {
		return
	}
	r.collectors.ResolverLookups.WithLabelValues(string(kind), result).Inc()
}
