package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/contre95/vinylshelf/src/features/config"
	"github.com/contre95/vinylshelf/src/features/metrics"
	"github.com/contre95/vinylshelf/src/vinyl"
)

// View is the rendered state of a session's catalog.
type View struct {
	Cards   []CardView `json:"records"`
	Query   Query      `json:"query"`
	Loaded  int        `json:"loaded"`
	HasMore bool       `json:"hasMore"`
	Loading bool       `json:"-"`
}

// Service is the domain service for the catalog feature.
type Service struct {
	source        vinyl.RecordSource
	configManager *config.Manager
	sessions      SessionStore
	collectors    *metrics.Collectors
}

// NewService creates a new catalog service. collectors may be nil.
func NewService(source vinyl.RecordSource, cfgManager *config.Manager, sessions SessionStore, collectors *metrics.Collectors) *Service {
	return &Service{
		source:        source,
		configManager: cfgManager,
		sessions:      sessions,
		collectors:    collectors,
	}
}

// Collections returns the configured collection names.
func (s *Service) Collections() vinyl.Collections {
	c := s.configManager.Get().Source.Collections
	return vinyl.Collections{Records: c.Records, Artists: c.Artists, Genres: c.Genres}
}

func (s *Service) timeout() time.Duration {
	return s.configManager.Get().Source.RequestTimeout
}

// NewResolver creates a resolver over the configured lookup collections.
func (s *Service) NewResolver() *Resolver {
	return NewResolver(s.source, s.Collections(), s.timeout(), s.collectors)
}

// OpenSession starts a new catalog session and stores it.
func (s *Service) OpenSession() (*Session, error) {
	cfg := s.configManager.Get()
	coordinator := NewCoordinator(s.source, cfg.Source.Collections.Records, cfg.Catalog.PageSize, cfg.Source.RequestTimeout)
	sess := NewSession(uuid.NewString(), coordinator, s.NewResolver())
	if err := s.sessions.Add(sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.observeSessions()
	slog.Debug("Catalog session opened", "session", sess.ID, "page_size", cfg.Catalog.PageSize)
	return sess, nil
}

// Session returns a live session and marks it active.
func (s *Service) Session(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	sess, ok := s.sessions.Get(id)
	if !ok || sess.Closed() {
		return nil, false
	}
	sess.Touch(time.Now())
	return sess, true
}

// CloseSession tears a session down and forgets it.
func (s *Service) CloseSession(id string) {
	if sess, ok := s.sessions.Remove(id); ok {
		sess.Close()
		slog.Debug("Catalog session closed", "session", id)
	}
	s.observeSessions()
}

// SweepSessions closes every session idle for longer than the configured
// limit and returns how many were closed.
func (s *Service) SweepSessions(now time.Time) int {
	idle := s.configManager.Get().Catalog.SessionIdle
	var stale []string
	s.sessions.Range(func(sess *Session) bool {
		if sess.IdleSince(now, idle) {
			stale = append(stale, sess.ID)
		}
		return true
	})
	for _, id := range stale {
		s.CloseSession(id)
	}
	if len(stale) > 0 {
		slog.Info("Swept idle catalog sessions", "count", len(stale), "remaining", s.sessions.Len())
	}
	return len(stale)
}

// StartSweeper sweeps idle sessions every interval until ctx is done.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.SweepSessions(now)
			}
		}
	}()
}

// LoadMore handles the sentinel becoming visible. Names for the new page are
// resolved before it returns; lookup failures are logged and the affected
// cards keep their loading label.
func (s *Service) LoadMore(ctx context.Context, sess *Session) (Page, bool, error) {
	page, fired, err := sess.Trigger.Visible(ctx)
	if err != nil {
		slog.Error("Failed to load catalog page", "session", sess.ID, "error", err)
		return Page{}, fired, err
	}
	if !fired {
		return Page{}, false, nil
	}
	if s.collectors != nil {
		s.collectors.PagesLoaded.Inc()
	}
	if err := sess.Resolver.Prefetch(ctx, page.Items); err != nil {
		slog.Warn("Some lookups failed", "session", sess.ID, "error", err)
	}
	slog.Debug("Catalog page loaded", "session", sess.ID, "items", len(page.Items), "last", page.IsLastPage)
	return page, true, nil
}

// EnsureFirstPage loads the first page of a fresh session.
func (s *Service) EnsureFirstPage(ctx context.Context, sess *Session) error {
	if sess.Coordinator.Len() > 0 || !sess.Coordinator.HasMore() {
		return nil
	}
	_, _, err := s.LoadMore(ctx, sess)
	return err
}

// LoadAll pages until the last page has been seen.
func (s *Service) LoadAll(ctx context.Context, sess *Session) error {
	for sess.Coordinator.HasMore() {
		if _, _, err := s.LoadMore(ctx, sess); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// View runs the engine over the accumulated list and presents it.
func (s *Service) View(sess *Session) View {
	q := sess.Query()
	list := Apply(sess.Coordinator.Records(), sess.Resolver, q)
	loading := false
	for i := range list {
		list[i].Expanded = sess.Expanded(list[i].ID)
		loading = loading || list[i].Loading
	}
	return View{
		Cards:   Present(list),
		Query:   q,
		Loaded:  sess.Coordinator.Len(),
		HasMore: sess.Coordinator.HasMore(),
		Loading: loading,
	}
}

// Card returns the current card of one accumulated record.
func (s *Service) Card(sess *Session, id string) (CardView, error) {
	r, ok := sess.Coordinator.Record(id)
	if !ok {
		return CardView{}, ErrRecordNotLoaded
	}
	rr := Resolve(r, sess.Resolver)
	rr.Expanded = sess.Expanded(id)
	return Card(rr), nil
}

// ToggleFavorite flips the favorite flag of a record in the store and then
// in the session list. Other fields are left untouched. Records the session
// has not loaded yet, such as a random pick, are read from the store first.
func (s *Service) ToggleFavorite(ctx context.Context, sess *Session, id string) (CardView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	r, loaded := sess.Coordinator.Record(id)
	if !loaded {
		stored, err := s.Record(ctx, id)
		if err != nil {
			return CardView{}, fmt.Errorf("load record %s: %w", id, err)
		}
		r = stored
	}
	liked := !r.IsLiked
	if err := s.source.Update(ctx, s.Collections().Records, id, map[string]any{vinyl.FieldIsLiked: liked}); err != nil {
		slog.Error("Failed to update favorite", "id", id, "error", err)
		return CardView{}, fmt.Errorf("update favorite of %s: %w", id, err)
	}
	slog.Info("Favorite toggled", "id", id, "liked", liked, "loaded", loaded)
	if loaded {
		sess.Coordinator.SetLiked(id, liked)
		return s.Card(sess, id)
	}

	r.IsLiked = liked
	if err := sess.Resolver.Prefetch(ctx, []vinyl.Record{r}); err != nil {
		slog.Warn("Some lookups failed", "session", sess.ID, "error", err)
	}
	rr := Resolve(r, sess.Resolver)
	rr.Expanded = sess.Expanded(id)
	return Card(rr), nil
}

// ToggleExpanded flips a card between collapsed and expanded.
func (s *Service) ToggleExpanded(sess *Session, id string) (CardView, error) {
	if _, ok := sess.Coordinator.Record(id); !ok {
		return CardView{}, ErrRecordNotLoaded
	}
	sess.ToggleExpanded(id)
	return s.Card(sess, id)
}

// Genres returns every genre ordered by name, for the genre control.
func (s *Service) Genres(ctx context.Context) ([]vinyl.LookupEntity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	docs, err := s.source.All(ctx, s.Collections().Genres)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	genres := make([]vinyl.LookupEntity, 0, len(docs))
	for _, doc := range docs {
		g, err := vinyl.DecodeLookup(doc)
		if err != nil {
			slog.Warn("Skipping undecodable genre", "id", doc.ID, "error", err)
			continue
		}
		genres = append(genres, g)
	}
	slices.SortStableFunc(genres, func(a, b vinyl.LookupEntity) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return genres, nil
}

// RandomPick chooses uniformly among every stored record matching q. The
// filter matches artist names known to names; the chosen record's artist
// and genre are then fetched directly.
func (s *Service) RandomPick(ctx context.Context, names NameIndex, q Query) (ResolvedRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	collections := s.Collections()
	records, err := s.allRecords(ctx)
	if err != nil {
		s.observePick("error")
		return ResolvedRecord{}, err
	}

	picked, ok := PickRandom(Filter(records, names, q))
	if !ok {
		s.observePick("empty")
		return ResolvedRecord{}, ErrNoEligibleRecord
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := lookupDirect(gctx, s.source, collections, vinyl.KindArtist, picked.ArtistID)
		picked.Artist = res
		return err
	})
	g.Go(func() error {
		res, err := lookupDirect(gctx, s.source, collections, vinyl.KindGenre, picked.GenreID)
		picked.Genre = res
		return err
	})
	if err := g.Wait(); err != nil {
		s.observePick("error")
		return ResolvedRecord{}, err
	}
	picked.Loading = false
	picked.Expanded = true
	s.observePick("ok")
	slog.Info("Random record picked", "id", picked.ID, "name", picked.Name, "filtered", q.Filtered())
	return picked, nil
}

// IsUserError reports whether err describes a state the viewer caused.
func IsUserError(err error) bool {
	return errors.Is(err, ErrNoEligibleRecord) || errors.Is(err, ErrRecordNotLoaded) || errors.Is(err, vinyl.ErrNotFound)
}

func (s *Service) observePick(outcome string) {
	if s.collectors != nil {
		s.collectors.RandomPicks.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) observeSessions() {
	if s.collectors != nil {
		s.collectors.ActiveSessions.Set(float64(s.sessions.Len()))
	}
}

// Record fetches one record from the store.
func (s *Service) Record(ctx context.Context, id string) (vinyl.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()
	doc, err := s.source.Get(ctx, s.Collections().Records, id)
	if err != nil {
		return vinyl.Record{}, err
	}
	return vinyl.DecodeRecord(doc)
}

// PrefetchAll resolves the names of every stored record into resolver.
func (s *Service) PrefetchAll(ctx context.Context, resolver *Resolver) error {
	records, err := s.allRecords(ctx)
	if err != nil {
		return err
	}
	return resolver.Prefetch(ctx, records)
}

func (s *Service) allRecords(ctx context.Context) ([]vinyl.Record, error) {
	docs, err := s.source.All(ctx, s.Collections().Records)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	records := make([]vinyl.Record, 0, len(docs))
	for _, doc := range docs {
		r, err := vinyl.DecodeRecord(doc)
		if err != nil {
			slog.Warn("Skipping undecodable record", "id", doc.ID, "error", err)
			continue
		}
		records = append(records, r)
	}
	return records, nil
}
