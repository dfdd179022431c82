package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contre95/vinylshelf/src/features/metrics"
	"github.com/contre95/vinylshelf/src/vinyl"
)

func cardNames(cards []CardView) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Name
	}
	return out
}

func TestService_BrowseScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(beatlesStore(t), testConfig(), newMapSessions(), metrics.NewCollectors())

	sess, err := svc.OpenSession()
	require.NoError(t, err)
	require.NoError(t, svc.EnsureFirstPage(ctx, sess))

	view := svc.View(sess)
	assert.Equal(t, []string{"Abbey Road", "Ghost Tracks", "Kind of Blue", "Let It Be"}, cardNames(view.Cards))
	assert.False(t, view.HasMore)
	assert.False(t, view.Loading, "names are resolved before the page is shown")
	assert.Equal(t, "The Beatles", view.Cards[0].Artist)
	assert.Equal(t, "Rock", view.Cards[0].Genre)
	assert.Equal(t, "1969", view.Cards[0].Year)
	assert.Equal(t, vinyl.UnknownArtist, view.Cards[1].Artist)

	q := sess.Query()
	q.SearchTerm = "let"
	sess.SetQuery(q)
	assert.Equal(t, []string{"Let It Be"}, cardNames(svc.View(sess).Cards))

	q.SearchTerm = "beatles"
	sess.SetQuery(q.WithSort(SortByYear))
	assert.Equal(t, []string{"Abbey Road", "Let It Be"}, cardNames(svc.View(sess).Cards))

	sess.SetQuery(sess.Query().WithSort(SortByYear))
	assert.Equal(t, []string{"Let It Be", "Abbey Road"}, cardNames(svc.View(sess).Cards))
}

func TestService_LoadMoreStopsAtLastPage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	source := newCountingSource(numberedStore(t, 25))
	svc := NewService(source, testConfig(), newMapSessions(), nil)

	sess, err := svc.OpenSession()
	require.NoError(t, err)
	require.NoError(t, svc.LoadAll(ctx, sess))
	assert.Len(t, svc.View(sess).Cards, 25)
	assert.Equal(t, 3, source.scanCount())

	_, fired, err := svc.LoadMore(ctx, sess)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, 3, source.scanCount())
}

func TestService_ToggleFavorite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := beatlesStore(t)
	svc := NewService(store, testConfig(), newMapSessions(), nil)

	sess, err := svc.OpenSession()
	require.NoError(t, err)
	require.NoError(t, svc.EnsureFirstPage(ctx, sess))

	card, err := svc.ToggleFavorite(ctx, sess, "abbey")
	require.NoError(t, err)
	assert.True(t, card.Liked)

	stored, err := svc.Record(ctx, "abbey")
	require.NoError(t, err)
	assert.True(t, stored.IsLiked)
	assert.Equal(t, "Abbey Road", stored.Name)
	assert.Equal(t, "Side two medley", stored.Description)
	assert.Equal(t, vinyl.ReleaseDate("26-09-1969"), stored.ReleaseDate)

	other, err := svc.Record(ctx, "letitbe")
	require.NoError(t, err)
	assert.False(t, other.IsLiked)

	card, err = svc.ToggleFavorite(ctx, sess, "abbey")
	require.NoError(t, err)
	assert.False(t, card.Liked)

	_, err = svc.ToggleFavorite(ctx, sess, "not-in-store")
	assert.ErrorIs(t, err, vinyl.ErrNotFound)
	assert.True(t, IsUserError(err))
}

func TestService_FavoritesOnlyFollowsToggles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(beatlesStore(t), testConfig(), newMapSessions(), nil)

	sess, err := svc.OpenSession()
	require.NoError(t, err)
	require.NoError(t, svc.EnsureFirstPage(ctx, sess))

	q := sess.Query()
	q.FavoritesOnly = true
	sess.SetQuery(q)
	assert.Equal(t, []string{"Kind of Blue"}, cardNames(svc.View(sess).Cards))

	_, err = svc.ToggleFavorite(ctx, sess, "letitbe")
	require.NoError(t, err)
	assert.Equal(t, []string{"Kind of Blue", "Let It Be"}, cardNames(svc.View(sess).Cards))
}

func TestService_ToggleExpanded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(beatlesStore(t), testConfig(), newMapSessions(), nil)

	sess, err := svc.OpenSession()
	require.NoError(t, err)
	require.NoError(t, svc.EnsureFirstPage(ctx, sess))

	card, err := svc.ToggleExpanded(sess, "kob")
	require.NoError(t, err)
	assert.True(t, card.Expanded)
	assert.Equal(t, "17/08/1959", card.ReleaseDate)

	for _, c := range svc.View(sess).Cards {
		assert.Equal(t, c.ID == "kob", c.Expanded, c.ID)
	}

	card, err = svc.ToggleExpanded(sess, "kob")
	require.NoError(t, err)
	assert.False(t, card.Expanded)

	_, err = svc.ToggleExpanded(sess, "nope")
	assert.ErrorIs(t, err, ErrRecordNotLoaded)
}

func TestService_SessionsAreIsolated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewService(beatlesStore(t), testConfig(), newMapSessions(), nil)

	a, err := svc.OpenSession()
	require.NoError(t, err)
	b, err := svc.OpenSession()
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	require.NoError(t, svc.EnsureFirstPage(ctx, a))
	require.NoError(t, svc.EnsureFirstPage(ctx, b))

	_, err = svc.ToggleExpanded(a, "abbey")
	require.NoError(t, err)
	q := a.Query()
	q.GenreID = "jazz"
	a.SetQuery(q)

	assert.Len(t, svc.View(b).Cards, 4)
	for _, c := range svc.View(b).Cards {
		assert.False(t, c.Expanded)
	}
}

func TestService_SweepSessions(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	store := newMapSessions()
	collectors := metrics.NewCollectors()
	svc := NewService(beatlesStore(t), cfg, store, collectors)

	stale, err := svc.OpenSession()
	require.NoError(t, err)
	fresh, err := svc.OpenSession()
	require.NoError(t, err)

	now := time.Now()
	stale.Touch(now.Add(-2 * cfg.Get().Catalog.SessionIdle))
	fresh.Touch(now)

	assert.Equal(t, 1, svc.SweepSessions(now))
	assert.True(t, stale.Closed())
	assert.False(t, fresh.Closed())

	_, ok := svc.Session(stale.ID)
	assert.False(t, ok)
	got, ok := svc.Session(fresh.ID)
	require.True(t, ok)
	assert.Same(t, fresh, got)
	assert.Equal(t, 1, store.Len())
}

func TestService_Genres(t *testing.T) {
	t.Parallel()
	svc := NewService(beatlesStore(t), testConfig(), newMapSessions(), nil)

	genres, err := svc.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []vinyl.LookupEntity{{ID: "jazz", Name: "Jazz"}, {ID: "rock", Name: "Rock"}}, genres)
}

func TestCard_Placeholders(t *testing.T) {
	t.Parallel()

	pending := Card(Resolve(vinyl.Record{ID: "x", Name: "X", ArtistID: "a", GenreID: "g"}, StaticNames{}))
	assert.Equal(t, LoadingArtist, pending.Artist)
	assert.Equal(t, LoadingGenre, pending.Genre)
	assert.True(t, pending.Loading)
	assert.Equal(t, DateNotAvailable, pending.ReleaseDate)
	assert.Equal(t, DateNotAvailable, pending.Year)
	assert.Equal(t, DescriptionNotAvailable, pending.Description)

	missing := Card(ResolvedRecord{
		Record: vinyl.Record{ID: "y", ReleaseDate: "1970"},
		Artist: Resolution{Resolved: true},
		Genre:  Resolution{Resolved: true},
	})
	assert.Equal(t, vinyl.UnknownArtist, missing.Artist)
	assert.Equal(t, vinyl.UnknownGenre, missing.Genre)
	assert.Equal(t, DateNotAvailable, missing.ReleaseDate, "a date without three parts")
	assert.Equal(t, DateNotAvailable, missing.Year)

	dated := Card(Resolve(vinyl.Record{ID: "z", ReleaseDate: "17-08-1959", Description: "Modal jazz"}, staticNames))
	assert.Equal(t, "17/08/1959", dated.ReleaseDate)
	assert.Equal(t, "1959", dated.Year)
	assert.Equal(t, "Modal jazz", dated.Description)
}

func TestService_ToggleFavoriteOfUnloadedRandomPick(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := numberedStore(t, 30)
	svc := NewService(store, testConfig(), newMapSessions(), nil)

	sess, err := svc.OpenSession()
	require.NoError(t, err)
	require.NoError(t, svc.EnsureFirstPage(ctx, sess))
	require.Equal(t, 12, sess.Coordinator.Len())

	q := DefaultQuery()
	q.SearchTerm = "Record 29"
	picked, err := svc.RandomPick(ctx, sess.Resolver, q)
	require.NoError(t, err)
	require.Equal(t, "r29", picked.ID)

	card, err := svc.ToggleFavorite(ctx, sess, picked.ID)
	require.NoError(t, err)
	assert.True(t, card.Liked)
	assert.Equal(t, "Record 29", card.Name)

	stored, err := svc.Record(ctx, "r29")
	require.NoError(t, err)
	assert.True(t, stored.IsLiked)
	assert.Equal(t, 12, sess.Coordinator.Len(), "the session list is not extended")

	require.NoError(t, svc.LoadAll(ctx, sess))
	r, ok := sess.Coordinator.Record("r29")
	require.True(t, ok)
	assert.True(t, r.IsLiked, "a later page carries the stored flag")
}

func TestService_FailedLookupsDoNotRetryOnView(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	source := newCountingSource(beatlesStore(t))
	source.setGetErr(assert.AnError)
	svc := NewService(source, testConfig(), newMapSessions(), nil)

	sess, err := svc.OpenSession()
	require.NoError(t, err)
	require.NoError(t, svc.EnsureFirstPage(ctx, sess))
	source.setGetErr(nil)
	gets := source.totalGets()

	for range 6 {
		view := svc.View(sess)
		assert.True(t, view.Loading)
		assert.False(t, view.HasMore)
		assert.Equal(t, LoadingArtist, view.Cards[0].Artist)
	}
	assert.Equal(t, gets, source.totalGets(), "viewing never issues lookups")
}
