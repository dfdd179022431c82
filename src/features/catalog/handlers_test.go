package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCovers struct {
	data []byte
	err  error
}

func (s stubCovers) Thumbnail(context.Context, string) ([]byte, error) { return s.data, s.err }

func newTestApp(t *testing.T, covers CoverRenderer) *fiber.App {
	t.Helper()
	store := beatlesStore(t)
	putRecord(t, store, withCover())
	svc := NewService(store, testConfig(), newMapSessions(), nil)
	app := fiber.New()
	RegisterRoutes(app, svc, covers)
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request, cookie *http.Cookie) (*http.Response, *http.Cookie) {
	t.Helper()
	req.Header.Set("Accept", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			return resp, c
		}
	}
	return resp, cookie
}

func decodeView(t *testing.T, resp *http.Response) View {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	return view
}

func TestHandler_RecordsKeepSessionState(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, nil)

	resp, cookie := do(t, app, httptest.NewRequest(http.MethodGet, "/api/records", nil), nil)
	require.NotNil(t, cookie, "a session cookie is issued")
	view := decodeView(t, resp)
	assert.Len(t, view.Cards, 5)
	assert.Equal(t, SortByName, view.Query.SortKey)

	form := url.Values{"search": {"beatles"}}
	req := httptest.NewRequest(http.MethodPost, "/ui/catalog/query", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ = do(t, app, req, cookie)
	view = decodeView(t, resp)
	assert.Equal(t, []string{"Abbey Road", "Let It Be"}, cardNames(view.Cards))

	resp, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/ui/catalog/sort/name", nil), cookie)
	view = decodeView(t, resp)
	assert.Equal(t, Desc, view.Query.SortOrder)
	assert.Equal(t, []string{"Let It Be", "Abbey Road"}, cardNames(view.Cards))
	assert.Equal(t, "beatles", view.Query.SearchTerm, "sorting keeps the filters")
}

func TestHandler_FavoriteAndExpand(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, nil)
	_, cookie := do(t, app, httptest.NewRequest(http.MethodGet, "/api/records", nil), nil)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodPost, "/ui/records/abbey/favorite", nil), cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var card CardView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	assert.True(t, card.Liked)

	resp, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/ui/records/abbey/expand", nil), cookie)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	assert.True(t, card.Expanded)

	resp, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/ui/records/unknown/favorite", nil), cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_FavoriteBeforeFirstPage(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, nil)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodPost, "/ui/records/kob/favorite", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var card CardView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	assert.False(t, card.Liked)
	assert.Equal(t, "Miles Davis", card.Artist)
}

func TestHandler_LoadMoreFailure(t *testing.T) {
	t.Parallel()
	store := beatlesStore(t)
	svc := NewService(&failingScan{RecordSource: store, failAt: 1}, testConfig(), newMapSessions(), nil)
	app := fiber.New()
	RegisterRoutes(app, svc, nil)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/ui/catalog/more", nil), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Could not load more records.", body["error"])
}

func TestHandler_RandomPick(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, nil)
	_, cookie := do(t, app, httptest.NewRequest(http.MethodGet, "/api/records", nil), nil)

	form := url.Values{"genre": {"jazz"}, "favorites": {"on"}}
	req := httptest.NewRequest(http.MethodPost, "/ui/catalog/query", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	do(t, app, req, cookie)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodPost, "/ui/catalog/random", nil), cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var card CardView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&card))
	assert.Equal(t, "Kind of Blue", card.Name)
	assert.Equal(t, "Miles Davis", card.Artist)

	form = url.Values{"genre": {"polka"}}
	req = httptest.NewRequest(http.MethodPost, "/ui/catalog/query", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	do(t, app, req, cookie)

	resp, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/ui/catalog/random", nil), cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "No records match your filters.", body["error"])
}

func TestHandler_Genres(t *testing.T) {
	t.Parallel()
	app := newTestApp(t, nil)

	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/genres", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var genres []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&genres))
	require.Len(t, genres, 2)
	assert.Equal(t, map[string]string{"id": "jazz", "name": "Jazz"}, genres[0])
}

func TestHandler_Cover(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, stubCovers{data: []byte("jpeg-bytes")})
	resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/covers/cover", nil), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/covers/abbey", nil), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "record without a cover")

	resp, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/covers/missing", nil), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	failing := newTestApp(t, stubCovers{err: errors.New("boom")})
	resp, _ = do(t, failing, httptest.NewRequest(http.MethodGet, "/covers/cover", nil), nil)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "https://example.com/cover.jpg", resp.Header.Get("Location"))
}
