package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/contre95/vinylshelf/src/vinyl"
)

// SessionCookie carries the catalog session id.
const SessionCookie = "vinylshelf_session"

// CoverRenderer produces a thumbnail for a cover image URL.
type CoverRenderer interface {
	Thumbnail(ctx context.Context, url string) ([]byte, error)
}

// Handler is the handler for the catalog feature.
type Handler struct {
	service *Service
	covers  CoverRenderer
}

// NewHandler creates a new handler for the catalog feature. covers may be nil,
// in which case cover requests redirect to the original image.
func NewHandler(service *Service, covers CoverRenderer) *Handler {
	return &Handler{service: service, covers: covers}
}

func wantsHTML(c *fiber.Ctx) bool {
	return c.Get("HX-Request") == "true" || strings.Contains(c.Get("Accept"), "text/html")
}

// session returns the caller's session, opening one when the cookie is
// missing or stale.
func (h *Handler) session(c *fiber.Ctx) (*Session, error) {
	if sess, ok := h.service.Session(c.Cookies(SessionCookie)); ok {
		return sess, nil
	}
	sess, err := h.service.OpenSession()
	if err != nil {
		return nil, err
	}
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(h.service.configManager.Get().Catalog.SessionIdle),
	})
	return sess, nil
}

func (h *Handler) renderGrid(c *fiber.Ctx, sess *Session) error {
	view := h.service.View(sess)
	if !wantsHTML(c) {
		return c.JSON(view)
	}
	return c.Render("catalog/grid", fiber.Map{"View": view})
}

// renderGridNotice re-renders the grid with a notice above a manual retry
// control. htmx only swaps 2xx responses, so HTML callers get a 200.
func (h *Handler) renderGridNotice(c *fiber.Ctx, sess *Session, status int, message string) error {
	if !wantsHTML(c) {
		return c.Status(status).JSON(fiber.Map{"error": message})
	}
	return c.Render("catalog/grid", fiber.Map{"View": h.service.View(sess), "Notice": message})
}

func (h *Handler) renderNotice(c *fiber.Ctx, status int, message string) error {
	if !wantsHTML(c) {
		return c.Status(status).JSON(fiber.Map{"error": message})
	}
	return c.Status(status).Render("catalog/notice", fiber.Map{"Message": message})
}

// RenderCatalog renders the catalog page with the first page loaded.
func (h *Handler) RenderCatalog(c *fiber.Ctx) error {
	slog.Debug("RenderCatalog handler called")
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	data := fiber.Map{"Title": "Catalog"}
	if err := h.service.EnsureFirstPage(c.Context(), sess); err != nil {
		data["Error"] = "Could not load the catalog, try again later."
	}
	genres, err := h.service.Genres(c.Context())
	if err != nil {
		slog.Error("Error loading genres", "error", err)
	}
	data["Genres"] = genres
	data["View"] = h.service.View(sess)
	if c.Get("HX-Request") != "true" {
		data["Section"] = "catalog"
		return c.Render("main", data)
	}
	return c.Render("sections/catalog", data)
}

// GetGrid renders the current grid without fetching.
func (h *Handler) GetGrid(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return h.renderGrid(c, sess)
}

// LoadMore is hit when the end-of-list sentinel is revealed.
func (h *Handler) LoadMore(c *fiber.Ctx) error {
	slog.Debug("LoadMore handler called")
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	if _, _, err := h.service.LoadMore(c.Context(), sess); err != nil {
		if errors.Is(err, ErrSessionClosed) {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return h.renderGridNotice(c, sess, fiber.StatusBadGateway, "Could not load more records.")
	}
	return h.renderGrid(c, sess)
}

// UpdateQuery applies the search, genre and favorites controls. The sort
// controls are left as they are.
func (h *Handler) UpdateQuery(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	q := sess.Query()
	q.SearchTerm = strings.TrimSpace(c.FormValue("search"))
	q.GenreID = c.FormValue("genre")
	q.FavoritesOnly = c.FormValue("favorites") == "on" || c.FormValue("favorites") == "true"
	sess.SetQuery(q)
	slog.Debug("Catalog query updated", "session", sess.ID, "search", q.SearchTerm, "genre", q.GenreID, "favorites", q.FavoritesOnly)
	return h.renderGrid(c, sess)
}

// ChangeSort selects a sort key, flipping the order when it is already active.
func (h *Handler) ChangeSort(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	q := sess.Query().WithSort(ParseSortKey(c.Params("key")))
	if order := c.FormValue("order"); order != "" {
		q.SortOrder = ParseSortOrder(order)
	}
	sess.SetQuery(q)
	return h.renderGrid(c, sess)
}

func (h *Handler) renderCard(c *fiber.Ctx, card CardView, err error) error {
	if IsUserError(err) {
		return h.renderNotice(c, fiber.StatusNotFound, "That record is not in the collection anymore.")
	}
	if err != nil {
		return h.renderNotice(c, fiber.StatusBadGateway, "Could not update the record, try again.")
	}
	if !wantsHTML(c) {
		return c.JSON(card)
	}
	return c.Render("catalog/card", card)
}

// ToggleFavorite flips the favorite flag of a record.
func (h *Handler) ToggleFavorite(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	card, err := h.service.ToggleFavorite(c.Context(), sess, c.Params("id"))
	if err == nil && sess.Query().FavoritesOnly && !card.Liked {
		c.Set("HX-Retarget", "#grid")
		c.Set("HX-Reswap", "outerHTML")
		return h.renderGrid(c, sess)
	}
	return h.renderCard(c, card, err)
}

// ToggleExpanded flips a card between collapsed and expanded.
func (h *Handler) ToggleExpanded(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	card, err := h.service.ToggleExpanded(sess, c.Params("id"))
	return h.renderCard(c, card, err)
}

// RandomPick chooses one record matching the session's filters.
func (h *Handler) RandomPick(c *fiber.Ctx) error {
	slog.Debug("RandomPick handler called")
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	picked, err := h.service.RandomPick(c.Context(), sess.Resolver, sess.Query())
	if errors.Is(err, ErrNoEligibleRecord) {
		return h.renderNotice(c, fiber.StatusOK, "No records match your filters.")
	}
	if err != nil {
		slog.Error("Random pick failed", "error", err)
		return h.renderNotice(c, fiber.StatusBadGateway, "Could not pick a record, try again.")
	}
	card := Card(picked)
	if !wantsHTML(c) {
		return c.JSON(card)
	}
	return c.Render("catalog/random", card)
}

// GetRecords returns the session's catalog as JSON.
func (h *Handler) GetRecords(c *fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	if err := h.service.EnsureFirstPage(c.Context(), sess); err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(h.service.View(sess))
}

// GetGenres returns every genre.
func (h *Handler) GetGenres(c *fiber.Ctx) error {
	genres, err := h.service.Genres(c.Context())
	if err != nil {
		slog.Error("Error loading genres", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "could not load genres"})
	}
	out := make([]fiber.Map, 0, len(genres))
	for _, g := range genres {
		out = append(out, fiber.Map{"id": g.ID, "name": g.Name})
	}
	return c.JSON(out)
}

// GetCover serves a thumbnail of a record's cover, falling back to the
// original image when it cannot be rendered.
func (h *Handler) GetCover(c *fiber.Ctx) error {
	id := c.Params("id")
	r, err := h.service.Record(c.Context(), id)
	if errors.Is(err, vinyl.ErrNotFound) || (err == nil && r.CoverImageURL == "") {
		return c.SendStatus(fiber.StatusNotFound)
	}
	if err != nil {
		slog.Error("Error loading record for cover", "id", id, "error", err)
		return c.SendStatus(fiber.StatusBadGateway)
	}
	if h.covers == nil {
		return c.Redirect(r.CoverImageURL, fiber.StatusTemporaryRedirect)
	}
	thumb, err := h.covers.Thumbnail(c.Context(), r.CoverImageURL)
	if err != nil {
		slog.Warn("Cover thumbnail failed, redirecting to original", "id", id, "error", err)
		return c.Redirect(r.CoverImageURL, fiber.StatusTemporaryRedirect)
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	c.Type("jpg")
	return c.Send(thumb)
}
