package catalog

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the catalog feature.
func RegisterRoutes(app *fiber.App, service *Service, covers CoverRenderer) {
	handler := NewHandler(service, covers)

	ui := app.Group("/ui")
	ui.Get("/", handler.RenderCatalog)
	ui.Get("/catalog/grid", handler.GetGrid)
	ui.Get("/catalog/more", handler.LoadMore)
	ui.Post("/catalog/query", handler.UpdateQuery)
	ui.Post("/catalog/sort/:key", handler.ChangeSort)
	ui.Post("/catalog/random", handler.RandomPick)
	ui.Post("/records/:id/favorite", handler.ToggleFavorite)
	ui.Post("/records/:id/expand", handler.ToggleExpanded)

	api := app.Group("/api")
	api.Get("/records", handler.GetRecords)
	api.Get("/genres", handler.GetGenres)

	app.Get("/covers/:id", handler.GetCover)
}
