package hosting

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"github.com/contre95/vinylshelf/src/features/catalog"
	"github.com/contre95/vinylshelf/src/features/config"
	"github.com/contre95/vinylshelf/src/features/metrics"
	"github.com/contre95/vinylshelf/src/features/ui"
)

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new HTTP server. covers may be nil.
func NewServer(cfg *config.Manager, catalogService *catalog.Service, metricsService *metrics.Service, collectors *metrics.Collectors, covers catalog.CoverRenderer) *Server {
	engine := html.New(cfg.Get().Server.Views, ".html")
	engine.Debug(cfg.Get().Logger.Level == "debug")
	engine.AddFunc("isDebug", func() bool {
		return cfg.Get().Logger.HTMXDebug
	})
	engine.AddFunc("add", func(a, b int) int {
		return a + b
	})
	engine.AddFunc("sortIndicator", func(q catalog.Query, key string) string {
		if q.SortKey != catalog.SortKey(key) {
			return ""
		}
		if q.SortOrder == catalog.Desc {
			return "↓"
		}
		return "↑"
	})

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				slog.Error("Internal Server Error", "error", err)
			}
			return c.Status(code).SendString(err.Error())
		},
		AppName:               "Vinylshelf",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(HTMXMiddleware(func() bool { return cfg.Get().Logger.HTMXDebug }))
	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	ui.RegisterRoutes(app, ui.NewHandler(cfg))
	catalog.RegisterRoutes(app, catalogService, covers)
	metrics.RegisterRoutes(app, metrics.NewHandler(metricsService), collectors)
	config.RegisterRoutes(app, cfg)

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// App exposes the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
