package hosting

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// htmxHeaders are the request headers worth logging for htmx requests.
var htmxHeaders = []string{
	"HX-Trigger",
	"HX-Trigger-Name",
	"HX-Target",
	"HX-Current-URL",
	"HX-Boosted",
}

// HTMXMiddleware logs htmx request details when debug is on.
func HTMXMiddleware(debug func() bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("HX-Request") != "true" || !debug() {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start).String(),
		}
		for _, header := range htmxHeaders {
			if value := c.Get(header); value != "" {
				attrs = append(attrs, header, value)
			}
		}
		slog.Debug("HTMX request", attrs...)
		return err
	}
}

// LogAllRequestsMiddleware logs every request, failures at error level.
func LogAllRequestsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestType := "normal"
		if c.Get("HX-Request") == "true" {
			requestType = "htmx"
		}

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		if status >= 500 {
			slog.Error("HTTP request",
				"type", requestType,
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"duration", duration.String(),
				"error", err,
			)
		} else {
			slog.Debug("HTTP request",
				"type", requestType,
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"duration", duration.String(),
			)
		}
		return err
	}
}
