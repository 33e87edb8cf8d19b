package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/scriptbay/forum-api/internal/config"
	"github.com/scriptbay/forum-api/internal/handler"
	"github.com/scriptbay/forum-api/internal/middleware"
	"github.com/scriptbay/forum-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	DiscussionHandler *handler.DiscussionHandler
	CategoryHandler   *handler.CategoryHandler
	JWTOptional       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Listings are anonymous-friendly; write endpoints enforce
	// authentication inside the handlers.
	jwtOptional := deps.JWTOptional
	if jwtOptional == nil {
		jwtOptional = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.DiscussionHandler != nil {
		writeLimiter := middleware.RateLimit("discussions", 30, time.Minute)
		discussions := api.Group("/discussions", jwtOptional, func(c *fiber.Ctx) error {
			if c.Method() == fiber.MethodGet {
				return c.Next()
			}
			return writeLimiter(c)
		})
		deps.DiscussionHandler.Register(discussions)
	}

	if deps.CategoryHandler != nil {
		categories := api.Group("/categories")
		deps.CategoryHandler.Register(categories)
	}
}
