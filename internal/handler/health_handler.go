package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/scriptbay/forum-api/internal/config"
	"github.com/scriptbay/forum-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	ContentMode string    `json:"content_mode"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			ContentMode: string(cfg.ContentMode),
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
