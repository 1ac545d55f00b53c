package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/dojo-contact-api/internal/config"
	"github.com/noah-isme/dojo-contact-api/internal/handler"
	"github.com/noah-isme/dojo-contact-api/internal/middleware"
	"github.com/noah-isme/dojo-contact-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ContactHandler    *handler.ContactHandler
	DisciplineHandler *handler.DisciplineHandler
	// ContactLimiter guards the submission endpoints; nil derives one from the config.
	ContactLimiter fiber.Handler
	// Channels reports what was wired at startup; nil derives it from the config.
	Channels *handler.HealthChannels
}

// AppConfig returns the fiber settings for the relay. Multipart bodies are left to the contact
// handler so a malformed one falls back to an empty submission instead of a transport error.
func AppConfig(cfg config.Config) fiber.Config {
	return fiber.Config{
		AppName:                      cfg.AppName,
		ServerHeader:                 cfg.AppName,
		DisablePreParseMultipartForm: true,
	}
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	channels := handler.ChannelsFromConfig(cfg)
	if deps.Channels != nil {
		channels = *deps.Channels
	}
	api.Get("/health", handler.HealthCheck(cfg, channels))

	if deps.DisciplineHandler != nil {
		deps.DisciplineHandler.Register(api.Group("/disciplines"))
	}

	if deps.ContactHandler == nil {
		return
	}

	limiter := deps.ContactLimiter
	if limiter == nil {
		limiter = middleware.RateLimit("contact", cfg.ContactRateLimit, time.Minute)
	}

	// The legacy path is what deployed contact forms post to.
	deps.ContactHandler.Register(app.Group("/api/contacto", limiter))
	deps.ContactHandler.Register(api.Group("/contact", limiter))
}
