package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/dojo-contact-api/internal/config"
	"github.com/noah-isme/dojo-contact-api/internal/service"
	"github.com/noah-isme/dojo-contact-api/internal/utils"
)

const (
	channelConfigured = "configured"
	channelDisabled   = "disabled"
)

// HealthChannels records which relay channels are wired into the running service.
type HealthChannels struct {
	Primary      bool
	Secondary    bool
	Verification bool
}

// ChannelsFromConfig derives channels from configuration alone, before any connection is attempted.
func ChannelsFromConfig(cfg config.Config) HealthChannels {
	_, err := service.ResolveBackendURL(cfg.BackendURL)
	return HealthChannels{
		Primary:      err == nil,
		Secondary:    cfg.SecondaryEnabled(),
		Verification: cfg.VerificationEnabled(),
	}
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	Channels    map[string]string `json:"channels"`
}

// HealthCheck returns a handler that reports application health and which relay channels are wired.
// A missing backend URL degrades the service since every submission would fail.
func HealthCheck(cfg config.Config, channels HealthChannels) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := "ok"
		if !channels.Primary {
			status = "degraded"
		}

		payload := HealthResponse{
			Status:      status,
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Channels: map[string]string{
				"primary":      channelState(channels.Primary),
				"secondary":    channelState(channels.Secondary),
				"verification": channelState(channels.Verification),
			},
		}

		return utils.SendSuccess(c, "service "+status, payload)
	}
}

func channelState(wired bool) string {
	if wired {
		return channelConfigured
	}
	return channelDisabled
}
