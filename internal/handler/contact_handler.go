package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/dojo-contact-api/internal/dto"
	"github.com/noah-isme/dojo-contact-api/internal/middleware"
	"github.com/noah-isme/dojo-contact-api/internal/service"
	"github.com/noah-isme/dojo-contact-api/internal/utils"
)

const verificationFailedMessage = "No pudimos verificar que seas humano. Recargá la página e intentá nuevamente."

// ContactHandler relays contact form submissions.
type ContactHandler struct {
	service service.ContactService
	logger  zerolog.Logger
}

// NewContactHandler constructs a contact handler.
func NewContactHandler(service service.ContactService, logger zerolog.Logger) *ContactHandler {
	return &ContactHandler{
		service: service,
		logger:  logger.With().Str("component", "contact_handler").Logger(),
	}
}

// Register wires contact routes.
func (h *ContactHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
}

func (h *ContactHandler) submit(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	body := parseContactBody(c)
	raw := body.Raw
	logger.Debug().
		Str("content_type", body.MediaType).
		Bool("sniffed", body.Sniffed).
		Str("encoding", body.Encoding).
		Interface("raw_body", raw).
		Msg("contact submission received")

	result, err := h.service.Relay(c.UserContext(), service.RelayRequest{
		Raw:           raw,
		RemoteIP:      c.IP(),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVerificationFailed):
			return c.Status(fiber.StatusBadRequest).JSON(dto.RelayResponse{
				OK:      false,
				Echo:    raw,
				Message: verificationFailedMessage,
			})
		case errors.Is(err, service.ErrBackendNotConfigured):
			logger.Error().Err(err).Msg("contact relay misconfigured")
			return utils.SendError(c, fiber.StatusInternalServerError, "contact relay is not configured")
		default:
			logger.Error().Err(err).Msg("failed to relay contact submission")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to submit contact form")
		}
	}

	status := fiber.StatusOK
	if !result.OK {
		status = fiber.StatusInternalServerError
	}

	relayStatus := result.Status
	return c.Status(status).JSON(dto.RelayResponse{
		OK:      result.OK,
		Echo:    raw,
		Message: result.Message,
		Status:  &relayStatus,
	})
}
