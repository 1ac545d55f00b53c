package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	correlationHeader   = "X-Correlation-ID"
	correlationLocalKey = "correlation_id"
	maxCorrelationIDLen = 128
)

type correlationIDKey struct{}

// CorrelationID reuses an incoming X-Correlation-ID or X-Request-ID, or mints a UUID,
// and echoes it on the response.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := acceptableID(c.Get(correlationHeader))
		if id == "" {
			id = acceptableID(c.Get("X-Request-ID"))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocalKey, id)
		c.Set(correlationHeader, id)
		c.SetUserContext(context.WithValue(c.UserContext(), correlationIDKey{}, id))

		return c.Next()
	}
}

func acceptableID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || len(value) > maxCorrelationIDLen {
		return ""
	}
	for _, r := range value {
		if r < 0x21 || r > 0x7e {
			return ""
		}
	}
	return value
}

// CorrelationIDFromContext extracts the correlation identifier from context, if present.
func CorrelationIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GetCorrelationID returns the correlation identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(correlationLocalKey).(string); ok {
		return id
	}
	return CorrelationIDFromContext(c.UserContext())
}
