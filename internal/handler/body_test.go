package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func parseWith(t *testing.T, contentType, body string) contactBody {
	t.Helper()
	var parsed contactBody
	app := fiber.New(fiber.Config{DisablePreParseMultipartForm: true})
	app.Post("/", func(c *fiber.Ctx) error {
		parsed = parseContactBody(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	return parsed
}

func TestParseContactBodySniffsJSONWithoutHeader(t *testing.T) {
	parsed := parseWith(t, "", `{"nombre":"Ana"}`)

	require.True(t, parsed.Sniffed)
	require.Equal(t, fiber.MIMEApplicationJSON, parsed.MediaType)
	require.Equal(t, encodingJSON, parsed.Encoding)
	require.Equal(t, "Ana", parsed.Raw["nombre"])
}

func TestParseContactBodySkipsJSONForNonJSONWithoutHeader(t *testing.T) {
	for _, body := range []string{"nombre=Ana&email=a@b.com", "Hola, quiero info sobre Muay Thai"} {
		parsed := parseWith(t, "", body)

		require.True(t, parsed.Sniffed, body)
		require.True(t, strings.HasPrefix(parsed.MediaType, "text/plain"), parsed.MediaType)
		require.Equal(t, encodingEmpty, parsed.Encoding, body)
		require.NotEqual(t, encodingInvalidJSON, parsed.Encoding)
		require.NotNil(t, parsed.Raw)
		require.Empty(t, parsed.Raw)
	}
}

func TestParseContactBodyDeclaredJSON(t *testing.T) {
	parsed := parseWith(t, fiber.MIMEApplicationJSON, `{"telefono":99123456}`)
	require.False(t, parsed.Sniffed)
	require.Equal(t, encodingJSON, parsed.Encoding)

	invalid := parseWith(t, fiber.MIMEApplicationJSON, `{"nombre":"Ana"}{"nombre":"Luis"}`)
	require.Equal(t, encodingInvalidJSON, invalid.Encoding)
	require.Empty(t, invalid.Raw)
}

func TestParseContactBodyEmptyWithoutHeader(t *testing.T) {
	parsed := parseWith(t, "", "")

	require.False(t, parsed.Sniffed)
	require.Equal(t, encodingEmpty, parsed.Encoding)
	require.Empty(t, parsed.Raw)
}

func TestParseContactBodyMalformedMultipart(t *testing.T) {
	parsed := parseWith(t, "multipart/form-data; boundary=x", "garbage")

	require.Equal(t, encodingEmpty, parsed.Encoding)
	require.NotNil(t, parsed.Raw)
	require.Empty(t, parsed.Raw)
}
