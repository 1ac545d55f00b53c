package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
)

// Body encodings reported by parseContactBody.
const (
	encodingJSON        = "json"
	encodingInvalidJSON = "invalid-json"
	encodingMultipart   = "multipart"
	encodingForm        = "form"
	encodingEmpty       = "empty"
)

type contactBody struct {
	Raw      map[string]interface{}
	Encoding string
	// MediaType is the declared Content-Type, or the sniffed type when the header is absent.
	MediaType string
	Sniffed   bool
}

// parseContactBody decodes a JSON object, then form fields, and falls back to an empty object.
// Without a Content-Type header JSON is only attempted when the body sniffs as JSON.
// It never fails; Raw is never nil.
func parseContactBody(c *fiber.Ctx) contactBody {
	body := c.Body()
	parsed := contactBody{
		Raw:       map[string]interface{}{},
		Encoding:  encodingEmpty,
		MediaType: strings.ToLower(strings.TrimSpace(c.Get(fiber.HeaderContentType))),
	}

	if parsed.MediaType == "" {
		if len(body) == 0 {
			return parsed
		}
		parsed.MediaType = mimetype.Detect(body).String()
		parsed.Sniffed = true
	}

	switch {
	case strings.Contains(parsed.MediaType, "json"):
		if raw, ok := decodeJSONObject(body); ok {
			parsed.Raw, parsed.Encoding = raw, encodingJSON
		} else {
			parsed.Encoding = encodingInvalidJSON
		}
	case strings.HasPrefix(parsed.MediaType, fiber.MIMEMultipartForm):
		if form, err := c.MultipartForm(); err == nil && form != nil {
			raw := make(map[string]interface{}, len(form.Value))
			for key, values := range form.Value {
				if len(values) > 0 {
					raw[key] = values[0]
				}
			}
			parsed.Raw, parsed.Encoding = raw, encodingMultipart
		}
	case strings.HasPrefix(parsed.MediaType, fiber.MIMEApplicationForm):
		raw := make(map[string]interface{})
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			k := string(key)
			if _, exists := raw[k]; !exists {
				raw[k] = string(value)
			}
		})
		parsed.Raw, parsed.Encoding = raw, encodingForm
	}

	return parsed
}

// decodeJSONObject accepts exactly one JSON object; trailing data makes the body invalid.
func decodeJSONObject(body []byte) (map[string]interface{}, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil || raw == nil {
		return nil, false
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return raw, true
}
