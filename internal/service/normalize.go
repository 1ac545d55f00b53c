package service

import (
	"encoding/json"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/cast"

	"github.com/noah-isme/dojo-contact-api/internal/dto"
)

const (
	defaultFirstName = "Alumno"
	minPhoneDigits   = 8
	maxPhoneDigits   = 15
)

// Normalizer turns a loosely-typed inbound body into a ContactSubmission.
// Free-text fields are forwarded verbatim apart from trimming; markup is only stripped by Printable.
type Normalizer struct {
	policy *bluemonday.Policy
}

// NewNormalizer constructs a normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{policy: bluemonday.StrictPolicy()}
}

// Normalize applies defaults, trimming, phone and discipline rules. It never fails.
func (n *Normalizer) Normalize(raw map[string]interface{}) dto.ContactSubmission {
	nombre, ok := lookupField(raw, dto.FirstNameKeys)
	if !ok {
		nombre = defaultFirstName
	}
	apellido, _ := lookupField(raw, dto.LastNameKeys)
	email, _ := lookupField(raw, dto.EmailKeys)
	telefono, _ := lookupField(raw, dto.PhoneKeys)
	disciplina, _ := lookupField(raw, dto.DisciplineKeys)
	mensaje, _ := lookupField(raw, dto.MessageKeys)
	token, _ := lookupField(raw, dto.CaptchaTokenKeys)

	return dto.ContactSubmission{
		Payload: dto.ContactPayload{
			Nombre:     strings.TrimSpace(nombre),
			Apellido:   strings.TrimSpace(apellido),
			Email:      strings.TrimSpace(email),
			Telefono:   NormalizePhone(telefono),
			Disciplina: DisciplineSlug(disciplina),
			Mensaje:    strings.TrimSpace(mensaje),
		},
		CaptchaToken: strings.TrimSpace(token),
	}
}

// Printable renders user-supplied text for log lines and events, with markup removed.
func (n *Normalizer) Printable(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(n.policy.Sanitize(value)))
}

// NormalizePhone keeps digits only; results outside 8-15 digits become empty.
func NormalizePhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return ""
	}
	return digits
}

// lookupField returns the first present, non-null alias as a string.
func lookupField(raw map[string]interface{}, keys []string) (string, bool) {
	for _, key := range keys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		return stringify(value), true
	}
	return "", false
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case []interface{}:
		if len(v) > 0 {
			return stringify(v[0])
		}
		return ""
	case []string:
		if len(v) > 0 {
			return v[0]
		}
		return ""
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return ""
	}
	return s
}
