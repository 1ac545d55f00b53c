package service

import (
	"strings"

	"github.com/noah-isme/dojo-contact-api/internal/dto"
)

// Canonical discipline slugs.
const (
	DisciplineBoxeo    = "boxeo"
	DisciplineMuayThai = "muay-thai"
	DisciplineK1       = "k1"
	DisciplineJiuJitsu = "jiu-jitsu"
)

// fallbackDisciplineLabel is used in acknowledgements when no discipline was submitted.
const fallbackDisciplineLabel = "nuestra disciplina"

// disciplineSlugs maps display labels to slugs. Lookups are exact; it is never written after init.
var disciplineSlugs = map[string]string{
	"Muay Thai": DisciplineMuayThai,
	"Boxeo":     DisciplineBoxeo,
	"K-1":       DisciplineK1,
	"Jiu-Jitsu": DisciplineJiuJitsu,
}

var disciplineCatalog = []dto.DisciplineResponse{
	{Slug: DisciplineK1, Label: "K-1 Kickboxing", Description: "Golpeo de alta intensidad combinando puñetazos, patadas y rodillazos"},
	{Slug: DisciplineMuayThai, Label: "Muay Thai", Description: "El arte de las ocho extremidades - puños, codos, rodillas y espinillas"},
	{Slug: DisciplineBoxeo, Label: "Boxeo", Description: "La dulce ciencia del juego de piernas, timing y golpeo preciso"},
	{Slug: DisciplineJiuJitsu, Label: "Jiu-Jitsu", Description: "Técnicas de lucha en el suelo y sumisión"},
}

// DisciplineSlug maps a display label to its slug. Unknown values are returned trimmed but otherwise unchanged.
func DisciplineSlug(value string) string {
	value = strings.TrimSpace(value)
	if slug, ok := disciplineSlugs[value]; ok {
		return slug
	}
	return value
}

// IsKnownDiscipline reports whether slug is one of the canonical slugs.
func IsKnownDiscipline(slug string) bool {
	for _, entry := range disciplineCatalog {
		if entry.Slug == slug {
			return true
		}
	}
	return false
}

// DisciplineLabel returns the human-readable label for a slug, falling back to the slug itself.
func DisciplineLabel(slug string) string {
	if slug == "" {
		return fallbackDisciplineLabel
	}
	for _, entry := range disciplineCatalog {
		if entry.Slug == slug {
			return entry.Label
		}
	}
	return slug
}

// Disciplines returns a copy of the catalog in display order.
func Disciplines() []dto.DisciplineResponse {
	out := make([]dto.DisciplineResponse, len(disciplineCatalog))
	copy(out, disciplineCatalog)
	return out
}
