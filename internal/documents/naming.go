package documents

import (
	"strings"
	"unicode"

	"github.com/gosimple/slug"
)

// Naming strategies for stored document file names
const (
	NamingStrategyUUID     = "uuid"
	NamingStrategySanitize = "sanitize"
	NamingStrategySlugify  = "slugify"
)

// Characters never allowed in stored file names
const forbiddenNameChars = `/\:*?"<>|`

// FileName derives the stored object name from the document display name
// using the configured strategy, falling back to the document UUID when the
// derived base is empty, and appends the format extension. Unknown strategy
// names behave like the default sanitize strategy.
func FileName(strategy, documentName, documentUUID string, format FileFormat) string {
	var base string
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case NamingStrategyUUID:
		base = documentUUID
	case NamingStrategySlugify:
		base = slug.Make(documentName)
	default:
		base = sanitizeName(documentName)
	}
	if base == "" {
		base = documentUUID
	}
	return base + "." + format.Extension
}

// sanitizeName strips path separators, reserved punctuation and control
// characters, then trims surrounding whitespace
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsControl(r) || strings.ContainsRune(forbiddenNameChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
