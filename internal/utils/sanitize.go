package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-\s_]+`)

// Sanitize turns free text into a single storage path segment. Empty input,
// or input with nothing usable left, falls back to def.
func Sanitize(text, def string) string {
	clean := unsafeChars.ReplaceAllString(text, "")
	clean = strings.Join(strings.Fields(clean), "_")
	if clean == "" {
		return def
	}
	return clean
}

// SanitizeFilename keeps the extension of name and sanitizes the rest.
func SanitizeFilename(name, def string) string {
	base := filepath.Base(name)
	ext := strings.ToLower(filepath.Ext(base))
	stem := Sanitize(strings.TrimSuffix(base, filepath.Ext(base)), def)
	return stem + unsafeChars.ReplaceAllString(ext, "")
}
