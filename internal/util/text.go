package util

import (
	"path/filepath"
	"strings"
)

// SanitizePostgresText drops invalid UTF-8 and NUL bytes, both of which
// Postgres rejects in text columns.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// FileExtension returns the lowercased extension of name without the dot.
func FileExtension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}
