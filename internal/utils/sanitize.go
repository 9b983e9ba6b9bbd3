package utils

import (
	"html"
	"regexp"
	"strings"
)

// tagPattern matches anything shaped like an HTML/XML tag.  Addresses are
// stored and later rendered in report tables, so stray markup is stripped
// before persistence rather than at display time.
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeAddress trims whitespace, strips markup tags and escapes the
// remaining HTML special characters.  The result is safe to persist and
// echo back into JSON responses.
func SanitizeAddress(s string) string {
	s = strings.TrimSpace(s)
	s = tagPattern.ReplaceAllString(s, "")
	return html.EscapeString(s)
}
