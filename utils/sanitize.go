package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeBody strips all markup from free text such as a job description while keeping
// its line breaks. Entities produced by the policy are decoded so the stored value is the
// plain text the user typed, searchable as-is.
func SanitizeBody(input string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}

// SanitizeText is SanitizeBody for single-line fields: runs of whitespace, line breaks
// included, collapse to one space.
func SanitizeText(input string) string {
	return strings.Join(strings.Fields(SanitizeBody(input)), " ")
}
