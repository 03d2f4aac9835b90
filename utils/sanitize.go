package utils

import "github.com/microcosm-cc/bluemonday"

// Activity notes are plain text, so everything HTML-like is stripped rather
// than filtered.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize cleans free-text input to prevent stored XSS.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
