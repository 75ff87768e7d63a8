package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes. Bulk location
// files come from untrusted admin uploads; names and areas should only
// ever contain plain text.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips all HTML tags and returns plain text.
func Text(input string) string {
	return StrictPolicy.Sanitize(input)
}

// TextSlice sanitizes each string in a slice, removing all HTML.
func TextSlice(inputs []string) []string {
	if inputs == nil {
		return nil
	}
	sanitized := make([]string, len(inputs))
	for i, input := range inputs {
		sanitized[i] = Text(input)
	}
	return sanitized
}
