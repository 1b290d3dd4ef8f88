package sanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy removes all HTML tags and attributes.
	// Use where stored event text must render as plain text (CLI output).
	strictPolicy = bluemonday.StrictPolicy()

	// ugcPolicy allows safe user-generated content with basic formatting.
	// Permits: <p>, <b>, <i>, <em>, <strong>, <a>, <ul>, <ol>, <li>, <br>
	// Use for the admin description preview.
	ugcPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML tags and returns plain text.
// Event fields are stored as the admin typed them; this is applied at
// output boundaries that cannot rely on template escaping.
func Text(input string) string {
	return strictPolicy.Sanitize(input)
}

// Description sanitizes a stored event description for HTML preview,
// allowing safe formatting tags and removing script, iframe, event
// handlers, and style attributes.
func Description(input string) string {
	return ugcPolicy.Sanitize(input)
}
