package uploads

import (
	"strings"
)

const maxSlugLength = 50

// Slug derives a lowercase, hyphenated, filesystem-safe name from an
// event title. Runs of non-alphanumeric characters collapse to a single
// hyphen and the result is capped at 50 characters. An empty or fully
// non-alphanumeric title yields "event".
func Slug(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "event"
	}
	return slug
}
