package media

import (
	"regexp"
	"strings"
)

// whitespace matches the browser's notion of it: ASCII spaces plus \v,
// every Unicode separator and the byte order mark.
const whitespace = `\s\v\p{Z}\x{FEFF}`

var (
	slugStrip    = regexp.MustCompile(`[^\w` + whitespace + `-]`)
	slugSeparate = regexp.MustCompile(`[` + whitespace + `_-]+`)
)

// Slugify derives the URL identifier used by news and gallery routes.
// Slugify(Slugify(s)) == Slugify(s). Distinct titles may collide.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSeparate.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
