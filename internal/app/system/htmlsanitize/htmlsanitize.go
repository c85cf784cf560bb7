// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag. bluemonday policies are safe for concurrent use
// once built.
var strict = bluemonday.StrictPolicy()

// PlainText strips all markup from operator-entered text and trims it. The
// result is plain text, not HTML: entities are decoded so "a & b" survives.
// Script and style element contents are dropped along with the tags.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	out := html.UnescapeString(strict.Sanitize(s))
	return strings.TrimSpace(out)
}
