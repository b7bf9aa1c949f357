package normalize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict drops every tag and the content of script and style elements
// bluemonday policies are safe for concurrent use once configured
var strict = bluemonday.StrictPolicy()

// StripHTML removes markup and decodes entities
// tags become word breaks so adjacent blocks do not run together
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	s = strings.ReplaceAll(s, "<", " <")
	return html.UnescapeString(strict.Sanitize(s))
}
