package corpus

import (
	"regexp"
	"strings"
)

var markdownSuffix = regexp.MustCompile(`\.mdx?$`)

// Slug converts a post filename into the URL slug the blog serves it under.
// "My_Post.mdx" becomes "my-post".
func Slug(filename string) string {
	slug := markdownSuffix.ReplaceAllString(filename, "")
	slug = strings.ReplaceAll(slug, "_", "-")
	return strings.ToLower(slug)
}
