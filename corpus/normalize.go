package corpus

import (
	"regexp"
	"strings"
)

// Applied in order. Later patterns assume earlier ones already removed
// front matter and code, whose contents would otherwise produce false matches.
var (
	frontMatterPattern = regexp.MustCompile(`(?s)^---\n.*?\n---\n`)
	fencedCodePattern  = regexp.MustCompile("```[\\s\\S]*?```")
	inlineCodePattern  = regexp.MustCompile("`[^`]+`")
	imagePattern       = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	linkPattern        = regexp.MustCompile(`\[([^\]]+)\]\(.*?\)`)
	headingPattern     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	importExportLine   = regexp.MustCompile(`(?m)^(import|export)\s+.*$`)
	blankRunPattern    = regexp.MustCompile(`\n{3,}`)
)

// Normalize reduces raw MDX content to plain prose suitable for embedding.
// The result may be empty.
func Normalize(content string) string {
	body := frontMatterPattern.ReplaceAllString(content, "")
	body = fencedCodePattern.ReplaceAllString(body, "")
	body = inlineCodePattern.ReplaceAllString(body, "")
	body = imagePattern.ReplaceAllString(body, "")
	body = linkPattern.ReplaceAllString(body, "$1")
	body = headingPattern.ReplaceAllString(body, "")
	body = importExportLine.ReplaceAllString(body, "")
	body = blankRunPattern.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body)
}

// normalizeNewlines converts CRLF and lone CR line endings to LF.
func normalizeNewlines(content string) string {
	if !strings.Contains(content, "\r") {
		return content
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(content, "\r", "\n")
}
