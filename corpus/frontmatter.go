package corpus

import (
	"regexp"

	"gopkg.in/yaml.v3"
)

var frontMatterBlock = regexp.MustCompile(`(?s)^---\n(.*?\n)---\n`)

// frontMatter is the subset of post metadata the index cares about.
type frontMatter struct {
	Title *string `yaml:"title"`
}

// ParseTitle extracts the title from a leading YAML front matter block.
//
// ok is false when there is no block, the block is not valid YAML, or the
// title key is absent or null. An explicit empty title is returned as is.
// err is non-nil only for the malformed case, so callers can report it; it
// never needs to stop a run.
func ParseTitle(content string) (title string, ok bool, err error) {
	match := frontMatterBlock.FindStringSubmatch(content)
	if match == nil {
		return "", false, nil
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(match[1]), &fm); err != nil {
		return "", false, err
	}

	if fm.Title == nil {
		return "", false, nil
	}
	return *fm.Title, true, nil
}
