// Package htmlsanitize cleans user-authored rich text on the way in and
// flattens it to plain text for LLM prompts on the way out.
package htmlsanitize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var ugcPolicy = bluemonday.UGCPolicy()

// Clean sanitizes rich-text HTML (goal/result content, comments) before it is
// stored. Scripts, event handlers, and unknown tags are stripped; the common
// formatting tags an editor produces survive.
func Clean(html string) string {
	return ugcPolicy.Sanitize(html)
}

var (
	tagRE        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// StripTags flattens HTML to plain text: tags become single spaces, runs of
// whitespace collapse to one space, and the result is trimmed. Used when
// embedding stored content into LLM prompts.
func StripTags(html string) string {
	s := tagRE.ReplaceAllString(html, " ")
	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
