package extract

import (
	"regexp"
	"strings"
)

var (
	mdCodeFenceRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*\\n?(.*?)```")
	mdHeaderRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdImageRe     = regexp.MustCompile(`!\[([^\]]*)\]\([^\)]*\)`)
	mdLinkRe      = regexp.MustCompile(`\[([^\]]+)\]\([^\)]*\)`)
	mdBoldRe      = regexp.MustCompile(`\*\*([^*]+)\*\*|__([^_]+)__`)
	mdEmphasisRe  = regexp.MustCompile(`\*([^*]+)\*|_([^_]+)_`)
	mdInlineCode  = regexp.MustCompile("`([^`]*)`")
	mdListRe      = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+`)
	mdRuleRe      = regexp.MustCompile(`(?m)^(?:-{3,}|\*{3,}|_{3,})\s*$`)
)

// StripMarkdown removes markdown syntax while preserving prose order:
// headers, emphasis, inline code, links (keeping the link text), images,
// code-fence markers and list markers.
func StripMarkdown(text string) string {
	text = mdCodeFenceRe.ReplaceAllString(text, "$1")
	text = mdHeaderRe.ReplaceAllString(text, "")
	text = mdRuleRe.ReplaceAllString(text, "")
	text = mdImageRe.ReplaceAllString(text, "$1")
	text = mdLinkRe.ReplaceAllString(text, "$1")
	text = mdBoldRe.ReplaceAllString(text, "$1$2")
	text = mdEmphasisRe.ReplaceAllString(text, "$1$2")
	text = mdInlineCode.ReplaceAllString(text, "$1")
	text = mdListRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
