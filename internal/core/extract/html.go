package extract

import (
	"regexp"
	"strings"
)

var (
	htmlScriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlStyleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	htmlTitleRe  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	htmlTagRe    = regexp.MustCompile(`(?s)<[^>]+>`)
	htmlSpaceRe  = regexp.MustCompile(`[ \t]+`)
	htmlBlankRe  = regexp.MustCompile(`\n{3,}`)
)

// entityReplacer covers the minimum entity set plus a few common extras.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", "\"",
	"&#39;", "'",
	"&apos;", "'",
	"&amp;", "&", // last so &amp;lt; decodes in document order
)

// StripHTML removes script/style blocks, strips tags, decodes character
// entities and collapses whitespace. Returns the text and the page title
// when one is present.
func StripHTML(html string) (text, title string) {
	if m := htmlTitleRe.FindStringSubmatch(html); m != nil {
		title = strings.TrimSpace(entityReplacer.Replace(m[1]))
	}

	html = htmlScriptRe.ReplaceAllString(html, "")
	html = htmlStyleRe.ReplaceAllString(html, "")
	html = htmlTagRe.ReplaceAllString(html, "\n")
	html = entityReplacer.Replace(html)
	html = htmlSpaceRe.ReplaceAllString(html, " ")

	lines := strings.Split(html, "\n")
	kept := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			kept = append(kept, t)
		}
	}
	text = htmlBlankRe.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
	return text, title
}
