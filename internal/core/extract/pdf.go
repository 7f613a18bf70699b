package extract

import (
	"regexp"
	"strings"
)

// PDFPlaceholder is returned when no text is recoverable from a PDF, so
// downstream stages still receive valid input.
const PDFPlaceholder = "[PDF document - text content could not be extracted]"

var (
	pdfStreamRe = regexp.MustCompile(`(?s)stream\r?\n(.*?)endstream`)
	// Parenthesized arguments of Tj / TJ text-show operators.
	pdfTextShowRe = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)\s*T[jJ]`)
	pdfParenRe    = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)
)

var pdfEscapeReplacer = strings.NewReplacer(
	`\(`, "(",
	`\)`, ")",
	`\\`, `\`,
	`\n`, "\n",
	`\r`, "",
	`\t`, " ",
)

// basicPDFText is the fallback tier: locate stream…endstream regions and
// pull the parenthesized text-show operator arguments. Compressed
// streams yield nothing, in which case the placeholder is returned.
func basicPDFText(data []byte) string {
	var sb strings.Builder
	for _, stream := range pdfStreamRe.FindAllSubmatch(data, -1) {
		body := string(stream[1])

		matches := pdfTextShowRe.FindAllStringSubmatch(body, -1)
		if len(matches) == 0 {
			// Some writers separate the operator from its argument;
			// fall back to bare parenthesized strings in TJ arrays.
			if strings.Contains(body, "TJ") || strings.Contains(body, "Tj") {
				matches = pdfParenRe.FindAllStringSubmatch(body, -1)
			}
		}
		for _, m := range matches {
			piece := pdfEscapeReplacer.Replace(m[1])
			if strings.TrimSpace(piece) == "" {
				continue
			}
			sb.WriteString(piece)
			sb.WriteString(" ")
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return PDFPlaceholder
	}
	return text
}
