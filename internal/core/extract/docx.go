package extract

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"
)

// DOCXPlaceholder is returned when no text is recoverable from a DOCX
// archive.
const DOCXPlaceholder = "[DOCX document - text content could not be extracted]"

var (
	docxTextRunRe   = regexp.MustCompile(`<w:t[^>]*>(.*?)</w:t>`)
	docxParaCloseRe = regexp.MustCompile(`</w:p>`)
)

// basicDOCXText is the fallback tier: unzip the archive and strip the
// <w:t> text-run tags from word/document.xml. Paragraph closes become
// newlines so chunking still sees structure.
func basicDOCXText(data []byte) string {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return DOCXPlaceholder
	}

	var docXML string
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return DOCXPlaceholder
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return DOCXPlaceholder
		}
		docXML = string(raw)
		break
	}
	if docXML == "" {
		return DOCXPlaceholder
	}

	var paras []string
	for _, block := range docxParaCloseRe.Split(docXML, -1) {
		var sb strings.Builder
		for _, m := range docxTextRunRe.FindAllStringSubmatch(block, -1) {
			sb.WriteString(entityReplacer.Replace(m[1]))
		}
		if p := strings.TrimSpace(sb.String()); p != "" {
			paras = append(paras, p)
		}
	}

	text := strings.Join(paras, "\n")
	if text == "" {
		return DOCXPlaceholder
	}
	return text
}
