package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextAndAPI(t *testing.T) {
	e := New()
	for _, kind := range []models.SourceKind{models.SourceText, models.SourceAPI} {
		res, err := e.Extract(context.Background(), models.DocumentSource{
			Kind:     kind,
			Content:  []byte("raw payload"),
			Metadata: map[string]string{"origin": "caller"},
		})
		require.NoError(t, err)
		assert.Equal(t, "raw payload", res.Text)
		assert.Equal(t, "caller", res.Metadata["origin"])
	}
}

func TestExtractUnsupportedKind(t *testing.T) {
	e := New()
	_, err := e.Extract(context.Background(), models.DocumentSource{Kind: "carrier-pigeon"})
	var exErr *core.ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.ErrorIs(t, err, core.ErrUnsupportedSource)
}

func TestStripMarkdown(t *testing.T) {
	text := StripMarkdown("# Title\n\n**bold** and [link](https://example.com/url)")

	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "bold")
	assert.Contains(t, text, "link")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "example.com")
}

func TestStripMarkdownStructures(t *testing.T) {
	md := "## Heading\n\n- item one\n- item two\n\n```go\nfunc main() {}\n```\n\n`inline` and *emphasis*"
	text := StripMarkdown(md)

	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "item one")
	assert.Contains(t, text, "func main() {}")
	assert.Contains(t, text, "inline")
	assert.Contains(t, text, "emphasis")
	assert.NotContains(t, text, "```")
	assert.NotContains(t, text, "- item")
}

func TestStripHTML(t *testing.T) {
	html := `<html><head><title>My Page</title><style>body{color:red}</style></head>
<body><script>alert("x")</script><h1>Header</h1><p>Tom &amp; Jerry &lt;3&nbsp;&quot;quoted&quot;</p></body></html>`

	text, title := StripHTML(html)

	assert.Equal(t, "My Page", title)
	assert.Contains(t, text, "Header")
	assert.Contains(t, text, `Tom & Jerry <3 "quoted"`)
	assert.NotContains(t, text, "alert")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "<p>")
}

func TestBasicPDFText(t *testing.T) {
	t.Run("pulls text-show arguments", func(t *testing.T) {
		pdf := []byte("%PDF-1.4\nstream\nBT (Hello) Tj (World) Tj ET\nendstream\n%%EOF")
		assert.Equal(t, "Hello World", basicPDFText(pdf))
	})

	t.Run("degrades to placeholder", func(t *testing.T) {
		assert.Equal(t, PDFPlaceholder, basicPDFText([]byte("%PDF-1.4 nothing here")))
	})
}

func TestBasicDOCXText(t *testing.T) {
	t.Run("strips text runs from document.xml", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		f, err := zw.Create("word/document.xml")
		require.NoError(t, err)
		_, err = f.Write([]byte(`<w:document><w:p><w:r><w:t>First run</w:t></w:r><w:r><w:t xml:space="preserve"> continues</w:t></w:r></w:p><w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p></w:document>`))
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		text := basicDOCXText(buf.Bytes())
		assert.Equal(t, "First run continues\nSecond paragraph", text)
	})

	t.Run("degrades to placeholder on junk", func(t *testing.T) {
		assert.Equal(t, DOCXPlaceholder, basicDOCXText([]byte("not a zip")))
	})
}

type failingConverter struct{}

func (failingConverter) Convert(context.Context, []byte, string) (string, error) {
	return "", errors.New("library unavailable")
}

func TestTwoTierFallback(t *testing.T) {
	e := New(WithPreferred(failingConverter{}))
	res, err := e.Extract(context.Background(), models.DocumentSource{
		Kind:        models.SourceFile,
		FileName:    "report.pdf",
		ContentType: "application/pdf",
		Content:     []byte("stream\n(Recovered) Tj\nendstream"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Recovered", res.Text)
}

func TestExtractURL(t *testing.T) {
	t.Run("html page with title", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><head><title>Landing</title></head><body><p>Welcome home</p></body></html>"))
		}))
		defer srv.Close()

		e := New(WithHTTPClient(srv.Client()))
		res, err := e.Extract(context.Background(), models.DocumentSource{Kind: models.SourceURL, Location: srv.URL})
		require.NoError(t, err)
		assert.Contains(t, res.Text, "Welcome home")
		assert.Equal(t, "Landing", res.Metadata["title"])
	})

	t.Run("json payload pretty printed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"vectora","count":2}`))
		}))
		defer srv.Close()

		e := New(WithHTTPClient(srv.Client()))
		res, err := e.Extract(context.Background(), models.DocumentSource{Kind: models.SourceURL, Location: srv.URL})
		require.NoError(t, err)
		assert.Contains(t, res.Text, "\"name\": \"vectora\"")
	})

	t.Run("http error is an extraction error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		e := New(WithHTTPClient(srv.Client()))
		_, err := e.Extract(context.Background(), models.DocumentSource{Kind: models.SourceURL, Location: srv.URL})
		var exErr *core.ExtractionError
		assert.ErrorAs(t, err, &exErr)
	})
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		contentType string
		fileName    string
		want        string
	}{
		{"application/pdf", "", "pdf"},
		{"", "notes.md", "markdown"},
		{"", "page.HTML", "html"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "", "docx"},
		{"", "report.docx", "docx"},
		{"application/json", "", "json"},
		{"text/plain", "whatever.bin", "text"},
		{"", "", "text"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectFormat(tt.contentType, tt.fileName), "ct=%q fn=%q", tt.contentType, tt.fileName)
	}
}

func TestParseStorageURL(t *testing.T) {
	bucket, key := ParseStorageURL("https://my-bucket.s3.us-east-2.amazonaws.com/docs/report.pdf")
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "docs/report.pdf", key)
}
