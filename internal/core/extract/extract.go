package extract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/models"
)

// Result is extracted plain text plus whatever source metadata the
// format handler could capture (e.g. a page title).
type Result struct {
	Text     string
	Metadata map[string]string
}

// PreferredConverter is the library-backed tier of the two-tier binary
// extraction strategy. When it is absent or fails, the basic tier works
// directly against the container format.
type PreferredConverter interface {
	Convert(ctx context.Context, data []byte, contentType string) (string, error)
}

// Extractor turns a DocumentSource into plain text. Construct with New;
// the zero value is not usable.
type Extractor struct {
	preferred  PreferredConverter
	objects    core.ObjectClient
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPreferred installs the library-backed converter for PDF/DOCX.
func WithPreferred(c PreferredConverter) Option {
	return func(e *Extractor) { e.preferred = c }
}

// WithObjectClient lets file sources reference object-storage blobs.
func WithObjectClient(obj core.ObjectClient) Option {
	return func(e *Extractor) { e.objects = obj }
}

// WithHTTPClient overrides the client used for url sources.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) { e.httpClient = c }
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

func New(opts ...Option) *Extractor {
	e := &Extractor{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract dispatches on the source kind. Unsupported kinds fail with an
// ExtractionError; unrecoverable binary formats degrade to a placeholder
// string instead of failing.
func (e *Extractor) Extract(ctx context.Context, src models.DocumentSource) (Result, error) {
	switch src.Kind {
	case models.SourceText, models.SourceAPI:
		md := map[string]string{"format": string(src.Kind)}
		for k, v := range src.Metadata {
			md[k] = v
		}
		return Result{Text: string(src.Content), Metadata: md}, nil

	case models.SourceFile:
		return e.extractFile(ctx, src)

	case models.SourceURL:
		return e.extractURL(ctx, src)

	default:
		return Result{}, &core.ExtractionError{Kind: src.Kind, Err: core.ErrUnsupportedSource}
	}
}

// Format returns the normalized format name the extractor would assign
// to a source, for DocumentMetadata.Format.
func Format(src models.DocumentSource) string {
	switch src.Kind {
	case models.SourceText, models.SourceAPI:
		return string(src.Kind)
	case models.SourceURL:
		return "url"
	default:
		return detectFormat(src.ContentType, src.FileName)
	}
}

func (e *Extractor) extractFile(ctx context.Context, src models.DocumentSource) (Result, error) {
	data := src.Content
	if len(data) == 0 && src.StorageURL != "" {
		if e.objects == nil {
			return Result{}, &core.ExtractionError{Kind: src.Kind, Err: fmt.Errorf("no object client for storage url %q", src.StorageURL)}
		}
		bucket, key := ParseStorageURL(src.StorageURL)
		blob, err := e.objects.GetFile(ctx, bucket, key)
		if err != nil {
			return Result{}, &core.ExtractionError{Kind: src.Kind, Err: fmt.Errorf("fetch storage object: %w", err)}
		}
		data = blob
	}

	format := detectFormat(src.ContentType, src.FileName)
	md := map[string]string{"format": format}
	if src.FileName != "" {
		md["file_name"] = src.FileName
	}
	for k, v := range src.Metadata {
		md[k] = v
	}

	switch format {
	case "markdown":
		return Result{Text: StripMarkdown(string(data)), Metadata: md}, nil
	case "html":
		text, title := StripHTML(string(data))
		if title != "" {
			md["title"] = title
		}
		return Result{Text: text, Metadata: md}, nil
	case "pdf":
		return Result{Text: e.extractPDF(ctx, data), Metadata: md}, nil
	case "docx":
		return Result{Text: e.extractDOCX(ctx, data), Metadata: md}, nil
	default:
		// Plain text, JSON and anything text-like read directly.
		return Result{Text: string(data), Metadata: md}, nil
	}
}

// extractPDF prefers the library converter and falls back to the basic
// container scan. Degrades to a placeholder, never errors.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) string {
	if e.preferred != nil {
		if text, err := e.preferred.Convert(ctx, data, "application/pdf"); err == nil && strings.TrimSpace(text) != "" {
			return text
		} else if err != nil {
			e.logger.Warn("preferred pdf extraction failed, using basic extractor", "err", err)
		}
	}
	return basicPDFText(data)
}

func (e *Extractor) extractDOCX(ctx context.Context, data []byte) string {
	if e.preferred != nil {
		if text, err := e.preferred.Convert(ctx, data, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"); err == nil && strings.TrimSpace(text) != "" {
			return text
		} else if err != nil {
			e.logger.Warn("preferred docx extraction failed, using basic extractor", "err", err)
		}
	}
	return basicDOCXText(data)
}

// detectFormat resolves the declared content type first, then the file
// extension.
func detectFormat(contentType, fileName string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return "pdf"
	case strings.Contains(ct, "wordprocessingml"), strings.Contains(ct, "msword"):
		return "docx"
	case strings.Contains(ct, "markdown"):
		return "markdown"
	case strings.Contains(ct, "html"):
		return "html"
	case strings.Contains(ct, "json"):
		return "json"
	case strings.HasPrefix(ct, "text/"):
		return "text"
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "pdf"
	case ".docx", ".doc":
		return "docx"
	case ".md", ".markdown":
		return "markdown"
	case ".html", ".htm":
		return "html"
	case ".json":
		return "json"
	default:
		return "text"
	}
}

// ParseStorageURL extracts the bucket and key from a virtual-hosted
// style object URL, e.g. https://my-bucket.s3.us-east-2.amazonaws.com/a/b.pdf.
func ParseStorageURL(u string) (bucket, key string) {
	hostPath := strings.SplitN(strings.TrimPrefix(u, "https://"), "/", 2)
	host := hostPath[0]
	if len(hostPath) == 2 {
		key = hostPath[1]
	}
	parts := strings.Split(host, ".")
	if len(parts) > 0 {
		bucket = parts[0]
	}
	return bucket, key
}
