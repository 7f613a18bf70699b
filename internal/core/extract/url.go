package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/models"
)

// extractURL fetches the page and branches on the response content type:
// JSON is pretty-printed into text, everything else goes through the
// HTML extractor.
func (e *Extractor) extractURL(ctx context.Context, src models.DocumentSource) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.Location, nil)
	if err != nil {
		return Result{}, &core.ExtractionError{Kind: src.Kind, Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return Result{}, &core.ExtractionError{Kind: src.Kind, Err: fmt.Errorf("fetch %s: %w", src.Location, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Result{}, &core.ExtractionError{Kind: src.Kind, Err: fmt.Errorf("fetch %s: status %d", src.Location, resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &core.ExtractionError{Kind: src.Kind, Err: fmt.Errorf("read body: %w", err)}
	}

	md := map[string]string{"format": "url", "url": src.Location}
	for k, v := range src.Metadata {
		md[k] = v
	}

	contentType := resp.Header.Get("Content-Type")
	if src.ContentType != "" {
		contentType = src.ContentType
	}

	if strings.Contains(contentType, "application/json") {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err != nil {
			// Not actually JSON; keep the raw payload.
			return Result{Text: string(body), Metadata: md}, nil
		}
		return Result{Text: pretty.String(), Metadata: md}, nil
	}

	text, title := StripHTML(string(body))
	if title != "" {
		md["title"] = title
	}
	return Result{Text: text, Metadata: md}, nil
}
