package extract

import (
	"bytes"
	"context"
	"fmt"

	"code.sajari.com/docconv"
)

// DocconvConverter is the preferred tier for PDF/DOCX, backed by
// sajari/docconv.
type DocconvConverter struct {
	useReadability bool
}

func NewDocconvConverter(useReadability bool) *DocconvConverter {
	return &DocconvConverter{useReadability: useReadability}
}

func (c *DocconvConverter) Convert(ctx context.Context, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	res, err := docconv.Convert(bytes.NewReader(data), contentType, c.useReadability)
	if err != nil {
		return "", fmt.Errorf("docconv: %w", err)
	}
	return res.Body, nil
}

var _ PreferredConverter = (*DocconvConverter)(nil)
