package core

import (
	"errors"
	"fmt"

	"github.com/markdave123-py/vectora/internal/models"
)

// ErrDimensionMismatch is returned when two vectors of differing length
// are compared. Fatal to that comparison call only.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// ErrNotFound is returned by record lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// ExtractionError reports an unsupported or unreadable document source.
// It aborts ingestion of that one document; sibling documents in a bulk
// batch are unaffected.
type ExtractionError struct {
	Kind   models.SourceKind
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("extract %s (%s): %v", e.Kind, e.Format, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ErrUnsupportedSource marks a DocumentSource kind the extractor has no
// handler for.
var ErrUnsupportedSource = errors.New("unsupported source kind")
