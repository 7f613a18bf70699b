package ingestion_engine

import (
	"github.com/markdave123-py/vectora/internal/core/analyze"
	"github.com/markdave123-py/vectora/internal/core/chunker"
	"github.com/markdave123-py/vectora/internal/core/embed"
)

// IngestOptions tunes one ingestion call.
//
// Chunking:      strategy and size knobs passed to the chunking engine.
// Embedding:     dimension/normalize/batch knobs for the embedding stage.
// Analysis:      which analyzer passes run.
// Parallel:      bulk ingestion fans out in bounded batches when true,
//                otherwise documents are processed strictly in order.
// BulkBatchSize: documents ingested concurrently per bulk batch.
type IngestOptions struct {
	Chunking      chunker.Options
	Embedding     embed.Options
	Analysis      analyze.Options
	Parallel      bool
	BulkBatchSize int
}

// DefaultBulkBatchSize bounds concurrent external-provider load during
// parallel bulk ingestion.
const DefaultBulkBatchSize = 5

// DefaultOptions is the semantic-chunking, all-analysis configuration.
func DefaultOptions() IngestOptions {
	return IngestOptions{
		Chunking: chunker.Options{
			Strategy:     chunker.StrategySemantic,
			ChunkSize:    chunker.DefaultChunkSize,
			ChunkOverlap: chunker.DefaultChunkOverlap,
		},
		Analysis:      analyze.AllOptions(),
		BulkBatchSize: DefaultBulkBatchSize,
	}
}

// Stage checkpoint percentages reported through progress events.
const (
	progressProcessing = 10
	progressChunking   = 25
	progressEmbedding  = 50
	progressStoring    = 80
	progressComplete   = 100
)
