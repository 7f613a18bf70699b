package ingestion_engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/vectora/internal/core/analyze"
	"github.com/markdave123-py/vectora/internal/core/chunker"
	"github.com/markdave123-py/vectora/internal/core/embed"
	"github.com/markdave123-py/vectora/internal/core/extract"
	"github.com/markdave123-py/vectora/internal/core/store"
	"github.com/markdave123-py/vectora/internal/models"
)

// DocumentIngestor coordinates the pipeline: Extract, Analyze, Chunk,
// Embed, Store. One document runs strictly sequentially; concurrency
// exists only across documents in bulk ingestion.
type DocumentIngestor struct {
	extractor *extract.Extractor
	embedder  *embed.Generator
	store     *store.Store
	progress  *progressRegistry
	logger    *slog.Logger
}

// Option configures a DocumentIngestor.
type Option func(*DocumentIngestor)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(i *DocumentIngestor) { i.logger = l }
}

func NewDocumentIngestor(ex *extract.Extractor, emb *embed.Generator, st *store.Store, opts ...Option) *DocumentIngestor {
	i := &DocumentIngestor{
		extractor: ex,
		embedder:  emb,
		store:     st,
		progress:  newProgressRegistry(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// OnProgress registers an observer for one document id. Events are
// delivered fire-and-forget; the observer is responsible for draining.
func (i *DocumentIngestor) OnProgress(documentID string, fn ProgressFunc) {
	i.progress.register(documentID, fn)
}

// OffProgress removes the observer for a document id.
func (i *DocumentIngestor) OffProgress(documentID string) {
	i.progress.unregister(documentID)
}

// Ingest runs the full pipeline for one source and returns the
// aggregated result. A fatal extraction error is the only condition
// that prevents a result from being produced.
func (i *DocumentIngestor) Ingest(ctx context.Context, src models.DocumentSource, collection string, opts IngestOptions) (*models.ProcessingResult, error) {
	docID := uuid.NewString()
	return i.ingestAs(ctx, docID, src, collection, opts)
}

// IngestWithID is Ingest with a caller-chosen document id, so observers
// can be registered before the pipeline starts.
func (i *DocumentIngestor) IngestWithID(ctx context.Context, docID string, src models.DocumentSource, collection string, opts IngestOptions) (*models.ProcessingResult, error) {
	return i.ingestAs(ctx, docID, src, collection, opts)
}

func (i *DocumentIngestor) ingestAs(ctx context.Context, docID string, src models.DocumentSource, collection string, opts IngestOptions) (*models.ProcessingResult, error) {
	started := time.Now()
	i.notify(docID, models.StatusProcessing, progressProcessing, "extracting content", nil)

	extracted, err := i.extractor.Extract(ctx, src)
	if err != nil {
		i.notify(docID, models.StatusError, 0, "extraction failed", err)
		return nil, fmt.Errorf("ingest %s: %w", docID, err)
	}

	format := extracted.Metadata["format"]
	metadata := analyze.Analyze(extracted.Text, format, extracted.Metadata, opts.Analysis)

	i.notify(docID, models.StatusChunking, progressChunking, "chunking text", nil)
	chunks, err := chunker.Chunk(extracted.Text, docID, opts.Chunking)
	if err != nil {
		i.notify(docID, models.StatusError, 0, "chunking failed", err)
		return nil, fmt.Errorf("ingest %s: %w", docID, err)
	}
	for idx := range chunks {
		chunks[idx].Metadata.Language = metadata.Language
	}

	i.notify(docID, models.StatusEmbedding, progressEmbedding, "generating embeddings", nil)
	texts := make([]string, len(chunks))
	totalTokens := 0
	for idx, c := range chunks {
		texts[idx] = c.Content
		totalTokens += chunker.EstimateTokens(c.Content)
	}

	embedStart := time.Now()
	batch := i.embedder.EmbedBatch(ctx, texts, opts.Embedding)
	embeddingTime := time.Since(embedStart)

	for _, e := range batch.Successful {
		chunks[e.Index].Embedding = e.Vector
	}
	if len(batch.Failed) > 0 {
		i.logger.Warn("partial embedding failure",
			"document_id", docID, "failed", len(batch.Failed), "total", len(chunks))
	}

	i.notify(docID, models.StatusStoring, progressStoring, "storing chunks", nil)
	records := make([]models.EmbeddingRecord, 0, len(batch.Successful))
	for _, c := range chunks {
		if c.Embedding == nil {
			continue // embedding failed; chunk is not persisted
		}
		records = append(records, models.EmbeddingRecord{
			ID:         c.ID,
			Collection: collection,
			Content:    c.Content,
			Embedding:  c.Embedding,
			Metadata:   c.Metadata,
			CreatedAt:  time.Now().UTC(),
		})
	}
	if err := i.store.StoreBatch(ctx, records); err != nil {
		i.notify(docID, models.StatusError, 0, "persistence failed", err)
		return nil, fmt.Errorf("ingest %s: %w", docID, err)
	}

	successRate := 1.0
	if len(chunks) > 0 {
		successRate = float64(len(batch.Successful)) / float64(len(chunks))
	}
	result := &models.ProcessingResult{
		DocumentID: docID,
		Chunks:     chunks,
		Metadata:   metadata,
		Stats: models.ProcessingStats{
			TotalChunks:    len(chunks),
			TotalTokens:    totalTokens,
			ProcessingTime: time.Since(started),
			EmbeddingTime:  embeddingTime,
			SuccessRate:    successRate,
		},
	}

	i.notify(docID, models.StatusComplete, progressComplete, "complete", nil)
	return result, nil
}

// BulkIngest processes many sources into one collection. Parallel mode
// partitions the sources into fixed-size batches and ingests each
// batch's documents concurrently, awaiting the whole batch before the
// next one. One document's failure never aborts its siblings; failed
// documents simply produce no result.
func (i *DocumentIngestor) BulkIngest(ctx context.Context, sources []models.DocumentSource, collection string, opts IngestOptions) []models.ProcessingResult {
	if !opts.Parallel {
		out := make([]models.ProcessingResult, 0, len(sources))
		for _, src := range sources {
			res, err := i.Ingest(ctx, src, collection, opts)
			if err != nil {
				i.logger.Error("bulk ingest: document failed", "err", err)
				continue
			}
			out = append(out, *res)
		}
		return out
	}

	batchSize := opts.BulkBatchSize
	if batchSize <= 0 {
		batchSize = DefaultBulkBatchSize
	}

	results := make([]*models.ProcessingResult, len(sources))
	for start := 0; start < len(sources); start += batchSize {
		end := start + batchSize
		if end > len(sources) {
			end = len(sources)
		}

		var g errgroup.Group
		for idx := start; idx < end; idx++ {
			g.Go(func() error {
				res, err := i.Ingest(ctx, sources[idx], collection, opts)
				if err != nil {
					i.logger.Error("bulk ingest: document failed", "err", err)
					return nil // isolate per-document failures
				}
				results[idx] = res
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]models.ProcessingResult, 0, len(sources))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// Search embeds the query and returns ranked similar chunks from the
// collection, served by the provider-side index or the in-memory
// fallback.
func (i *DocumentIngestor) Search(ctx context.Context, queryText string, opts store.SearchOptions) ([]models.SimilarityResult, error) {
	return i.store.Search(ctx, queryText, opts)
}

func (i *DocumentIngestor) notify(docID string, status models.IngestionStatus, pct int, step string, err error) {
	p := models.IngestionProgress{
		DocumentID:  docID,
		Status:      status,
		Progress:    pct,
		CurrentStep: step,
	}
	if err != nil {
		p.Error = err.Error()
	}
	i.progress.notify(p)
}
