package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/core/embed"
	"github.com/markdave123-py/vectora/internal/core/similarity"
	"github.com/markdave123-py/vectora/internal/models"
)

// fallbackScanLimit caps how many rows of a collection the in-memory
// fallback loads when the provider-side search is unavailable.
const fallbackScanLimit = 1000

// Store is the persistence layer over a DbClient plus the embedding
// generator needed for query-time search. Search behaves identically to
// the caller whether the provider-side path or the in-memory fallback
// served it.
type Store struct {
	db       core.DbClient
	embedder *embed.Generator
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func New(dbc core.DbClient, embedder *embed.Generator, opts ...Option) *Store {
	s := &Store{db: dbc, embedder: embedder, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store persists one content+vector pair into a collection and returns
// the record id.
func (s *Store) Store(ctx context.Context, content string, embedding []float32, metadata models.ChunkMetadata, collection string) (string, error) {
	rec := models.EmbeddingRecord{
		ID:         uuid.NewString(),
		Collection: collection,
		Content:    content,
		Embedding:  embedding,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.db.InsertEmbeddingRecords(ctx, []models.EmbeddingRecord{rec}); err != nil {
		return "", fmt.Errorf("store record: %w", err)
	}
	return rec.ID, nil
}

// StoreBatch persists pre-built records, e.g. one document's chunks.
func (s *Store) StoreBatch(ctx context.Context, records []models.EmbeddingRecord) error {
	if err := s.db.InsertEmbeddingRecords(ctx, records); err != nil {
		return fmt.Errorf("store batch: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.EmbeddingRecord, error) {
	return s.db.GetEmbeddingRecord(ctx, id)
}

func (s *Store) List(ctx context.Context, collection string, limit, offset int) ([]models.EmbeddingRecord, error) {
	return s.db.ListEmbeddingRecords(ctx, collection, limit, offset)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.DeleteEmbeddingRecord(ctx, id)
}

func (s *Store) UpdateMetadata(ctx context.Context, id string, metadata models.ChunkMetadata) error {
	return s.db.UpdateRecordMetadata(ctx, id, metadata)
}

// SearchOptions tunes one Search call. Filters are exact matches
// against the queryable chunk metadata fields (source, section,
// language) and apply on both search paths.
type SearchOptions struct {
	Collection string
	TopK       int
	Threshold  float64
	Metric     similarity.Metric
	Filters    map[string]string
	Embed      embed.Options
}

// Search embeds the query text, attempts the provider-side vector
// lookup, and on failure falls back to an in-memory scan of up to
// fallbackScanLimit rows of the collection.
func (s *Store) Search(ctx context.Context, queryText string, opts SearchOptions) ([]models.SimilarityResult, error) {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	queryVec := s.embedder.Embed(ctx, queryText, opts.Embed)

	results, err := s.db.SearchEmbeddings(ctx, opts.Collection, queryVec, opts.Threshold, opts.TopK, opts.Filters)
	if err == nil {
		return results, nil
	}
	s.logger.Warn("provider-side search failed, falling back to in-memory scan",
		"collection", opts.Collection, "err", err)

	records, err := s.db.ListEmbeddingRecords(ctx, opts.Collection, fallbackScanLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("fallback scan: %w", err)
	}

	candidates := make([]similarity.Candidate, 0, len(records))
	for _, r := range records {
		if !r.Metadata.MatchesFilters(opts.Filters) {
			continue
		}
		candidates = append(candidates, similarity.Candidate{
			ID: r.ID, Content: r.Content, Embedding: r.Embedding, Metadata: r.Metadata,
		})
	}
	return similarity.FindSimilar(queryVec, candidates, similarity.SearchOptions{
		TopK:      opts.TopK,
		Threshold: opts.Threshold,
		Metric:    opts.Metric,
	})
}
