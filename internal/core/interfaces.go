package core

import (
	"context"

	"github.com/markdave123-py/vectora/internal/models"
)

// DbClient defines all persistence operations the pipeline needs.
// It abstracts Postgres/pgvector so higher layers never depend on a
// specific store.
type DbClient interface {
	// InsertEmbeddingRecords upserts chunk rows into a collection.
	InsertEmbeddingRecords(ctx context.Context, records []models.EmbeddingRecord) error
	GetEmbeddingRecord(ctx context.Context, id string) (*models.EmbeddingRecord, error)
	ListEmbeddingRecords(ctx context.Context, collection string, limit, offset int) ([]models.EmbeddingRecord, error)
	DeleteEmbeddingRecord(ctx context.Context, id string) error
	UpdateRecordMetadata(ctx context.Context, id string, metadata models.ChunkMetadata) error

	// SearchEmbeddings is the provider-side vector similarity lookup,
	// scoped to a collection. filters are exact matches against the
	// queryable metadata fields (source, section, language); a nil map
	// applies none. Implementations return rows ranked by similarity
	// descending.
	SearchEmbeddings(ctx context.Context, collection string, queryVec []float32, threshold float64, limit int, filters map[string]string) ([]models.SimilarityResult, error)
}

// ObjectClient defines interactions with S3 or any object storage.
// Abstract so AWS can be swapped for MinIO, GCS, etc.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
	DeleteFile(ctx context.Context, bucket, key string) error
}

// EmbeddingProvider is the external embedding service. EmbedTexts embeds
// every input in one request; dim <= 0 lets the model default apply.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string, dim int) ([][]float32, error)
}
