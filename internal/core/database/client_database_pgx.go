package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/vectora/internal/config"
	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/models"
)

// DatabaseClient is the Postgres/pgvector implementation of
// core.DbClient. Chunk rows live in embedding_records, partitioned by
// the collection column; metadata is a jsonb blob.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db, cfg.EmbedDim); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InsertEmbeddingRecords upserts all rows in one transaction.
func (c *DatabaseClient) InsertEmbeddingRecords(ctx context.Context, records []models.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO embedding_records
			(id, collection, content, embedding, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
		ON CONFLICT (id) DO UPDATE
			SET content = EXCLUDED.content,
			    embedding = EXCLUDED.embedding,
			    metadata = EXCLUDED.metadata
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		meta, err := json.Marshal(r.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal metadata for %s: %w", r.ID, err)
		}
		vec := pgvector.NewVector(r.Embedding)
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Collection, r.Content, vec, meta, nullableTime(r.CreatedAt),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) GetEmbeddingRecord(ctx context.Context, id string) (*models.EmbeddingRecord, error) {
	const q = `
		SELECT id, collection, content, embedding, metadata, created_at
		FROM embedding_records WHERE id = $1
	`
	r, err := scanRecord(c.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (c *DatabaseClient) ListEmbeddingRecords(ctx context.Context, collection string, limit, offset int) ([]models.EmbeddingRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
		SELECT id, collection, content, embedding, metadata, created_at
		FROM embedding_records
		WHERE collection = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := c.db.QueryContext(ctx, q, collection, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EmbeddingRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeleteEmbeddingRecord(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM embedding_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (c *DatabaseClient) UpdateRecordMetadata(ctx context.Context, id string, metadata models.ChunkMetadata) error {
	meta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	res, err := c.db.ExecContext(ctx, `UPDATE embedding_records SET metadata = $2 WHERE id = $1`, id, meta)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SearchEmbeddings is the provider-side similarity lookup: cosine
// distance via the <=> operator, converted to a similarity so callers
// and the in-memory fallback rank on the same scale. Metadata filters
// become jsonb predicates; keys and values are both bound parameters.
func (c *DatabaseClient) SearchEmbeddings(ctx context.Context, collection string, queryVec []float32, threshold float64, limit int, filters map[string]string) ([]models.SimilarityResult, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := pgvector.NewVector(queryVec)
	args := []any{collection, vec, threshold}

	var q strings.Builder
	q.WriteString(`
		SELECT id, content, metadata, 1 - (embedding <=> $2) AS similarity
		FROM embedding_records
		WHERE collection = $1
		  AND 1 - (embedding <=> $2) >= $3`)
	for _, key := range sortedFilterKeys(filters) {
		args = append(args, key, filters[key])
		fmt.Fprintf(&q, "\n\t\t  AND metadata->>$%d = $%d", len(args)-1, len(args))
	}
	args = append(args, limit)
	fmt.Fprintf(&q, "\n\t\tORDER BY embedding <=> $2\n\t\tLIMIT $%d", len(args))

	rows, err := c.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SimilarityResult
	for rows.Next() {
		var (
			r    models.SimilarityResult
			meta []byte
		)
		if err := rows.Scan(&r.ID, &r.Content, &meta, &r.Score); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &r.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for %s: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.EmbeddingRecord, error) {
	var (
		r    models.EmbeddingRecord
		vec  pgvector.Vector
		meta []byte
	)
	if err := row.Scan(&r.ID, &r.Collection, &r.Content, &vec, &meta, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Embedding = vec.Slice()
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for %s: %w", r.ID, err)
		}
	}
	return &r, nil
}

func sortedFilterKeys(filters map[string]string) []string {
	if len(filters) == 0 {
		return nil
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var _ core.DbClient = (*DatabaseClient)(nil)
