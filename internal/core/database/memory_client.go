package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/core/similarity"
	"github.com/markdave123-py/vectora/internal/models"
)

// MemoryClient is a map-backed core.DbClient for local runs and tests.
// Provider-side search is served by the same linear scan the fallback
// path uses.
type MemoryClient struct {
	mu      sync.RWMutex
	records map[string]models.EmbeddingRecord
	order   []string
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{records: make(map[string]models.EmbeddingRecord)}
}

func (m *MemoryClient) InsertEmbeddingRecords(_ context.Context, records []models.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		if _, seen := m.records[r.ID]; !seen {
			m.order = append(m.order, r.ID)
		}
		m.records[r.ID] = r
	}
	return nil
}

func (m *MemoryClient) GetEmbeddingRecord(_ context.Context, id string) (*models.EmbeddingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &r, nil
}

func (m *MemoryClient) ListEmbeddingRecords(_ context.Context, collection string, limit, offset int) ([]models.EmbeddingRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []models.EmbeddingRecord
	for _, id := range m.order {
		r := m.records[id]
		if r.Collection == collection {
			all = append(all, r)
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryClient) DeleteEmbeddingRecord(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.records, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryClient) UpdateRecordMetadata(_ context.Context, id string, metadata models.ChunkMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return core.ErrNotFound
	}
	r.Metadata = metadata
	m.records[id] = r
	return nil
}

func (m *MemoryClient) SearchEmbeddings(_ context.Context, collection string, queryVec []float32, threshold float64, limit int, filters map[string]string) ([]models.SimilarityResult, error) {
	m.mu.RLock()
	candidates := make([]similarity.Candidate, 0, len(m.records))
	for _, id := range m.order {
		r := m.records[id]
		if r.Collection != collection {
			continue
		}
		if !r.Metadata.MatchesFilters(filters) {
			continue
		}
		candidates = append(candidates, similarity.Candidate{
			ID: r.ID, Content: r.Content, Embedding: r.Embedding, Metadata: r.Metadata,
		})
	}
	m.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	return similarity.FindSimilar(queryVec, candidates, similarity.SearchOptions{
		TopK:      limit,
		Threshold: threshold,
	})
}

// Len reports the number of stored records, for tests.
func (m *MemoryClient) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

var _ core.DbClient = (*MemoryClient)(nil)
