package ingestion_engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/vectora/internal/core/chunker"
	db "github.com/markdave123-py/vectora/internal/core/database"
	"github.com/markdave123-py/vectora/internal/core/embed"
	"github.com/markdave123-py/vectora/internal/core/extract"
	"github.com/markdave123-py/vectora/internal/core/store"
	"github.com/markdave123-py/vectora/internal/models"
)

// countingProvider embeds every text as a constant vector and can be
// scripted to fail specific calls. Bulk ingestion invokes it from
// concurrent goroutines, so the call counter is mutex-guarded.
type countingProvider struct {
	mu     sync.Mutex
	calls  int
	failOn map[int]bool
}

func (p *countingProvider) EmbedTexts(_ context.Context, texts []string, _ int) ([][]float32, error) {
	p.mu.Lock()
	p.calls++
	call := p.calls
	p.mu.Unlock()

	if p.failOn[call] {
		return nil, errors.New("provider down")
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func newTestIngestor(p *countingProvider) (*DocumentIngestor, *db.MemoryClient) {
	mem := db.NewMemoryClient()
	gen := embed.New(p)
	st := store.New(mem, gen)
	ing := NewDocumentIngestor(extract.New(), gen, st)
	return ing, mem
}

func textSource(s string) models.DocumentSource {
	return models.DocumentSource{Kind: models.SourceText, Content: []byte(s)}
}

func TestIngestEndToEnd(t *testing.T) {
	ing, mem := newTestIngestor(&countingProvider{})

	text := "The ingestion pipeline processes documents. It splits them into chunks.\n\n" +
		"Each chunk receives an embedding vector. The vectors support semantic search."

	res, err := ing.Ingest(context.Background(), textSource(text), "docs", DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.NotEmpty(t, res.DocumentID)
	assert.Equal(t, len(res.Chunks), res.Stats.TotalChunks)
	assert.Equal(t, 1.0, res.Stats.SuccessRate)
	assert.Greater(t, res.Stats.TotalTokens, 0)
	assert.Equal(t, "en", res.Metadata.Language)
	assert.Equal(t, "text", res.Metadata.Format)

	// Every chunk was embedded and persisted.
	assert.Equal(t, len(res.Chunks), mem.Len())
	for _, c := range res.Chunks {
		assert.NotNil(t, c.Embedding)
		assert.Equal(t, res.DocumentID, c.Metadata.Source)
	}
}

func TestIngestFatalExtractionError(t *testing.T) {
	ing, mem := newTestIngestor(&countingProvider{})

	_, err := ing.Ingest(context.Background(), models.DocumentSource{Kind: "unknown"}, "docs", DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, 0, mem.Len())
}

func TestIngestPartialEmbeddingFailure(t *testing.T) {
	// Batch size 1 and a failing second call: one chunk embeds, one
	// does not, ingestion still succeeds.
	p := &countingProvider{failOn: map[int]bool{2: true}}
	ing, mem := newTestIngestor(p)

	opts := DefaultOptions()
	opts.Chunking = chunker.Options{Strategy: chunker.StrategyParagraph}
	opts.Embedding = embed.Options{Dimensions: 3, BatchSize: 1}

	res, err := ing.Ingest(context.Background(), textSource("First paragraph.\n\nSecond paragraph."), "docs", opts)
	require.NoError(t, err)
	require.Equal(t, 2, res.Stats.TotalChunks)
	assert.InDelta(t, 0.5, res.Stats.SuccessRate, 1e-9)

	// Only the embedded chunk is persisted.
	assert.Equal(t, 1, mem.Len())
}

func TestIngestProgressEvents(t *testing.T) {
	ing, _ := newTestIngestor(&countingProvider{})

	events := make(chan models.IngestionProgress, 16)
	docID := "doc-progress"
	ing.OnProgress(docID, func(p models.IngestionProgress) { events <- p })
	defer ing.OffProgress(docID)

	_, err := ing.IngestWithID(context.Background(), docID, textSource("Some content to process."), "docs", DefaultOptions())
	require.NoError(t, err)

	seen := map[models.IngestionStatus]int{}
	deadline := time.After(2 * time.Second)
	for len(seen) < 5 {
		select {
		case p := <-events:
			assert.Equal(t, docID, p.DocumentID)
			seen[p.Status] = p.Progress
		case <-deadline:
			t.Fatalf("timed out waiting for progress events, saw %v", seen)
		}
	}

	assert.Equal(t, 10, seen[models.StatusProcessing])
	assert.Equal(t, 25, seen[models.StatusChunking])
	assert.Equal(t, 50, seen[models.StatusEmbedding])
	assert.Equal(t, 80, seen[models.StatusStoring])
	assert.Equal(t, 100, seen[models.StatusComplete])
}

func TestBulkIngestSequential(t *testing.T) {
	ing, _ := newTestIngestor(&countingProvider{})

	sources := []models.DocumentSource{
		textSource("Document one content."),
		{Kind: "bogus"}, // fatal for this document only
		textSource("Document three content."),
	}

	results := ing.BulkIngest(context.Background(), sources, "docs", DefaultOptions())
	assert.Len(t, results, 2)
}

func TestBulkIngestParallel(t *testing.T) {
	ing, mem := newTestIngestor(&countingProvider{})

	var sources []models.DocumentSource
	for i := 0; i < 12; i++ {
		sources = append(sources, textSource("Parallel document body with words."))
	}

	opts := DefaultOptions()
	opts.Parallel = true
	opts.BulkBatchSize = 4

	results := ing.BulkIngest(context.Background(), sources, "docs", opts)
	assert.Len(t, results, 12)
	assert.Equal(t, 12, mem.Len()) // one chunk per short document
}

func TestEngineSearch(t *testing.T) {
	ing, _ := newTestIngestor(&countingProvider{})

	_, err := ing.Ingest(context.Background(), textSource("Searchable content lives here."), "docs", DefaultOptions())
	require.NoError(t, err)

	results, err := ing.Search(context.Background(), "content", store.SearchOptions{
		Collection: "docs", TopK: 5, Threshold: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Content, "Searchable")
}
