package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/vectora/internal/config"
	db "github.com/markdave123-py/vectora/internal/core/database"
	"github.com/markdave123-py/vectora/internal/core/embed"
	"github.com/markdave123-py/vectora/internal/core/extract"
	"github.com/markdave123-py/vectora/internal/core/ingestion_engine"
	"github.com/markdave123-py/vectora/internal/core/store"
	"github.com/markdave123-py/vectora/internal/models"
)

func testRouter() (*chi.Mux, *db.MemoryClient) {
	cfg := &config.Config{
		EmbedDim:     8,
		EmbedBatch:   20,
		ChunkSize:    1000,
		ChunkOverlap: 200,
		ChunkMethod:  "semantic",
		Collection:   "default",
	}

	mem := db.NewMemoryClient()
	gen := embed.New(nil) // deterministic embeddings
	st := store.New(mem, gen)
	ing := ingestion_engine.NewDocumentIngestor(extract.New(), gen, st)

	ih := NewIngestHandler(ing, nil, cfg)
	rh := NewRecordHandler(st)

	r := chi.NewRouter()
	r.Post("/api/ingest", ih.IngestDocument)
	r.Post("/api/ingest/bulk", ih.BulkIngest)
	r.Post("/api/search", ih.Search)
	r.Get("/api/records", rh.ListRecords)
	r.Get("/api/records/{id}", rh.GetRecord)
	r.Delete("/api/records/{id}", rh.DeleteRecord)
	return r, mem
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestIngestTextEndpoint(t *testing.T) {
	r, mem := testRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/ingest", IngestRequest{
		Kind: "text",
		Text: "Handler test content. It should be chunked and stored.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var res models.ProcessingResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.NotEmpty(t, res.DocumentID)
	assert.Equal(t, 1.0, res.Stats.SuccessRate)
	assert.Equal(t, len(res.Chunks), mem.Len())
}

func TestIngestValidation(t *testing.T) {
	r, _ := testRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/ingest", IngestRequest{Kind: "text"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/ingest", IngestRequest{Kind: "carrier-pigeon"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBulkIngestEndpoint(t *testing.T) {
	r, _ := testRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/ingest/bulk", BulkIngestRequest{
		Sources: []IngestRequest{
			{Kind: "text", Text: "First document."},
			{Kind: "text", Text: "Second document."},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Requested int `json:"requested"`
		Succeeded int `json:"succeeded"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 2, body.Requested)
	assert.Equal(t, 2, body.Succeeded)
}

func TestSearchEndpoint(t *testing.T) {
	r, _ := testRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/ingest", IngestRequest{
		Kind: "text", Text: "Vectors make semantic retrieval possible.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/api/search", SearchRequest{Query: "semantic retrieval"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []models.SimilarityResult `json:"results"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	// Deterministic embeddings give the query and the chunk identical
	// vectors, so the stored chunk must come back.
	require.NotEmpty(t, body.Results)
	assert.Contains(t, body.Results[0].Content, "retrieval")

	rec = doJSON(t, r, http.MethodPost, "/api/search", SearchRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpointWithFilters(t *testing.T) {
	r, _ := testRouter()

	var first models.ProcessingResult
	rec := doJSON(t, r, http.MethodPost, "/api/ingest", IngestRequest{
		Kind: "text", Text: "Chunks from the first document.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&first))

	rec = doJSON(t, r, http.MethodPost, "/api/ingest", IngestRequest{
		Kind: "text", Text: "Chunks from the second document.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Filtering on source narrows results to the first document's chunks.
	rec = doJSON(t, r, http.MethodPost, "/api/search", SearchRequest{
		Query:   "chunks",
		Filters: map[string]string{"source": first.DocumentID},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []models.SimilarityResult `json:"results"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotEmpty(t, body.Results)
	for _, res := range body.Results {
		assert.Equal(t, first.DocumentID, res.Metadata.Source)
	}
}

func TestRecordEndpoints(t *testing.T) {
	r, _ := testRouter()

	rec := doJSON(t, r, http.MethodPost, "/api/ingest", IngestRequest{
		Kind: "text", Text: "A record to fetch and delete.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var res models.ProcessingResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.NotEmpty(t, res.Chunks)
	chunkID := res.Chunks[0].ID

	rec = doJSON(t, r, http.MethodGet, "/api/records?collection=default", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/records/"+chunkID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/records/"+chunkID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/records/"+chunkID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
