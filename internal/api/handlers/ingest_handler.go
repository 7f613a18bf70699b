package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/vectora/internal/config"
	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/core/chunker"
	"github.com/markdave123-py/vectora/internal/core/embed"
	"github.com/markdave123-py/vectora/internal/core/ingestion_engine"
	"github.com/markdave123-py/vectora/internal/core/store"
	"github.com/markdave123-py/vectora/internal/models"
)

const maxUploadBytes = 52 << 20 // 52 MB

// IngestHandler exposes the ingestion pipeline over HTTP.
type IngestHandler struct {
	ingestor  *ingestion_engine.DocumentIngestor
	objclient core.ObjectClient // nil when object storage is not configured
	cfg       *config.Config
}

func NewIngestHandler(ing *ingestion_engine.DocumentIngestor, obj core.ObjectClient, cfg *config.Config) *IngestHandler {
	return &IngestHandler{ingestor: ing, objclient: obj, cfg: cfg}
}

// IngestRequest is the JSON body for text and URL ingestion.
type IngestRequest struct {
	Kind       string `json:"kind"` // "text" or "url"
	Text       string `json:"text,omitempty"`
	URL        string `json:"url,omitempty"`
	Collection string `json:"collection,omitempty"`

	Strategy     string `json:"strategy,omitempty"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
}

// IngestDocument ingests inline text or a URL and responds with the
// full processing result.
func (h *IngestHandler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	var src models.DocumentSource
	switch req.Kind {
	case "", string(models.SourceText):
		if req.Text == "" {
			http.Error(w, "text is required", http.StatusBadRequest)
			return
		}
		src = models.DocumentSource{Kind: models.SourceText, Content: []byte(req.Text)}
	case string(models.SourceAPI):
		if req.Text == "" {
			http.Error(w, "text is required", http.StatusBadRequest)
			return
		}
		src = models.DocumentSource{Kind: models.SourceAPI, Content: []byte(req.Text)}
	case string(models.SourceURL):
		if req.URL == "" {
			http.Error(w, "url is required", http.StatusBadRequest)
			return
		}
		src = models.DocumentSource{Kind: models.SourceURL, Location: req.URL}
	default:
		http.Error(w, fmt.Sprintf("unsupported kind %q", req.Kind), http.StatusBadRequest)
		return
	}

	res, err := h.ingestor.Ingest(r.Context(), src, h.collection(req.Collection), h.ingestOptions(req))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// UploadDocument accepts a multipart file, optionally stages it in
// object storage, and runs it through the pipeline.
func (h *IngestHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	cleanName := filepath.Base(header.Filename)

	src := models.DocumentSource{
		Kind:        models.SourceFile,
		Content:     data,
		FileName:    cleanName,
		ContentType: contentType,
	}

	docID := uuid.NewString()
	if h.objclient != nil {
		uploadCtx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
		defer cancel()

		key := fmt.Sprintf("%s/%s", docID, cleanName)
		url, err := h.objclient.UploadFile(uploadCtx, h.cfg.BucketName, key, data, contentType)
		if err != nil {
			slog.Warn("object storage upload failed, ingesting from request body", "key", key, "err", err)
		} else {
			src.StorageURL = url
		}
	}

	req := IngestRequest{
		Collection:   r.FormValue("collection"),
		Strategy:     r.FormValue("strategy"),
		ChunkSize:    atoiOrZero(r.FormValue("chunk_size")),
		ChunkOverlap: atoiOrZero(r.FormValue("chunk_overlap")),
	}

	res, err := h.ingestor.IngestWithID(r.Context(), docID, src, h.collection(req.Collection), h.ingestOptions(req))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// BulkIngestRequest carries many sources for one collection.
type BulkIngestRequest struct {
	Sources    []IngestRequest `json:"sources"`
	Collection string          `json:"collection,omitempty"`
	Parallel   bool            `json:"parallel,omitempty"`
}

// BulkIngest runs every source through the pipeline; documents that
// fail are simply absent from the response.
func (h *IngestHandler) BulkIngest(w http.ResponseWriter, r *http.Request) {
	var req BulkIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(req.Sources) == 0 {
		http.Error(w, "sources is required", http.StatusBadRequest)
		return
	}

	sources := make([]models.DocumentSource, 0, len(req.Sources))
	for _, s := range req.Sources {
		switch s.Kind {
		case "", string(models.SourceText):
			sources = append(sources, models.DocumentSource{Kind: models.SourceText, Content: []byte(s.Text)})
		case string(models.SourceURL):
			sources = append(sources, models.DocumentSource{Kind: models.SourceURL, Location: s.URL})
		default:
			http.Error(w, fmt.Sprintf("unsupported kind %q", s.Kind), http.StatusBadRequest)
			return
		}
	}

	opts := h.ingestOptions(IngestRequest{})
	opts.Parallel = req.Parallel

	results := h.ingestor.BulkIngest(r.Context(), sources, h.collection(req.Collection), opts)
	writeJSON(w, http.StatusOK, map[string]any{
		"requested": len(req.Sources),
		"succeeded": len(results),
		"results":   results,
	})
}

// SearchRequest is the JSON body for semantic search.
type SearchRequest struct {
	Query      string            `json:"query"`
	Collection string            `json:"collection,omitempty"`
	TopK       int               `json:"top_k,omitempty"`
	Threshold  float64           `json:"threshold,omitempty"`
	Metric     string            `json:"metric,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
}

// Search embeds the query and returns ranked similar chunks.
func (h *IngestHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		http.Error(w, "query is required", http.StatusBadRequest)
		return
	}

	results, err := h.ingestor.Search(r.Context(), req.Query, store.SearchOptions{
		Collection: h.collection(req.Collection),
		TopK:       req.TopK,
		Threshold:  req.Threshold,
		Metric:     similarityMetric(req.Metric),
		Filters:    req.Filters,
		Embed:      embed.Options{Dimensions: h.cfg.EmbedDim},
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": req.Query, "results": results})
}

func (h *IngestHandler) collection(c string) string {
	if c != "" {
		return c
	}
	return h.cfg.Collection
}

// ingestOptions starts from the configured defaults and applies the
// request's per-call overrides.
func (h *IngestHandler) ingestOptions(req IngestRequest) ingestion_engine.IngestOptions {
	opts := ingestion_engine.DefaultOptions()
	opts.Chunking = chunker.Options{
		Strategy:     chunker.Strategy(h.cfg.ChunkMethod),
		ChunkSize:    h.cfg.ChunkSize,
		ChunkOverlap: h.cfg.ChunkOverlap,
	}
	opts.Embedding = embed.Options{
		Dimensions: h.cfg.EmbedDim,
		BatchSize:  h.cfg.EmbedBatch,
	}
	if req.Strategy != "" {
		opts.Chunking.Strategy = chunker.Strategy(req.Strategy)
	}
	if req.ChunkSize > 0 {
		opts.Chunking.ChunkSize = req.ChunkSize
	}
	if req.ChunkOverlap > 0 {
		opts.Chunking.ChunkOverlap = req.ChunkOverlap
	}
	return opts
}
