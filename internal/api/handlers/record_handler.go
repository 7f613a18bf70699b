package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/vectora/internal/core"
	"github.com/markdave123-py/vectora/internal/core/similarity"
	"github.com/markdave123-py/vectora/internal/core/store"
	"github.com/markdave123-py/vectora/internal/models"
)

// RecordHandler exposes CRUD over stored embedding records.
type RecordHandler struct {
	store *store.Store
}

func NewRecordHandler(s *store.Store) *RecordHandler {
	return &RecordHandler{store: s}
}

func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	limit := atoiOrZero(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 100
	}
	offset := atoiOrZero(r.URL.Query().Get("offset"))

	records, err := h.store.List(r.Context(), collection, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(records), "records": records})
}

func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordHandler) UpdateRecordMetadata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var metadata models.ChunkMetadata
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := h.store.UpdateMetadata(r.Context(), id, metadata); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "updated"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func similarityMetric(s string) similarity.Metric {
	if s == string(similarity.MetricEuclidean) {
		return similarity.MetricEuclidean
	}
	return similarity.MetricCosine
}
