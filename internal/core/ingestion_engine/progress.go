package ingestion_engine

import (
	"sync"

	"github.com/markdave123-py/vectora/internal/models"
)

// ProgressFunc receives stage-transition events for one document.
type ProgressFunc func(models.IngestionProgress)

// progressRegistry is the observer registry keyed by document id. The
// mutex around the map is the only mutual exclusion the pipeline needs;
// callbacks run on their own goroutine so a slow observer never blocks
// ingestion.
type progressRegistry struct {
	mu        sync.RWMutex
	observers map[string]ProgressFunc
}

func newProgressRegistry() *progressRegistry {
	return &progressRegistry{observers: make(map[string]ProgressFunc)}
}

func (r *progressRegistry) register(documentID string, fn ProgressFunc) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.observers[documentID] = fn
	r.mu.Unlock()
}

func (r *progressRegistry) unregister(documentID string) {
	r.mu.Lock()
	delete(r.observers, documentID)
	r.mu.Unlock()
}

// notify is fire-and-forget: no observer, no work.
func (r *progressRegistry) notify(p models.IngestionProgress) {
	r.mu.RLock()
	fn := r.observers[p.DocumentID]
	r.mu.RUnlock()
	if fn == nil {
		return
	}
	go fn(p)
}
