package models

import (
	"time"
)

// SourceKind discriminates the supported document source variants.
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
	SourceText SourceKind = "text"
	SourceAPI  SourceKind = "api"
)

// DocumentSource is the caller-constructed input to one ingestion call.
// Exactly one of Content / StorageURL / Location carries the payload,
// depending on Kind:
//
//	text/api: Content holds the raw text.
//	file:     Content holds the raw bytes, or StorageURL points at an
//	          object-storage blob to fetch first.
//	url:      Location holds the remote address.
type DocumentSource struct {
	Kind        SourceKind        `json:"kind"`
	Content     []byte            `json:"content,omitempty"`
	Location    string            `json:"location,omitempty"`
	StorageURL  string            `json:"storage_url,omitempty"`
	ContentType string            `json:"content_type,omitempty"` // declared kind hint, e.g. "application/pdf"
	FileName    string            `json:"file_name,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ChunkPosition is the character offset range of a chunk inside the
// original extracted text. Ranges of adjacent chunks may intersect when
// the strategy carries overlap; index order is still strictly increasing.
type ChunkPosition struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ChunkMetadata travels with every chunk. Source is the owning document
// id; Section, Entities and Language are filled in when the analyzer ran.
type ChunkMetadata struct {
	Source   string             `json:"source"`
	Position ChunkPosition      `json:"position"`
	Section  string             `json:"section,omitempty"`
	Language string             `json:"language,omitempty"`
	Entities []EntityExtraction `json:"entities,omitempty"`
}

// MatchesFilters reports whether this metadata satisfies every filter.
// Keys name the queryable string fields ("source", "section",
// "language"); an unknown key matches nothing.
func (m ChunkMetadata) MatchesFilters(filters map[string]string) bool {
	for key, want := range filters {
		var got string
		switch key {
		case "source":
			got = m.Source
		case "section":
			got = m.Section
		case "language":
			got = m.Language
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}

// ProcessedChunk is one position-tagged span of a document's text, the
// unit that gets embedded and stored. Embedding is attached after the
// embedding stage; a nil Embedding means that chunk failed to embed.
type ProcessedChunk struct {
	ID        string        `json:"id"`
	Content   string        `json:"content"`
	Index     int           `json:"index"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float32     `json:"embedding,omitempty"`
}

// EntityType classifies an extracted entity.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityLocation     EntityType = "location"
	EntityDate         EntityType = "date"
	EntityMoney        EntityType = "money"
	EntityEmail        EntityType = "email"
	EntityURL          EntityType = "url"
	EntityCustom       EntityType = "custom"
)

// EntityExtraction is one regex match from the analyzer. Positions are
// match start offsets into the extracted text. Overlapping matches from
// different passes are not deduplicated.
type EntityExtraction struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	Positions  []int      `json:"positions"`
}

// DocumentMetadata is the aggregate descriptive record computed once per
// document. Immutable after creation.
type DocumentMetadata struct {
	WordCount int                `json:"word_count"`
	CharCount int                `json:"char_count"`
	Format    string             `json:"format"`
	Title     string             `json:"title,omitempty"`
	Author    string             `json:"author,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	Language  string             `json:"language,omitempty"`
	Summary   string             `json:"summary,omitempty"`
	Keywords  []string           `json:"keywords,omitempty"`
	Entities  []EntityExtraction `json:"entities,omitempty"`
}

// EmbeddingRecord is one stored chunk row: content plus its vector and
// metadata, addressed by id inside a named collection.
type EmbeddingRecord struct {
	ID         string        `db:"id" json:"id"`
	Collection string        `db:"collection" json:"collection"`
	Content    string        `db:"content" json:"content"`
	Embedding  []float32     `db:"embedding" json:"embedding"`
	Metadata   ChunkMetadata `db:"metadata" json:"metadata"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// FailedEmbedding records one input that could not be embedded in a
// batch call, together with the provider error.
type FailedEmbedding struct {
	Content string `json:"content"`
	Error   string `json:"error"`
}

// ProcessingStats summarizes one ingestion call.
// SuccessRate = embedded chunks / total chunks.
type ProcessingStats struct {
	TotalChunks    int           `json:"total_chunks"`
	TotalTokens    int           `json:"total_tokens"` // estimated, ~4 chars per token
	ProcessingTime time.Duration `json:"processing_time"`
	EmbeddingTime  time.Duration `json:"embedding_time"`
	SuccessRate    float64       `json:"success_rate"`
}

// ProcessingResult is the terminal artifact of one ingestion. Ownership
// passes to the caller; the pipeline keeps no reference.
type ProcessingResult struct {
	DocumentID string           `json:"document_id"`
	Chunks     []ProcessedChunk `json:"chunks"`
	Metadata   DocumentMetadata `json:"metadata"`
	Stats      ProcessingStats  `json:"stats"`
}

// IngestionStatus names a pipeline stage transition.
type IngestionStatus string

const (
	StatusPending    IngestionStatus = "pending"
	StatusProcessing IngestionStatus = "processing"
	StatusChunking   IngestionStatus = "chunking"
	StatusEmbedding  IngestionStatus = "embedding"
	StatusStoring    IngestionStatus = "storing"
	StatusComplete   IngestionStatus = "complete"
	StatusError      IngestionStatus = "error"
)

// IngestionProgress is the ephemeral per-document event delivered to
// registered observers. Not persisted.
type IngestionProgress struct {
	DocumentID  string          `json:"document_id"`
	Status      IngestionStatus `json:"status"`
	Progress    int             `json:"progress"` // 0-100
	CurrentStep string          `json:"current_step"`
	Error       string          `json:"error,omitempty"`
}

// SimilarityResult is one ranked hit from a search call. Score is a
// similarity regardless of the metric that produced it.
type SimilarityResult struct {
	ID       string        `json:"id"`
	Content  string        `json:"content"`
	Score    float64       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}
