package rag

import (
	"context"
	"errors"
)

// Common errors for retrieval infrastructure. Transient store and embedding
// failures are propagated to callers; no retry is attempted at this layer.
var (
	ErrStoreUnavailable     = errors.New("vector store unavailable")
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
)

// Passage is a bounded-size excerpt of a source document, the unit of
// retrieval. Passages are immutable once produced by the chunker.
type Passage struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	SourceDocument string `json:"source_document"`
	SourceOffset   int    `json:"source_offset"`

	// Sequence is a monotonically increasing ingestion counter. Equal-score
	// search hits are broken stably by ascending sequence, so retrieval
	// order is reproducible across runs.
	Sequence int64 `json:"sequence"`
}

// PassageRecord pairs a passage with its embedding for storage.
type PassageRecord struct {
	Passage   Passage   `json:"passage"`
	Embedding []float32 `json:"embedding"`
}

// ContextChunk is a retrieved passage with its similarity score.
type ContextChunk struct {
	PassageID      string  `json:"passage_id"`
	Text           string  `json:"text"`
	SourceDocument string  `json:"source_document"`
	SourceOffset   int     `json:"source_offset"`
	Sequence       int64   `json:"sequence"`
	Score          float32 `json:"score"` // cosine similarity
}

// SearchOptions provides filtering options for vector search.
type SearchOptions struct {
	SourceDocuments []string `json:"source_documents,omitempty"`
}

// VectorStore defines the interface for passage storage and similarity
// search. The core never mutates stored records; it only inserts, deletes
// by source document, and reads via Search.
type VectorStore interface {
	// Insert adds passage records in a single operation.
	Insert(ctx context.Context, records []PassageRecord) error

	// Flush ensures all pending data is persisted.
	Flush(ctx context.Context) error

	// Search performs top-K similarity search with optional filtering.
	// Results are ordered by descending score and never exceed topK.
	Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]ContextChunk, error)

	// Query reports which source documents already have indexed passages.
	Query(ctx context.Context, sourceDocuments []string) (map[string]bool, error)

	// Delete removes all passages belonging to the given source documents.
	Delete(ctx context.Context, sourceDocuments []string) error

	// MaxSequence returns the highest ingestion sequence stored, or -1 when
	// the store is empty. The indexer seeds its counter from it so sequence
	// numbers keep increasing across ingestion runs.
	MaxSequence(ctx context.Context) (int64, error)

	// GetStats returns collection statistics (record count, etc.).
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close releases resources and closes connections.
	Close() error
}

// IndexOptions provides configuration for passage indexing.
type IndexOptions struct {
	// BatchSize determines how many passages to embed per API call.
	BatchSize int

	// ForceReindex deletes a document's passages before re-inserting them.
	ForceReindex bool

	// SkipExisting skips documents that already have indexed passages.
	SkipExisting bool
}

// DefaultIndexOptions returns sensible defaults for indexing.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize:    16,
		ForceReindex: false,
		SkipExisting: true,
	}
}
