package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is a brute-force in-memory VectorStore. It exists for local
// mode and tests; production deployments use MilvusStore. Scoring is plain
// cosine similarity over every stored record.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	records   []PassageRecord
}

// NewMemoryStore creates an in-memory store with a fixed vector dimension.
func NewMemoryStore(dimension int) (*MemoryStore, error) {
	if dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	return &MemoryStore{dimension: dimension}, nil
}

// Insert adds passage records to the store.
func (s *MemoryStore) Insert(ctx context.Context, records []PassageRecord) error {
	if len(records) == 0 {
		return ErrEmptyRecords
	}
	for _, r := range records {
		if len(r.Embedding) != s.dimension {
			return fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, s.dimension, len(r.Embedding))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

// Flush is a no-op; records live in memory.
func (s *MemoryStore) Flush(ctx context.Context) error {
	return nil
}

// Search performs top-K cosine similarity search. Equal scores are broken
// stably by ascending ingestion sequence.
func (s *MemoryStore) Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]ContextChunk, error) {
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, s.dimension, len(queryVector))
	}
	if topK <= 0 {
		return []ContextChunk{}, nil
	}

	var allowed map[string]bool
	if opts != nil && len(opts.SourceDocuments) > 0 {
		allowed = make(map[string]bool, len(opts.SourceDocuments))
		for _, doc := range opts.SourceDocuments {
			allowed[doc] = true
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]ContextChunk, 0, len(s.records))
	for _, r := range s.records {
		if allowed != nil && !allowed[r.Passage.SourceDocument] {
			continue
		}
		chunks = append(chunks, ContextChunk{
			PassageID:      r.Passage.ID,
			Text:           r.Passage.Text,
			SourceDocument: r.Passage.SourceDocument,
			SourceOffset:   r.Passage.SourceOffset,
			Sequence:       r.Passage.Sequence,
			Score:          cosineSimilarity(queryVector, r.Embedding),
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		return chunks[i].Sequence < chunks[j].Sequence
	})

	if topK < len(chunks) {
		chunks = chunks[:topK]
	}
	return chunks, nil
}

// Query reports which source documents already have indexed passages.
func (s *MemoryStore) Query(ctx context.Context, sourceDocuments []string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existenceMap := make(map[string]bool, len(sourceDocuments))
	for _, doc := range sourceDocuments {
		existenceMap[doc] = false
	}
	for _, r := range s.records {
		if _, ok := existenceMap[r.Passage.SourceDocument]; ok {
			existenceMap[r.Passage.SourceDocument] = true
		}
	}
	return existenceMap, nil
}

// Delete removes all passages belonging to the given source documents.
func (s *MemoryStore) Delete(ctx context.Context, sourceDocuments []string) error {
	if len(sourceDocuments) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(sourceDocuments))
	for _, doc := range sourceDocuments {
		drop[doc] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if !drop[r.Passage.SourceDocument] {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

// MaxSequence returns the highest stored ingestion sequence, -1 when empty.
func (s *MemoryStore) MaxSequence(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := int64(-1)
	for _, r := range s.records {
		if r.Passage.Sequence > max {
			max = r.Passage.Sequence
		}
	}
	return max, nil
}

// GetStats returns collection statistics.
func (s *MemoryStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"row_count": len(s.records),
	}, nil
}

// Close releases resources; a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// cosineSimilarity returns the cosine of the angle between a and b.
// Zero-norm vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
