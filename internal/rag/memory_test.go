package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func newTestStore(t *testing.T, dim int) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(dim)
	if err != nil {
		t.Fatalf("NewMemoryStore: %v", err)
	}
	return store
}

func record(id, doc string, seq int64, vec []float32) PassageRecord {
	return PassageRecord{
		Passage: Passage{
			ID:             id,
			Text:           "text " + id,
			SourceDocument: doc,
			Sequence:       seq,
		},
		Embedding: vec,
	}
}

func TestNewMemoryStore_InvalidDimension(t *testing.T) {
	if _, err := NewMemoryStore(0); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestMemoryStore_InsertValidation(t *testing.T) {
	store := newTestStore(t, 3)
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, ErrEmptyRecords) {
		t.Fatalf("expected ErrEmptyRecords, got %v", err)
	}

	bad := []PassageRecord{record("p1", "d", 0, []float32{1, 2})}
	if err := store.Insert(ctx, bad); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestMemoryStore_SearchRanking(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	records := []PassageRecord{
		record("exact", "d", 0, []float32{1, 0}),
		record("orthogonal", "d", 1, []float32{0, 1}),
		record("diagonal", "d", 2, []float32{1, 1}),
	}
	if err := store.Insert(ctx, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	chunks, err := store.Search(ctx, []float32{1, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].PassageID != "exact" {
		t.Fatalf("expected exact match first, got %s", chunks[0].PassageID)
	}
	if chunks[1].PassageID != "diagonal" {
		t.Fatalf("expected diagonal second, got %s", chunks[1].PassageID)
	}
	if chunks[0].Score < chunks[1].Score {
		t.Fatal("scores not descending")
	}
}

func TestMemoryStore_SearchDimensionMismatch(t *testing.T) {
	store := newTestStore(t, 3)
	if _, err := store.Search(context.Background(), []float32{1, 0}, 5, nil); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("expected ErrInvalidDimension, got %v", err)
	}
}

func TestMemoryStore_SearchTieBreakBySequence(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	// Identical vectors, identical scores; ingestion sequence decides.
	records := []PassageRecord{
		record("later", "d", 9, []float32{1, 0}),
		record("earlier", "d", 2, []float32{1, 0}),
	}
	if err := store.Insert(ctx, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	chunks, err := store.Search(ctx, []float32{1, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if chunks[0].PassageID != "earlier" || chunks[1].PassageID != "later" {
		t.Fatalf("tie not broken by sequence: got %s, %s", chunks[0].PassageID, chunks[1].PassageID)
	}
}

func TestMemoryStore_SearchSourceFilter(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	records := []PassageRecord{
		record("a1", "anatomy.md", 0, []float32{1, 0}),
		record("c1", "cardiology.md", 1, []float32{1, 0}),
	}
	if err := store.Insert(ctx, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	chunks, err := store.Search(ctx, []float32{1, 0}, 10, &SearchOptions{SourceDocuments: []string{"anatomy.md"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(chunks) != 1 || chunks[0].PassageID != "a1" {
		t.Fatalf("filter not applied: %+v", chunks)
	}
}

func TestMemoryStore_QueryAndDelete(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	records := []PassageRecord{
		record("a1", "anatomy.md", 0, []float32{1, 0}),
		record("a2", "anatomy.md", 1, []float32{0, 1}),
		record("c1", "cardiology.md", 2, []float32{1, 1}),
	}
	if err := store.Insert(ctx, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	existence, err := store.Query(ctx, []string{"anatomy.md", "missing.md"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !existence["anatomy.md"] || existence["missing.md"] {
		t.Fatalf("unexpected existence map: %v", existence)
	}

	if err := store.Delete(ctx, []string{"anatomy.md"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats["row_count"] != 1 {
		t.Fatalf("expected 1 remaining record, got %v", stats["row_count"])
	}

	chunks, err := store.Search(ctx, []float32{1, 0}, 10, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(chunks) != 1 || chunks[0].SourceDocument != "cardiology.md" {
		t.Fatalf("deletion incomplete: %+v", chunks)
	}
}

func TestMemoryStore_TopKNeverExceeded(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	var records []PassageRecord
	for i := 0; i < 20; i++ {
		records = append(records, record(fmt.Sprintf("p%d", i), "d", int64(i), []float32{1, float32(i)}))
	}
	if err := store.Insert(ctx, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	chunks, err := store.Search(ctx, []float32{1, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
}

func TestMemoryStore_MaxSequence(t *testing.T) {
	store := newTestStore(t, 2)
	ctx := context.Background()

	max, err := store.MaxSequence(ctx)
	if err != nil {
		t.Fatalf("MaxSequence: %v", err)
	}
	if max != -1 {
		t.Fatalf("expected -1 for empty store, got %d", max)
	}

	records := []PassageRecord{
		record("a", "d", 3, []float32{1, 0}),
		record("b", "d", 7, []float32{0, 1}),
	}
	if err := store.Insert(ctx, records); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	max, err = store.MaxSequence(ctx)
	if err != nil {
		t.Fatalf("MaxSequence: %v", err)
	}
	if max != 7 {
		t.Fatalf("expected 7, got %d", max)
	}
}

func TestCosineSimilarity_ZeroNorm(t *testing.T) {
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 0}); got != 0 {
		t.Fatalf("expected 0 for zero-norm vector, got %f", got)
	}
}
