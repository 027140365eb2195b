package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func makePassages(doc string, count int) []Passage {
	passages := make([]Passage, count)
	for i := range passages {
		passages[i] = Passage{
			ID:             fmt.Sprintf("%s-%d", doc, i),
			Text:           fmt.Sprintf("passage %d of %s", i, doc),
			SourceDocument: doc,
			SourceOffset:   i * 100,
		}
	}
	return passages
}

func TestIndexPassages_EmptyInput(t *testing.T) {
	count, err := IndexPassages(context.Background(), nil, newMockEmbedder(3), &mockVectorStore{}, DefaultIndexOptions())
	if err != nil {
		t.Fatalf("IndexPassages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 indexed, got %d", count)
	}
}

func TestIndexPassages_BatchingAndSequence(t *testing.T) {
	store := &mockVectorStore{}
	passages := makePassages("anatomy.md", 5)

	opts := IndexOptions{BatchSize: 2, SkipExisting: false}
	count, err := IndexPassages(context.Background(), passages, newMockEmbedder(3), store, opts)
	if err != nil {
		t.Fatalf("IndexPassages: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5 indexed, got %d", count)
	}
	if len(store.inserted) != 3 {
		t.Fatalf("expected 3 insert batches, got %d", len(store.inserted))
	}
	if store.flushed != 1 {
		t.Fatalf("expected 1 flush, got %d", store.flushed)
	}

	// Sequence numbers must increase across batch boundaries.
	var seq int64
	for _, batch := range store.inserted {
		for _, r := range batch {
			if r.Passage.Sequence != seq {
				t.Fatalf("expected sequence %d, got %d", seq, r.Passage.Sequence)
			}
			seq++
		}
	}
}

func TestIndexPassages_SequenceContinuesAcrossRuns(t *testing.T) {
	store := &mockVectorStore{}
	opts := IndexOptions{BatchSize: 16, SkipExisting: false}

	if _, err := IndexPassages(context.Background(), makePassages("anatomy.md", 3), newMockEmbedder(3), store, opts); err != nil {
		t.Fatalf("first IndexPassages: %v", err)
	}
	if _, err := IndexPassages(context.Background(), makePassages("cardiology.md", 2), newMockEmbedder(3), store, opts); err != nil {
		t.Fatalf("second IndexPassages: %v", err)
	}

	var seq int64
	for _, batch := range store.inserted {
		for _, r := range batch {
			if r.Passage.Sequence != seq {
				t.Fatalf("expected sequence %d, got %d (sequences must not restart between runs)", seq, r.Passage.Sequence)
			}
			seq++
		}
	}
	if seq != 5 {
		t.Fatalf("expected 5 records across both runs, got %d", seq)
	}
}

func TestIndexPassages_SequenceSeedFailure(t *testing.T) {
	store := &mockVectorStore{
		maxSeqFunc: func(ctx context.Context) (int64, error) {
			return 0, errors.New("collection not loaded")
		},
	}

	opts := IndexOptions{BatchSize: 16, SkipExisting: false}
	if _, err := IndexPassages(context.Background(), makePassages("anatomy.md", 2), newMockEmbedder(3), store, opts); err == nil {
		t.Fatal("expected error when sequence seed cannot be read")
	}
}

func TestIndexPassages_SkipExisting(t *testing.T) {
	store := &mockVectorStore{
		queryFunc: func(ctx context.Context, sourceDocuments []string) (map[string]bool, error) {
			return map[string]bool{"anatomy.md": true, "cardiology.md": false}, nil
		},
	}

	passages := append(makePassages("anatomy.md", 3), makePassages("cardiology.md", 2)...)
	opts := IndexOptions{BatchSize: 16, SkipExisting: true}
	count, err := IndexPassages(context.Background(), passages, newMockEmbedder(3), store, opts)
	if err != nil {
		t.Fatalf("IndexPassages: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 indexed after skipping, got %d", count)
	}
	for _, batch := range store.inserted {
		for _, r := range batch {
			if r.Passage.SourceDocument != "cardiology.md" {
				t.Fatalf("indexed passage from skipped document %s", r.Passage.SourceDocument)
			}
		}
	}
}

func TestIndexPassages_ForceReindexDeletesFirst(t *testing.T) {
	store := &mockVectorStore{}
	passages := makePassages("anatomy.md", 3)

	opts := IndexOptions{BatchSize: 16, ForceReindex: true}
	count, err := IndexPassages(context.Background(), passages, newMockEmbedder(3), store, opts)
	if err != nil {
		t.Fatalf("IndexPassages: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 indexed, got %d", count)
	}
	if len(store.deleted) != 1 || store.deleted[0][0] != "anatomy.md" {
		t.Fatalf("expected delete of anatomy.md before reindex, got %v", store.deleted)
	}
}

func TestIndexPassages_EmbedFailure(t *testing.T) {
	embedder := newMockEmbedder(3)
	embedder.embedFunc = func(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
		return nil, errors.New("quota exceeded")
	}

	opts := IndexOptions{BatchSize: 16, SkipExisting: false}
	if _, err := IndexPassages(context.Background(), makePassages("anatomy.md", 2), embedder, &mockVectorStore{}, opts); err == nil {
		t.Fatal("expected error when embedding fails")
	}
}

func TestIndexPassages_InsertFailure(t *testing.T) {
	store := &mockVectorStore{
		insertFunc: func(ctx context.Context, records []PassageRecord) error {
			return errors.New("connection reset")
		},
	}

	opts := IndexOptions{BatchSize: 16, SkipExisting: false}
	if _, err := IndexPassages(context.Background(), makePassages("anatomy.md", 2), newMockEmbedder(3), store, opts); err == nil {
		t.Fatal("expected error when insert fails")
	}
}

func TestUniqueSourceDocuments(t *testing.T) {
	passages := append(makePassages("a.md", 2), makePassages("b.md", 1)...)
	passages = append(passages, makePassages("a.md", 1)...)

	docs := uniqueSourceDocuments(passages)
	if len(docs) != 2 || docs[0] != "a.md" || docs[1] != "b.md" {
		t.Fatalf("unexpected documents: %v", docs)
	}
}
