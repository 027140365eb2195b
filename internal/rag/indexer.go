package rag

import (
	"context"
	"fmt"
	"log"
)

// IndexPassages embeds passages in batches and stores them in the vector
// store. Passages are expected to arrive in document order; each is assigned
// a monotonically increasing sequence number used as the retrieval tie-break.
//
// With SkipExisting, passages from documents that already have indexed
// records are dropped. With ForceReindex, each incoming document's existing
// records are deleted first.
func IndexPassages(
	ctx context.Context,
	passages []Passage,
	embedder Embedder,
	vectorStore VectorStore,
	opts IndexOptions,
) (int, error) {
	if len(passages) == 0 {
		return 0, nil
	}
	if embedder == nil {
		return 0, fmt.Errorf("embedder cannot be nil")
	}
	if vectorStore == nil {
		return 0, fmt.Errorf("vector store cannot be nil")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultIndexOptions().BatchSize
	}

	documents := uniqueSourceDocuments(passages)

	if opts.ForceReindex {
		if err := vectorStore.Delete(ctx, documents); err != nil {
			return 0, fmt.Errorf("failed to delete existing passages: %w", err)
		}
	}

	toIndex := passages
	if opts.SkipExisting && !opts.ForceReindex {
		existing, err := vectorStore.Query(ctx, documents)
		if err != nil {
			return 0, fmt.Errorf("failed to check existing documents: %w", err)
		}
		toIndex = make([]Passage, 0, len(passages))
		for _, p := range passages {
			if !existing[p.SourceDocument] {
				toIndex = append(toIndex, p)
			}
		}
		if skipped := len(passages) - len(toIndex); skipped > 0 {
			log.Printf("[Indexer] Skipping %d passages from already-indexed documents", skipped)
		}
	}

	if len(toIndex) == 0 {
		return 0, nil
	}

	// Continue the counter where the store left off, so sequences stay
	// strictly increasing across separate ingestion runs.
	maxSeq, err := vectorStore.MaxSequence(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read max sequence: %w", err)
	}

	sequence := maxSeq + 1
	for batchStart := 0; batchStart < len(toIndex); batchStart += opts.BatchSize {
		batchEnd := batchStart + opts.BatchSize
		if batchEnd > len(toIndex) {
			batchEnd = len(toIndex)
		}

		batch := toIndex[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.Text
		}

		embeddingRecords, err := embedder.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("failed to generate embeddings for batch starting at %d: %w", batchStart, err)
		}
		if len(embeddingRecords) != len(batch) {
			return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(embeddingRecords))
		}

		records := make([]PassageRecord, len(batch))
		for i, p := range batch {
			p.Sequence = sequence
			sequence++
			records[i] = PassageRecord{
				Passage:   p,
				Embedding: embeddingRecords[i].Embedding,
			}
		}

		if err := vectorStore.Insert(ctx, records); err != nil {
			return 0, fmt.Errorf("failed to insert batch starting at %d: %w", batchStart, err)
		}
	}

	if err := vectorStore.Flush(ctx); err != nil {
		return 0, fmt.Errorf("failed to flush vector store: %w", err)
	}

	return len(toIndex), nil
}

// uniqueSourceDocuments returns document names in first-seen order.
func uniqueSourceDocuments(passages []Passage) []string {
	seen := make(map[string]struct{})
	var docs []string
	for _, p := range passages {
		if _, ok := seen[p.SourceDocument]; ok {
			continue
		}
		seen[p.SourceDocument] = struct{}{}
		docs = append(docs, p.SourceDocument)
	}
	return docs
}
