package rag

import (
	"context"
	"fmt"
)

// Retriever provides high-level semantic retrieval over indexed passages.
// It does not retry failed embedding or search calls; transient failures
// surface as ErrRetrievalUnavailable and callers decide how to proceed.
type Retriever struct {
	embedder    Embedder
	vectorStore VectorStore
}

// NewRetriever creates a new Retriever instance.
func NewRetriever(embedder Embedder, vectorStore VectorStore) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if vectorStore == nil {
		return nil, fmt.Errorf("vector store cannot be nil")
	}

	return &Retriever{
		embedder:    embedder,
		vectorStore: vectorStore,
	}, nil
}

// RetrieveContextForQuery performs semantic search using a free-text query.
// Zero results is not an error; the returned slice is simply empty.
func (r *Retriever) RetrieveContextForQuery(
	ctx context.Context,
	query string,
	topK int,
	opts *SearchOptions,
) ([]ContextChunk, error) {
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	embeddingRecords, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to embed query: %v", ErrRetrievalUnavailable, err)
	}
	if len(embeddingRecords) == 0 {
		return nil, fmt.Errorf("%w: no embedding generated for query", ErrRetrievalUnavailable)
	}

	queryVector := embeddingRecords[0].Embedding

	chunks, err := r.vectorStore.Search(ctx, queryVector, topK, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: search failed: %v", ErrRetrievalUnavailable, err)
	}

	return chunks, nil
}

// RetrieveFromDocuments is a convenience wrapper that restricts retrieval
// to the given source documents.
func (r *Retriever) RetrieveFromDocuments(
	ctx context.Context,
	query string,
	topK int,
	sourceDocuments []string,
) ([]ContextChunk, error) {
	opts := &SearchOptions{}
	if len(sourceDocuments) > 0 {
		opts.SourceDocuments = sourceDocuments
	}
	return r.RetrieveContextForQuery(ctx, query, topK, opts)
}
