package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Embedding errors. ErrEmbeddingFailed covers transport failures and
// malformed responses alike; callers only branch on whether embedding
// worked.
var (
	ErrEmptyTexts      = errors.New("no texts provided for embedding")
	ErrMissingAPIKey   = errors.New("missing OpenAI API key")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// EmbeddingRecord pairs an input text with its embedding vector.
type EmbeddingRecord struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
	Model     string    `json:"model"`
}

// Embedder turns passage and query texts into fixed-dimension vectors.
type Embedder interface {
	// Embed generates one embedding per input text, in input order.
	Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error)

	// GetModel returns the embedding model identifier
	GetModel() string

	// GetDimension returns the embedding vector dimension
	GetDimension() int
}

// OpenAIEmbedder implements Embedder using OpenAI's embeddings API.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates a new OpenAI embedder instance. The API key is
// passed in explicitly; the core never reads ambient process state.
func NewOpenAIEmbedder(apiKey, model string, dimension int) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return &OpenAIEmbedder{
		client:    client,
		model:     model,
		dimension: dimension,
	}, nil
}

// GetModel returns the embedding model identifier
func (e *OpenAIEmbedder) GetModel() string {
	return e.model
}

// GetDimension returns the embedding vector dimension
func (e *OpenAIEmbedder) GetDimension() int {
	return e.dimension
}

// Embed generates embeddings for the provided texts using OpenAI's API.
// Responses with a missing or wrong-dimension vector are rejected rather
// than stored; the vector store would misscore them silently.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:          e.model,
		Dimensions:     openai.Int(int64(e.dimension)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	vectors := make([][]float64, len(resp.Data))
	indices := make([]int, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = data.Embedding
		indices[i] = int(data.Index)
	}

	return buildEmbeddingRecords(texts, vectors, indices, e.model, e.dimension)
}

// buildEmbeddingRecords pairs each returned vector with its input text,
// narrowing float64 to float32 and checking count, index and dimension.
func buildEmbeddingRecords(texts []string, vectors [][]float64, indices []int, model string, dimension int) ([]EmbeddingRecord, error) {
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbeddingFailed, len(texts), len(vectors))
	}

	records := make([]EmbeddingRecord, len(vectors))
	for i, vector := range vectors {
		index := indices[i]
		if index < 0 || index >= len(texts) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrEmbeddingFailed, index)
		}
		if len(vector) != dimension {
			return nil, fmt.Errorf("%w: expected dimension %d, got %d for input %d", ErrEmbeddingFailed, dimension, len(vector), index)
		}

		embedding := make([]float32, len(vector))
		for j, val := range vector {
			embedding[j] = float32(val)
		}

		records[i] = EmbeddingRecord{
			Text:      texts[index],
			Embedding: embedding,
			Index:     index,
			Model:     model,
		}
	}

	return records, nil
}
