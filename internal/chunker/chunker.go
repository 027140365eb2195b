// Package chunker splits source documents into bounded-size passages with
// optional overlap. Splitting is pure: no side effects beyond constructing
// passage values.
package chunker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/osler-labs/medcanvas/internal/rag"
)

// ErrInvalidChunking indicates bad chunking parameters. It is fatal and
// rejected before any processing happens.
var ErrInvalidChunking = errors.New("invalid chunking configuration")

// Config holds chunking parameters. Sizes are in characters (runes).
type Config struct {
	ChunkSize int // maximum passage length
	Overlap   int // shared characters between consecutive passages
}

// DefaultConfig mirrors the ingestion defaults used for the reference
// medical corpus.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 1500,
		Overlap:   200,
	}
}

// Validate checks the chunking parameters.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be non-negative, got %d", ErrInvalidChunking, c.Overlap)
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidChunking, c.Overlap, c.ChunkSize)
	}
	return nil
}

// Split divides a document into passages covering it with no gaps,
// consecutive passages overlapping by exactly cfg.Overlap characters.
// An empty document yields an empty slice, not an error.
func Split(sourceDocument, text string, cfg Config) ([]rag.Passage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := cfg.ChunkSize - cfg.Overlap
	var passages []rag.Passage

	for start := 0; ; start += step {
		end := start + cfg.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}

		passages = append(passages, rag.Passage{
			ID:             uuid.NewString(),
			Text:           string(runes[start:end]),
			SourceDocument: sourceDocument,
			SourceOffset:   start,
		})

		if end == len(runes) {
			break
		}
	}

	return passages, nil
}

// Reassemble reconstructs the original document from passages produced by
// Split with the same configuration. Used to verify coverage.
func Reassemble(passages []rag.Passage, cfg Config) string {
	if len(passages) == 0 {
		return ""
	}

	out := []rune(passages[0].Text)
	for _, p := range passages[1:] {
		runes := []rune(p.Text)
		if len(runes) <= cfg.Overlap {
			// Fully contained in the previous passage's tail.
			continue
		}
		out = append(out, runes[cfg.Overlap:]...)
	}
	return string(out)
}
