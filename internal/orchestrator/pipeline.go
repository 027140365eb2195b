// Package orchestrator wires the retrieval, prompt-construction and
// generation stages into an end-to-end pipeline. Each request runs a single
// blocking sequence (embed, search, construct, generate); the pipeline holds
// no per-request mutable state, so concurrent requests are independent.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/osler-labs/medcanvas/internal/chunker"
	"github.com/osler-labs/medcanvas/internal/config"
	"github.com/osler-labs/medcanvas/internal/generate"
	"github.com/osler-labs/medcanvas/internal/imagestore"
	"github.com/osler-labs/medcanvas/internal/ingest"
	"github.com/osler-labs/medcanvas/internal/prompt"
	"github.com/osler-labs/medcanvas/internal/rag"
)

// GeneratedImage describes a stored generation result.
type GeneratedImage struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Pipeline orchestrates ingestion, retrieval-augmented prompt construction
// and image generation.
type Pipeline struct {
	cfg       *config.Config
	embedder  rag.Embedder
	store     rag.VectorStore
	retriever *rag.Retriever
	builder   *prompt.Builder
	llm       generate.LLM
	imager    generate.ImageGenerator
	images    *imagestore.Store
}

// New creates a Pipeline from configuration, constructing the real
// collaborators (OpenAI embedder and LLM, Milvus or memory store, Gemini
// image generator).
func New(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	embedder, err := rag.NewOpenAIEmbedder(cfg.Secrets.OpenAIAPIKey, cfg.Embedder.Model, cfg.Embedder.Dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	var store rag.VectorStore
	switch cfg.Store.Kind {
	case "memory":
		store, err = rag.NewMemoryStore(cfg.Embedder.Dimension)
	default:
		milvusCfg := rag.DefaultMilvusConfig()
		milvusCfg.Address = cfg.Store.Milvus.Address
		milvusCfg.CollectionName = cfg.Store.Milvus.Collection
		milvusCfg.Dimension = cfg.Embedder.Dimension
		store, err = rag.NewMilvusStore(ctx, milvusCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	llm, err := generate.NewOpenAILLM(generate.LLMConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		APIKey:      cfg.Secrets.OpenAIAPIKey,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create LLM: %w", err)
	}

	var imager generate.ImageGenerator
	if cfg.Secrets.GoogleAPIKey != "" {
		imager, err = generate.NewGeminiImageGenerator(ctx, generate.ImageConfig{
			Model:  cfg.Image.Model,
			APIKey: cfg.Secrets.GoogleAPIKey,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create image generator: %w", err)
		}
	}

	images, err := imagestore.New(cfg.Server.ImagesDir)
	if err != nil {
		store.Close()
		return nil, err
	}

	return NewFromComponents(cfg, embedder, store, llm, imager, images)
}

// NewFromComponents assembles a Pipeline from pre-built collaborators.
// Used by New and by tests that substitute mocks.
func NewFromComponents(
	cfg *config.Config,
	embedder rag.Embedder,
	store rag.VectorStore,
	llm generate.LLM,
	imager generate.ImageGenerator,
	images *imagestore.Store,
) (*Pipeline, error) {
	retriever, err := rag.NewRetriever(embedder, store)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	builder, err := prompt.NewBuilder("", cfg.Retrieval.MaxContextChars)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompt builder: %w", err)
	}

	return &Pipeline{
		cfg:       cfg,
		embedder:  embedder,
		store:     store,
		retriever: retriever,
		builder:   builder,
		llm:       llm,
		imager:    imager,
		images:    images,
	}, nil
}

// Close releases resources held by the pipeline.
func (p *Pipeline) Close() error {
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

// Images exposes the image store for HTTP serving.
func (p *Pipeline) Images() *imagestore.Store {
	return p.images
}

// IngestDocuments chunks and indexes documents into the vector store.
// Returns the number of passages indexed.
func (p *Pipeline) IngestDocuments(ctx context.Context, docs []ingest.Document, opts rag.IndexOptions) (int, error) {
	log.Printf("[Pipeline] Ingesting %d documents", len(docs))

	chunkCfg := chunker.Config{
		ChunkSize: p.cfg.Chunking.ChunkSize,
		Overlap:   p.cfg.Chunking.Overlap,
	}

	var passages []rag.Passage
	for _, doc := range docs {
		split, err := chunker.Split(doc.Name, doc.Text, chunkCfg)
		if err != nil {
			return 0, fmt.Errorf("failed to chunk %s: %w", doc.Name, err)
		}
		passages = append(passages, split...)
	}
	log.Printf("[Pipeline] Produced %d passages", len(passages))

	indexed, err := rag.IndexPassages(ctx, passages, p.embedder, p.store, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to index passages: %w", err)
	}
	log.Printf("[Pipeline] Indexed %d passages", indexed)

	return indexed, nil
}

// GeneratePrompt runs the retrieval-augmented prompt construction pipeline:
// extract a retrieval query, retrieve top-K passages, assemble the
// construction prompt under the context budget, and ask the LLM for the
// final image prompt under the given system instruction.
//
// Retrieval failures do not abort the request: the pipeline logs them and
// proceeds with an empty context block. Generation failures propagate.
func (p *Pipeline) GeneratePrompt(ctx context.Context, systemInstruction, question string) (string, error) {
	if systemInstruction == "" {
		systemInstruction = prompt.DefaultSystemInstruction
	}

	// Stage 1: distill the question into a retrieval query. Extraction is
	// an optimization; on failure the raw question is embedded instead.
	retrievalQuery, err := p.llm.Generate(ctx, prompt.ExtractionInstruction, question)
	if err != nil || retrievalQuery == "" {
		log.Printf("[Pipeline] Query extraction failed, using raw question: %v", err)
		retrievalQuery = question
	}

	// Stage 2: top-K retrieval. The retriever fails loudly; the pipeline is
	// the caller that decides to degrade to direct generation.
	chunks, err := p.retriever.RetrieveContextForQuery(ctx, retrievalQuery, p.cfg.Retrieval.TopK, nil)
	if err != nil {
		log.Printf("[Pipeline] Retrieval unavailable, generating without context: %v", err)
		chunks = nil
	}
	log.Printf("[Pipeline] Retrieved %d context passages", len(chunks))

	// Stage 3: assemble the construction prompt within the context budget.
	constructionPrompt, err := p.builder.Build(question, chunks)
	if err != nil {
		return "", fmt.Errorf("prompt assembly failed: %w", err)
	}

	// Stage 4: generate the final image prompt.
	final, err := p.llm.Generate(ctx, systemInstruction, constructionPrompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", generate.ErrGenerationFailed, err)
	}
	log.Printf("[Pipeline] Generated image prompt (%d characters)", len(final))

	return final, nil
}

// GenerateImage renders the prompt with the image model and stores the
// result, returning its filename.
func (p *Pipeline) GenerateImage(ctx context.Context, imagePrompt string) (*GeneratedImage, error) {
	if p.imager == nil {
		return nil, fmt.Errorf("%w: image generator not configured", generate.ErrInvalidConfig)
	}

	data, err := p.imager.Generate(ctx, imagePrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", generate.ErrGenerationFailed, err)
	}

	filename, err := p.images.Save(data)
	if err != nil {
		return nil, err
	}
	log.Printf("[Pipeline] Saved generated image %s", filename)

	return &GeneratedImage{
		Filename: filename,
		Path:     filepath.Join(p.images.Dir(), filename),
	}, nil
}
