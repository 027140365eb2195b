// Package config loads the application configuration from YAML with
// defaults, overlaying secrets and connection addresses from the
// environment. Core packages never read ambient process state themselves;
// everything reaches them through explicit config values.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	ImagesDir string `yaml:"images_dir"`
}

// StoreConfig selects and configures the vector store implementation.
type StoreConfig struct {
	// Kind is "milvus" or "memory".
	Kind   string       `yaml:"kind"`
	Milvus MilvusConfig `yaml:"milvus"`
}

// MilvusConfig contains connection details for a Milvus vector store.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
}

// EmbedderConfig configures the embedding client.
type EmbedderConfig struct {
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// LLMConfig configures the prompt-construction LLM.
type LLMConfig struct {
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// ImageConfig configures the image generation model.
type ImageConfig struct {
	Model string `yaml:"model"`
}

// RetrievalConfig configures top-K search and prompt assembly.
type RetrievalConfig struct {
	TopK            int `yaml:"top_k"`
	MaxContextChars int `yaml:"max_context_chars"`
}

// ChunkingConfig configures document splitting at ingestion time.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// Secrets are taken from the environment, never from the YAML file.
type Secrets struct {
	OpenAIAPIKey string `yaml:"-"`
	GoogleAPIKey string `yaml:"-"`
	GitHubToken  string `yaml:"-"`
}

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Image     ImageConfig     `yaml:"image"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Secrets   Secrets         `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      ":5001",
			ImagesDir: "generated_images",
		},
		Store: StoreConfig{
			Kind: "milvus",
			Milvus: MilvusConfig{
				Address:    "localhost:19530",
				Collection: "medcanvas_passages",
			},
		},
		Embedder: EmbedderConfig{
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o",
			Temperature: 0.1,
			MaxTokens:   2000,
		},
		Image: ImageConfig{
			Model: "gemini-3-pro-image-preview",
		},
		Retrieval: RetrievalConfig{
			TopK:            6,
			MaxContextChars: 6000,
		},
		Chunking: ChunkingConfig{
			ChunkSize: 1500,
			Overlap:   200,
		},
	}
}

// Load reads a config file and overlays the environment. A missing file is
// not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	applyDefaults(cfg)
	overlayEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks parameters that would otherwise fail deep inside the
// pipeline.
func (c *Config) Validate() error {
	switch c.Store.Kind {
	case "milvus", "memory":
	default:
		return fmt.Errorf("%w: unknown store kind %q", ErrInvalidConfig, c.Store.Kind)
	}
	if c.Embedder.Dimension <= 0 {
		return fmt.Errorf("%w: embedder dimension must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", ErrInvalidConfig)
	}
	if c.Retrieval.MaxContextChars <= 0 {
		return fmt.Errorf("%w: max_context_chars must be positive", ErrInvalidConfig)
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive", ErrInvalidConfig)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, chunk_size)", ErrInvalidConfig)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.ImagesDir == "" {
		cfg.Server.ImagesDir = def.Server.ImagesDir
	}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = def.Store.Kind
	}
	if cfg.Store.Milvus.Address == "" {
		cfg.Store.Milvus.Address = def.Store.Milvus.Address
	}
	if cfg.Store.Milvus.Collection == "" {
		cfg.Store.Milvus.Collection = def.Store.Milvus.Collection
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = def.Embedder.Model
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = def.Embedder.Dimension
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = def.LLM.Model
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = def.LLM.MaxTokens
	}
	if cfg.Image.Model == "" {
		cfg.Image.Model = def.Image.Model
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = def.Retrieval.TopK
	}
	if cfg.Retrieval.MaxContextChars == 0 {
		cfg.Retrieval.MaxContextChars = def.Retrieval.MaxContextChars
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = def.Chunking.ChunkSize
	}
}

func overlayEnv(cfg *Config) {
	cfg.Secrets.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Secrets.GoogleAPIKey = os.Getenv("GOOGLE_GENERATIVE_AI_API_KEY")
	cfg.Secrets.GitHubToken = os.Getenv("GITHUB_TOKEN")

	if addr := os.Getenv("MILVUS_ADDRESS"); addr != "" {
		cfg.Store.Milvus.Address = addr
	}
	if collection := os.Getenv("MILVUS_COLLECTION"); collection != "" {
		cfg.Store.Milvus.Collection = collection
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
}
