package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osler-labs/medcanvas/internal/config"
	"github.com/osler-labs/medcanvas/internal/ingest"
	"github.com/osler-labs/medcanvas/internal/orchestrator"
	"github.com/osler-labs/medcanvas/internal/rag"
)

var (
	ingestReindex   bool
	ingestBatchSize int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source]",
	Short: "Index a knowledge base into the vector store",
	Long: `Chunk, embed and index a document corpus for retrieval.

The source can be a local file or directory (.md/.txt), a git repository
URL, or a GitHub owner/repo shorthand.

Examples:
  medcanvas ingest ./corpus
  medcanvas ingest https://github.com/org/medical-notes
  medcanvas ingest org/medical-notes --reindex`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestReindex, "reindex", false, "Delete and re-index documents that are already indexed")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 16, "Number of passages to embed per API call")
}

func runIngest(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Secrets.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	docs, err := ingest.Load(ctx, source, cfg.Secrets.GitHubToken)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}
	if len(docs) == 0 {
		return fmt.Errorf("no text documents found in %s", source)
	}
	fmt.Printf("Loaded %d documents from %s\n", len(docs), source)

	pipeline, err := orchestrator.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Close()

	opts := rag.IndexOptions{
		BatchSize:    ingestBatchSize,
		ForceReindex: ingestReindex,
		SkipExisting: !ingestReindex,
	}

	indexed, err := pipeline.IngestDocuments(ctx, docs, opts)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("Indexed %d passages\n", indexed)
	return nil
}
