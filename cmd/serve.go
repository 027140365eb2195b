package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/osler-labs/medcanvas/internal/config"
	"github.com/osler-labs/medcanvas/internal/orchestrator"
	"github.com/osler-labs/medcanvas/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prompt and image generation HTTP service",
	Long: `Start the HTTP service exposing the generation pipeline:

  POST /api/generate-prompt  {"system_instruction": "...", "user_question": "..."}
  POST /api/generate-image   {"prompt": "..."}
  GET  /images/{filename}
  GET  /healthz

Required environment variables:
  OPENAI_API_KEY                 - OpenAI API key for embeddings and the LLM
  GOOGLE_GENERATIVE_AI_API_KEY   - Gemini API key for image generation (optional;
                                   without it only prompt generation is served)
  MILVUS_ADDRESS                 - Milvus server address (default: localhost:19530)`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Secrets.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	pipeline, err := orchestrator.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Close()

	srv := server.New(pipeline, pipeline.Images())

	log.Printf("[Server] Listening on %s", cfg.Server.Addr)
	return http.ListenAndServe(cfg.Server.Addr, srv.Routes())
}
