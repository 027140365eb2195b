package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/osler-labs/medcanvas/internal/config"
	"github.com/osler-labs/medcanvas/internal/orchestrator"
)

var (
	generateTopK        int
	generateMaxContext  int
	generateInstruction string
	generateImage       bool
	generateVerbose     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [question]",
	Short: "Generate an illustration prompt (and optionally an image) for a question",
	Long: `Generate a structured medical illustration prompt for a question using
retrieval-augmented generation, and optionally render it into an image.

Required environment variables:
  OPENAI_API_KEY                 - OpenAI API key for embeddings and the LLM
  GOOGLE_GENERATIVE_AI_API_KEY   - Gemini API key (only with --image)
  MILVUS_ADDRESS                 - Milvus server address (default: localhost:19530)

Examples:
  medcanvas generate "Pathophysiology of myocardial infarction"
  medcanvas generate "Hand anatomy with carpal bones" --image
  medcanvas generate "Pneumonia chest findings" --topk 3 --verbose`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().IntVar(&generateTopK, "topk", 0, "Number of passages to retrieve for context (0 = config value)")
	generateCmd.Flags().IntVar(&generateMaxContext, "max-context", 0, "Maximum context size in characters (0 = config value)")
	generateCmd.Flags().StringVar(&generateInstruction, "instruction", "", "Override the system instruction")
	generateCmd.Flags().BoolVar(&generateImage, "image", false, "Render the generated prompt into an image")
	generateCmd.Flags().BoolVar(&generateVerbose, "verbose", false, "Show detailed progress")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	question := args[0]
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Secrets.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}
	if generateImage && cfg.Secrets.GoogleAPIKey == "" {
		return fmt.Errorf("GOOGLE_GENERATIVE_AI_API_KEY environment variable is required with --image")
	}
	if generateTopK > 0 {
		cfg.Retrieval.TopK = generateTopK
	}
	if generateMaxContext > 0 {
		cfg.Retrieval.MaxContextChars = generateMaxContext
	}

	// Styling
	var (
		headerColor   = lipgloss.Color("#F780FF") // Bright pink
		questionColor = lipgloss.Color("#8BE9FD") // Cyan
		answerColor   = lipgloss.Color("#E9E9F4") // Light purple/white
		progressColor = lipgloss.Color("#6272A4") // Muted purple
		successColor  = lipgloss.Color("#50FA7B") // Green
	)

	headerStyle := lipgloss.NewStyle().
		Foreground(headerColor).
		Bold(true)

	questionStyle := lipgloss.NewStyle().
		Foreground(questionColor).
		Italic(true)

	answerStyle := lipgloss.NewStyle().
		Foreground(answerColor)

	progressStyle := lipgloss.NewStyle().
		Foreground(progressColor).
		Italic(true)

	successStyle := lipgloss.NewStyle().
		Foreground(successColor)

	fmt.Println()
	fmt.Println(headerStyle.Render("Question:"))
	fmt.Println(questionStyle.Render(question))
	fmt.Println()

	if generateVerbose {
		fmt.Println(progressStyle.Render("→ Initializing pipeline..."))
	}

	pipeline, err := orchestrator.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Close()

	if generateVerbose {
		fmt.Println(successStyle.Render("✓ Pipeline initialized"))
		fmt.Println(progressStyle.Render("→ Retrieving context and generating prompt..."))
	}

	promptText, err := pipeline.GeneratePrompt(ctx, generateInstruction, question)
	if err != nil {
		return fmt.Errorf("failed to generate prompt: %w", err)
	}

	fmt.Println(headerStyle.Render("Image Prompt:"))
	fmt.Println()
	fmt.Println(answerStyle.Render(strings.TrimSpace(promptText)))
	fmt.Println()

	if !generateImage {
		return nil
	}

	if generateVerbose {
		fmt.Println(progressStyle.Render("→ Rendering image..."))
	}

	img, err := pipeline.GenerateImage(ctx, promptText)
	if err != nil {
		fmt.Fprintln(os.Stderr, "image generation failed")
		return err
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Image saved to %s", img.Path)))
	return nil
}
