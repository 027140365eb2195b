package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "medcanvas",
	Short: "medcanvas - RAG-grounded medical illustration prompt generator",
	Long: `Medcanvas turns short medical questions into detailed, clinically
grounded image-generation prompts and renders them into illustrations.

It retrieves high-yield reference passages from a vector store, assembles
them with the user's request into a construction prompt, asks an LLM for a
structured illustration prompt, and optionally sends that prompt to an
image model.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML configuration file")
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
