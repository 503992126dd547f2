// Package main provides the meucv command line: the editing API server and offline tools
// for scoring, validating and previewing résumé documents.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "meucv",
	Short:        "MeuCV résumé editor",
	Long:         "MeuCV edits a structured résumé with debounced autosave, a completion score and a live preview, over a REST API or from the command line.",
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
