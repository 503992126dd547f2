package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/rendering"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the preview of a résumé document",
	Long:  "Renders a résumé JSON file as plain text or Markdown, in its section order.",
	RunE:  runPreview,
}

var (
	previewInput    string
	previewOutput   string
	previewFormat   string
	previewLocale   string
	previewTemplate string
)

func init() {
	previewCmd.Flags().StringVarP(&previewInput, "in", "i", "", "Path to résumé JSON file (required)")
	previewCmd.Flags().StringVarP(&previewOutput, "out", "o", "", "Path to output file (default stdout)")
	previewCmd.Flags().StringVarP(&previewFormat, "format", "f", "text", "Output format: text or markdown")
	previewCmd.Flags().StringVarP(&previewLocale, "lang", "l", "pt", "Language of headings and dates (pt or en)")
	previewCmd.Flags().StringVarP(&previewTemplate, "template", "t", "", "Path to a custom preview template")

	if err := previewCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, _ []string) error {
	doc, err := readDocument(previewInput)
	if err != nil {
		return err
	}

	out, err := rendering.Render(doc, rendering.Options{
		Locale:       i18n.Parse(previewLocale),
		Format:       rendering.ParseFormat(previewFormat),
		TemplatePath: previewTemplate,
	})
	if err != nil {
		return fmt.Errorf("failed to render preview: %w", err)
	}

	if previewOutput == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}

	if dir := filepath.Dir(previewOutput); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(previewOutput, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Successfully rendered preview to %s\n", previewOutput)
	return nil
}
