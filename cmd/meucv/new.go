package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/observability"
	"github.com/jonathan/meucv/internal/types"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Write an empty résumé document",
	Long:  "Writes the default empty résumé document, optionally with a chosen template, accent colour and owner name.",
	RunE:  runNew,
}

var (
	newOutput   string
	newTemplate string
	newAccent   string
	newName     string
	newForce    bool
)

func init() {
	newCmd.Flags().StringVarP(&newOutput, "out", "o", "", "Path to output JSON file (required)")
	newCmd.Flags().StringVarP(&newTemplate, "template", "t", string(types.TemplateModern), "Template: modern, classic or minimal")
	newCmd.Flags().StringVar(&newAccent, "accent", "", "Accent colour, #rrggbb")
	newCmd.Flags().StringVar(&newName, "name", "", "Full name to start with")
	newCmd.Flags().BoolVar(&newForce, "force", false, "Overwrite an existing file")

	if err := newCmd.MarkFlagRequired("out"); err != nil {
		panic(fmt.Sprintf("failed to mark out flag as required: %v", err))
	}

	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, _ []string) error {
	doc := types.DefaultCVData()
	doc.PersonalData.FullName = newName
	doc.Settings.Template = types.Template(newTemplate)
	if newAccent != "" {
		doc.Settings.AccentColor = newAccent
	}
	if err := doc.Settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if !newForce {
		if _, err := os.Stat(newOutput); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", newOutput)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if dir := filepath.Dir(newOutput); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(newOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	observability.NewPrinter(cmd.OutOrStdout(), i18n.Default).PrintDocumentSummary(doc)
	fmt.Fprintf(cmd.OutOrStdout(), "Successfully wrote %s\n", newOutput)
	return nil
}
