package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/meucv/internal/completion"
	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/observability"
	"github.com/jonathan/meucv/internal/resume"
	"github.com/jonathan/meucv/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var scoreCmd = &cobra.Command{
	Use:   "score <file>...",
	Short: "Score résumé documents",
	Long:  "Computes the completion score, label and missing-item hints of one or more résumé JSON files.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScore,
}

var (
	scoreLocale   string
	scoreMaxHints int
	scoreJSON     bool
	scoreProgress bool
	scoreWorkers  int
)

func init() {
	scoreCmd.Flags().StringVarP(&scoreLocale, "lang", "l", "pt", "Language of labels and hints (pt or en)")
	scoreCmd.Flags().IntVar(&scoreMaxHints, "hints", completion.DefaultMaxHints, "Maximum hints per report (0 for all)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Print reports as JSON")
	scoreCmd.Flags().BoolVar(&scoreProgress, "progress", false, "Also print the seven-step progress")
	scoreCmd.Flags().IntVar(&scoreWorkers, "workers", 4, "Files scored concurrently")
	rootCmd.AddCommand(scoreCmd)
}

// ScoredFile is the outcome of scoring one file.
type ScoredFile struct {
	Path     string                     `json:"path"`
	Name     string                     `json:"name"`
	Report   completion.Report          `json:"report"`
	Progress *completion.ProgressReport `json:"progress,omitempty"`
}

func readDocument(path string) (*types.CVData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("résumé file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := resume.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// scoreFiles scores every path, keeping the input order.
func scoreFiles(cmd *cobra.Command, paths []string, opts completion.Options, withProgress bool) ([]ScoredFile, error) {
	results := make([]ScoredFile, len(paths))

	g, gctx := errgroup.WithContext(cmd.Context())
	if scoreWorkers > 0 {
		g.SetLimit(scoreWorkers)
	}
	for i, path := range paths {
		g.Go(func() error {
			// Stop once another file has failed or the command was cancelled.
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := readDocument(path)
			if err != nil {
				return err
			}
			name := doc.PersonalData.FullName
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			results[i] = ScoredFile{Path: path, Name: name, Report: completion.Score(doc, opts)}
			if withProgress {
				p := completion.Progress(doc, opts.Locale)
				results[i].Progress = &p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runScore(cmd *cobra.Command, args []string) error {
	if scoreMaxHints < 0 {
		return fmt.Errorf("--hints must be zero or positive")
	}
	locale := i18n.Parse(scoreLocale)

	results, err := scoreFiles(cmd, args, completion.Options{MaxHints: scoreMaxHints, Locale: locale}, scoreProgress)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scoreJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	printer := observability.NewPrinter(out, locale)
	for _, r := range results {
		printer.PrintCompletionReport(r.Name, r.Report)
		if r.Progress != nil {
			printer.PrintProgress(*r.Progress)
		}
	}
	return nil
}
