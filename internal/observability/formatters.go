// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/meucv/internal/completion"
	"github.com/jonathan/meucv/internal/i18n"
	"github.com/jonathan/meucv/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// barWidth is the width of progress bars
	barWidth = 30
)

// Printer handles formatted output for the CLI
type Printer struct {
	out    io.Writer
	locale i18n.Locale
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer, locale i18n.Locale) *Printer {
	return &Printer{out: out, locale: locale}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// bar draws a percentage as a fixed-width bar.
func bar(pct int) string {
	pct = max(0, min(100, pct))
	filled := pct * barWidth / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

// PrintCompletionReport outputs the score, label and the next things to fill in.
func (p *Printer) PrintCompletionReport(name string, report completion.Report) {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("%s\n\n", name))
	}
	sb.WriteString(fmt.Sprintf("%s %3d%%\n", bar(report.Score), report.Score))
	sb.WriteString(report.LabelText + "\n")
	sb.WriteString(report.Summary)

	if len(report.Missing) > 0 {
		sb.WriteString("\n\n")
		count := min(len(report.Missing), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", report.Missing[i].Message))
		}
		if len(report.Missing) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... +%d\n", len(report.Missing)-maxItemsToShow))
		}
	}

	p.printBox(strings.ToUpper(i18n.T(p.locale, i18n.ScoreTitle)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintProgress outputs the seven-step progress view.
func (p *Printer) PrintProgress(report completion.ProgressReport) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %3d%%\n", bar(report.Percentage), report.Percentage))
	sb.WriteString(report.Message + "\n")
	sb.WriteString(i18n.T(p.locale, i18n.ProgressBuckets, report.Completed, report.Total) + "\n\n")
	for _, step := range report.Steps {
		mark := "○"
		if step.Done {
			mark = "●"
		}
		sb.WriteString(fmt.Sprintf("  %s %s\n", mark, step.ID))
	}

	p.printBox(strings.ToUpper(i18n.T(p.locale, i18n.ProgressTitle)), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSavedCVs outputs the saved résumé list, most recent first.
func (p *Printer) PrintSavedCVs(list []types.SavedCV) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d\n", len(list)))

	count := min(len(list), maxItemsToShow)
	for i := 0; i < count; i++ {
		cv := list[i]
		mark := " "
		if cv.IsComplete {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("\n%s %s\n", mark, cv.Name))
		sb.WriteString(fmt.Sprintf("    %s · %s\n", cv.Template, cv.LastModified.Format("2006-01-02 15:04")))
		sb.WriteString(fmt.Sprintf("    %s\n", cv.ID))
	}
	if len(list) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... +%d\n", len(list)-maxItemsToShow))
	}

	p.printBox("MEUS CURRÍCULOS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintDocumentSummary outputs the header and section counts of a document.
func (p *Printer) PrintDocumentSummary(doc *types.CVData) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	name := doc.PersonalData.FullName
	if name == "" {
		name = i18n.T(p.locale, i18n.PreviewNoName)
	}
	sb.WriteString(name + "\n")
	if doc.PersonalData.Email != "" {
		sb.WriteString(doc.PersonalData.Email + "\n")
	}
	sb.WriteString("\n")

	counts := map[types.SectionKey]int{
		types.SectionExperience: len(doc.Experiences),
		types.SectionEducation:  len(doc.Education),
		types.SectionSkills:     len(doc.Skills),
		types.SectionLanguages:  len(doc.Languages),
	}
	for _, key := range doc.Order() {
		switch key {
		case types.SectionPersonal:
			continue
		case types.SectionProfile:
			sb.WriteString(fmt.Sprintf("  %-12s %d chars\n", key, utf8.RuneCountInString(doc.ProfessionalProfile.Summary)))
		default:
			sb.WriteString(fmt.Sprintf("  %-12s %d\n", key, counts[key]))
		}
	}
	sb.WriteString(fmt.Sprintf("\n%s · %s · %s", doc.Settings.Template, doc.Settings.AccentColor, doc.Settings.FontSize))

	p.printBox("CV", sb.String())
}
