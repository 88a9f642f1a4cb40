// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bobbyapp/cv-transformer/internal/schemas"
	"github.com/bobbyapp/cv-transformer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// FormatElapsed renders a wall-clock duration for progress display: plain
// seconds below a minute, "Xm SSs" from there on.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm %02ds", total/60, total%60)
}

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintDocumentSummary outputs a human-readable summary of a validated
// document: header, section list and node counts.
func (p *Printer) PrintDocumentSummary(doc *types.CVDocument) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title:    %s\n", doc.Header.Title))
	sb.WriteString(fmt.Sprintf("Summary:  %s\n", doc.Header.ExperienceSummary))
	sb.WriteString(fmt.Sprintf("Sections: %d, nodes: %d\n\n", len(doc.Sections), doc.CountNodes()))

	count := min(len(doc.Sections), maxItemsToShow)
	for i := 0; i < count; i++ {
		s := doc.Sections[i]
		sb.WriteString(fmt.Sprintf("  • %s (%s, %d entries)\n", s.Title, s.ID, len(s.Content)))
	}
	if len(doc.Sections) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(doc.Sections)-maxItemsToShow))
	}

	p.printBox("VALIDATED CV DOCUMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidationReport outputs every violation found by the validator, not
// just the truncated summary shown to users.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintValidationReport(ve *schemas.ValidationError) {
	if ve == nil || len(ve.Errors) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ DOCUMENT IS VALID")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d violations:\n\n", len(ve.Errors)))
	for i, fe := range ve.Errors {
		message := fe.Message
		if len(message) > 45 {
			message = message[:42] + "..."
		}
		sb.WriteString(fmt.Sprintf("⚠ %s\n", fe.Path))
		sb.WriteString(fmt.Sprintf("  %s\n", message))
		if i < len(ve.Errors)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("SCHEMA VIOLATIONS", sb.String())
}
