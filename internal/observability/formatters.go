// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/job-tracker/internal/reconcile"
	"github.com/jonathan/job-tracker/internal/types"
	"github.com/jonathan/job-tracker/internal/view"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the detail views
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
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// PrintApplication outputs every set field of one record.
func (p *Printer) PrintApplication(app types.Application) {
	var sb strings.Builder

	field := func(label, value string) {
		if value != "" {
			sb.WriteString(fmt.Sprintf("%-10s%s\n", label+":", value))
		}
	}
	field("ID", app.ID)
	field("Company", strings.TrimSpace(app.Emoji+" "+app.Company))
	field("Position", app.Position)
	field("Team", app.Team)
	field("Stage", string(app.CurrentStage))
	field("Round", string(app.RoundType))
	field("Applied", app.AppliedDate)
	field("Offered", app.OfferedDate)
	field("Due", app.DueDate)
	field("Verdict", string(app.FinalVerdict.Display()))

	if notes := strings.TrimSpace(app.Notes); notes != "" {
		sb.WriteString("\nNotes:\n")
		lines := strings.Split(notes, "\n")
		count := min(len(lines), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  %s\n", lines[i]))
		}
		if len(lines) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more lines\n", len(lines)-maxItemsToShow))
		}
	}

	p.printBox(strings.ToUpper(app.Title()), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintState outputs the connection summary.
func (p *Printer) PrintState(state reconcile.State) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status:       %s\n", state.Status))
	sb.WriteString(fmt.Sprintf("Sync:         %s\n", state.Sync))
	if state.FileID != "" {
		sb.WriteString(fmt.Sprintf("Document:     %s\n", state.FileID))
	}
	sb.WriteString(fmt.Sprintf("Applications: %d\n", len(state.Applications)))

	if state.LastError != "" {
		sb.WriteString(fmt.Sprintf("\n⚠ %s\n", state.LastError))
	}

	p.printBox("JOB TRACKER", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintGroups outputs the size of each group and its first few titles.
func (p *Printer) PrintGroups(title string, groups []view.Group) {
	if len(groups) == 0 {
		return
	}

	var sb strings.Builder
	for i, g := range groups {
		sb.WriteString(fmt.Sprintf("%s (%d)\n", g.Key, len(g.Applications)))
		count := min(len(g.Applications), maxItemsToShow)
		for j := 0; j < count; j++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", g.Applications[j].Title()))
		}
		if len(g.Applications) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(g.Applications)-maxItemsToShow))
		}
		if i < len(groups)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}
