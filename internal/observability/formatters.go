// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/gigfeed/internal/ingest"
	"github.com/jonathan/gigfeed/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

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
		line = ellipsize(line, boxWidth-4)
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintQueryPlans outputs the planned queries before a run starts.
func (p *Printer) PrintQueryPlans(plans []types.PlannedQuery) {
	if len(plans) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Planned queries: %d\n\n", len(plans)))

	count := min(len(plans), maxItemsToShow)
	for i := 0; i < count; i++ {
		plan := plans[i]
		keywords := ellipsize(strings.Join(plan.Plan.Keywords, ", "), 40)
		sb.WriteString(fmt.Sprintf("• %s: %s\n", plan.Platform, keywords))
		if plan.Plan.Filters != nil && plan.Plan.Filters.Location != "" {
			sb.WriteString(fmt.Sprintf("  Location: %s\n", plan.Plan.Filters.Location))
		}
	}

	if len(plans) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(plans)-maxItemsToShow))
	}

	p.printBox("QUERY PLAN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs the outcome of one ingestion run.
func (p *Printer) PrintRunSummary(summary *ingest.RunSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:      %s\n", summary.RunID))
	sb.WriteString(fmt.Sprintf("Team:     %s\n", summary.TeamID))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", summary.Status))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Jobs found:    %d\n", summary.JobsFound))
	sb.WriteString(fmt.Sprintf("Jobs skipped:  %d\n", summary.JobsSkipped))
	if summary.PlansFailed > 0 {
		sb.WriteString(fmt.Sprintf("Plans failed:  %d\n", summary.PlansFailed))
	}
	sb.WriteString(fmt.Sprintf("Duration:      %s", summary.Duration.Round(10*time.Millisecond)))

	p.printBox("INGESTION RUN", sb.String())
}

// PrintJobs outputs a preview of the canonical jobs a run produced.
func (p *Printer) PrintJobs(jobs []types.CanonicalJob) {
	if len(jobs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Canonical jobs: %d\n\n", len(jobs)))

	count := min(len(jobs), maxItemsToShow)
	for i := 0; i < count; i++ {
		job := jobs[i]
		title := ellipsize(job.Title, 45)
		sb.WriteString(fmt.Sprintf("• %s\n", title))
		sb.WriteString(fmt.Sprintf("  %s · %s", job.Platform, job.BudgetType))
		if len(job.Skills) > 0 {
			skills := ellipsize(strings.Join(job.Skills, ", "), 30)
			sb.WriteString(fmt.Sprintf(" · %s", skills))
		}
		sb.WriteString("\n")
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(jobs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more jobs", len(jobs)-maxItemsToShow))
	}

	p.printBox("NORMALIZED JOBS", sb.String())
}

// PrintNormalizedProfile outputs a human-readable profile summary.
func (p *Printer) PrintNormalizedProfile(profile *types.NormalizedProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Seniority:   %s\n", profile.InferredSeniority))
	sb.WriteString(fmt.Sprintf("Experience:  %d months\n", profile.TotalExperienceMonths))
	if profile.HighestDegree != "" {
		sb.WriteString(fmt.Sprintf("Degree:      %s\n", profile.HighestDegree))
	}
	sb.WriteString("\n")

	if len(profile.PrimarySkills) > 0 {
		sb.WriteString("Primary skills:\n")
		count := min(len(profile.PrimarySkills), maxItemsToShow)
		for i := 0; i < count; i++ {
			skill := profile.PrimarySkills[i]
			sb.WriteString(fmt.Sprintf("  • %s", skill.Name))
			if skill.Level != nil {
				sb.WriteString(fmt.Sprintf(" (level %d)", *skill.Level))
			}
			sb.WriteString("\n")
		}
		if len(profile.PrimarySkills) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.PrimarySkills)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Platforms:   %s", strings.Join(profile.Preferences.Platforms, ", ")))

	p.printBox("NORMALIZED PROFILE", sb.String())
}

// ellipsize caps s at max bytes, cutting on a rune boundary and appending
// "..." when truncated.
func ellipsize(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
