package commands

import (
	"fmt"
	"io"

	"github.com/DrSkyle/pierwatch/pkg/engine"
	"github.com/DrSkyle/pierwatch/pkg/engine/history"
	"github.com/charmbracelet/lipgloss"
)

var (
	summaryTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FF99"))
	summaryLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")).Width(18)
	summaryBad   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0055"))
	summaryDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
)

func printSummary(w io.Writer, res *engine.Result) {
	a := res.Analysis
	line := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", summaryLabel.Render(label), value)
	}

	fmt.Fprintln(w, summaryTitle.Render("[ Analysis Complete ]"))
	if res.Dataset != nil {
		line("Records", fmt.Sprint(len(res.Dataset.Records)))
		if n := len(res.Dataset.Issues); n > 0 {
			line("Malformed cells", fmt.Sprint(n))
		}
	}
	line("Eligible", fmt.Sprint(a.Eligible))

	violations := fmt.Sprint(a.Summary.Total)
	if a.Summary.Total > 0 {
		violations = summaryBad.Render(violations)
	}
	line("Violations", violations)
	if a.Summary.MeanGapDays != nil {
		line("Mean gap", fmt.Sprintf("%.1f days", *a.Summary.MeanGapDays))
		line("Max gap", fmt.Sprintf("%d days", a.Summary.MaxGapDays))
	}
	if len(a.Findings) > 0 {
		line("Rule findings", fmt.Sprint(len(a.Findings)))
	}
	if t := res.Trend; t != nil && t.Direction != history.DirectionFirst {
		line("Since last run", fmt.Sprintf("%s (%+d)", t.Direction, t.ViolationsDelta))
	}

	for _, c := range a.Summary.Top(5) {
		fmt.Fprintln(w, summaryDim.Render(fmt.Sprintf("    - %s: %d (max %d d)", c.Client, c.Violations, c.MaxGapDays)))
	}

	for _, p := range res.Paths {
		line("Report", p)
	}
	if res.ReportURL != "" {
		line("Published", res.ReportURL)
	}
}
