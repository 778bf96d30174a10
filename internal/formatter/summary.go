// Package formatter renders normalized Schedule of Activities tables for
// humans: a terminal-friendly text summary and a markdown report.
package formatter

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tordrt/soanorm/internal/soa"
)

// SummaryFormatter renders a compact text summary
type SummaryFormatter struct {
	writer io.Writer
}

// NewSummaryFormatter creates a new text summary formatter
func NewSummaryFormatter(w io.Writer) *SummaryFormatter {
	return &SummaryFormatter{writer: w}
}

// Format writes record counts plus the visit and rule tables
func (f *SummaryFormatter) Format(t *soa.Tables) error {
	_, _ = fmt.Fprintf(f.writer, "visits=%d activities=%d cells=%d categories=%d rules=%d\n\n",
		len(t.Visits), len(t.Activities), len(t.VisitActivities), len(t.Categories), len(t.Rules))

	f.renderVisits(t.Visits)
	if len(t.Rules) > 0 {
		_, _ = fmt.Fprintln(f.writer)
		f.renderRules(t.Rules)
	}
	return nil
}

func (f *SummaryFormatter) renderVisits(visits []soa.Visit) {
	tw := table.NewWriter()
	tw.SetOutputMirror(f.writer)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"id", "visit", "code", "window", "pattern", "category"})
	for _, v := range visits {
		tw.AppendRow(table.Row{v.VisitID, v.VisitName, v.VisitCode, windowLabel(v), v.RepeatPattern, v.Category})
	}
	tw.Render()
}

func (f *SummaryFormatter) renderRules(rules []soa.ScheduleRule) {
	tw := table.NewWriter()
	tw.SetOutputMirror(f.writer)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"id", "pattern", "source", "description"})
	for _, r := range rules {
		tw.AppendRow(table.Row{r.RuleID, r.Pattern, r.SourceType, r.Description})
	}
	tw.Render()
}

func windowLabel(v soa.Visit) string {
	switch {
	case v.WindowLower != nil && v.WindowUpper != nil:
		return fmt.Sprintf("%d to %d", *v.WindowLower, *v.WindowUpper)
	case v.WindowLower != nil:
		return fmt.Sprintf("%d to null", *v.WindowLower)
	case v.WindowUpper != nil:
		return fmt.Sprintf("null to %d", *v.WindowUpper)
	default:
		return ""
	}
}
