package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/soanorm/internal/soa"
)

// MarkdownFormatter formats normalized tables as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes all five tables in markdown format
func (f *MarkdownFormatter) Format(t *soa.Tables) error {
	_, _ = fmt.Fprintln(f.writer, "# Schedule of Activities")
	_, _ = fmt.Fprintln(f.writer)

	f.formatVisits(t.Visits)
	f.formatActivities(t.Activities, t.Categories)
	f.formatJunction(t.VisitActivities)
	f.formatRules(t.Rules)
	return nil
}

func (f *MarkdownFormatter) formatVisits(visits []soa.Visit) {
	_, _ = fmt.Fprintln(f.writer, "## Visits")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "| id | visit | code | window | pattern | category |")
	_, _ = fmt.Fprintln(f.writer, "|---|---|---|---|---|---|")
	for _, v := range visits {
		_, _ = fmt.Fprintf(f.writer, "| %d | %s | %s | %s | %s | %s |\n",
			v.VisitID, v.VisitName, v.VisitCode, windowLabel(v), v.RepeatPattern, v.Category)
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatActivities(activities []soa.Activity, categories []soa.Category) {
	byActivity := make(map[int]string, len(categories))
	for _, c := range categories {
		byActivity[c.ActivityID] = c.Category
	}

	_, _ = fmt.Fprintln(f.writer, "## Activities")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "| id | activity | category |")
	_, _ = fmt.Fprintln(f.writer, "|---|---|---|")
	for _, a := range activities {
		_, _ = fmt.Fprintf(f.writer, "| %d | %s | %s |\n", a.ActivityID, a.ActivityName, byActivity[a.ActivityID])
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatJunction(junctions []soa.VisitActivity) {
	_, _ = fmt.Fprintln(f.writer, "## Visit Activities")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "| id | visit_id | activity_id | status | required | conditional |")
	_, _ = fmt.Fprintln(f.writer, "|---|---|---|---|---|---|")
	for _, va := range junctions {
		_, _ = fmt.Fprintf(f.writer, "| %d | %d | %d | %s | %d | %d |\n",
			va.ID, va.VisitID, va.ActivityID, va.Status, va.RequiredFlag, va.ConditionalFlag)
	}
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatRules(rules []soa.ScheduleRule) {
	if len(rules) == 0 {
		return
	}
	_, _ = fmt.Fprintln(f.writer, "## Schedule Rules")
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintln(f.writer, "| id | pattern | source | description | raw |")
	_, _ = fmt.Fprintln(f.writer, "|---|---|---|---|---|")
	for _, r := range rules {
		_, _ = fmt.Fprintf(f.writer, "| %d | %s | %s | %s | %s |\n",
			r.RuleID, r.Pattern, r.SourceType, r.Description, r.RawText)
	}
	_, _ = fmt.Fprintln(f.writer)
}
