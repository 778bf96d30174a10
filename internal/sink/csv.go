package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tordrt/soanorm/internal/soa"
)

// CSV file names, one per table.
const (
	VisitsFile          = "visits.csv"
	ActivitiesFile      = "activities.csv"
	VisitActivitiesFile = "visit_activities.csv"
	CategoriesFile      = "activity_categories.csv"
	RulesFile           = "schedule_rules.csv"
)

// WriteCSVDir writes the five tables as CSV files into dir, creating it if
// needed. Null fields (absent windows, absent patterns, the unused rule
// foreign key) are written as empty strings.
func WriteCSVDir(dir string, tables *soa.Tables) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{VisitsFile, visitColumns, visitCSVRows(tables.Visits)},
		{ActivitiesFile, activityColumns, activityCSVRows(tables.Activities)},
		{VisitActivitiesFile, visitActivityColumns, visitActivityCSVRows(tables.VisitActivities)},
		{CategoriesFile, categoryColumns, categoryCSVRows(tables.Categories)},
		{RulesFile, ruleColumns, ruleCSVRows(tables.Rules)},
	}

	for _, f := range files {
		if err := writeCSVFile(filepath.Join(dir, f.name), f.header, f.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}
	return nil
}

func writeCSVFile(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func visitCSVRows(visits []soa.Visit) [][]string {
	rows := make([][]string, 0, len(visits))
	for _, v := range visits {
		rows = append(rows, []string{
			strconv.Itoa(v.VisitID),
			v.RawHeader,
			v.VisitName,
			v.VisitCode,
			strconv.Itoa(v.SequenceIndex),
			intPtrField(v.WindowLower),
			intPtrField(v.WindowUpper),
			v.RepeatPattern,
			v.Category,
		})
	}
	return rows
}

func activityCSVRows(activities []soa.Activity) [][]string {
	rows := make([][]string, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, []string{strconv.Itoa(a.ActivityID), a.ActivityName})
	}
	return rows
}

func visitActivityCSVRows(junctions []soa.VisitActivity) [][]string {
	rows := make([][]string, 0, len(junctions))
	for _, va := range junctions {
		rows = append(rows, []string{
			strconv.Itoa(va.ID),
			strconv.Itoa(va.VisitID),
			strconv.Itoa(va.ActivityID),
			va.Status,
			strconv.Itoa(va.RequiredFlag),
			strconv.Itoa(va.ConditionalFlag),
		})
	}
	return rows
}

func categoryCSVRows(categories []soa.Category) [][]string {
	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []string{strconv.Itoa(c.ActivityID), c.Category})
	}
	return rows
}

func ruleCSVRows(rules []soa.ScheduleRule) [][]string {
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, []string{
			strconv.Itoa(r.RuleID),
			r.Pattern,
			r.Description,
			r.SourceType,
			intPtrField(r.ActivityID),
			intPtrField(r.VisitID),
			r.RawText,
		})
	}
	return rows
}

func intPtrField(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
