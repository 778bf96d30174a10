//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"testing"

	"github.com/tordrt/soanorm"
	"github.com/tordrt/soanorm/internal/soa"
)

var sampleMatrix = [][]string{
	{"Activity", "Screening (-28 to -1d)", "Cycle 1 Day 1 (C1D1)", "Week 12 (W12)", "End of Treatment (EOT)"},
	{"Informed Consent", "X", "", "", ""},
	{"Tumor Imaging", "", "X", "X q12w", "If indicated"},
	{"Hematology", "X", "X", "X (Optional)", "X"},
}

func normalizeSample(t *testing.T) *soa.Tables {
	t.Helper()
	tables, err := soanorm.Normalize(sampleMatrix, nil)
	if err != nil {
		t.Fatalf("Failed to normalize sample matrix: %v", err)
	}
	return tables
}

// verifyCounts checks row counts of every written table against the in-memory tables.
func verifyCounts(t *testing.T, db *sql.DB, tables *soa.Tables) {
	t.Helper()
	ctx := context.Background()

	counts := map[string]int{
		"visits":              len(tables.Visits),
		"activities":          len(tables.Activities),
		"visit_activities":    len(tables.VisitActivities),
		"activity_categories": len(tables.Categories),
		"schedule_rules":      len(tables.Rules),
	}
	for table, want := range counts {
		var got int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&got); err != nil {
			t.Errorf("Failed to count %s: %v", table, err)
			continue
		}
		if got != want {
			t.Errorf("Expected %d rows in %s, got %d", want, table, got)
		}
	}
}

// verifyRule checks the single q12w rule written for the imaging activity.
func verifyRule(t *testing.T, db *sql.DB) {
	t.Helper()

	var pattern, sourceType, rawText string
	var activityID sql.NullInt64
	err := db.QueryRowContext(context.Background(),
		"SELECT pattern, source_type, activity_id, raw_text FROM schedule_rules").
		Scan(&pattern, &sourceType, &activityID, &rawText)
	if err != nil {
		t.Fatalf("Failed to read schedule rule: %v", err)
	}
	if pattern != "q12w" || sourceType != "cell" || rawText != "q12w" {
		t.Errorf("Unexpected rule: pattern=%q source_type=%q raw_text=%q", pattern, sourceType, rawText)
	}
	if !activityID.Valid || activityID.Int64 != 2 {
		t.Errorf("Expected rule activity_id 2, got %v", activityID)
	}
}

// verifyWindow checks the screening visit's parsed window bounds.
func verifyWindow(t *testing.T, db *sql.DB) {
	t.Helper()

	var lower, upper sql.NullInt64
	err := db.QueryRowContext(context.Background(),
		"SELECT window_lower, window_upper FROM visits WHERE visit_id = 1").
		Scan(&lower, &upper)
	if err != nil {
		t.Fatalf("Failed to read screening visit: %v", err)
	}
	if !lower.Valid || lower.Int64 != -28 || !upper.Valid || upper.Int64 != -1 {
		t.Errorf("Expected window -28..-1, got %v..%v", lower, upper)
	}
}
