package normalize

import (
	"reflect"
	"testing"

	"github.com/tordrt/soanorm/internal/soa"
)

func testMatrix() [][]string {
	return [][]string{
		{"Activity", "Screening (-28 to -1d)", "Cycle 1 Day 1 (C1D1)", "Week 12 (W12)", "End of Treatment (EOT)"},
		{"Informed Consent", "X", "", "", ""},
		{"Tumor Imaging", "", "X", "X q12w", "If indicated"},
		{"Hematology", "X", "X", "X (Optional)", "X"},
	}
}

func TestBuild(t *testing.T) {
	tables, err := NewBuilder(nil).Build(testMatrix())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(tables.Visits) != 4 {
		t.Fatalf("got %d visits, want 4", len(tables.Visits))
	}
	if len(tables.Activities) != 3 {
		t.Fatalf("got %d activities, want 3", len(tables.Activities))
	}
	if want := 3 * 4; len(tables.VisitActivities) != want {
		t.Fatalf("got %d junction records, want %d", len(tables.VisitActivities), want)
	}
	if len(tables.Categories) != len(tables.Activities) {
		t.Fatalf("got %d categories, want one per activity", len(tables.Categories))
	}

	// Visit ids are dense, 1-based, in column order.
	for i, v := range tables.Visits {
		if v.VisitID != i+1 {
			t.Errorf("visit %d has id %d", i, v.VisitID)
		}
	}
	if tables.Visits[0].Category != soa.PhaseScreening {
		t.Errorf("first visit category = %q, want screening", tables.Visits[0].Category)
	}
	if tables.Visits[3].Category != soa.PhaseEOT {
		t.Errorf("last visit category = %q, want eot", tables.Visits[3].Category)
	}

	// The q12w cell yields exactly one cell-sourced rule pointing at Tumor Imaging.
	if len(tables.Rules) != 1 {
		t.Fatalf("got %d rules, want 1: %+v", len(tables.Rules), tables.Rules)
	}
	r := tables.Rules[0]
	if r.RuleID != 1 || r.Pattern != "q12w" || r.SourceType != soa.SourceCell {
		t.Errorf("rule = %+v, want rule 1 / q12w / cell", r)
	}
	if r.VisitID != nil {
		t.Errorf("cell rule has visit_id set")
	}
	if r.ActivityID == nil || *r.ActivityID != 2 {
		t.Errorf("rule activity_id = %v, want 2 (Tumor Imaging)", r.ActivityID)
	}
	if r.RawText != "q12w" {
		t.Errorf("rule raw_text = %q, want matched span only", r.RawText)
	}

	// The "If indicated" cell sets only the conditional flag.
	var eotCell *soa.VisitActivity
	for i := range tables.VisitActivities {
		va := &tables.VisitActivities[i]
		if va.ActivityID == 2 && va.VisitID == 4 {
			eotCell = va
		}
	}
	if eotCell == nil {
		t.Fatal("missing junction record for Tumor Imaging at EOT")
	}
	if eotCell.RequiredFlag != 0 || eotCell.ConditionalFlag != 1 {
		t.Errorf("EOT cell flags = (%d, %d), want (0, 1)", eotCell.RequiredFlag, eotCell.ConditionalFlag)
	}
}

func TestBuildReferentialIntegrity(t *testing.T) {
	tables, err := NewBuilder(nil).Build(testMatrix())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	visits := make(map[int]bool)
	for _, v := range tables.Visits {
		visits[v.VisitID] = true
	}
	activities := make(map[int]bool)
	for _, a := range tables.Activities {
		activities[a.ActivityID] = true
	}

	for _, va := range tables.VisitActivities {
		if !visits[va.VisitID] || !activities[va.ActivityID] {
			t.Errorf("junction %d references missing visit %d or activity %d", va.ID, va.VisitID, va.ActivityID)
		}
	}

	seen := make(map[int]bool)
	for _, c := range tables.Categories {
		if seen[c.ActivityID] {
			t.Errorf("duplicate category for activity %d", c.ActivityID)
		}
		seen[c.ActivityID] = true
		if !activities[c.ActivityID] {
			t.Errorf("category references missing activity %d", c.ActivityID)
		}
	}

	for _, r := range tables.Rules {
		switch r.SourceType {
		case soa.SourceHeader:
			if r.VisitID == nil || r.ActivityID != nil || !visits[*r.VisitID] {
				t.Errorf("header rule %d has bad source refs", r.RuleID)
			}
		case soa.SourceCell:
			if r.ActivityID == nil || r.VisitID != nil || !activities[*r.ActivityID] {
				t.Errorf("cell rule %d has bad source refs", r.RuleID)
			}
		default:
			t.Errorf("rule %d has unknown source type %q", r.RuleID, r.SourceType)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	first, err := NewBuilder(nil).Build(testMatrix())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, err := NewBuilder(nil).Build(testMatrix())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("re-running on unchanged input produced different tables")
	}
}

func TestBuildDuplicateActivityNames(t *testing.T) {
	matrix := [][]string{
		{"Activity", "Screening", "EOT"},
		{"Hematology", "X", "X"},
		{"Hematology", "", "X"},
	}

	tables, err := NewBuilder(nil).Build(matrix)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	// One row = one activity, even when names repeat.
	if len(tables.Activities) != 2 {
		t.Fatalf("got %d activities, want 2 distinct records", len(tables.Activities))
	}
	if tables.Activities[0].ActivityID == tables.Activities[1].ActivityID {
		t.Error("duplicate names merged into one activity id")
	}
}

func TestBuildRaggedRows(t *testing.T) {
	matrix := [][]string{
		{"Activity", "Screening", "C1D1", "EOT"},
		{"Short Row", "X"},
		{"Long Row", "X", "X", "X", "extra", "more"},
		{},
	}

	tables, err := NewBuilder(nil).Build(matrix)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if want := 3 * 3; len(tables.VisitActivities) != want {
		t.Fatalf("got %d junction records, want %d", len(tables.VisitActivities), want)
	}

	// Missing cells become empty-status records.
	for _, va := range tables.VisitActivities {
		if va.ActivityID == 1 && va.VisitID > 1 {
			if va.Status != "" || va.RequiredFlag != 0 || va.ConditionalFlag != 0 {
				t.Errorf("padded cell %d not empty: %+v", va.ID, va)
			}
		}
	}

	// An empty row still yields an activity with an empty name.
	if tables.Activities[2].ActivityName != "" {
		t.Errorf("empty row activity name = %q", tables.Activities[2].ActivityName)
	}
}

func TestBuildStructuralFailures(t *testing.T) {
	tests := []struct {
		name   string
		matrix [][]string
	}{
		{"no header row", [][]string{}},
		{"no visit columns", [][]string{{"Activity"}}},
		{"empty header row", [][]string{{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBuilder(nil).Build(tt.matrix); err == nil {
				t.Error("expected terminal error, got none")
			}
		})
	}
}

func TestBuildJunctionOrder(t *testing.T) {
	tables, err := NewBuilder(nil).Build(testMatrix())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Row-major: ids increase, visit cycles fastest.
	for i, va := range tables.VisitActivities {
		if va.ID != i+1 {
			t.Fatalf("junction %d has id %d, want %d", i, va.ID, i+1)
		}
		wantVisit := i%4 + 1
		wantActivity := i/4 + 1
		if va.VisitID != wantVisit || va.ActivityID != wantActivity {
			t.Errorf("junction %d = (visit %d, activity %d), want (%d, %d)",
				va.ID, va.VisitID, va.ActivityID, wantVisit, wantActivity)
		}
	}
}
