package validate

import (
	"testing"

	"github.com/tordrt/soanorm/internal/normalize"
	"github.com/tordrt/soanorm/internal/soa"
)

func buildTables(t *testing.T, matrix [][]string) *soa.Tables {
	t.Helper()
	tables, err := normalize.NewBuilder(nil).Build(matrix)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return tables
}

func findingCodes(findings []Finding) map[string]int {
	codes := make(map[string]int)
	for _, f := range findings {
		codes[f.Code]++
	}
	return codes
}

func TestCheckCleanTables(t *testing.T) {
	tables := buildTables(t, [][]string{
		{"Activity", "Screening (-28 to -1d)", "Week 12 (W12)", "Week 24 (W24)"},
		{"Informed Consent", "X", "", ""},
		{"Tumor Imaging", "", "X q12w", "X"},
	})

	if findings := Check(tables); len(findings) != 0 {
		t.Errorf("expected no findings, got %v", findings)
	}
}

func TestCheckImagingSpacingViolation(t *testing.T) {
	tables := buildTables(t, [][]string{
		{"Activity", "Week 12 (W12)", "Week 20 (W20)"},
		{"Tumor Imaging", "X q12w", "X"},
	})

	codes := findingCodes(Check(tables))
	if codes[CodeImagingSpacing] != 1 {
		t.Errorf("expected one imaging_spacing finding, got %v", codes)
	}
}

func TestCheckImagingSpacingSkipsUnderivableWeeks(t *testing.T) {
	// Visit weeks cannot be derived, so the rule is not checkable.
	tables := buildTables(t, [][]string{
		{"Activity", "Visit 1", "Visit 2"},
		{"Tumor Imaging", "X q12w", "X"},
	})

	if codes := findingCodes(Check(tables)); codes[CodeImagingSpacing] != 0 {
		t.Errorf("expected no imaging_spacing finding, got %v", codes)
	}
}

func TestCheckDuplicateActivityNames(t *testing.T) {
	tables := buildTables(t, [][]string{
		{"Activity", "Screening", "EOT"},
		{"Hematology", "X", ""},
		{"Hematology", "", "X"},
	})

	codes := findingCodes(Check(tables))
	if codes[CodeDuplicateActivity] != 1 {
		t.Errorf("expected one duplicate_activity_name finding, got %v", codes)
	}
}

func TestCheckDanglingReferences(t *testing.T) {
	visitID := 99
	tables := &soa.Tables{
		Visits:     []soa.Visit{{VisitID: 1}},
		Activities: []soa.Activity{{ActivityID: 1}},
		VisitActivities: []soa.VisitActivity{
			{ID: 1, VisitID: 1, ActivityID: 1},
			{ID: 2, VisitID: 7, ActivityID: 1},
		},
		Categories: []soa.Category{{ActivityID: 1}, {ActivityID: 1}},
		Rules: []soa.ScheduleRule{
			{RuleID: 1, SourceType: soa.SourceHeader, VisitID: &visitID},
			{RuleID: 2, SourceType: soa.SourceCell},
		},
	}

	codes := findingCodes(Check(tables))
	if codes[CodeDanglingRef] != 2 {
		t.Errorf("expected two dangling_ref findings, got %v", codes)
	}
	if codes[CodeDuplicateCategory] != 1 {
		t.Errorf("expected one duplicate_category finding, got %v", codes)
	}
	if codes[CodeRuleSource] != 1 {
		t.Errorf("expected one rule_source finding, got %v", codes)
	}
}
