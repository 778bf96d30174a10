package soanorm

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = `Activity,Screening (-28 to -1d),Cycle 1 Day 1 (C1D1),Week 12 (W12),End of Treatment (EOT)
Informed Consent,X,,,
Tumor Imaging,,X,X q12w,If indicated
Hematology,X,X,X (Optional),X
`

func writeSampleCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "soa.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0644); err != nil {
		t.Fatalf("failed to write sample CSV: %v", err)
	}
	return path
}

func TestNormalizeFile(t *testing.T) {
	tables, err := NormalizeFile(writeSampleCSV(t), nil)
	if err != nil {
		t.Fatalf("NormalizeFile failed: %v", err)
	}

	if len(tables.Visits) != 4 {
		t.Errorf("got %d visits, want 4", len(tables.Visits))
	}
	if len(tables.Activities) != 3 {
		t.Errorf("got %d activities, want 3", len(tables.Activities))
	}
	if len(tables.VisitActivities) != 12 {
		t.Errorf("got %d junction records, want 12", len(tables.VisitActivities))
	}
	if len(tables.Rules) != 1 || tables.Rules[0].Pattern != "q12w" {
		t.Errorf("rules = %+v, want single q12w rule", tables.Rules)
	}
}

func TestNormalizeFileMissing(t *testing.T) {
	if _, err := NormalizeFile(filepath.Join(t.TempDir(), "absent.csv"), nil); err == nil {
		t.Error("expected error for missing input file")
	}
}

func TestNormalizeStructuralFailure(t *testing.T) {
	if _, err := Normalize(nil, nil); err == nil {
		t.Error("expected terminal error for empty matrix")
	}
	if _, err := Normalize([][]string{{"Activity"}}, nil); err == nil {
		t.Error("expected terminal error for header without visit columns")
	}
}

func TestWriteTablesCSV(t *testing.T) {
	tables, err := NormalizeFile(writeSampleCSV(t), nil)
	if err != nil {
		t.Fatalf("NormalizeFile failed: %v", err)
	}

	dir := t.TempDir()
	err = WriteTables(context.Background(), tables, &OutputOptions{OutputDir: dir})
	if err != nil {
		t.Fatalf("WriteTables failed: %v", err)
	}

	for _, name := range []string{"visits.csv", "activities.csv", "visit_activities.csv", "activity_categories.csv", "schedule_rules.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to be created: %v", name, err)
		}
	}
}

func TestWriteTablesSummary(t *testing.T) {
	tables, err := NormalizeFile(writeSampleCSV(t), nil)
	if err != nil {
		t.Fatalf("NormalizeFile failed: %v", err)
	}

	tests := []struct {
		format string
		want   string
	}{
		{"text", "visits=4"},
		{"markdown", "# Schedule of Activities"},
		{"", "visits=4"},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			err := WriteTables(context.Background(), tables, &OutputOptions{Writer: &buf, Format: tt.format})
			if err != nil {
				t.Fatalf("WriteTables failed: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected output to contain %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestWriteTablesInvalidFormat(t *testing.T) {
	tables, err := NormalizeFile(writeSampleCSV(t), nil)
	if err != nil {
		t.Fatalf("NormalizeFile failed: %v", err)
	}

	var buf bytes.Buffer
	err = WriteTables(context.Background(), tables, &OutputOptions{Writer: &buf, Format: "yaml"})
	if err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestNormalizeAndWrite(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer

	tables, err := NormalizeAndWrite(context.Background(), writeSampleCSV(t), nil, &OutputOptions{
		OutputDir: dir,
		Writer:    &buf,
		Format:    "markdown",
	})
	if err != nil {
		t.Fatalf("NormalizeAndWrite failed: %v", err)
	}
	if len(tables.Visits) != 4 {
		t.Errorf("got %d visits, want 4", len(tables.Visits))
	}
	if _, err := os.Stat(filepath.Join(dir, "visits.csv")); err != nil {
		t.Errorf("expected visits.csv: %v", err)
	}
	if !strings.Contains(buf.String(), "## Visits") {
		t.Error("expected markdown summary on writer")
	}
}
