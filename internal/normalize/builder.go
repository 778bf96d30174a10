package normalize

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/tordrt/soanorm/internal/soa"
)

// Builder runs the full normalization pass over a wide matrix: the first row
// is the header row (first column labels the activity column), every later
// row is one activity.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a builder. logger may be nil; it is only used for
// row-shape diagnostics.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// Build assembles the five record sets in a single pass.
//
// Identifiers are dense and 1-based: visit ids in column order, activity ids
// in row order, junction ids in row-major cell order, rule ids in discovery
// order (all headers first, then all cells). Re-running on unchanged input
// reproduces identical tables.
//
// A data row shorter than the header is padded with empty-status cells; extra
// cells are ignored. Both cases are logged, never fatal. The only terminal
// errors are a missing header row and a header without visit columns.
func (b *Builder) Build(matrix [][]string) (*soa.Tables, error) {
	if len(matrix) == 0 {
		return nil, errors.New("input matrix has no header row")
	}
	header := matrix[0]
	if len(header) < 2 {
		return nil, errors.New("header row has no visit columns")
	}

	tables := &soa.Tables{}
	extractor := &ruleExtractor{}

	// Visit columns start after the activity-name column.
	for col := 1; col < len(header); col++ {
		visit, repeats := ParseHeader(header[col], col)
		for _, m := range repeats {
			extractor.addHeaderRule(m, visit)
		}
		tables.Visits = append(tables.Visits, visit)
	}
	for i := range tables.Visits {
		v := &tables.Visits[i]
		v.Category = VisitCategory(v.VisitName, v.SequenceIndex, len(tables.Visits))
	}

	junctionID := 0
	for r, row := range matrix[1:] {
		name := ""
		if len(row) > 0 {
			name = strings.TrimSpace(row[0])
		}
		activity := soa.Activity{ActivityID: r + 1, ActivityName: name}
		tables.Activities = append(tables.Activities, activity)

		if len(row) != len(header) {
			b.logger.Warn("row length differs from header",
				zap.Int("row", r+1),
				zap.Int("cells", len(row)),
				zap.Int("header", len(header)))
		}

		for i, visit := range tables.Visits {
			raw := ""
			if col := i + 1; col < len(row) {
				raw = row[col]
			}
			cell := ClassifyCell(raw)
			junctionID++
			tables.VisitActivities = append(tables.VisitActivities, soa.VisitActivity{
				ID:              junctionID,
				VisitID:         visit.VisitID,
				ActivityID:      activity.ActivityID,
				Status:          cell.Status,
				RequiredFlag:    cell.RequiredFlag,
				ConditionalFlag: cell.ConditionalFlag,
			})
			for _, m := range cell.Repeats {
				extractor.addCellRule(m, activity, visit)
			}
		}
	}

	for _, activity := range tables.Activities {
		tables.Categories = append(tables.Categories, soa.Category{
			ActivityID: activity.ActivityID,
			Category:   ClassifyActivity(activity.ActivityName),
		})
	}

	tables.Rules = extractor.rules
	return tables, nil
}
