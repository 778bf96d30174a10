// Package soanorm normalizes wide, human-authored "Schedule of Activities"
// matrices into a relational representation: visits, activities, a
// visit-activity junction with status flags, activity categories, and
// extracted repeating-schedule rules.
//
// The input is a matrix with one row per clinical activity and one column per
// visit: the first row holds visit headers ("Screening (-28 to -1d)",
// "Cycle 2 Day 1 (C2D1) (±3d)"), the first column holds activity names, and
// cells hold free-text markers ("X", "X q12w", "If indicated").
//
// # Quick Start
//
// The simplest way to use this package is with NormalizeAndWrite:
//
//	_, err := soanorm.NormalizeAndWrite(
//		context.Background(),
//		"soa.csv",
//		nil,
//		&soanorm.OutputOptions{OutputDir: "normalized"},
//	)
//
// # Outputs
//
// Normalized tables can be written as CSV files (one per table), inserted into
// a relational database (sqlite://, postgres://, or mysql:// URLs), or
// rendered as a text/markdown summary to any io.Writer. All output paths
// consume the same in-memory soa.Tables value; normalization itself never
// touches disk.
package soanorm

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/tordrt/soanorm/internal/formatter"
	"github.com/tordrt/soanorm/internal/normalize"
	"github.com/tordrt/soanorm/internal/sink"
	"github.com/tordrt/soanorm/internal/soa"
)

// Options configures normalization behavior.
//
// All fields are optional. A nil Logger disables the row-shape diagnostics the
// builder would otherwise emit.
type Options struct {
	// Logger receives diagnostics for recoverable input problems (data rows
	// shorter or longer than the header row). Never required.
	Logger *zap.Logger
}

// OutputOptions configures where normalized tables are written.
//
// The three destinations are independent and can be combined:
//   - OutputDir: CSV files, one per table
//   - DatabaseURL: sqlite://path, postgres://..., or mysql://... sink
//   - Writer + Format: human-readable summary ("text" or "markdown")
//
// If nothing is set, WriteTables is a no-op.
type OutputOptions struct {
	// OutputDir is the directory for CSV output. Created if missing.
	OutputDir string

	// DatabaseURL selects a relational sink by URL scheme.
	DatabaseURL string

	// Writer receives a human-readable summary when set.
	Writer io.Writer

	// Format selects the summary style: "text" (default) or "markdown".
	Format string
}

// Normalize runs the normalization engine over an in-memory matrix and
// returns the five record sets as an atomic unit. The only terminal errors
// are structural: a missing header row or a header without visit columns.
func Normalize(matrix [][]string, opts *Options) (*soa.Tables, error) {
	if opts == nil {
		opts = &Options{}
	}
	return normalize.NewBuilder(opts.Logger).Build(matrix)
}

// NormalizeFile reads a wide CSV file and normalizes it.
//
// Rows may be ragged: short rows are padded with empty-status cells and extra
// cells are ignored, matching the engine's recoverable-error policy.
func NormalizeFile(path string, opts *Options) (*soa.Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	matrix, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return Normalize(matrix, opts)
}

// WriteTables writes tables to every destination configured in outOpts.
func WriteTables(ctx context.Context, tables *soa.Tables, outOpts *OutputOptions) error {
	if outOpts == nil {
		return nil
	}

	if outOpts.OutputDir != "" {
		if err := sink.WriteCSVDir(outOpts.OutputDir, tables); err != nil {
			return fmt.Errorf("failed to write CSV output: %w", err)
		}
	}

	if outOpts.DatabaseURL != "" {
		if err := sink.WriteDatabase(ctx, outOpts.DatabaseURL, tables); err != nil {
			return fmt.Errorf("failed to write database output: %w", err)
		}
	}

	if outOpts.Writer != nil {
		var err error
		switch outOpts.Format {
		case "", "text":
			err = formatter.NewSummaryFormatter(outOpts.Writer).Format(tables)
		case "markdown":
			err = formatter.NewMarkdownFormatter(outOpts.Writer).Format(tables)
		default:
			return fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", outOpts.Format)
		}
		if err != nil {
			return fmt.Errorf("failed to format summary: %w", err)
		}
	}

	return nil
}

// NormalizeAndWrite normalizes a wide CSV file and writes the tables in one
// call. This is the recommended entry point for most use cases.
func NormalizeAndWrite(ctx context.Context, csvPath string, opts *Options, outOpts *OutputOptions) (*soa.Tables, error) {
	tables, err := NormalizeFile(csvPath, opts)
	if err != nil {
		return nil, err
	}
	if err := WriteTables(ctx, tables, outOpts); err != nil {
		return nil, err
	}
	return tables, nil
}
