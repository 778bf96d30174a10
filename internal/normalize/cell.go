package normalize

import (
	"strings"

	"github.com/tordrt/soanorm/internal/pattern"
)

// CellResult carries the interpretation of one matrix cell. Status keeps the
// trimmed text verbatim; an empty cell keeps the empty string so "present but
// blank" stays distinct from "no such column".
type CellResult struct {
	Status          string
	RequiredFlag    int
	ConditionalFlag int
	Repeats         []pattern.Match
}

// ClassifyCell interprets one cell's raw text into status flags plus any
// repeat-pattern occurrences.
//
// The required flag follows the source convention exactly: the trimmed status
// must begin with a literal, case-sensitive X. The conditional flag is a
// case-insensitive substring check for "Optional" or "If indicated"; a cell
// like "X (If indicated)" sets both flags.
func ClassifyCell(raw string) CellResult {
	status := strings.TrimSpace(raw)
	if status == "" {
		return CellResult{}
	}

	result := CellResult{Status: status}
	if strings.HasPrefix(status, "X") {
		result.RequiredFlag = 1
	}

	lower := strings.ToLower(status)
	if strings.Contains(lower, "optional") || strings.Contains(lower, "if indicated") {
		result.ConditionalFlag = 1
	}

	result.Repeats = pattern.FindRepeats(status)
	return result
}
