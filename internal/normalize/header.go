// Package normalize converts a wide Schedule of Activities matrix into the
// five normalized record sets: visits, activities, the visit-activity
// junction, activity categories, and extracted schedule rules.
//
// Every function here is a pure function of its input plus the shared
// read-only vocabulary in the pattern package. Parsing is best-effort: text
// that matches no known shape leaves the corresponding field null/empty
// instead of failing the run.
package normalize

import (
	"regexp"
	"strings"

	"github.com/tordrt/soanorm/internal/pattern"
	"github.com/tordrt/soanorm/internal/soa"
)

// parenRe matches one parenthetical group; group 1 is the content.
var parenRe = regexp.MustCompile(`\(([^)]*)\)`)

// ParseHeader splits one visit column header into a Visit record. sequence is
// the 1-based visit column position and doubles as the visit id.
//
// The first window-shaped parenthetical group supplies the day-offset bounds;
// the first code-shaped non-window group supplies the visit code. All
// parenthetical groups are stripped from the visit name. The returned matches
// are every repeat-pattern occurrence found anywhere in the header, in
// discovery order; the first one becomes the visit's repeat pattern.
//
// The Category field is left empty: the builder assigns it once the total
// column count is known, since the positional fallback needs it.
func ParseHeader(raw string, sequence int) (soa.Visit, []pattern.Match) {
	v := soa.Visit{
		VisitID:       sequence,
		RawHeader:     raw,
		SequenceIndex: sequence,
	}

	for _, m := range parenRe.FindAllStringSubmatch(raw, -1) {
		content := strings.TrimSpace(m[1])
		if pattern.IsWindow(content) {
			if v.WindowLower == nil && v.WindowUpper == nil {
				v.WindowLower, v.WindowUpper, _ = pattern.ParseWindow(content)
			}
			continue
		}
		if v.VisitCode == "" && pattern.IsCode(content) {
			v.VisitCode = content
		}
	}

	v.VisitName = collapseWhitespace(parenRe.ReplaceAllString(raw, " "))

	repeats := pattern.FindRepeats(raw)
	if len(repeats) > 0 {
		v.RepeatPattern = repeats[0].Token
	}

	return v, repeats
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
