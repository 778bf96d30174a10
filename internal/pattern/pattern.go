// Package pattern holds the shared text vocabulary for Schedule of Activities
// normalization: repeat-pattern surface forms, visit-code shapes, and day-window
// shapes. Both the header and cell paths consult the same tables, which are
// built once at package init and never mutated.
package pattern

import (
	"regexp"
	"strconv"
	"strings"
)

// Match is one detected repeat-pattern occurrence.
type Match struct {
	Token string // normalized form, e.g. "q12w" or "every 2 cycles"
	Raw   string // the exact span that matched
}

// repeatForm pairs one recognized surface form with its normalizer.
type repeatForm struct {
	re        *regexp.Regexp
	normalize func(raw string) string
}

// Recognized repeat-pattern surface forms. Matching is case-insensitive and
// substring-based; one input text can match several forms and each form can
// match several times.
var repeatForms = []repeatForm{
	{
		// q<N><unit> notation (q12w, q3w, q28d), canonical apart from case
		re:        regexp.MustCompile(`(?i)\bq\d+[a-z]\b`),
		normalize: strings.ToLower,
	},
	{
		re:        regexp.MustCompile(`(?i)\bevery\s+\d+\s+cycles?\b`),
		normalize: collapseLower,
	},
	{
		re:        regexp.MustCompile(`(?i)\bevery\s+\d+\s+weeks?\b`),
		normalize: collapseLower,
	},
}

var (
	// codeRe matches visit codes like C1D1, EOT, W12: alphanumeric with at
	// least one letter and no internal whitespace.
	codeRe = regexp.MustCompile(`^[A-Za-z0-9]*[A-Za-z][A-Za-z0-9]*$`)

	// windowMarkRe detects window-shaped parenthetical content: numeric
	// offsets joined by "to", a plus/minus notation, or a single signed
	// bound with a trailing d.
	windowMarkRe = regexp.MustCompile(`(?i)-?\d+\s*d?\s+to\s+|±|\+/-|^[+-]\d+\s*d$`)

	rangeRe  = regexp.MustCompile(`(?i)^([+-]?\d+)\s*d?\s+to\s+([+-]?\d+)\s*d?$`)
	pmRe     = regexp.MustCompile(`(?i)^([+-]?\d+)?\s*(?:±|\+/-)\s*(\d+)\s*d?$`)
	singleRe = regexp.MustCompile(`(?i)^([+-]\d+)\s*d$`)
)

func collapseLower(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// FindRepeats returns every repeat-pattern occurrence in text. Order is
// deterministic: vocabulary forms in declaration order, matches of one form in
// positional order.
func FindRepeats(text string) []Match {
	var matches []Match
	for _, form := range repeatForms {
		for _, raw := range form.re.FindAllString(text, -1) {
			matches = append(matches, Match{Token: form.normalize(raw), Raw: raw})
		}
	}
	return matches
}

// IsCode reports whether parenthetical content is a code-like token.
func IsCode(content string) bool {
	return codeRe.MatchString(strings.TrimSpace(content))
}

// IsWindow reports whether parenthetical content is a day-window expression.
func IsWindow(content string) bool {
	return windowMarkRe.MatchString(strings.TrimSpace(content))
}

// ParseWindow parses a day-window expression into signed day-offset bounds.
//
// Supported shapes:
//   - "A to B" with optional signs and trailing d on either side
//   - "±N" / "+/-N", symmetric around day 0
//   - "B±Nd", symmetric around base day B
//   - a single signed bound like "-28d" or "+7d", which sets only the side
//     its sign points at
//
// Content that matches none of these returns (nil, nil, false); window parsing
// is best-effort and never fails the run.
func ParseWindow(content string) (lower, upper *int, ok bool) {
	content = strings.TrimSpace(content)

	if m := rangeRe.FindStringSubmatch(content); m != nil {
		lo, err1 := strconv.Atoi(m[1])
		hi, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return nil, nil, false
		}
		return &lo, &hi, true
	}

	if m := pmRe.FindStringSubmatch(content); m != nil {
		base := 0
		if m[1] != "" {
			b, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, nil, false
			}
			base = b
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, nil, false
		}
		lo, hi := base-n, base+n
		return &lo, &hi, true
	}

	if m := singleRe.FindStringSubmatch(content); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, nil, false
		}
		if n < 0 {
			return &n, nil, true
		}
		return nil, &n, true
	}

	return nil, nil, false
}
