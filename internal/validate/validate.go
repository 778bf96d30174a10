// Package validate is the downstream consumer of normalized Schedule of
// Activities tables. It re-checks the structural invariants the engine
// guarantees and layers domain checks on top, like expected spacing between
// imaging visits. Findings are advisory: validation never fails a run.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/tordrt/soanorm/internal/soa"
)

// Finding codes.
const (
	CodeDanglingRef       = "dangling_ref"
	CodeRuleSource        = "rule_source"
	CodeDuplicateCategory = "duplicate_category"
	CodeDuplicateActivity = "duplicate_activity_name"
	CodeImagingSpacing    = "imaging_spacing"
)

// Finding is one advisory validation result.
type Finding struct {
	Code    string
	Message string
}

var (
	weekNameRe = regexp.MustCompile(`(?i)\bweek\s*(\d+)\b`)
	weekCodeRe = regexp.MustCompile(`(?i)^w(\d+)$`)
	qWeeksRe   = regexp.MustCompile(`^(?:q(\d+)w|every (\d+) weeks?)$`)
)

// Check runs all checks over the tables and returns every finding.
func Check(t *soa.Tables) []Finding {
	var findings []Finding
	findings = append(findings, checkReferences(t)...)
	findings = append(findings, checkRuleSources(t)...)
	findings = append(findings, checkCategories(t)...)
	findings = append(findings, checkDuplicateActivities(t)...)
	findings = append(findings, checkImagingSpacing(t)...)
	return findings
}

func checkReferences(t *soa.Tables) []Finding {
	visits := make(map[int]bool, len(t.Visits))
	for _, v := range t.Visits {
		visits[v.VisitID] = true
	}
	activities := make(map[int]bool, len(t.Activities))
	for _, a := range t.Activities {
		activities[a.ActivityID] = true
	}

	var findings []Finding
	for _, va := range t.VisitActivities {
		if !visits[va.VisitID] {
			findings = append(findings, Finding{CodeDanglingRef,
				fmt.Sprintf("visit_activity %d references missing visit %d", va.ID, va.VisitID)})
		}
		if !activities[va.ActivityID] {
			findings = append(findings, Finding{CodeDanglingRef,
				fmt.Sprintf("visit_activity %d references missing activity %d", va.ID, va.ActivityID)})
		}
	}
	for _, c := range t.Categories {
		if !activities[c.ActivityID] {
			findings = append(findings, Finding{CodeDanglingRef,
				fmt.Sprintf("category references missing activity %d", c.ActivityID)})
		}
	}
	for _, r := range t.Rules {
		if r.VisitID != nil && !visits[*r.VisitID] {
			findings = append(findings, Finding{CodeDanglingRef,
				fmt.Sprintf("rule %d references missing visit %d", r.RuleID, *r.VisitID)})
		}
		if r.ActivityID != nil && !activities[*r.ActivityID] {
			findings = append(findings, Finding{CodeDanglingRef,
				fmt.Sprintf("rule %d references missing activity %d", r.RuleID, *r.ActivityID)})
		}
	}
	return findings
}

func checkRuleSources(t *soa.Tables) []Finding {
	var findings []Finding
	for _, r := range t.Rules {
		ok := (r.SourceType == soa.SourceHeader && r.VisitID != nil && r.ActivityID == nil) ||
			(r.SourceType == soa.SourceCell && r.ActivityID != nil && r.VisitID == nil)
		if !ok {
			findings = append(findings, Finding{CodeRuleSource,
				fmt.Sprintf("rule %d source refs do not match source_type %q", r.RuleID, r.SourceType)})
		}
	}
	return findings
}

func checkCategories(t *soa.Tables) []Finding {
	var findings []Finding
	seen := make(map[int]bool, len(t.Categories))
	for _, c := range t.Categories {
		if seen[c.ActivityID] {
			findings = append(findings, Finding{CodeDuplicateCategory,
				fmt.Sprintf("activity %d has more than one category row", c.ActivityID)})
		}
		seen[c.ActivityID] = true
	}
	return findings
}

func checkDuplicateActivities(t *soa.Tables) []Finding {
	var findings []Finding
	byName := make(map[string]int, len(t.Activities))
	for _, a := range t.Activities {
		byName[a.ActivityName]++
	}
	names := make([]string, 0, len(byName))
	for name, n := range byName {
		if n > 1 && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		findings = append(findings, Finding{CodeDuplicateActivity,
			fmt.Sprintf("activity name %q appears %d times (kept as distinct rows)", name, byName[name])})
	}
	return findings
}

// checkImagingSpacing verifies that imaging activities carrying a weekly
// repeat rule are actually scheduled at that interval, wherever the visit
// week is derivable from the visit name ("Week 12") or code ("W12").
// Activities whose required visits have fewer than two derivable weeks are
// skipped: absence of evidence is not a violation.
func checkImagingSpacing(t *soa.Tables) []Finding {
	imaging := make(map[int]bool)
	for _, c := range t.Categories {
		if c.Category == soa.CategoryImaging {
			imaging[c.ActivityID] = true
		}
	}
	visitByID := make(map[int]soa.Visit, len(t.Visits))
	for _, v := range t.Visits {
		visitByID[v.VisitID] = v
	}
	activityName := make(map[int]string, len(t.Activities))
	for _, a := range t.Activities {
		activityName[a.ActivityID] = a.ActivityName
	}

	var findings []Finding
	for _, r := range t.Rules {
		if r.SourceType != soa.SourceCell || r.ActivityID == nil || !imaging[*r.ActivityID] {
			continue
		}
		interval, ok := weeklyInterval(r.Pattern)
		if !ok {
			continue
		}

		weeks := requiredWeeks(t, *r.ActivityID, visitByID)
		for i := 1; i < len(weeks); i++ {
			if diff := weeks[i] - weeks[i-1]; diff != interval {
				findings = append(findings, Finding{CodeImagingSpacing,
					fmt.Sprintf("%s repeats %s but weeks %d and %d are %d apart",
						activityName[*r.ActivityID], r.Pattern, weeks[i-1], weeks[i], diff)})
			}
		}
	}
	return findings
}

// requiredWeeks collects the derivable week numbers of the visits where the
// activity is required, in visit order.
func requiredWeeks(t *soa.Tables, activityID int, visitByID map[int]soa.Visit) []int {
	var weeks []int
	for _, va := range t.VisitActivities {
		if va.ActivityID != activityID || va.RequiredFlag != 1 {
			continue
		}
		if w, ok := visitWeek(visitByID[va.VisitID]); ok {
			weeks = append(weeks, w)
		}
	}
	sort.Ints(weeks)
	return weeks
}

func visitWeek(v soa.Visit) (int, bool) {
	if m := weekCodeRe.FindStringSubmatch(v.VisitCode); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	if m := weekNameRe.FindStringSubmatch(v.VisitName); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	return 0, false
}

// weeklyInterval extracts the week count from q<N>w or "every N weeks" tokens.
func weeklyInterval(pattern string) (int, bool) {
	m := qWeeksRe.FindStringSubmatch(pattern)
	if m == nil {
		return 0, false
	}
	digits := m[1]
	if digits == "" {
		digits = m[2]
	}
	n, err := strconv.Atoi(digits)
	return n, err == nil
}
