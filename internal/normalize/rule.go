package normalize

import (
	"fmt"

	"github.com/tordrt/soanorm/internal/pattern"
	"github.com/tordrt/soanorm/internal/soa"
)

// ruleExtractor turns detected repeat patterns into ScheduleRule records,
// assigning ids in strict discovery order. Identical (pattern, source) pairs
// are not collapsed: every occurrence yields its own traceable row.
type ruleExtractor struct {
	rules []soa.ScheduleRule
}

// addHeaderRule records one header-sourced occurrence for a visit.
func (x *ruleExtractor) addHeaderRule(m pattern.Match, visit soa.Visit) {
	visitID := visit.VisitID
	x.rules = append(x.rules, soa.ScheduleRule{
		RuleID:      len(x.rules) + 1,
		Pattern:     m.Token,
		Description: fmt.Sprintf("visit %s repeats %s", visitLabel(visit), m.Token),
		SourceType:  soa.SourceHeader,
		VisitID:     &visitID,
		RawText:     m.Raw,
	})
}

// addCellRule records one cell-sourced occurrence for an activity at a visit.
func (x *ruleExtractor) addCellRule(m pattern.Match, activity soa.Activity, visit soa.Visit) {
	activityID := activity.ActivityID
	x.rules = append(x.rules, soa.ScheduleRule{
		RuleID:      len(x.rules) + 1,
		Pattern:     m.Token,
		Description: fmt.Sprintf("%s at %s repeats %s", activity.ActivityName, visitLabel(visit), m.Token),
		SourceType:  soa.SourceCell,
		ActivityID:  &activityID,
		RawText:     m.Raw,
	})
}

func visitLabel(v soa.Visit) string {
	if v.VisitName != "" {
		return v.VisitName
	}
	return v.RawHeader
}
