package normalize

import (
	"regexp"

	"github.com/tordrt/soanorm/internal/soa"
)

// categoryRule is one (matcher, label) entry. Rules are scanned in order and
// the first match wins, so more specific categories must come before generic
// ones.
type categoryRule struct {
	re       *regexp.Regexp
	category string
}

func rule(expr, category string) categoryRule {
	return categoryRule{re: regexp.MustCompile(`(?i)\b(?:` + expr + `)\b`), category: category}
}

// activityRules maps indicative keywords to activity categories. The table is
// heuristic by design; activities matching nothing fall back to "other".
var activityRules = []categoryRule{
	rule(`imaging|mri|ct|pet|scan|x-?ray|ultrasound|echocardiogram`, soa.CategoryImaging),
	rule(`labs?|blood|hematology|chemistry|urinalysis|serum|cbc|pregnancy test|biomarker`, soa.CategoryLabs),
	rule(`dos(?:e|ing)|infusion|study drug|drug administration|injection`, soa.CategoryDosing),
	rule(`consent|eligibility|enrollment|randomi[sz]ation|demographics|medical history|questionnaire|diary|adverse events?|concomitant`, soa.CategoryAdmin),
}

// ClassifyActivity assigns one category label to an activity name.
func ClassifyActivity(name string) string {
	for _, r := range activityRules {
		if r.re.MatchString(name) {
			return r.category
		}
	}
	return soa.CategoryOther
}

// phaseRules maps header keywords to visit phase labels, again first match wins.
var phaseRules = []categoryRule{
	rule(`screening`, soa.PhaseScreening),
	rule(`baseline`, soa.PhaseBaseline),
	rule(`follow[ -]?up|follow`, soa.PhaseFollowUp),
	rule(`eot|end of treatment`, soa.PhaseEOT),
	rule(`cycle|treatment|dosing`, soa.PhaseTreatment),
}

// VisitCategory assigns a phase label to a visit from its name, falling back
// to column position when no keyword matches: the first visit leans screening,
// the last leans eot, everything between is treatment. sequence is 1-based,
// total is the visit column count.
func VisitCategory(name string, sequence, total int) string {
	for _, r := range phaseRules {
		if r.re.MatchString(name) {
			return r.category
		}
	}
	switch {
	case sequence == 1:
		return soa.PhaseScreening
	case sequence == total:
		return soa.PhaseEOT
	default:
		return soa.PhaseTreatment
	}
}
