package soa

// Rule source types.
const (
	SourceHeader = "header"
	SourceCell   = "cell"
)

// Activity category labels assigned by the classifier.
const (
	CategoryLabs    = "labs"
	CategoryImaging = "imaging"
	CategoryDosing  = "dosing"
	CategoryAdmin   = "admin"
	CategoryOther   = "other"
)

// Visit phase labels assigned from header keywords or column position.
const (
	PhaseScreening = "screening"
	PhaseBaseline  = "baseline"
	PhaseTreatment = "treatment"
	PhaseFollowUp  = "follow_up"
	PhaseEOT       = "eot"
)

// Visit represents one timepoint column from the source matrix
type Visit struct {
	VisitID       int    `json:"visit_id"`
	RawHeader     string `json:"raw_header"`
	VisitName     string `json:"visit_name"`
	VisitCode     string `json:"visit_code"`
	SequenceIndex int    `json:"sequence_index"`
	WindowLower   *int   `json:"window_lower"`
	WindowUpper   *int   `json:"window_upper"`
	RepeatPattern string `json:"repeat_pattern"` // normalized token, empty when the header has none
	Category      string `json:"category"`
}

// Activity represents one procedure/assessment row from the source matrix.
// Rows with identical names stay distinct records.
type Activity struct {
	ActivityID   int    `json:"activity_id"`
	ActivityName string `json:"activity_name"`
}

// VisitActivity is the junction record for one (activity row, visit column) cell
type VisitActivity struct {
	ID              int    `json:"id"`
	VisitID         int    `json:"visit_id"`
	ActivityID      int    `json:"activity_id"`
	Status          string `json:"status"`
	RequiredFlag    int    `json:"required_flag"`
	ConditionalFlag int    `json:"conditional_flag"`
}

// Category holds the heuristic category for one activity
type Category struct {
	ActivityID int    `json:"activity_id"`
	Category   string `json:"category"`
}

// ScheduleRule is one extracted repeat-pattern occurrence with its textual origin.
// Exactly one of ActivityID/VisitID is set, matching SourceType.
type ScheduleRule struct {
	RuleID      int    `json:"rule_id"`
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
	SourceType  string `json:"source_type"`
	ActivityID  *int   `json:"activity_id"`
	VisitID     *int   `json:"visit_id"`
	RawText     string `json:"raw_text"`
}

// Tables aggregates the five normalized record sets produced by one run
type Tables struct {
	Visits          []Visit         `json:"visits"`
	Activities      []Activity      `json:"activities"`
	VisitActivities []VisitActivity `json:"visit_activities"`
	Categories      []Category      `json:"categories"`
	Rules           []ScheduleRule  `json:"schedule_rules"`
}
