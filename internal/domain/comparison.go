package domain

import "github.com/google/uuid"

// ItemAnswer is one side's answer for a single control.
type ItemAnswer struct {
	Status ItemStatus `json:"status"`
	Notes  string     `json:"notes,omitempty"`
}

// ComparisonEntry is the per-control diff between the organization's
// answer and the vendor's. Vendor is nil when the vendor never touched
// the control (its shadow item is still not_assessed).
type ComparisonEntry struct {
	SubcategoryID string      `json:"subcategory_id"`
	FunctionID    string      `json:"function_id"`
	Org           ItemAnswer  `json:"org"`
	Vendor        *ItemAnswer `json:"vendor,omitempty"`
	Matches       bool        `json:"matches"`
}

// FunctionGroup buckets comparison entries by CSF function for display.
type FunctionGroup struct {
	FunctionID string            `json:"function_id"`
	Entries    []ComparisonEntry `json:"entries"`
}

type ComparisonSummary struct {
	Total       int `json:"total"`
	Matches     int `json:"matches"`
	Differences int `json:"differences"`
	NotAssessed int `json:"not_assessed"`
	// NotApplicable counts controls excluded from the difference tally
	// because the organization marked them not_applicable. Zero unless
	// the exclusion policy is enabled.
	NotApplicable int `json:"not_applicable,omitempty"`
}

// ComparisonResult is derived on demand, never persisted. Complete is
// false when the vendor has not yet submitted, in which case the result
// is a partial view.
type ComparisonResult struct {
	OrgAssessmentID  uuid.UUID         `json:"org_assessment_id"`
	InvitationStatus *InvitationStatus `json:"invitation_status,omitempty"`
	Complete         bool              `json:"complete"`
	Functions        []FunctionGroup   `json:"functions"`
	Summary          ComparisonSummary `json:"summary"`
}
