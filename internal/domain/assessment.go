package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AssessmentType string

const (
	// AssessmentTypeInternal is the organization's own CSF assessment.
	AssessmentTypeInternal AssessmentType = "internal"
	// AssessmentTypeVendor is an organization-side assessment of a vendor;
	// only this type may carry a self-assessment invitation.
	AssessmentTypeVendor AssessmentType = "vendor"
	// AssessmentTypeVendorSelf is the shadow assessment answered by the
	// vendor through the portal.
	AssessmentTypeVendorSelf AssessmentType = "vendor_self"
)

type Assessment struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	Type       AssessmentType `json:"type"`
	VendorName string         `json:"vendor_name,omitempty"`
	CreatedOn  time.Time      `json:"created_on"`
}

type ItemStatus string

const (
	ItemStatusCompliant     ItemStatus = "compliant"
	ItemStatusPartial       ItemStatus = "partial"
	ItemStatusNonCompliant  ItemStatus = "non_compliant"
	ItemStatusNotApplicable ItemStatus = "not_applicable"
	ItemStatusNotAssessed   ItemStatus = "not_assessed"
)

// ParseItemStatus rejects anything outside the closed status set at the
// boundary instead of letting free-form strings into the store.
func ParseItemStatus(s string) (ItemStatus, error) {
	switch ItemStatus(s) {
	case ItemStatusCompliant, ItemStatusPartial, ItemStatusNonCompliant,
		ItemStatusNotApplicable, ItemStatusNotAssessed:
		return ItemStatus(s), nil
	}
	return "", fmt.Errorf("unknown item status %q: %w", s, ErrValidation)
}

// AssessmentItem is one control subcategory's answer within an assessment.
// SubcategoryID is the stable framework key (e.g. "GV.OC-01") shared by
// the organization and vendor item sets.
type AssessmentItem struct {
	ID            uuid.UUID  `json:"id"`
	AssessmentID  uuid.UUID  `json:"assessment_id"`
	FunctionID    string     `json:"function_id"`
	SubcategoryID string     `json:"subcategory_id"`
	Status        ItemStatus `json:"status"`
	Notes         string     `json:"notes"`
	UpdatedOn     time.Time  `json:"updated_on"`
}
