package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/repository"
)

// csfFunctionOrder is the display order of the CSF 2.0 functions.
// Unknown function ids sort after these, alphabetically.
var csfFunctionOrder = map[string]int{
	"GV": 0, "ID": 1, "PR": 2, "DE": 3, "RS": 4, "RC": 5,
}

const compareTimeout = 5 * time.Second

type comparisonService struct {
	invRepo    repository.InvitationRepository
	assessRepo repository.AssessmentRepository
	// excludeNotApplicable keeps controls the organization marked
	// not_applicable out of the differences tally when the vendor
	// answered otherwise.
	excludeNotApplicable bool
	now                  func() time.Time
}

func NewComparisonService(invRepo repository.InvitationRepository, assessRepo repository.AssessmentRepository, excludeNotApplicable bool) ComparisonService {
	return &comparisonService{
		invRepo:              invRepo,
		assessRepo:           assessRepo,
		excludeNotApplicable: excludeNotApplicable,
		now:                  time.Now,
	}
}

// Compare diffs the organization's items against the vendor shadow
// items, joined on subcategory id. Joining on the framework key rather
// than row order is what keeps the comparison correct when either side's
// items were created in a different sequence.
func (s *comparisonService) Compare(ctx context.Context, orgAssessmentID uuid.UUID) (*domain.ComparisonResult, error) {
	ctx, cancel := context.WithTimeout(ctx, compareTimeout)
	defer cancel()

	orgAssessment, err := s.assessRepo.GetByID(ctx, orgAssessmentID)
	if err != nil {
		return nil, err
	}
	if orgAssessment.Type == domain.AssessmentTypeVendorSelf {
		return nil, fmt.Errorf("assessment %s is a vendor shadow assessment, compare its organization assessment instead: %w",
			orgAssessmentID, domain.ErrValidation)
	}

	orgItems, err := s.listItemsRetry(ctx, orgAssessmentID)
	if err != nil {
		return nil, err
	}

	result := &domain.ComparisonResult{
		OrgAssessmentID: orgAssessmentID,
	}

	var vendorByKey map[string]domain.AssessmentItem
	inv, err := s.invRepo.GetByAssessment(ctx, orgAssessmentID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		// No invitation was ever issued: organization-only view.
		inv = nil
	}
	if inv != nil {
		status := inv.EffectiveStatus(s.now())
		result.InvitationStatus = &status
		result.Complete = status == domain.InvitationStatusCompleted

		vendorItems, err := s.listItemsRetry(ctx, inv.VendorAssessmentID)
		if err != nil {
			return nil, err
		}
		vendorByKey = make(map[string]domain.AssessmentItem, len(vendorItems))
		for _, vi := range vendorItems {
			vendorByKey[vi.SubcategoryID] = vi
		}
	}

	groups := make(map[string][]domain.ComparisonEntry)
	for _, orgItem := range orgItems {
		entry := domain.ComparisonEntry{
			SubcategoryID: orgItem.SubcategoryID,
			FunctionID:    orgItem.FunctionID,
			Org: domain.ItemAnswer{
				Status: orgItem.Status,
				Notes:  orgItem.Notes,
			},
		}

		vendorItem, answered := vendorByKey[orgItem.SubcategoryID]
		if answered && vendorItem.Status != domain.ItemStatusNotAssessed {
			entry.Vendor = &domain.ItemAnswer{
				Status: vendorItem.Status,
				Notes:  vendorItem.Notes,
			}
			entry.Matches = vendorItem.Status == orgItem.Status
			switch {
			case entry.Matches:
				result.Summary.Matches++
			case s.excludeNotApplicable && orgItem.Status == domain.ItemStatusNotApplicable:
				result.Summary.NotApplicable++
			default:
				result.Summary.Differences++
			}
		} else {
			// Vendor never answered this control: not a disagreement.
			result.Summary.NotAssessed++
		}
		result.Summary.Total++

		groups[orgItem.FunctionID] = append(groups[orgItem.FunctionID], entry)
	}

	functionIDs := make([]string, 0, len(groups))
	for fid := range groups {
		functionIDs = append(functionIDs, fid)
	}
	sort.Slice(functionIDs, func(i, j int) bool {
		oi, iok := csfFunctionOrder[functionIDs[i]]
		oj, jok := csfFunctionOrder[functionIDs[j]]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return functionIDs[i] < functionIDs[j]
	})

	for _, fid := range functionIDs {
		entries := groups[fid]
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].SubcategoryID < entries[j].SubcategoryID
		})
		result.Functions = append(result.Functions, domain.FunctionGroup{
			FunctionID: fid,
			Entries:    entries,
		})
	}

	return result, nil
}

// listItemsRetry retries a failed read once before giving up; item reads
// are cheap and the store may be remote.
func (s *comparisonService) listItemsRetry(ctx context.Context, assessmentID uuid.UUID) ([]domain.AssessmentItem, error) {
	items, err := s.assessRepo.ListItems(ctx, assessmentID)
	if err == nil || ctx.Err() != nil {
		return items, err
	}
	return s.assessRepo.ListItems(ctx, assessmentID)
}
