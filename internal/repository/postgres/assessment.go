package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/repository"
)

type assessmentRepository struct {
	db *sql.DB
}

func NewAssessmentRepository(db *sql.DB) repository.AssessmentRepository {
	return &assessmentRepository{db: db}
}

func (r *assessmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assessment, error) {
	a := &domain.Assessment{}
	query := `SELECT id, name, type, vendor_name, created_on FROM assessments WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Type, &a.VendorName, &a.CreatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, nil
}

func (r *assessmentRepository) ListItems(ctx context.Context, assessmentID uuid.UUID) ([]domain.AssessmentItem, error) {
	query := `SELECT id, assessment_id, function_id, subcategory_id, status, notes, updated_on
		FROM assessment_items WHERE assessment_id = $1 ORDER BY subcategory_id`
	rows, err := r.db.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessment items: %w", err)
	}
	defer rows.Close()

	var items []domain.AssessmentItem
	for rows.Next() {
		var it domain.AssessmentItem
		if err := rows.Scan(&it.ID, &it.AssessmentID, &it.FunctionID, &it.SubcategoryID, &it.Status, &it.Notes, &it.UpdatedOn); err != nil {
			return nil, fmt.Errorf("failed to scan assessment item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *assessmentRepository) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.AssessmentItem, error) {
	it := &domain.AssessmentItem{}
	query := `SELECT id, assessment_id, function_id, subcategory_id, status, notes, updated_on
		FROM assessment_items WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(&it.ID, &it.AssessmentID, &it.FunctionID, &it.SubcategoryID, &it.Status, &it.Notes, &it.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment item %s: %w", itemID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment item: %w", err)
	}
	return it, nil
}

// insertShadow writes the vendor shadow assessment and one not_assessed
// item per organization item inside the caller's transaction. The
// invitation store composes it with the invitation insert so the whole
// issue commits or rolls back as a unit.
func insertShadow(ctx context.Context, tx *sql.Tx, shadow *domain.Assessment, orgItems []domain.AssessmentItem) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO assessments (id, name, type, vendor_name, created_on) VALUES ($1, $2, $3, $4, $5)`,
		shadow.ID, shadow.Name, shadow.Type, shadow.VendorName, shadow.CreatedOn,
	)
	if err != nil {
		return fmt.Errorf("failed to create shadow assessment: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO assessment_items (id, assessment_id, function_id, subcategory_id, status, notes, updated_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare item insert: %w", err)
	}
	defer stmt.Close()

	for _, orgItem := range orgItems {
		_, err = stmt.ExecContext(ctx,
			uuid.New(), shadow.ID, orgItem.FunctionID, orgItem.SubcategoryID,
			domain.ItemStatusNotAssessed, "", shadow.CreatedOn,
		)
		if err != nil {
			return fmt.Errorf("failed to create shadow item for %s: %w", orgItem.SubcategoryID, err)
		}
	}

	return nil
}

func (r *assessmentRepository) UpdateItem(ctx context.Context, item *domain.AssessmentItem) error {
	query := `UPDATE assessment_items SET status = $1, notes = $2, updated_on = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, item.Status, item.Notes, item.UpdatedOn, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update assessment item: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("assessment item %s: %w", item.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *assessmentRepository) ResetItems(ctx context.Context, assessmentID uuid.UUID) error {
	query := `UPDATE assessment_items SET status = $1, notes = '', updated_on = $2 WHERE assessment_id = $3`
	_, err := r.db.ExecContext(ctx, query, domain.ItemStatusNotAssessed, time.Now(), assessmentID)
	if err != nil {
		return fmt.Errorf("failed to reset assessment items: %w", err)
	}
	return nil
}
