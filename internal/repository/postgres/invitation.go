package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/repository"
)

type invitationRepository struct {
	db *sql.DB
}

func NewInvitationRepository(db *sql.DB) repository.InvitationRepository {
	return &invitationRepository{db: db}
}

const invitationColumns = `id, org_assessment_id, vendor_assessment_id, access_token,
	vendor_email, vendor_name, message, status, expires_at, sent_at,
	accessed_at, completed_at, revoked_at, reminded_at`

func scanInvitation(row interface{ Scan(...any) error }) (*domain.Invitation, error) {
	inv := &domain.Invitation{}
	err := row.Scan(
		&inv.ID, &inv.OrgAssessmentID, &inv.VendorAssessmentID, &inv.AccessToken,
		&inv.VendorEmail, &inv.VendorName, &inv.Message, &inv.Status,
		&inv.ExpiresAt, &inv.SentAt,
		&inv.AccessedAt, &inv.CompletedAt, &inv.RevokedAt, &inv.RemindedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// The NOT EXISTS guard plus the partial unique index in the schema keep
// one active invitation per assessment across concurrent instances. A
// lost race surfaces as a unique violation.
const insertInvitationQuery = `
	INSERT INTO vendor_invitations
		(id, org_assessment_id, vendor_assessment_id, access_token,
		 vendor_email, vendor_name, message, status, expires_at, sent_at)
	SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
	WHERE NOT EXISTS (
		SELECT 1 FROM vendor_invitations
		WHERE org_assessment_id = $2
		  AND status IN ('pending', 'accessed')
		  AND expires_at > $10
	)`

type execContexter interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertInvitationRow(ctx context.Context, db execContexter, inv *domain.Invitation) error {
	res, err := db.ExecContext(ctx, insertInvitationQuery,
		inv.ID, inv.OrgAssessmentID, inv.VendorAssessmentID, inv.AccessToken,
		inv.VendorEmail, inv.VendorName, inv.Message, inv.Status,
		inv.ExpiresAt, inv.SentAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("assessment %s already has an active invitation: %w", inv.OrgAssessmentID, domain.ErrConflict)
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("assessment %s already has an active invitation: %w", inv.OrgAssessmentID, domain.ErrConflict)
	}
	return nil
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	return insertInvitationRow(ctx, r.db, inv)
}

// CreateWithShadow commits the shadow assessment, its item rows, and the
// invitation together. The invitation insert goes last so that losing
// the one-active-invitation race rolls the shadow back too, leaving no
// orphaned vendor_self assessment behind.
func (r *invitationRepository) CreateWithShadow(ctx context.Context, inv *domain.Invitation, shadow *domain.Assessment, orgItems []domain.AssessmentItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertShadow(ctx, tx, shadow, orgItems); err != nil {
		return err
	}
	if err := insertInvitationRow(ctx, tx, inv); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *invitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM vendor_invitations WHERE id = $1`
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invitation %s: %w", id, domain.ErrNotFound)
	}
	return inv, err
}

func (r *invitationRepository) GetByAssessment(ctx context.Context, assessmentID uuid.UUID) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM vendor_invitations
		WHERE org_assessment_id = $1 ORDER BY sent_at DESC LIMIT 1`
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, assessmentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invitation for assessment %s: %w", assessmentID, domain.ErrNotFound)
	}
	return inv, err
}

func (r *invitationRepository) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM vendor_invitations WHERE access_token = $1`
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invitation token: %w", domain.ErrNotFound)
	}
	return inv, err
}

// Transition applies one lifecycle event as a single conditional UPDATE.
// The WHERE clause is the compare half of the compare-and-set: it only
// matches invitations still in a state the event may leave, and only
// while unexpired, so concurrent writers cannot interleave.
func (r *invitationRepository) Transition(ctx context.Context, token string, event domain.InvitationEvent, now time.Time) (*domain.Invitation, error) {
	var query string
	switch event {
	case domain.EventAccess:
		// Idempotent: repeated access keeps the first accessed_at.
		query = `UPDATE vendor_invitations
			SET status = 'accessed', accessed_at = COALESCE(accessed_at, $2)
			WHERE access_token = $1
			  AND status IN ('pending', 'accessed')
			  AND expires_at > $2
			RETURNING ` + invitationColumns
	case domain.EventComplete:
		query = `UPDATE vendor_invitations
			SET status = 'completed', completed_at = $2
			WHERE access_token = $1
			  AND status IN ('pending', 'accessed')
			  AND expires_at > $2
			RETURNING ` + invitationColumns
	case domain.EventRevoke:
		query = `UPDATE vendor_invitations
			SET status = 'revoked', revoked_at = $2
			WHERE access_token = $1
			  AND status IN ('pending', 'accessed')
			  AND expires_at > $2
			RETURNING ` + invitationColumns
	default:
		return nil, fmt.Errorf("unknown invitation event %q: %w", event, domain.ErrValidation)
	}

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, token, now))
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to transition invitation: %w", err)
	}

	// No row matched: distinguish unknown token, expired, and terminal.
	current, getErr := r.GetByToken(ctx, token)
	if getErr != nil {
		return nil, getErr
	}
	if current.Status == domain.InvitationStatusPending || current.Status == domain.InvitationStatusAccessed {
		return nil, fmt.Errorf("invitation expired at %s: %w", current.ExpiresAt.Format(time.RFC3339), domain.ErrExpired)
	}
	return nil, fmt.Errorf("invitation is %s: %w", current.Status, domain.ErrTerminalState)
}

func (r *invitationRepository) ListExpiring(ctx context.Context, now time.Time, window time.Duration) ([]domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM vendor_invitations
		WHERE status IN ('pending', 'accessed')
		  AND expires_at > $1
		  AND expires_at <= $2
		  AND reminded_at IS NULL
		ORDER BY expires_at`
	rows, err := r.db.QueryContext(ctx, query, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("failed to list expiring invitations: %w", err)
	}
	defer rows.Close()

	var invs []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

func (r *invitationRepository) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE vendor_invitations SET reminded_at = $1 WHERE id = $2 AND reminded_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, at, id)
	return err
}

// SupersedeExpired closes out an expired invitation that still holds
// the assessment's active slot in the partial unique index. Only rows
// already past expiry qualify, so no live link is ever cut off here.
func (r *invitationRepository) SupersedeExpired(ctx context.Context, orgAssessmentID uuid.UUID, now time.Time) error {
	query := `UPDATE vendor_invitations
		SET status = 'revoked', revoked_at = $2
		WHERE org_assessment_id = $1
		  AND status IN ('pending', 'accessed')
		  AND expires_at <= $2`
	if _, err := r.db.ExecContext(ctx, query, orgAssessmentID, now); err != nil {
		return fmt.Errorf("failed to supersede expired invitation: %w", err)
	}
	return nil
}
