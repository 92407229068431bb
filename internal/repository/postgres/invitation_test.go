package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/domain"
)

var invitationCols = []string{
	"id", "org_assessment_id", "vendor_assessment_id", "access_token",
	"vendor_email", "vendor_name", "message", "status", "expires_at", "sent_at",
	"accessed_at", "completed_at", "revoked_at", "reminded_at",
}

func invitationRow(inv *domain.Invitation) *sqlmock.Rows {
	return sqlmock.NewRows(invitationCols).AddRow(
		inv.ID.String(), inv.OrgAssessmentID.String(), inv.VendorAssessmentID.String(), inv.AccessToken,
		inv.VendorEmail, inv.VendorName, inv.Message, string(inv.Status), inv.ExpiresAt, inv.SentAt,
		inv.AccessedAt, inv.CompletedAt, inv.RevokedAt, inv.RemindedAt,
	)
}

func testInvitation(status domain.InvitationStatus, expiresAt time.Time) *domain.Invitation {
	return &domain.Invitation{
		ID:                 uuid.New(),
		OrgAssessmentID:    uuid.New(),
		VendorAssessmentID: uuid.New(),
		AccessToken:        "tok-abc",
		VendorEmail:        "vendor@example.com",
		Status:             status,
		ExpiresAt:          expiresAt,
		SentAt:             expiresAt.AddDate(0, 0, -30),
	}
}

func TestInvitationRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInvitationRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		inv := testInvitation(domain.InvitationStatusPending, time.Now().Add(24*time.Hour))

		mock.ExpectExec("INSERT INTO vendor_invitations").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(ctx, inv)
		assert.NoError(t, err)
	})

	t.Run("ConflictWhenActiveInvitationExists", func(t *testing.T) {
		inv := testInvitation(domain.InvitationStatusPending, time.Now().Add(24*time.Hour))

		// The NOT EXISTS guard matched nothing, so no row was inserted.
		mock.ExpectExec("INSERT INTO vendor_invitations").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Create(ctx, inv)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestInvitationRepository_CreateWithShadow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInvitationRepository(db)
	ctx := context.Background()

	shadow := &domain.Assessment{
		ID:        uuid.New(),
		Name:      "Acme Corp Vendor Review (vendor self-assessment)",
		Type:      domain.AssessmentTypeVendorSelf,
		CreatedOn: time.Now(),
	}
	items := []domain.AssessmentItem{
		{ID: uuid.New(), FunctionID: "GV", SubcategoryID: "GV.OC-01"},
		{ID: uuid.New(), FunctionID: "PR", SubcategoryID: "PR.AA-01"},
	}

	t.Run("CommitsShadowAndInvitationTogether", func(t *testing.T) {
		inv := testInvitation(domain.InvitationStatusPending, time.Now().Add(24*time.Hour))
		inv.VendorAssessmentID = shadow.ID

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO assessments").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectPrepare("INSERT INTO assessment_items")
		mock.ExpectExec("INSERT INTO assessment_items").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO assessment_items").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO vendor_invitations").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CreateWithShadow(ctx, inv, shadow, items)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LostRaceRollsShadowBack", func(t *testing.T) {
		inv := testInvitation(domain.InvitationStatusPending, time.Now().Add(24*time.Hour))
		inv.VendorAssessmentID = shadow.ID

		// A concurrent issue slipped in between the pre-check and the
		// insert: the guard matches nothing, and the shadow rows must not
		// survive the rollback.
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO assessments").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectPrepare("INSERT INTO assessment_items")
		mock.ExpectExec("INSERT INTO assessment_items").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO assessment_items").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO vendor_invitations").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.CreateWithShadow(ctx, inv, shadow, items)
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInvitationRepository_GetByToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInvitationRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		inv := testInvitation(domain.InvitationStatusAccessed, time.Now().Add(24*time.Hour))

		mock.ExpectQuery("SELECT (.+) FROM vendor_invitations WHERE access_token").
			WithArgs(inv.AccessToken).
			WillReturnRows(invitationRow(inv))

		got, err := repo.GetByToken(ctx, inv.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, inv.ID, got.ID)
		assert.Equal(t, domain.InvitationStatusAccessed, got.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM vendor_invitations WHERE access_token").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(invitationCols))

		_, err := repo.GetByToken(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestInvitationRepository_Transition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInvitationRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("AccessMovesPendingToAccessed", func(t *testing.T) {
		inv := testInvitation(domain.InvitationStatusAccessed, now.Add(24*time.Hour))
		accessed := now
		inv.AccessedAt = &accessed

		mock.ExpectQuery("UPDATE vendor_invitations").
			WithArgs(inv.AccessToken, now).
			WillReturnRows(invitationRow(inv))

		got, err := repo.Transition(ctx, inv.AccessToken, domain.EventAccess, now)
		require.NoError(t, err)
		assert.Equal(t, domain.InvitationStatusAccessed, got.Status)
		assert.NotNil(t, got.AccessedAt)
	})

	t.Run("ExpiredClassifiedFromStoredStatus", func(t *testing.T) {
		// Conditional update matches nothing; the follow-up read shows a
		// stored pending row past its expiry.
		inv := testInvitation(domain.InvitationStatusPending, now.Add(-time.Hour))

		mock.ExpectQuery("UPDATE vendor_invitations").
			WithArgs(inv.AccessToken, now).
			WillReturnRows(sqlmock.NewRows(invitationCols))
		mock.ExpectQuery("SELECT (.+) FROM vendor_invitations WHERE access_token").
			WithArgs(inv.AccessToken).
			WillReturnRows(invitationRow(inv))

		_, err := repo.Transition(ctx, inv.AccessToken, domain.EventComplete, now)
		assert.ErrorIs(t, err, domain.ErrExpired)
	})

	t.Run("TerminalClassifiedFromStoredStatus", func(t *testing.T) {
		inv := testInvitation(domain.InvitationStatusRevoked, now.Add(24*time.Hour))
		revoked := now.Add(-time.Minute)
		inv.RevokedAt = &revoked

		mock.ExpectQuery("UPDATE vendor_invitations").
			WithArgs(inv.AccessToken, now).
			WillReturnRows(sqlmock.NewRows(invitationCols))
		mock.ExpectQuery("SELECT (.+) FROM vendor_invitations WHERE access_token").
			WithArgs(inv.AccessToken).
			WillReturnRows(invitationRow(inv))

		_, err := repo.Transition(ctx, inv.AccessToken, domain.EventAccess, now)
		assert.ErrorIs(t, err, domain.ErrTerminalState)
	})

	t.Run("UnknownTokenIsNotFound", func(t *testing.T) {
		mock.ExpectQuery("UPDATE vendor_invitations").
			WithArgs("missing", now).
			WillReturnRows(sqlmock.NewRows(invitationCols))
		mock.ExpectQuery("SELECT (.+) FROM vendor_invitations WHERE access_token").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(invitationCols))

		_, err := repo.Transition(ctx, "missing", domain.EventRevoke, now)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UnknownEventRejected", func(t *testing.T) {
		_, err := repo.Transition(ctx, "tok", domain.InvitationEvent("explode"), now)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestInvitationRepository_ListExpiring(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInvitationRepository(db)
	ctx := context.Background()
	now := time.Now()

	inv := testInvitation(domain.InvitationStatusPending, now.Add(48*time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM vendor_invitations").
		WithArgs(now, now.Add(72*time.Hour)).
		WillReturnRows(invitationRow(inv))

	got, err := repo.ListExpiring(ctx, now, 72*time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inv.ID, got[0].ID)
}
