package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvitation_EffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	t.Run("PendingBeforeExpiry", func(t *testing.T) {
		inv := &Invitation{Status: InvitationStatusPending, ExpiresAt: future}
		assert.Equal(t, InvitationStatusPending, inv.EffectiveStatus(now))
		assert.True(t, inv.Active(now))
	})

	t.Run("PendingAfterExpiryReadsExpired", func(t *testing.T) {
		inv := &Invitation{Status: InvitationStatusPending, ExpiresAt: past}
		assert.Equal(t, InvitationStatusExpired, inv.EffectiveStatus(now))
		// Stored status is untouched; only the view changes.
		assert.Equal(t, InvitationStatusPending, inv.Status)
		assert.False(t, inv.Active(now))
		assert.True(t, inv.Terminal(now))
	})

	t.Run("AccessedAfterExpiryReadsExpired", func(t *testing.T) {
		inv := &Invitation{Status: InvitationStatusAccessed, ExpiresAt: past}
		assert.Equal(t, InvitationStatusExpired, inv.EffectiveStatus(now))
	})

	t.Run("CompletedSurvivesExpiry", func(t *testing.T) {
		inv := &Invitation{Status: InvitationStatusCompleted, ExpiresAt: past}
		assert.Equal(t, InvitationStatusCompleted, inv.EffectiveStatus(now))
		assert.True(t, inv.Terminal(now))
	})

	t.Run("RevokedSurvivesExpiry", func(t *testing.T) {
		inv := &Invitation{Status: InvitationStatusRevoked, ExpiresAt: future}
		assert.Equal(t, InvitationStatusRevoked, inv.EffectiveStatus(now))
		assert.False(t, inv.Active(now))
	})
}

func TestParseItemStatus(t *testing.T) {
	t.Run("AcceptsClosedSet", func(t *testing.T) {
		for _, s := range []string{"compliant", "partial", "non_compliant", "not_applicable", "not_assessed"} {
			got, err := ParseItemStatus(s)
			assert.NoError(t, err)
			assert.Equal(t, ItemStatus(s), got)
		}
	})

	t.Run("RejectsUnknownValues", func(t *testing.T) {
		for _, s := range []string{"", "COMPLIANT", "done", "n/a"} {
			_, err := ParseItemStatus(s)
			assert.ErrorIs(t, err, ErrValidation)
		}
	})
}
