package jobs

import (
	"context"
	"time"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/logger"
)

// SendExpiryReminders emails vendors whose invitation is still open but
// expires inside the reminder window. Each invitation is reminded at
// most once. Stored status is never touched here: expiry stays a
// read-time computation, not a sweep.
func (jr *JobRunner) SendExpiryReminders() {
	jr.runWithRecovery("SendExpiryReminders", func() {
		ctx := context.Background()
		now := time.Now()
		window := time.Duration(jr.config.Invitations.ReminderWindowHours) * time.Hour

		invs, err := jr.invRepo.ListExpiring(ctx, now, window)
		if err != nil {
			logger.Error("Failed to list expiring invitations", "error", err)
			return
		}

		sent := 0
		for i := range invs {
			inv := &invs[i]
			link := jr.invitations.MagicLink(inv.AccessToken)
			if err := jr.emailSvc.SendExpiryReminder(ctx, inv, link); err != nil {
				logger.Error("Failed to send expiry reminder",
					"invitation_id", inv.ID, "vendor_email", inv.VendorEmail, "error", err)
				continue
			}
			if err := jr.invRepo.MarkReminded(ctx, inv.ID, now); err != nil {
				logger.Error("Failed to mark invitation as reminded", "invitation_id", inv.ID, "error", err)
				continue
			}
			sent++
		}

		logger.Info("Expiry reminders processed", "candidates", len(invs), "sent", sent)
	})
}
