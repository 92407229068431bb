package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/jobs"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Invitations

	_, err := s.cron.AddFunc(cfg.ReminderSchedule, s.jobs.SendExpiryReminders)
	if err != nil {
		logger.Error("Failed to register SendExpiryReminders job", "error", err)
		return
	}

	logger.Info("Cron jobs registered", "reminder_schedule", cfg.ReminderSchedule)
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has registered entries
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
