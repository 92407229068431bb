package jobs

import (
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/config"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/logger"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/repository"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	invRepo     repository.InvitationRepository
	emailSvc    service.EmailService
	invitations service.InvitationService
	config      *config.Config
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(invRepo repository.InvitationRepository, emailSvc service.EmailService, invitations service.InvitationService, cfg *config.Config) *JobRunner {
	return &JobRunner{
		invRepo:     invRepo,
		emailSvc:    emailSvc,
		invitations: invitations,
		config:      cfg,
	}
}

// Config returns the loaded configuration
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc()
	logger.Info("Job completed", "job", jobName)
}
