package main

import (
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/config"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/jobs"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/logger"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/repository/postgres"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/scheduler"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'send-expiry-reminders')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting cronjob runner...", "log_level", cfg.Log.Level)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	emailSvc := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	invitationSvc := service.NewInvitationService(
		store.InvitationRepository,
		store.AssessmentRepository,
		emailSvc,
		cfg.Server.PortalBaseURL,
		cfg.Invitations.ReissueResetsAnswers,
	)

	jobRunner := jobs.NewJobRunner(store.InvitationRepository, emailSvc, invitationSvc, cfg)

	if *runOnce != "" {
		switch *runOnce {
		case "send-expiry-reminders":
			jobRunner.SendExpiryReminders()
		default:
			log.Fatalf("Unknown job: %s", *runOnce)
		}
		return
	}

	sched := scheduler.NewScheduler(jobRunner)
	sched.Start()
	defer sched.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Cronjob runner stopped")
}
