package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	httpapi "github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/api/http"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/config"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/jobs"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/logger"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/repository/postgres"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/scheduler"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/security"
	"github.com/mehmettunahanokumus/csf-compass-cloudflare-sub001/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting CSF Compass invitation service...",
		"address", cfg.GetServerAddress(), "portal_base_url", cfg.Server.PortalBaseURL)

	// Initialize Database
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
	logger.Info("Database connection established",
		"host", cfg.Database.Host, "database", cfg.Database.Database)

	// Repositories
	store := postgres.NewStore(db)

	// Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret)

	// Services
	emailSvc := service.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	invitationSvc := service.NewInvitationService(
		store.InvitationRepository,
		store.AssessmentRepository,
		emailSvc,
		cfg.Server.PortalBaseURL,
		cfg.Invitations.ReissueResetsAnswers,
	)
	portalSvc := service.NewPortalService(
		store.InvitationRepository,
		store.AssessmentRepository,
		emailSvc,
		tokenManager,
		cfg.VendorSessionTTL(),
		cfg.SendGrid.OrgNotifyEmail,
	)
	comparisonSvc := service.NewComparisonService(
		store.InvitationRepository,
		store.AssessmentRepository,
		cfg.Comparison.ExcludeNotApplicable,
	)

	// Reminder scheduler
	jobRunner := jobs.NewJobRunner(store.InvitationRepository, emailSvc, invitationSvc, cfg)
	sched := scheduler.NewScheduler(jobRunner)
	sched.Start()
	defer sched.Stop()

	// HTTP server
	router := httpapi.NewRouter(httpapi.RouterDeps{
		Invitations: invitationSvc,
		Portal:      portalSvc,
		Comparisons: comparisonSvc,
		Tokens:      tokenManager,
		Config:      cfg,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
