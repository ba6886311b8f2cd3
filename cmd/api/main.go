package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solarmarket_backend/internal/adapters"
	"solarmarket_backend/internal/adapters/storage"
	"solarmarket_backend/internal/contracts"
	contractservice "solarmarket_backend/internal/contracts/service"
	"solarmarket_backend/internal/documents"
	"solarmarket_backend/internal/email"
	"solarmarket_backend/internal/events"
	apphttp "solarmarket_backend/internal/http"
	"solarmarket_backend/internal/http/router"
	"solarmarket_backend/internal/notification"
	"solarmarket_backend/internal/projects"
	"solarmarket_backend/internal/quotations"
	"solarmarket_backend/internal/scheduler"
	"solarmarket_backend/migrations"
	"solarmarket_backend/platform/config"
	"solarmarket_backend/platform/db"
	"solarmarket_backend/platform/logger"
	"solarmarket_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS, ".")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reconcileScheduler, closeScheduler := initReconcileScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	policy, err := contractservice.LoadPricingPolicy(cfg.GetPricingPolicyPath())
	if err != nil {
		log.Error("failed to load pricing policy", "error", err)
		panic("failed to load pricing policy: " + err.Error())
	}
	log.Info("pricing policy loaded",
		"commission_bps", policy.CommissionBps,
		"milestones", len(policy.Milestones))

	sender := initEmailSender(cfg, log)

	// Object storage for generated contract documents (optional)
	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure contract documents bucket", 5, 2*time.Second, func() error {
			return minioSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketContractDocuments())
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err)
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		log.Info("storage service initialized", "bucket", cfg.GetMinioBucketContractDocuments())
		storageSvc = minioSvc
	} else {
		log.Warn("MINIO_ENDPOINT not configured; contract documents disabled")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	projectsModule := projects.NewModule(pool, val)
	quotationsModule := quotations.NewModule(pool, projectsModule.Repository(), val, log)
	contractsModule := contracts.NewModule(
		pool,
		projectsModule.Repository(),
		quotationsModule.Repository(),
		reconcileScheduler,
		eventBus,
		policy,
		storageSvc,
		cfg.GetMinioBucketContractDocuments(),
		val,
		log,
	)

	// Notification module subscribes to domain events (not HTTP-facing)
	notifier := notification.NewNotifier(sender, cfg.GetAppBaseURL(), log)
	notifier.Subscribe(eventBus)

	// Document processor renders and stores contract PDFs on issuance
	if storageSvc != nil {
		processor := adapters.NewContractDocumentProcessor(
			contractsModule.Repository(),
			documents.NewGenerator(),
			storageSvc,
			cfg,
			cfg.GetAppBaseURL(),
			log,
		)
		processor.Subscribe(eventBus)
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			projectsModule,
			quotationsModule,
			contractsModule,
		},
	}

	engine := router.New(app, cfg.Env)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initReconcileScheduler(cfg config.SchedulerConfig, log *logger.Logger) (contractservice.ReconcileScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; automatic contract reconciliation disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reconcile scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initEmailSender(cfg config.EmailConfig, log *logger.Logger) email.Sender {
	if !cfg.GetEmailEnabled() {
		log.Warn("EMAIL_ENABLED is false; contract emails disabled")
		return email.NoopSender{}
	}
	return email.NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
