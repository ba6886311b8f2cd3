package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	contractrepo "solarmarket_backend/internal/contracts/repository"
	contractservice "solarmarket_backend/internal/contracts/service"
	"solarmarket_backend/internal/events"
	projectrepo "solarmarket_backend/internal/projects/repository"
	quotationrepo "solarmarket_backend/internal/quotations/repository"
	"solarmarket_backend/internal/scheduler"
	"solarmarket_backend/platform/config"
	"solarmarket_backend/platform/db"
	"solarmarket_backend/platform/logger"
)

// The reconciler consumes contracts.reconcile tasks and runs the repair pass
// for each referenced contract. It shares the API's repositories and policy
// but serves no HTTP traffic.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting reconciler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	policy, err := contractservice.LoadPricingPolicy(cfg.GetPricingPolicyPath())
	if err != nil {
		log.Error("failed to load pricing policy", "error", err)
		panic("failed to load pricing policy: " + err.Error())
	}

	// The repair pass never re-enqueues itself; asynq retries failed tasks.
	svc := contractservice.New(
		contractrepo.New(pool),
		quotationrepo.New(pool),
		projectrepo.New(pool),
		nil,
		events.NewInMemoryBus(log),
		policy,
		nil,
		"",
		log,
	)

	worker, err := scheduler.NewWorker(cfg, svc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	log.Info("reconciler listening for tasks", "queue", cfg.GetAsynqQueueName())
	worker.Run(ctx)
	log.Info("reconciler stopped")
}
