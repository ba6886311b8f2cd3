package scheduler

import (
	"context"
	"fmt"

	"solarmarket_backend/internal/contracts/transport"
	"solarmarket_backend/platform/config"
	"solarmarket_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ContractReconciler runs the repair pass for one contract.
type ContractReconciler interface {
	Reconcile(ctx context.Context, contractID uuid.UUID) (*transport.ReconcileResponse, error)
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	reconciler ContractReconciler
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, reconciler ContractReconciler, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		reconciler: reconciler,
		log:        log,
	}

	mux.HandleFunc(TaskContractReconcile, w.handleContractReconcile)

	return w, nil
}

func (w *Worker) handleContractReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseContractReconcilePayload(task)
	if err != nil {
		return err
	}

	contractID, err := uuid.Parse(payload.ContractID)
	if err != nil {
		return err
	}

	result, err := w.reconciler.Reconcile(ctx, contractID)
	if err != nil {
		w.log.Error("contract reconcile attempt failed",
			"contract_id", contractID,
			"failed_step", payload.FailedStep,
			"error", err)
		return err
	}

	w.log.Info("contract reconcile task done",
		"contract_id", contractID,
		"outcome", result.Outcome)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
