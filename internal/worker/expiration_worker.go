package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/clinicdesk/payments/internal/application/services"
)

// ExpirationWorker periodically sweeps overdue payment requests into
// EXPIRED. The sweep is idempotent, so overlapping or repeated runs are
// harmless.
type ExpirationWorker struct {
	manager   *services.RequestManager
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

func NewExpirationWorker(
	manager *services.RequestManager,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *ExpirationWorker {
	return &ExpirationWorker{
		manager:   manager,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (w *ExpirationWorker) Start(ctx context.Context) {
	w.logger.Info("expiration worker started", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("expiration worker stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single expiry sweep.
func (w *ExpirationWorker) RunOnce(ctx context.Context) {
	expired, err := w.manager.ExpireOverdue(ctx, time.Now().UTC(), w.batchSize)
	if err != nil {
		w.logger.Error("expiry sweep failed", "error", err)
		return
	}
	if expired > 0 {
		w.logger.Info("expired overdue payment requests", "count", expired)
	}
}
