package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/application/services"
)

// RecomputeWorker drains balance recompute jobs queued by the paid
// cascade and offline recording: it recomputes the affected balance,
// refreshes the cache and publishes the balance-changed signal. Every
// failure is logged with the job identity, so reconciliation problems
// are visible instead of vanishing into a fire-and-forget goroutine.
//
// The queue is bounded; when it is full the job is dropped with a
// warning. A dropped job costs cache freshness only, since balances are
// recomputed lazily on the next read.
type RecomputeWorker struct {
	balances *services.CachedBalances
	notifier application.BalanceNotifier
	jobs     chan application.RecomputeJob
	logger   *slog.Logger
}

func NewRecomputeWorker(
	balances *services.CachedBalances,
	notifier application.BalanceNotifier,
	queueSize int,
	logger *slog.Logger,
) *RecomputeWorker {
	return &RecomputeWorker{
		balances: balances,
		notifier: notifier,
		jobs:     make(chan application.RecomputeJob, queueSize),
		logger:   logger,
	}
}

// Schedule implements application.RecomputeScheduler. Never blocks the
// caller.
func (w *RecomputeWorker) Schedule(job application.RecomputeJob) {
	select {
	case w.jobs <- job:
	default:
		w.logger.Warn("recompute queue full, dropping job",
			"invoice_id", job.InvoiceID,
			"booking_id", job.BookingID,
			"payment_id", job.PaymentID,
		)
	}
}

func (w *RecomputeWorker) Start(ctx context.Context) {
	w.logger.Info("recompute worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("recompute worker stopping")
			return
		case job := <-w.jobs:
			w.process(ctx, job)
		}
	}
}

func (w *RecomputeWorker) process(ctx context.Context, job application.RecomputeJob) {
	summary, err := w.refresh(ctx, job)
	if err != nil {
		w.logger.Error("balance recompute failed",
			"invoice_id", job.InvoiceID,
			"booking_id", job.BookingID,
			"payment_id", job.PaymentID,
			"error", err,
		)
		return
	}

	event := application.BalanceChanged{
		InvoiceID:        summary.InvoiceID,
		BookingID:        summary.BookingID,
		CustomerID:       summary.CustomerID,
		PaymentID:        job.PaymentID,
		OccurredAt:       time.Now().UTC(),
		TotalPaidCents:   summary.TotalPaidCents,
		OutstandingCents: summary.OutstandingCents,
		Currency:         summary.Currency,
	}
	if err := w.notifier.BalanceChanged(ctx, event); err != nil {
		w.logger.Error("balance change publish failed",
			"invoice_id", job.InvoiceID,
			"booking_id", job.BookingID,
			"error", err,
		)
	}
}

func (w *RecomputeWorker) refresh(ctx context.Context, job application.RecomputeJob) (*application.BalanceSummary, error) {
	if job.InvoiceID != "" {
		return w.balances.RefreshInvoice(ctx, job.InvoiceID)
	}
	return w.balances.RefreshBooking(ctx, job.BookingID)
}
