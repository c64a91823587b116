package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/google/uuid"
)

// RecordOfflineCommand captures a payment collected outside the gateway
// (cash, bank transfer) that staff record after the fact.
type RecordOfflineCommand struct {
	CustomerID  string
	AmountCents int64
	Currency    string
	InvoiceID   *string
	BookingID   *string
	Notes       string
	RecordedBy  string
}

// OfflineRecorder writes staff-recorded payments with the same linkage
// validation as payment request creation, and feeds them into the same
// balance aggregation.
type OfflineRecorder struct {
	payments  application.PaymentStore
	billing   application.BillingReader
	recompute application.RecomputeScheduler
	logger    *slog.Logger
}

func NewOfflineRecorder(
	payments application.PaymentStore,
	billing application.BillingReader,
	recompute application.RecomputeScheduler,
	logger *slog.Logger,
) *OfflineRecorder {
	return &OfflineRecorder{
		payments:  payments,
		billing:   billing,
		recompute: recompute,
		logger:    logger,
	}
}

func (r *OfflineRecorder) Record(ctx context.Context, cmd RecordOfflineCommand) (*domain.Payment, error) {
	money, err := domain.NewMoney(cmd.AmountCents, cmd.Currency)
	if err != nil {
		return nil, domain.NewInvalidAmountError(cmd.AmountCents)
	}
	if cmd.InvoiceID == nil && cmd.BookingID == nil {
		return nil, domain.NewValidationError("invoice or booking reference")
	}

	if err := checkTargetLinkage(ctx, r.billing, cmd.CustomerID, cmd.InvoiceID, cmd.BookingID); err != nil {
		return nil, err
	}

	payment, err := domain.NewOfflinePayment(uuid.New().String(), cmd.CustomerID, money, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	payment.InvoiceID = cmd.InvoiceID
	payment.BookingID = cmd.BookingID

	if err := r.payments.Create(ctx, payment); err != nil {
		return nil, application.NewInternalError(err)
	}

	r.logger.Info("offline payment recorded",
		"payment_id", payment.ID,
		"customer_id", payment.CustomerID,
		"amount_cents", payment.AmountCents,
		"recorded_by", cmd.RecordedBy,
	)

	job := application.RecomputeJob{
		CustomerID: payment.CustomerID,
		PaymentID:  payment.ID,
	}
	if payment.InvoiceID != nil {
		job.InvoiceID = *payment.InvoiceID
	}
	if payment.BookingID != nil {
		job.BookingID = *payment.BookingID
	}
	r.recompute.Schedule(job)

	return payment, nil
}
