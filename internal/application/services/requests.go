package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/google/uuid"
)

// CreateRequestCommand carries the input for a new payment request.
// At least one of InvoiceID/BookingID is required, both only when they
// belong to the same customer. A request with no target would settle
// into a payment with no invoice or booking to reconcile against.
type CreateRequestCommand struct {
	CustomerID  string
	AmountCents int64
	Currency    string
	InvoiceID   *string
	BookingID   *string
	DueDate     *time.Time
	Notes       string
	CreatedBy   string
}

// RequestManager creates, sends, cancels and expires payment requests.
type RequestManager struct {
	requests application.PaymentRequestStore
	billing  application.BillingReader
	logger   *slog.Logger
}

func NewRequestManager(
	requests application.PaymentRequestStore,
	billing application.BillingReader,
	logger *slog.Logger,
) *RequestManager {
	return &RequestManager{
		requests: requests,
		billing:  billing,
		logger:   logger,
	}
}

// CreateRequest validates the target linkage and persists a new request
// in PENDING. Conflicting customer linkage between the named invoice and
// booking is rejected before any write.
func (m *RequestManager) CreateRequest(ctx context.Context, cmd CreateRequestCommand) (*domain.PaymentRequest, error) {
	money, err := domain.NewMoney(cmd.AmountCents, cmd.Currency)
	if err != nil {
		return nil, domain.NewInvalidAmountError(cmd.AmountCents)
	}

	request, err := domain.NewPaymentRequest(uuid.New().String(), cmd.CustomerID, money, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if cmd.InvoiceID == nil && cmd.BookingID == nil {
		return nil, domain.NewValidationError("invoice or booking reference")
	}
	if err := checkTargetLinkage(ctx, m.billing, cmd.CustomerID, cmd.InvoiceID, cmd.BookingID); err != nil {
		return nil, err
	}

	request.InvoiceID = cmd.InvoiceID
	request.BookingID = cmd.BookingID
	request.DueDate = cmd.DueDate
	request.Notes = cmd.Notes
	request.CreatedBy = cmd.CreatedBy

	if err := m.requests.Create(ctx, request); err != nil {
		return nil, application.NewInternalError(err)
	}

	m.logger.Info("payment request created",
		"request_id", request.ID,
		"customer_id", request.CustomerID,
		"amount_cents", request.AmountCents,
		"deposit", request.IsDeposit(),
	)
	return request, nil
}

// MarkSent stamps the send time, idempotently for already-sent requests.
func (m *RequestManager) MarkSent(ctx context.Context, requestID string) (*domain.PaymentRequest, error) {
	return m.mutate(ctx, requestID, func(r *domain.PaymentRequest, now time.Time) error {
		return r.MarkSent(now)
	})
}

// Cancel withdraws a non-terminal request.
func (m *RequestManager) Cancel(ctx context.Context, requestID, reason string) (*domain.PaymentRequest, error) {
	return m.mutate(ctx, requestID, func(r *domain.PaymentRequest, now time.Time) error {
		return r.Cancel(reason, now)
	})
}

// ExpireOverdue sweeps pending/sent requests whose due date has passed.
// Re-running the sweep has no further effect. Returns how many requests
// were expired.
func (m *RequestManager) ExpireOverdue(ctx context.Context, now time.Time, batchSize int) (int, error) {
	overdue, err := m.requests.FindOverdue(ctx, now, batchSize)
	if err != nil {
		return 0, application.NewInternalError(err)
	}

	expired := 0
	for _, request := range overdue {
		if !request.Expire(now) {
			continue
		}
		if err := m.requests.Update(ctx, request); err != nil {
			m.logger.Error("failed to expire payment request",
				"request_id", request.ID,
				"error", err,
			)
			continue
		}
		expired++
	}
	return expired, nil
}

func (m *RequestManager) mutate(
	ctx context.Context,
	requestID string,
	apply func(*domain.PaymentRequest, time.Time) error,
) (*domain.PaymentRequest, error) {
	request, err := m.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return nil, application.NewNotFoundError("payment request", err)
		}
		return nil, application.NewInternalError(err)
	}

	if err := apply(request, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := m.requests.Update(ctx, request); err != nil {
		return nil, application.NewInternalError(err)
	}
	return request, nil
}
