package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/google/uuid"
)

// ProcessingOutcome classifies what applying a gateway event did.
type ProcessingOutcome string

const (
	OutcomeCreated                  ProcessingOutcome = "created"
	OutcomeUpdated                  ProcessingOutcome = "updated"
	OutcomeIgnoredDuplicate         ProcessingOutcome = "ignored_duplicate"
	OutcomeIgnoredIllegalTransition ProcessingOutcome = "ignored_illegal_transition"
	OutcomeError                    ProcessingOutcome = "error"
)

// ProcessingResult is returned from every ProcessEvent call. Callers use
// it to choose the acknowledgement response; nothing here triggers a
// retry.
type ProcessingResult struct {
	Outcome   ProcessingOutcome `json:"outcome"`
	PaymentID string            `json:"payment_id,omitempty"`
}

// eventTarget is the resolved correlation of an event's reference string.
type eventTarget struct {
	request    *domain.PaymentRequest
	invoiceID  *string
	bookingID  *string
	customerID string
}

// WebhookProcessor applies asynchronous gateway notifications to payment
// state. Events for the same transaction serialize on a keyed lock so
// the forward-transition check is race-free; events for different
// transactions proceed in parallel. Both the webhook endpoint and the
// synchronous return-flow confirmation funnel into ProcessEvent.
type WebhookProcessor struct {
	payments  application.PaymentStore
	requests  application.PaymentRequestStore
	ledger    application.EventLedger
	billing   application.BillingReader
	recompute application.RecomputeScheduler
	locks     *keyedMutex
	logger    *slog.Logger
}

func NewWebhookProcessor(
	payments application.PaymentStore,
	requests application.PaymentRequestStore,
	ledger application.EventLedger,
	billing application.BillingReader,
	recompute application.RecomputeScheduler,
	logger *slog.Logger,
) *WebhookProcessor {
	return &WebhookProcessor{
		payments:  payments,
		requests:  requests,
		ledger:    ledger,
		billing:   billing,
		recompute: recompute,
		locks:     newKeyedMutex(),
		logger:    logger,
	}
}

// ProcessEvent validates, correlates and applies one gateway event.
// Processing the same event id twice is a no-op reported as
// ignored_duplicate. Illegal transitions are reported, never applied.
func (p *WebhookProcessor) ProcessEvent(ctx context.Context, event *domain.GatewayEvent) (*ProcessingResult, error) {
	if err := event.Validate(); err != nil {
		return &ProcessingResult{Outcome: OutcomeError}, err
	}

	unlock := p.locks.Lock(event.TransactionID)
	defer unlock()

	if prior, err := p.ledger.Find(ctx, event.EventID); err != nil {
		return &ProcessingResult{Outcome: OutcomeError}, application.NewInternalError(err)
	} else if prior != nil {
		p.logger.Info("duplicate gateway event ignored",
			"event_id", event.EventID,
			"payment_id", prior.PaymentID,
			"first_outcome", prior.Outcome,
		)
		return &ProcessingResult{Outcome: OutcomeIgnoredDuplicate, PaymentID: prior.PaymentID}, nil
	}

	target, err := p.resolveReference(ctx, event.Reference)
	if err != nil {
		return &ProcessingResult{Outcome: OutcomeError}, err
	}

	mapped, known := MapGatewayStatus(event.Status)
	if !known {
		p.logger.Warn("unrecognized gateway status, treating as processing",
			"event_id", event.EventID,
			"status", event.Status,
		)
	}

	now := time.Now().UTC()
	payment, err := p.payments.FindByTransactionID(ctx, event.TransactionID)
	var outcome ProcessingOutcome
	becamePaid := false

	switch {
	case errors.Is(err, application.ErrNotFound):
		payment, err = p.createPayment(ctx, event, target, mapped, now)
		if err != nil {
			return &ProcessingResult{Outcome: OutcomeError}, err
		}
		outcome = OutcomeCreated
		becamePaid = payment.Status == domain.PaymentPaid

	case err != nil:
		return &ProcessingResult{Outcome: OutcomeError}, application.NewInternalError(err)

	default:
		wasPaid := payment.Status == domain.PaymentPaid
		priorStatus := payment.Status
		if applyErr := payment.ApplyGatewayStatus(mapped, now); applyErr != nil {
			p.logger.Warn("illegal payment transition ignored",
				"event_id", event.EventID,
				"payment_id", payment.ID,
				"current_status", payment.Status,
				"mapped_status", mapped,
			)
			outcome = OutcomeIgnoredIllegalTransition
			break
		}
		eventID := event.EventID
		payment.LastEventID = &eventID
		if err := p.payments.UpdateFromStatus(ctx, payment, priorStatus); err != nil {
			if errors.Is(err, application.ErrStaleUpdate) {
				// Another process moved the payment first. Fail the
				// delivery so the gateway retries against the new state.
				p.logger.Warn("payment changed concurrently, deferring event",
					"event_id", event.EventID,
					"payment_id", payment.ID,
				)
			}
			return &ProcessingResult{Outcome: OutcomeError}, application.NewInternalError(err)
		}
		outcome = OutcomeUpdated
		becamePaid = !wasPaid && payment.Status == domain.PaymentPaid
	}

	if err := p.recordEvent(ctx, event, payment.ID, outcome, now); err != nil {
		if errors.Is(err, application.ErrDuplicateEvent) {
			// Another process applied this event between our ledger
			// check and write.
			return &ProcessingResult{Outcome: OutcomeIgnoredDuplicate, PaymentID: payment.ID}, nil
		}
		return &ProcessingResult{Outcome: OutcomeError}, application.NewInternalError(err)
	}

	if becamePaid {
		p.cascadePaid(ctx, payment, target, now)
	}

	p.logger.Info("gateway event applied",
		"event_id", event.EventID,
		"payment_id", payment.ID,
		"outcome", outcome,
		"status", payment.Status,
	)
	return &ProcessingResult{Outcome: outcome, PaymentID: payment.ID}, nil
}

func (p *WebhookProcessor) createPayment(
	ctx context.Context,
	event *domain.GatewayEvent,
	target eventTarget,
	status domain.PaymentStatus,
	now time.Time,
) (*domain.Payment, error) {
	money, err := domain.NewMoney(event.AmountCents, event.Currency)
	if err != nil {
		return nil, domain.NewInvalidAmountError(event.AmountCents)
	}

	payment, err := domain.NewGatewayPayment(uuid.New().String(), target.customerID, money, event.TransactionID, status, now)
	if err != nil {
		return nil, err
	}
	payment.InvoiceID = target.invoiceID
	payment.BookingID = target.bookingID
	eventID := event.EventID
	payment.LastEventID = &eventID

	if err := p.payments.Create(ctx, payment); err != nil {
		return nil, application.NewInternalError(err)
	}
	return payment, nil
}

func (p *WebhookProcessor) recordEvent(ctx context.Context, event *domain.GatewayEvent, paymentID string, outcome ProcessingOutcome, now time.Time) error {
	return p.ledger.Record(ctx, &application.ProcessedEvent{
		EventID:     event.EventID,
		PaymentID:   paymentID,
		Outcome:     string(outcome),
		ProcessedAt: now,
	})
}

// cascadePaid settles the correlated request and schedules the balance
// recompute. Request settlement failures are logged, not propagated: the
// payment itself is already committed and the request transition is
// idempotent on the next event.
func (p *WebhookProcessor) cascadePaid(ctx context.Context, payment *domain.Payment, target eventTarget, now time.Time) {
	if target.request != nil {
		if err := target.request.MarkPaid(now); err != nil {
			p.logger.Warn("payment request not settled",
				"request_id", target.request.ID,
				"error", err,
			)
		} else if err := p.requests.Update(ctx, target.request); err != nil {
			p.logger.Error("failed to persist settled payment request",
				"request_id", target.request.ID,
				"error", err,
			)
		}
	}

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
	p.recompute.Schedule(job)
}

// resolveReference maps the event's reference string onto a payment
// request (preferred), or directly onto an invoice or booking for
// checkouts created out-of-band. A single lookup pass; misses are
// reported as UnresolvedReference, not retried here.
func (p *WebhookProcessor) resolveReference(ctx context.Context, reference string) (eventTarget, error) {
	if id, ok := strings.CutPrefix(reference, "req_"); ok {
		request, err := p.requests.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, application.ErrNotFound) {
				return eventTarget{}, domain.NewUnresolvedReferenceError(reference)
			}
			return eventTarget{}, application.NewInternalError(err)
		}
		return eventTarget{
			request:    request,
			invoiceID:  request.InvoiceID,
			bookingID:  request.BookingID,
			customerID: request.CustomerID,
		}, nil
	}

	if id, ok := strings.CutPrefix(reference, "invoice_"); ok {
		invoice, err := p.billing.InvoiceByID(ctx, id)
		if err != nil {
			if errors.Is(err, application.ErrNotFound) {
				return eventTarget{}, domain.NewUnresolvedReferenceError(reference)
			}
			return eventTarget{}, application.NewInternalError(err)
		}
		invoiceID := invoice.ID
		return eventTarget{invoiceID: &invoiceID, customerID: invoice.CustomerID}, nil
	}

	if id, ok := strings.CutPrefix(reference, "booking_"); ok {
		booking, err := p.billing.BookingByID(ctx, id)
		if err != nil {
			if errors.Is(err, application.ErrNotFound) {
				return eventTarget{}, domain.NewUnresolvedReferenceError(reference)
			}
			return eventTarget{}, application.NewInternalError(err)
		}
		bookingID := booking.ID
		return eventTarget{bookingID: &bookingID, customerID: booking.CustomerID}, nil
	}

	return eventTarget{}, domain.NewUnresolvedReferenceError(reference)
}
