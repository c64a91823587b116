package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/application/services"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processorFixture struct {
	payments  *services.MemoryPaymentStore
	requests  *services.MemoryRequestStore
	ledger    *services.MemoryEventLedger
	billing   *services.MemoryBillingReader
	scheduler *services.RecordedScheduler
	processor *services.WebhookProcessor
}

func newProcessorFixture() *processorFixture {
	f := &processorFixture{
		payments:  services.NewMemoryPaymentStore(),
		requests:  services.NewMemoryRequestStore(),
		ledger:    services.NewMemoryEventLedger(),
		billing:   services.NewMemoryBillingReader(),
		scheduler: &services.RecordedScheduler{},
	}
	f.processor = services.NewWebhookProcessor(
		f.payments,
		f.requests,
		f.ledger,
		f.billing,
		f.scheduler,
		testLogger(),
	)
	return f
}

func (f *processorFixture) addRequest(t *testing.T, id string, invoiceID, bookingID *string) *domain.PaymentRequest {
	t.Helper()
	money, err := domain.NewMoney(2000, "EUR")
	require.NoError(t, err)
	request, err := domain.NewPaymentRequest(id, "cust-1", money, time.Now().UTC())
	require.NoError(t, err)
	request.InvoiceID = invoiceID
	request.BookingID = bookingID
	require.NoError(t, f.requests.Create(context.Background(), request))
	return request
}

func gatewayEvent(eventID, transactionID, reference, status string) *domain.GatewayEvent {
	return &domain.GatewayEvent{
		EventID:       eventID,
		EventType:     "checkout.updated",
		CheckoutID:    "chk-1",
		TransactionID: transactionID,
		Reference:     reference,
		AmountCents:   2000,
		Currency:      "EUR",
		Status:        status,
		OccurredAt:    time.Now().UTC(),
	}
}

func TestProcessEventCreatesPayment(t *testing.T) {
	f := newProcessorFixture()
	bookingID := "booking-1"
	f.addRequest(t, "r1", nil, &bookingID)

	result, err := f.processor.ProcessEvent(context.Background(), gatewayEvent("evt-1", "tx-1", "req_r1", "pending"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCreated, result.Outcome)
	require.NotEmpty(t, result.PaymentID)

	payment, err := f.payments.FindByID(context.Background(), result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPending, payment.Status)
	assert.Equal(t, "cust-1", payment.CustomerID)
	require.NotNil(t, payment.BookingID)
	assert.Equal(t, bookingID, *payment.BookingID)
	assert.True(t, payment.IsDeposit())
	require.NotNil(t, payment.LastEventID)
	assert.Equal(t, "evt-1", *payment.LastEventID)

	// no paid cascade for a pending payment
	assert.Equal(t, 0, f.scheduler.Count())
}

func TestProcessEventUpdatesPayment(t *testing.T) {
	f := newProcessorFixture()
	bookingID := "booking-1"
	f.addRequest(t, "r1", nil, &bookingID)

	ctx := context.Background()
	created, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-1", "tx-1", "req_r1", "pending"))
	require.NoError(t, err)

	result, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-2", "tx-1", "req_r1", "completed"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeUpdated, result.Outcome)
	assert.Equal(t, created.PaymentID, result.PaymentID)

	payment, err := f.payments.FindByID(ctx, result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, payment.Status)
	require.NotNil(t, payment.PaidAt)
	assert.Equal(t, "evt-2", *payment.LastEventID)
}

func TestProcessEventDuplicateIsIgnored(t *testing.T) {
	f := newProcessorFixture()
	bookingID := "booking-1"
	f.addRequest(t, "r1", nil, &bookingID)

	ctx := context.Background()
	event := gatewayEvent("evt-1", "tx-1", "req_r1", "completed")

	first, err := f.processor.ProcessEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCreated, first.Outcome)
	assert.Equal(t, 1, f.scheduler.Count())

	second, err := f.processor.ProcessEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeIgnoredDuplicate, second.Outcome)
	assert.Equal(t, first.PaymentID, second.PaymentID)

	// the redelivery must not re-run the paid cascade
	assert.Equal(t, 1, f.scheduler.Count())

	payment, err := f.payments.FindByID(ctx, first.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, payment.Status)
}

func TestProcessEventIllegalTransitionIsReported(t *testing.T) {
	f := newProcessorFixture()
	bookingID := "booking-1"
	f.addRequest(t, "r1", nil, &bookingID)

	ctx := context.Background()
	paid, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-1", "tx-1", "req_r1", "completed"))
	require.NoError(t, err)

	// a late out-of-order failed notification for the same transaction
	result, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-2", "tx-1", "req_r1", "failed"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeIgnoredIllegalTransition, result.Outcome)

	payment, err := f.payments.FindByID(ctx, paid.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, payment.Status)
	assert.Equal(t, "evt-1", *payment.LastEventID)

	// redelivering the rejected event is still a duplicate, not a retry
	again, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-2", "tx-1", "req_r1", "failed"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeIgnoredDuplicate, again.Outcome)
}

func TestProcessEventRefundAfterPaid(t *testing.T) {
	f := newProcessorFixture()
	bookingID := "booking-1"
	f.addRequest(t, "r1", nil, &bookingID)

	ctx := context.Background()
	paid, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-1", "tx-1", "req_r1", "completed"))
	require.NoError(t, err)

	result, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-2", "tx-1", "req_r1", "refunded"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeUpdated, result.Outcome)

	payment, err := f.payments.FindByID(ctx, paid.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, payment.Status)
}

func TestProcessEventUnresolvedReference(t *testing.T) {
	f := newProcessorFixture()

	result, err := f.processor.ProcessEvent(context.Background(), gatewayEvent("evt-1", "tx-1", "req_missing", "completed"))
	require.Error(t, err)
	assert.Equal(t, services.OutcomeError, result.Outcome)
	domainErr, ok := domain.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeUnresolvedReference, domainErr.Code)

	// nothing was written, so redelivery after the request appears succeeds
	bookingID := "booking-1"
	f.addRequest(t, "missing", nil, &bookingID)
	retry, err := f.processor.ProcessEvent(context.Background(), gatewayEvent("evt-1", "tx-1", "req_missing", "completed"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCreated, retry.Outcome)
}

func TestProcessEventUnknownReferencePrefix(t *testing.T) {
	f := newProcessorFixture()
	result, err := f.processor.ProcessEvent(context.Background(), gatewayEvent("evt-1", "tx-1", "order_42", "completed"))
	require.Error(t, err)
	assert.Equal(t, services.OutcomeError, result.Outcome)
}

func TestProcessEventInvoiceAndBookingReferences(t *testing.T) {
	f := newProcessorFixture()
	ctx := context.Background()

	f.billing.AddInvoice(&domain.Invoice{ID: "i1", CustomerID: "cust-1", TotalCents: 2000, Currency: "EUR", Status: domain.InvoiceSent})
	f.billing.AddBooking(&domain.Booking{ID: "b1", CustomerID: "cust-2"})

	invoiceResult, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-1", "tx-1", "invoice_i1", "completed"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCreated, invoiceResult.Outcome)
	payment, err := f.payments.FindByID(ctx, invoiceResult.PaymentID)
	require.NoError(t, err)
	require.NotNil(t, payment.InvoiceID)
	assert.Equal(t, "i1", *payment.InvoiceID)
	assert.Equal(t, "cust-1", payment.CustomerID)

	bookingResult, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-2", "tx-2", "booking_b1", "completed"))
	require.NoError(t, err)
	payment, err = f.payments.FindByID(ctx, bookingResult.PaymentID)
	require.NoError(t, err)
	assert.True(t, payment.IsDeposit())
	assert.Equal(t, "cust-2", payment.CustomerID)
}

func TestProcessEventUnknownStatusMapsToProcessing(t *testing.T) {
	f := newProcessorFixture()
	bookingID := "booking-1"
	f.addRequest(t, "r1", nil, &bookingID)

	result, err := f.processor.ProcessEvent(context.Background(), gatewayEvent("evt-1", "tx-1", "req_r1", "settlement_scheduled"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCreated, result.Outcome)

	payment, err := f.payments.FindByID(context.Background(), result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentProcessing, payment.Status)
}

func TestProcessEventPaidCascadeSettlesRequest(t *testing.T) {
	f := newProcessorFixture()
	invoiceID := "invoice-1"
	f.addRequest(t, "r1", &invoiceID, nil)

	ctx := context.Background()
	result, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-1", "tx-1", "req_r1", "completed"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeCreated, result.Outcome)

	request, err := f.requests.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPaid, request.Status)

	require.Equal(t, 1, f.scheduler.Count())
	job := f.scheduler.Jobs[0]
	assert.Equal(t, invoiceID, job.InvoiceID)
	assert.Equal(t, result.PaymentID, job.PaymentID)
	assert.Equal(t, "cust-1", job.CustomerID)
}

func TestProcessEventCascadeFiresOncePerPayment(t *testing.T) {
	f := newProcessorFixture()
	bookingID := "booking-1"
	f.addRequest(t, "r1", nil, &bookingID)

	ctx := context.Background()
	_, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-1", "tx-1", "req_r1", "pending"))
	require.NoError(t, err)
	_, err = f.processor.ProcessEvent(ctx, gatewayEvent("evt-2", "tx-1", "req_r1", "processing"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.scheduler.Count())

	_, err = f.processor.ProcessEvent(ctx, gatewayEvent("evt-3", "tx-1", "req_r1", "completed"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.scheduler.Count())

	// a refund is a status change but not a fresh paid cascade
	_, err = f.processor.ProcessEvent(ctx, gatewayEvent("evt-4", "tx-1", "req_r1", "refunded"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.scheduler.Count())
}

func TestProcessEventRejectsInvalidEvent(t *testing.T) {
	f := newProcessorFixture()
	event := gatewayEvent("", "tx-1", "req_r1", "completed")

	result, err := f.processor.ProcessEvent(context.Background(), event)
	require.Error(t, err)
	assert.Equal(t, services.OutcomeError, result.Outcome)
}

func TestProcessEventConcurrentWriterDefersEvent(t *testing.T) {
	f := newProcessorFixture()
	bookingID := "booking-1"
	f.addRequest(t, "r1", nil, &bookingID)
	ctx := context.Background()

	result, err := f.processor.ProcessEvent(ctx, gatewayEvent("evt-1", "tx-1", "req_r1", "pending"))
	require.NoError(t, err)
	require.Equal(t, services.OutcomeCreated, result.Outcome)

	// another process moves the payment between our read and write
	f.payments.UpdateFromStatusFn = func(ctx context.Context, payment *domain.Payment, from domain.PaymentStatus) error {
		return application.ErrStaleUpdate
	}

	result, err = f.processor.ProcessEvent(ctx, gatewayEvent("evt-2", "tx-1", "req_r1", "completed"))
	require.Error(t, err)
	assert.Equal(t, services.OutcomeError, result.Outcome)

	// the lost event never reaches the ledger, so the gateway's
	// redelivery is not mistaken for a duplicate
	recorded, err := f.ledger.Find(ctx, "evt-2")
	require.NoError(t, err)
	assert.Nil(t, recorded)

	f.payments.UpdateFromStatusFn = nil
	result, err = f.processor.ProcessEvent(ctx, gatewayEvent("evt-2", "tx-1", "req_r1", "completed"))
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeUpdated, result.Outcome)

	payment, err := f.payments.FindByID(ctx, result.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, payment.Status)
}
