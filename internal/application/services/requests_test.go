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

type managerFixture struct {
	requests *services.MemoryRequestStore
	billing  *services.MemoryBillingReader
	manager  *services.RequestManager
}

func newManagerFixture() *managerFixture {
	requests := services.NewMemoryRequestStore()
	billing := services.NewMemoryBillingReader()
	return &managerFixture{
		requests: requests,
		billing:  billing,
		manager:  services.NewRequestManager(requests, billing, testLogger()),
	}
}

func TestCreateRequest(t *testing.T) {
	f := newManagerFixture()
	invoiceID := "invoice-1"
	f.billing.AddInvoice(&domain.Invoice{ID: invoiceID, CustomerID: "cust-1", TotalCents: 10000, Currency: "EUR", Status: domain.InvoiceSent})

	request, err := f.manager.CreateRequest(context.Background(), services.CreateRequestCommand{
		CustomerID:  "cust-1",
		AmountCents: 10000,
		Currency:    "EUR",
		InvoiceID:   &invoiceID,
		Notes:       "consultation follow-up",
		CreatedBy:   "reception",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, request.Status)
	assert.False(t, request.IsDeposit())

	stored, err := f.requests.FindByID(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, "consultation follow-up", stored.Notes)
}

func TestCreateRequestDeposit(t *testing.T) {
	f := newManagerFixture()
	bookingID := "booking-1"
	f.billing.AddBooking(&domain.Booking{ID: bookingID, CustomerID: "cust-1"})

	request, err := f.manager.CreateRequest(context.Background(), services.CreateRequestCommand{
		CustomerID:  "cust-1",
		AmountCents: 2000,
		Currency:    "EUR",
		BookingID:   &bookingID,
	})
	require.NoError(t, err)
	assert.True(t, request.IsDeposit())
}

func TestCreateRequestValidation(t *testing.T) {
	f := newManagerFixture()
	ctx := context.Background()

	_, err := f.manager.CreateRequest(ctx, services.CreateRequestCommand{
		CustomerID: "cust-1", AmountCents: 0, Currency: "EUR",
	})
	assert.Error(t, err)

	_, err = f.manager.CreateRequest(ctx, services.CreateRequestCommand{
		CustomerID: "cust-1", AmountCents: -100, Currency: "EUR",
	})
	assert.Error(t, err)

	_, err = f.manager.CreateRequest(ctx, services.CreateRequestCommand{
		CustomerID: "", AmountCents: 100, Currency: "EUR",
	})
	assert.Error(t, err)
}

func TestCreateRequestRequiresTarget(t *testing.T) {
	f := newManagerFixture()

	_, err := f.manager.CreateRequest(context.Background(), services.CreateRequestCommand{
		CustomerID:  "cust-1",
		AmountCents: 100,
		Currency:    "EUR",
	})
	require.Error(t, err)
	domainErr, ok := domain.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
	assert.Empty(t, f.requests.All())
}

func TestCreateRequestRejectsUnknownTarget(t *testing.T) {
	f := newManagerFixture()
	invoiceID := "missing"

	_, err := f.manager.CreateRequest(context.Background(), services.CreateRequestCommand{
		CustomerID:  "cust-1",
		AmountCents: 100,
		Currency:    "EUR",
		InvoiceID:   &invoiceID,
	})
	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, application.ErrCodeNotFound, svcErr.Code)
}

func TestCreateRequestRejectsMismatchedLinkage(t *testing.T) {
	f := newManagerFixture()
	invoiceID := "invoice-1"
	bookingID := "booking-1"
	f.billing.AddInvoice(&domain.Invoice{ID: invoiceID, CustomerID: "cust-1", TotalCents: 100, Currency: "EUR", Status: domain.InvoiceSent})
	f.billing.AddBooking(&domain.Booking{ID: bookingID, CustomerID: "cust-2"})

	_, err := f.manager.CreateRequest(context.Background(), services.CreateRequestCommand{
		CustomerID:  "cust-1",
		AmountCents: 100,
		Currency:    "EUR",
		InvoiceID:   &invoiceID,
		BookingID:   &bookingID,
	})
	require.Error(t, err)
	domainErr, ok := domain.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeAmbiguousTarget, domainErr.Code)

	// invoice owned by someone else entirely
	_, err = f.manager.CreateRequest(context.Background(), services.CreateRequestCommand{
		CustomerID:  "cust-9",
		AmountCents: 100,
		Currency:    "EUR",
		InvoiceID:   &invoiceID,
	})
	require.Error(t, err)
}

func TestMarkSentAndCancel(t *testing.T) {
	f := newManagerFixture()
	bookingID := "booking-1"
	f.billing.AddBooking(&domain.Booking{ID: bookingID, CustomerID: "cust-1"})

	ctx := context.Background()
	created, err := f.manager.CreateRequest(ctx, services.CreateRequestCommand{
		CustomerID: "cust-1", AmountCents: 2000, Currency: "EUR", BookingID: &bookingID,
	})
	require.NoError(t, err)

	sent, err := f.manager.MarkSent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestSent, sent.Status)

	// re-sending is a no-op, not an error
	again, err := f.manager.MarkSent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, *sent.SentAt, *again.SentAt)

	cancelled, err := f.manager.Cancel(ctx, created.ID, "patient no-show")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestCancelled, cancelled.Status)
	assert.Equal(t, "patient no-show", cancelled.CancelReason)

	_, err = f.manager.Cancel(ctx, created.ID, "twice")
	assert.Error(t, err)
}

func TestMarkSentUnknownRequest(t *testing.T) {
	f := newManagerFixture()
	_, err := f.manager.MarkSent(context.Background(), "missing")
	require.Error(t, err)
	svcErr, ok := application.IsServiceError(err)
	require.True(t, ok)
	assert.Equal(t, 404, svcErr.HTTPStatus)
}

func TestExpireOverdue(t *testing.T) {
	f := newManagerFixture()
	bookingID := "booking-1"
	f.billing.AddBooking(&domain.Booking{ID: bookingID, CustomerID: "cust-1"})

	ctx := context.Background()
	now := time.Now().UTC()
	pastDue := now.Add(-time.Hour)
	futureDue := now.Add(time.Hour)

	overdue, err := f.manager.CreateRequest(ctx, services.CreateRequestCommand{
		CustomerID: "cust-1", AmountCents: 2000, Currency: "EUR", BookingID: &bookingID, DueDate: &pastDue,
	})
	require.NoError(t, err)

	current, err := f.manager.CreateRequest(ctx, services.CreateRequestCommand{
		CustomerID: "cust-1", AmountCents: 2000, Currency: "EUR", BookingID: &bookingID, DueDate: &futureDue,
	})
	require.NoError(t, err)

	count, err := f.manager.ExpireOverdue(ctx, now, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expired, err := f.requests.FindByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestExpired, expired.Status)

	untouched, err := f.requests.FindByID(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestPending, untouched.Status)

	// the sweep is idempotent
	count, err = f.manager.ExpireOverdue(ctx, now, 100)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
