package services_test

import (
	"context"
	"testing"

	"github.com/clinicdesk/payments/internal/application/services"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOfflinePayment(t *testing.T) {
	payments := services.NewMemoryPaymentStore()
	billing := services.NewMemoryBillingReader()
	scheduler := &services.RecordedScheduler{}
	recorder := services.NewOfflineRecorder(payments, billing, scheduler, testLogger())

	invoiceID := "invoice-1"
	billing.AddInvoice(&domain.Invoice{ID: invoiceID, CustomerID: "cust-1", TotalCents: 10000, Currency: "EUR", Status: domain.InvoiceSent})

	payment, err := recorder.Record(context.Background(), services.RecordOfflineCommand{
		CustomerID:  "cust-1",
		AmountCents: 8000,
		Currency:    "EUR",
		InvoiceID:   &invoiceID,
		Notes:       "bank transfer",
		RecordedBy:  "reception",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, payment.Status)
	assert.Equal(t, domain.MethodOffline, payment.Method)
	require.NotNil(t, payment.PaidAt)

	require.Equal(t, 1, scheduler.Count())
	assert.Equal(t, invoiceID, scheduler.Jobs[0].InvoiceID)
	assert.Equal(t, payment.ID, scheduler.Jobs[0].PaymentID)
}

func TestRecordOfflinePaymentRequiresTarget(t *testing.T) {
	recorder := services.NewOfflineRecorder(
		services.NewMemoryPaymentStore(),
		services.NewMemoryBillingReader(),
		&services.RecordedScheduler{},
		testLogger(),
	)

	_, err := recorder.Record(context.Background(), services.RecordOfflineCommand{
		CustomerID:  "cust-1",
		AmountCents: 8000,
		Currency:    "EUR",
	})
	require.Error(t, err)
	domainErr, ok := domain.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestRecordOfflinePaymentRejectsWrongCustomer(t *testing.T) {
	payments := services.NewMemoryPaymentStore()
	billing := services.NewMemoryBillingReader()
	scheduler := &services.RecordedScheduler{}
	recorder := services.NewOfflineRecorder(payments, billing, scheduler, testLogger())

	bookingID := "booking-1"
	billing.AddBooking(&domain.Booking{ID: bookingID, CustomerID: "cust-2"})

	_, err := recorder.Record(context.Background(), services.RecordOfflineCommand{
		CustomerID:  "cust-1",
		AmountCents: 2000,
		Currency:    "EUR",
		BookingID:   &bookingID,
	})
	require.Error(t, err)
	domainErr, ok := domain.IsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, domain.ErrCodeAmbiguousTarget, domainErr.Code)
	assert.Equal(t, 0, scheduler.Count())
}
