package worker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/application/services"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/clinicdesk/payments/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type channelNotifier struct {
	events chan application.BalanceChanged
}

func (n *channelNotifier) BalanceChanged(ctx context.Context, event application.BalanceChanged) error {
	n.events <- event
	return nil
}

func TestRecomputeWorkerRefreshesAndNotifies(t *testing.T) {
	payments := services.NewMemoryPaymentStore()
	billing := services.NewMemoryBillingReader()
	cache := services.NewMemoryBalanceCache()
	calc := services.NewBalanceCalculator(payments, billing, testLogger())
	balances := services.NewCachedBalances(calc, cache, testLogger())

	invoiceID := "invoice-1"
	billing.AddInvoice(&domain.Invoice{ID: invoiceID, CustomerID: "cust-1", TotalCents: 10000, Currency: "EUR", Status: domain.InvoiceSent})

	money, err := domain.NewMoney(10000, "EUR")
	require.NoError(t, err)
	payment, err := domain.NewGatewayPayment("pay-1", "cust-1", money, "tx-1", domain.PaymentPaid, time.Now().UTC())
	require.NoError(t, err)
	payment.InvoiceID = &invoiceID
	require.NoError(t, payments.Create(context.Background(), payment))

	notifier := &channelNotifier{events: make(chan application.BalanceChanged, 1)}
	w := worker.NewRecomputeWorker(balances, notifier, 8, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	w.Schedule(application.RecomputeJob{
		InvoiceID:  invoiceID,
		CustomerID: "cust-1",
		PaymentID:  payment.ID,
	})

	select {
	case event := <-notifier.events:
		assert.Equal(t, invoiceID, event.InvoiceID)
		assert.Equal(t, "cust-1", event.CustomerID)
		assert.Equal(t, int64(10000), event.TotalPaidCents)
		assert.Equal(t, int64(0), event.OutstandingCents)
	case <-time.After(5 * time.Second):
		t.Fatal("no balance change published")
	}

	// the cache now holds the recomputed summary
	cached, ok, err := cache.Get(context.Background(), "balance:invoice:"+invoiceID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(0), cached.OutstandingCents)
}

func TestRecomputeWorkerDropsWhenQueueFull(t *testing.T) {
	payments := services.NewMemoryPaymentStore()
	billing := services.NewMemoryBillingReader()
	calc := services.NewBalanceCalculator(payments, billing, testLogger())
	balances := services.NewCachedBalances(calc, services.NewMemoryBalanceCache(), testLogger())

	notifier := &channelNotifier{events: make(chan application.BalanceChanged, 1)}
	w := worker.NewRecomputeWorker(balances, notifier, 1, testLogger())

	// the worker is not draining; the second job must not block
	w.Schedule(application.RecomputeJob{InvoiceID: "i1"})
	done := make(chan struct{})
	go func() {
		w.Schedule(application.RecomputeJob{InvoiceID: "i2"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Schedule blocked on a full queue")
	}
}
