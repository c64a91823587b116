package services

import (
	"context"
	"log/slog"

	"github.com/clinicdesk/payments/internal/application"
)

// CachedBalances fronts the calculator with the balance cache. Cache
// failures degrade to a recompute with a warning; they never fail the
// read.
type CachedBalances struct {
	calc   *BalanceCalculator
	cache  application.BalanceCache
	logger *slog.Logger
}

func NewCachedBalances(calc *BalanceCalculator, cache application.BalanceCache, logger *slog.Logger) *CachedBalances {
	return &CachedBalances{
		calc:   calc,
		cache:  cache,
		logger: logger,
	}
}

func invoiceBalanceKey(invoiceID string) string {
	return "balance:invoice:" + invoiceID
}

func bookingBalanceKey(bookingID string) string {
	return "balance:booking:" + bookingID
}

func (b *CachedBalances) InvoiceBalance(ctx context.Context, invoiceID string) (*application.BalanceSummary, error) {
	return b.get(ctx, invoiceBalanceKey(invoiceID), func() (*application.BalanceSummary, error) {
		return b.calc.InvoiceBalance(ctx, invoiceID)
	})
}

func (b *CachedBalances) BookingBalance(ctx context.Context, bookingID string) (*application.BalanceSummary, error) {
	return b.get(ctx, bookingBalanceKey(bookingID), func() (*application.BalanceSummary, error) {
		return b.calc.BookingBalance(ctx, bookingID)
	})
}

// RefreshInvoice recomputes and rewrites the cached summary. Used by the
// recompute worker after a payment reaches PAID.
func (b *CachedBalances) RefreshInvoice(ctx context.Context, invoiceID string) (*application.BalanceSummary, error) {
	summary, err := b.calc.InvoiceBalance(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	b.store(ctx, invoiceBalanceKey(invoiceID), summary)
	return summary, nil
}

func (b *CachedBalances) RefreshBooking(ctx context.Context, bookingID string) (*application.BalanceSummary, error) {
	summary, err := b.calc.BookingBalance(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	b.store(ctx, bookingBalanceKey(bookingID), summary)
	return summary, nil
}

func (b *CachedBalances) get(ctx context.Context, key string, compute func() (*application.BalanceSummary, error)) (*application.BalanceSummary, error) {
	cached, ok, err := b.cache.Get(ctx, key)
	if err != nil {
		b.logger.Warn("balance cache read failed", "key", key, "error", err)
	} else if ok {
		return cached, nil
	}

	summary, err := compute()
	if err != nil {
		return nil, err
	}
	b.store(ctx, key, summary)
	return summary, nil
}

func (b *CachedBalances) store(ctx context.Context, key string, summary *application.BalanceSummary) {
	if err := b.cache.Set(ctx, key, summary); err != nil {
		b.logger.Warn("balance cache write failed", "key", key, "error", err)
	}
}
