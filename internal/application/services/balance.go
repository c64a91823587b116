package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/domain"
)

// BalanceCalculator aggregates a customer's payment records into the
// reconciled paid/outstanding picture of an invoice or booking. It is
// stateless per invocation and safe to call concurrently; it only reads
// committed payment state.
type BalanceCalculator struct {
	payments application.PaymentStore
	billing  application.BillingReader
	logger   *slog.Logger
}

func NewBalanceCalculator(
	payments application.PaymentStore,
	billing application.BillingReader,
	logger *slog.Logger,
) *BalanceCalculator {
	return &BalanceCalculator{
		payments: payments,
		billing:  billing,
		logger:   logger,
	}
}

// InvoiceBalance computes the balance of one invoice from the full set
// of the customer's payments:
//
//	total_paid = deposit + online + offline (post-fallback)
//	outstanding = max(0, invoice_total - total_paid)
//
// Overpayment surfaces as CreditCents, never as negative outstanding.
func (c *BalanceCalculator) InvoiceBalance(ctx context.Context, invoiceID string) (*application.BalanceSummary, error) {
	invoice, err := c.billing.InvoiceByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return nil, application.NewNotFoundError("invoice", err)
		}
		return nil, application.NewInternalError(err)
	}

	payments, err := c.payments.FindByCustomerID(ctx, invoice.CustomerID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	var deposit, online, offline int64
	for _, p := range payments {
		if !c.matchesInvoice(p, invoice) || p.Status != domain.PaymentPaid {
			continue
		}
		switch {
		case p.IsDeposit():
			deposit += p.AmountCents
		case p.Method == domain.MethodOffline:
			offline += p.AmountCents
		default:
			online += p.AmountCents
		}
	}

	total := invoice.EffectiveTotalCents()

	// Invoices marked paid before offline payments were tracked as
	// records have their residual reconstructed for display. Flagged in
	// the summary; nothing is persisted. Candidate for a backfill: see
	// DESIGN.md.
	implied := false
	if invoice.Status == domain.InvoicePaid && offline == 0 {
		if residual := total - deposit - online; residual > 0 {
			offline = residual
			implied = true
			c.logger.Info("implied offline payment for paid invoice",
				"invoice_id", invoice.ID,
				"residual_cents", residual,
			)
		}
	}

	totalPaid := deposit + online + offline
	summary := &application.BalanceSummary{
		InvoiceID:         invoice.ID,
		CustomerID:        invoice.CustomerID,
		InvoiceTotalCents: total,
		DepositCents:      deposit,
		OnlineCents:       online,
		OfflineCents:      offline,
		OfflineImplied:    implied,
		TotalPaidCents:    totalPaid,
		OutstandingCents:  max(0, total-totalPaid),
		CreditCents:       max(0, totalPaid-total),
		Currency:          invoice.Currency,
	}
	if invoice.BookingID != nil {
		summary.BookingID = *invoice.BookingID
	}
	return summary, nil
}

// BookingBalance computes the deposit position of a booking that has no
// invoice yet. Only deposit payments count; there is no total to owe
// against, so outstanding stays zero.
func (c *BalanceCalculator) BookingBalance(ctx context.Context, bookingID string) (*application.BalanceSummary, error) {
	booking, err := c.billing.BookingByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return nil, application.NewNotFoundError("booking", err)
		}
		return nil, application.NewInternalError(err)
	}

	payments, err := c.payments.FindByCustomerID(ctx, booking.CustomerID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	summary := &application.BalanceSummary{
		BookingID:  booking.ID,
		CustomerID: booking.CustomerID,
	}
	for _, p := range payments {
		if !p.IsDeposit() || *p.BookingID != booking.ID || p.Status != domain.PaymentPaid {
			continue
		}
		summary.DepositCents += p.AmountCents
		if summary.Currency == "" {
			summary.Currency = p.Currency
		}
	}
	summary.TotalPaidCents = summary.DepositCents
	return summary, nil
}

func (c *BalanceCalculator) matchesInvoice(p *domain.Payment, invoice *domain.Invoice) bool {
	if p.InvoiceID != nil && *p.InvoiceID == invoice.ID {
		return true
	}
	if invoice.BookingID != nil && p.BookingID != nil && *p.BookingID == *invoice.BookingID {
		return true
	}
	return false
}
