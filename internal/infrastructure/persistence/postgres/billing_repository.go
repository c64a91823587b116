package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/clinicdesk/payments/internal/infrastructure/persistence"
	"github.com/jackc/pgx/v5"
)

// BillingRepository reads records owned by the booking and invoicing
// subsystems. This core never writes these tables.
type BillingRepository struct {
	exec persistence.Executor
}

func NewBillingRepository(db *persistence.DB) *BillingRepository {
	return &BillingRepository{exec: db.Pool}
}

func (r *BillingRepository) InvoiceByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := `
		SELECT id, customer_id, booking_id, subtotal_cents, tax_cents,
		       total_cents, currency, status, created_at
		FROM invoices
		WHERE id = $1
	`

	var invoice domain.Invoice
	var status string
	err := r.exec.QueryRow(ctx, query, id).Scan(
		&invoice.ID,
		&invoice.CustomerID,
		&invoice.BookingID,
		&invoice.SubtotalCents,
		&invoice.TaxCents,
		&invoice.TotalCents,
		&invoice.Currency,
		&status,
		&invoice.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan invoice: %w", err)
	}
	invoice.Status = domain.InvoiceStatus(status)

	items, err := r.invoiceItems(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.Items = items
	return &invoice, nil
}

func (r *BillingRepository) invoiceItems(ctx context.Context, invoiceID string) ([]domain.InvoiceItem, error) {
	query := `
		SELECT id, description, quantity, unit_price_cents, total_cents
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id
	`

	rows, err := r.exec.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("query invoice items: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.InvoiceItem, error) {
		var item domain.InvoiceItem
		err := row.Scan(&item.ID, &item.Description, &item.Quantity, &item.UnitPriceCents, &item.TotalCents)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan invoice items: %w", err)
	}
	return items, nil
}

func (r *BillingRepository) BookingByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `
		SELECT id, customer_id, service_name, date, start_time, end_time, status
		FROM bookings
		WHERE id = $1
	`

	var booking domain.Booking
	var status string
	err := r.exec.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.CustomerID,
		&booking.ServiceName,
		&booking.Date,
		&booking.StartTime,
		&booking.EndTime,
		&status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	booking.Status = domain.BookingStatus(status)
	return &booking, nil
}
