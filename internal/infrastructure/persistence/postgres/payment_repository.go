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

const paymentColumns = `id, customer_id, invoice_id, booking_id, amount_cents, currency,
		       status, method, gateway_transaction_id, last_event_id,
		       created_at, updated_at, paid_at`

type PaymentRepository struct {
	exec persistence.Executor
}

func NewPaymentRepository(db *persistence.DB) *PaymentRepository {
	return &PaymentRepository{exec: db.Pool}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
		    id, customer_id, invoice_id, booking_id, amount_cents, currency,
		    status, method, gateway_transaction_id, last_event_id,
		    created_at, updated_at, paid_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	m := toPaymentModel(payment)
	_, err := r.exec.Exec(ctx, query,
		m.ID,
		m.CustomerID,
		m.InvoiceID,
		m.BookingID,
		m.AmountCents,
		m.Currency,
		m.Status,
		m.Method,
		m.GatewayTransactionID,
		m.LastEventID,
		m.CreatedAt,
		m.UpdatedAt,
		m.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// UpdateFromStatus writes the payment only while the stored row still
// holds the status the caller read. A webhook applied by another
// process between our read and write leaves zero rows matched.
func (r *PaymentRepository) UpdateFromStatus(ctx context.Context, payment *domain.Payment, from domain.PaymentStatus) error {
	query := `
		UPDATE payments
		SET invoice_id = $1, booking_id = $2, status = $3,
		    last_event_id = $4, updated_at = $5, paid_at = $6
		WHERE id = $7 AND status = $8
	`

	m := toPaymentModel(payment)
	result, err := r.exec.Exec(ctx, query,
		m.InvoiceID,
		m.BookingID,
		m.Status,
		m.LastEventID,
		m.UpdatedAt,
		m.PaidAt,
		m.ID,
		string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return application.ErrStaleUpdate
	}

	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	row := r.exec.QueryRow(ctx, query, id)
	return scanPayment(row)
}

func (r *PaymentRepository) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_transaction_id = $1`

	row := r.exec.QueryRow(ctx, query, transactionID)
	return scanPayment(row)
}

func (r *PaymentRepository) FindByCustomerID(ctx context.Context, customerID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE customer_id = $1 ORDER BY created_at`

	rows, err := r.exec.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("query payments by customer_id: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Payment, error) {
		var m PaymentModel
		err := row.Scan(
			&m.ID, &m.CustomerID, &m.InvoiceID, &m.BookingID, &m.AmountCents, &m.Currency,
			&m.Status, &m.Method, &m.GatewayTransactionID, &m.LastEventID,
			&m.CreatedAt, &m.UpdatedAt, &m.PaidAt,
		)
		return toPaymentDomain(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan payments: %w", err)
	}
	return results, nil
}

// scanPayment converts a database row into a domain Payment.
func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var m PaymentModel
	err := row.Scan(
		&m.ID, &m.CustomerID, &m.InvoiceID, &m.BookingID, &m.AmountCents, &m.Currency,
		&m.Status, &m.Method, &m.GatewayTransactionID, &m.LastEventID,
		&m.CreatedAt, &m.UpdatedAt, &m.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return toPaymentDomain(m), nil
}
