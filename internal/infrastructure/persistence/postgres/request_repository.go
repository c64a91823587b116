package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/clinicdesk/payments/internal/infrastructure/persistence"
	"github.com/jackc/pgx/v5"
)

const requestColumns = `id, customer_id, invoice_id, booking_id, amount_cents, currency,
		       status, due_date, notes, created_by,
		       created_at, updated_at, sent_at, cancelled_at, cancel_reason`

type PaymentRequestRepository struct {
	exec persistence.Executor
}

func NewPaymentRequestRepository(db *persistence.DB) *PaymentRequestRepository {
	return &PaymentRequestRepository{exec: db.Pool}
}

func (r *PaymentRequestRepository) Create(ctx context.Context, request *domain.PaymentRequest) error {
	query := `
		INSERT INTO payment_requests (
		    id, customer_id, invoice_id, booking_id, amount_cents, currency,
		    status, due_date, notes, created_by,
		    created_at, updated_at, sent_at, cancelled_at, cancel_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	m := toRequestModel(request)
	_, err := r.exec.Exec(ctx, query,
		m.ID,
		m.CustomerID,
		m.InvoiceID,
		m.BookingID,
		m.AmountCents,
		m.Currency,
		m.Status,
		m.DueDate,
		m.Notes,
		m.CreatedBy,
		m.CreatedAt,
		m.UpdatedAt,
		m.SentAt,
		m.CancelledAt,
		m.CancelReason,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment request: %w", err)
	}

	return nil
}

func (r *PaymentRequestRepository) Update(ctx context.Context, request *domain.PaymentRequest) error {
	query := `
		UPDATE payment_requests
		SET status = $1, due_date = $2, notes = $3, updated_at = $4,
		    sent_at = $5, cancelled_at = $6, cancel_reason = $7
		WHERE id = $8
	`

	m := toRequestModel(request)
	result, err := r.exec.Exec(ctx, query,
		m.Status,
		m.DueDate,
		m.Notes,
		m.UpdatedAt,
		m.SentAt,
		m.CancelledAt,
		m.CancelReason,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return application.ErrNotFound
	}

	return nil
}

func (r *PaymentRequestRepository) FindByID(ctx context.Context, id string) (*domain.PaymentRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM payment_requests WHERE id = $1`

	row := r.exec.QueryRow(ctx, query, id)
	return scanRequest(row)
}

// FindOverdue returns pending/sent requests whose due date has passed,
// oldest first, for the expiry sweep.
func (r *PaymentRequestRepository) FindOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.PaymentRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM payment_requests
		WHERE status IN ('PENDING', 'SENT')
		  AND due_date IS NOT NULL
		  AND due_date < $1
		ORDER BY due_date ASC
		LIMIT $2
	`

	rows, err := r.exec.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query overdue payment requests: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.PaymentRequest, error) {
		var m PaymentRequestModel
		err := row.Scan(
			&m.ID, &m.CustomerID, &m.InvoiceID, &m.BookingID, &m.AmountCents, &m.Currency,
			&m.Status, &m.DueDate, &m.Notes, &m.CreatedBy,
			&m.CreatedAt, &m.UpdatedAt, &m.SentAt, &m.CancelledAt, &m.CancelReason,
		)
		return toRequestDomain(m), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan overdue payment requests: %w", err)
	}
	return results, nil
}

func scanRequest(row pgx.Row) (*domain.PaymentRequest, error) {
	var m PaymentRequestModel
	err := row.Scan(
		&m.ID, &m.CustomerID, &m.InvoiceID, &m.BookingID, &m.AmountCents, &m.Currency,
		&m.Status, &m.DueDate, &m.Notes, &m.CreatedBy,
		&m.CreatedAt, &m.UpdatedAt, &m.SentAt, &m.CancelledAt, &m.CancelReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan payment request: %w", err)
	}
	return toRequestDomain(m), nil
}
