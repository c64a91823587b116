package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/infrastructure/persistence"
	"github.com/jackc/pgx/v5"
)

// EventLedgerRepository is the durable idempotency ledger. The unique
// constraint on event_id is what makes cross-process duplicate delivery
// safe, independent of any in-process locking.
type EventLedgerRepository struct {
	exec persistence.Executor
}

func NewEventLedgerRepository(db *persistence.DB) *EventLedgerRepository {
	return &EventLedgerRepository{exec: db.Pool}
}

func (r *EventLedgerRepository) Find(ctx context.Context, eventID string) (*application.ProcessedEvent, error) {
	query := `
		SELECT event_id, payment_id, outcome, processed_at
		FROM processed_events
		WHERE event_id = $1
	`

	var m ProcessedEventModel
	err := r.exec.QueryRow(ctx, query, eventID).Scan(
		&m.EventID,
		&m.PaymentID,
		&m.Outcome,
		&m.ProcessedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up processed event: %w", err)
	}

	return &application.ProcessedEvent{
		EventID:     m.EventID,
		PaymentID:   m.PaymentID,
		Outcome:     m.Outcome,
		ProcessedAt: m.ProcessedAt,
	}, nil
}

func (r *EventLedgerRepository) Record(ctx context.Context, event *application.ProcessedEvent) error {
	query := `
		INSERT INTO processed_events (event_id, payment_id, outcome, processed_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.exec.Exec(ctx, query,
		event.EventID,
		event.PaymentID,
		event.Outcome,
		event.ProcessedAt,
	)
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return application.ErrDuplicateEvent
		}
		return fmt.Errorf("failed to record processed event: %w", err)
	}

	return nil
}
