// Package application defines the ports and error surface shared by the
// payment services and the infrastructure that backs them.
package application

import (
	"context"
	"errors"
	"time"

	"github.com/clinicdesk/payments/internal/domain"
)

// ErrDuplicateEvent is returned by EventLedger.Record when the gateway
// event id has already been applied.
var ErrDuplicateEvent = errors.New("gateway event already processed")

// ErrNotFound is the shared absence sentinel for the stores.
var ErrNotFound = errors.New("not found")

// ErrStaleUpdate is returned by conditional updates when the row no
// longer holds the status the caller observed. Another writer got there
// first; the caller re-reads and retries or gives up.
var ErrStaleUpdate = errors.New("row changed since read")

// PaymentStore is the port for Payment persistence.
type PaymentStore interface {
	Create(ctx context.Context, payment *domain.Payment) error
	// UpdateFromStatus persists the payment only while the stored row
	// still carries the given status. ErrStaleUpdate reports a lost
	// race with a concurrent writer.
	UpdateFromStatus(ctx context.Context, payment *domain.Payment, from domain.PaymentStatus) error
	FindByID(ctx context.Context, id string) (*domain.Payment, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	FindByCustomerID(ctx context.Context, customerID string) ([]*domain.Payment, error)
}

// PaymentRequestStore is the port for PaymentRequest persistence.
type PaymentRequestStore interface {
	Create(ctx context.Context, request *domain.PaymentRequest) error
	Update(ctx context.Context, request *domain.PaymentRequest) error
	FindByID(ctx context.Context, id string) (*domain.PaymentRequest, error)
	// FindOverdue returns pending/sent requests whose due date is before
	// the given instant, oldest first.
	FindOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.PaymentRequest, error)
}

// BillingReader provides read access to records owned by the booking and
// invoicing subsystems.
type BillingReader interface {
	InvoiceByID(ctx context.Context, id string) (*domain.Invoice, error)
	BookingByID(ctx context.Context, id string) (*domain.Booking, error)
}

// ProcessedEvent is one row of the idempotency ledger.
type ProcessedEvent struct {
	EventID     string
	PaymentID   string
	Outcome     string
	ProcessedAt time.Time
}

// EventLedger records which gateway event ids have been applied.
// Gateways redeliver notifications; the ledger makes reprocessing a
// reportable no-op.
type EventLedger interface {
	// Find returns (nil, nil) when the event id is unknown.
	Find(ctx context.Context, eventID string) (*ProcessedEvent, error)
	// Record persists the ledger row, returning ErrDuplicateEvent if a
	// row with the same event id already exists.
	Record(ctx context.Context, event *ProcessedEvent) error
}

// BalanceSummary is the reconciled paid/outstanding picture of an
// invoice or pre-invoice booking. All figures are cents.
type BalanceSummary struct {
	InvoiceID  string `json:"invoice_id,omitempty"`
	BookingID  string `json:"booking_id,omitempty"`
	CustomerID string `json:"customer_id"`

	InvoiceTotalCents int64 `json:"invoice_total_cents"`
	DepositCents      int64 `json:"deposit_cents"`
	OnlineCents       int64 `json:"online_cents"`
	OfflineCents      int64 `json:"offline_cents"`
	// OfflineImplied marks the historical fallback: a PAID invoice with
	// no recorded offline payments had its residual reconstructed for
	// display. Nothing is persisted.
	OfflineImplied bool `json:"offline_implied"`

	TotalPaidCents   int64  `json:"total_paid_cents"`
	OutstandingCents int64  `json:"outstanding_cents"`
	CreditCents      int64  `json:"credit_cents"`
	Currency         string `json:"currency"`
}

// BalanceChanged is published after a payment reaches PAID and the
// affected balance has been recomputed.
type BalanceChanged struct {
	InvoiceID  string    `json:"invoice_id,omitempty"`
	BookingID  string    `json:"booking_id,omitempty"`
	CustomerID string    `json:"customer_id"`
	PaymentID  string    `json:"payment_id"`
	OccurredAt time.Time `json:"occurred_at"`

	TotalPaidCents   int64  `json:"total_paid_cents"`
	OutstandingCents int64  `json:"outstanding_cents"`
	Currency         string `json:"currency"`
}

// BalanceNotifier is the outbound signal consumed by notification and
// UI-refresh subsystems. Delivery guarantees are theirs, not ours.
type BalanceNotifier interface {
	BalanceChanged(ctx context.Context, event BalanceChanged) error
}

// RecomputeJob asks for the balance of one invoice or booking to be
// recomputed, cached and announced. Exactly one of InvoiceID/BookingID
// is set.
type RecomputeJob struct {
	InvoiceID  string
	BookingID  string
	CustomerID string
	PaymentID  string
}

// RecomputeScheduler hands balance recomputation to a background worker
// with observable completion; failures are logged, never lost silently.
type RecomputeScheduler interface {
	Schedule(job RecomputeJob)
}

// BalanceCache holds computed balance summaries between recomputations.
type BalanceCache interface {
	Get(ctx context.Context, key string) (*BalanceSummary, bool, error)
	Set(ctx context.Context, key string, summary *BalanceSummary) error
	Invalidate(ctx context.Context, key string) error
}
