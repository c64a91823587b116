package postgres

import "time"

// Database row shapes. Mapping to and from domain entities lives in
// mappers.go.

type PaymentModel struct {
	ID                   string
	CustomerID           string
	InvoiceID            *string
	BookingID            *string
	AmountCents          int64
	Currency             string
	Status               string
	Method               string
	GatewayTransactionID *string
	LastEventID          *string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	PaidAt               *time.Time
}

type PaymentRequestModel struct {
	ID           string
	CustomerID   string
	InvoiceID    *string
	BookingID    *string
	AmountCents  int64
	Currency     string
	Status       string
	DueDate      *time.Time
	Notes        string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	SentAt       *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// ProcessedEventModel enforces at-most-once application of gateway
// notifications via the unique constraint on event_id.
type ProcessedEventModel struct {
	EventID     string
	PaymentID   string
	Outcome     string
	ProcessedAt time.Time
}
