// Package domain encodes the payment reconciliation entities and their
// lifecycle rules.
package domain

import (
	"slices"
	"time"
)

// PaymentStatus represents the current state of a payment in its lifecycle
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentPaid       PaymentStatus = "PAID"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
)

// PaymentMethod distinguishes gateway-collected money from payments
// recorded manually by staff.
type PaymentMethod string

const (
	MethodGateway PaymentMethod = "GATEWAY"
	MethodOffline PaymentMethod = "OFFLINE"
)

// Payment is a record of money actually moved. A payment linked to a
// booking but not to any invoice is a deposit collected before invoicing.
type Payment struct {
	ID         string
	CustomerID string
	InvoiceID  *string
	BookingID  *string

	AmountCents int64
	Currency    string
	Status      PaymentStatus
	Method      PaymentMethod

	// GatewayTransactionID is nil for offline payments.
	GatewayTransactionID *string
	// LastEventID is the idempotency key of the most recently applied
	// gateway notification.
	LastEventID *string

	CreatedAt time.Time
	UpdatedAt time.Time
	PaidAt    *time.Time
}

func NewGatewayPayment(
	id string,
	customerID string,
	amount Money,
	transactionID string,
	status PaymentStatus,
	now time.Time,
) (*Payment, error) {
	if id == "" {
		return nil, NewValidationError("payment ID")
	}
	if customerID == "" {
		return nil, NewValidationError("customer ID")
	}
	if transactionID == "" {
		return nil, NewValidationError("gateway transaction ID")
	}
	if amount.Cents <= 0 {
		return nil, NewInvalidAmountError(amount.Cents)
	}

	p := &Payment{
		ID:                   id,
		CustomerID:           customerID,
		AmountCents:          amount.Cents,
		Currency:             amount.Currency,
		Status:               PaymentPending,
		Method:               MethodGateway,
		GatewayTransactionID: &transactionID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if status != PaymentPending {
		if err := p.transition(status, now); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewOfflinePayment records money collected outside the gateway. Offline
// payments are created directly in PAID status by staff action.
func NewOfflinePayment(id, customerID string, amount Money, now time.Time) (*Payment, error) {
	if id == "" {
		return nil, NewValidationError("payment ID")
	}
	if customerID == "" {
		return nil, NewValidationError("customer ID")
	}
	if amount.Cents <= 0 {
		return nil, NewInvalidAmountError(amount.Cents)
	}

	paidAt := now
	return &Payment{
		ID:          id,
		CustomerID:  customerID,
		AmountCents: amount.Cents,
		Currency:    amount.Currency,
		Status:      PaymentPaid,
		Method:      MethodOffline,
		CreatedAt:   now,
		UpdatedAt:   now,
		PaidAt:      &paidAt,
	}, nil
}

// IsDeposit reports whether this payment is a pre-invoice deposit:
// linked to a booking but not to any invoice.
func (p *Payment) IsDeposit() bool {
	return p.BookingID != nil && p.InvoiceID == nil
}

func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentPaid, PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	default:
		return false
	}
}

// ApplyGatewayStatus advances the payment to the status mapped from a
// gateway notification. Re-applying the current status is a no-op.
// Cancellation is never reachable through this path.
func (p *Payment) ApplyGatewayStatus(target PaymentStatus, now time.Time) error {
	if target == PaymentCancelled {
		return NewInvalidTransitionError(string(p.Status), string(target))
	}
	if p.Status == target {
		return nil
	}
	return p.transition(target, now)
}

// Cancel marks the payment cancelled by explicit staff action. Allowed
// only before the payment reaches a terminal state.
func (p *Payment) Cancel(now time.Time) error {
	return p.transition(PaymentCancelled, now)
}

func (p *Payment) transition(target PaymentStatus, now time.Time) error {
	if err := p.canTransitionTo(target); err != nil {
		return err
	}
	p.Status = target
	p.UpdatedAt = now
	if target == PaymentPaid {
		paidAt := now
		p.PaidAt = &paidAt
	}
	return nil
}

// canTransitionTo encodes the monotonic lifecycle: once a terminal
// status is reached, nothing moves it except PAID → REFUNDED.
func (p *Payment) canTransitionTo(target PaymentStatus) error {
	switch p.Status {
	case PaymentPending:
		return p.allow(target, PaymentProcessing, PaymentPaid, PaymentFailed, PaymentCancelled)
	case PaymentProcessing:
		return p.allow(target, PaymentPaid, PaymentFailed, PaymentCancelled)
	case PaymentPaid:
		return p.allow(target, PaymentRefunded)
	}
	return NewInvalidTransitionError(string(p.Status), string(target))
}

func (p *Payment) allow(target PaymentStatus, allowed ...PaymentStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(string(p.Status), string(target))
}
