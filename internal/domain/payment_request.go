package domain

import "time"

// RequestStatus represents the current state of a payment request
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestSent      RequestStatus = "SENT"
	RequestPaid      RequestStatus = "PAID"
	RequestExpired   RequestStatus = "EXPIRED"
	RequestCancelled RequestStatus = "CANCELLED"
)

// PaymentRequest is an outstanding ask for money. A request with a
// booking reference but no invoice reference asks for a deposit; one
// with an invoice reference asks for payment against that invoice.
type PaymentRequest struct {
	ID         string
	CustomerID string
	InvoiceID  *string
	BookingID  *string

	AmountCents int64
	Currency    string
	Status      RequestStatus

	DueDate   *time.Time
	Notes     string
	CreatedBy string

	CreatedAt    time.Time
	UpdatedAt    time.Time
	SentAt       *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

func NewPaymentRequest(id, customerID string, amount Money, now time.Time) (*PaymentRequest, error) {
	if id == "" {
		return nil, NewValidationError("request ID")
	}
	if customerID == "" {
		return nil, NewValidationError("customer ID")
	}
	if amount.Cents <= 0 {
		return nil, NewInvalidAmountError(amount.Cents)
	}

	return &PaymentRequest{
		ID:          id,
		CustomerID:  customerID,
		AmountCents: amount.Cents,
		Currency:    amount.Currency,
		Status:      RequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsDeposit reports whether this request asks for a pre-invoice deposit.
func (r *PaymentRequest) IsDeposit() bool {
	return r.BookingID != nil && r.InvoiceID == nil
}

func (r *PaymentRequest) IsTerminal() bool {
	switch r.Status {
	case RequestPaid, RequestExpired, RequestCancelled:
		return true
	default:
		return false
	}
}

// MarkSent stamps the send time. Re-sending an already sent request is
// a no-op; terminal requests reject the transition.
func (r *PaymentRequest) MarkSent(now time.Time) error {
	if r.Status == RequestSent {
		return nil
	}
	if r.Status != RequestPending {
		return NewInvalidTransitionError(string(r.Status), string(RequestSent))
	}
	r.Status = RequestSent
	r.SentAt = &now
	r.UpdatedAt = now
	return nil
}

// MarkPaid settles the request. Already-paid requests are a no-op so the
// webhook cascade can re-apply safely.
func (r *PaymentRequest) MarkPaid(now time.Time) error {
	if r.Status == RequestPaid {
		return nil
	}
	if r.IsTerminal() {
		return NewInvalidTransitionError(string(r.Status), string(RequestPaid))
	}
	r.Status = RequestPaid
	r.UpdatedAt = now
	return nil
}

// Cancel withdraws the request from any non-terminal state.
func (r *PaymentRequest) Cancel(reason string, now time.Time) error {
	if r.IsTerminal() {
		return NewInvalidTransitionError(string(r.Status), string(RequestCancelled))
	}
	r.Status = RequestCancelled
	r.CancelledAt = &now
	r.CancelReason = reason
	r.UpdatedAt = now
	return nil
}

// Expire transitions an overdue request. Only pending and sent requests
// qualify; anything else is left alone so the batch sweep stays
// idempotent.
func (r *PaymentRequest) Expire(now time.Time) bool {
	if r.Status != RequestPending && r.Status != RequestSent {
		return false
	}
	if r.DueDate == nil || !r.DueDate.Before(now) {
		return false
	}
	r.Status = RequestExpired
	r.UpdatedAt = now
	return true
}
