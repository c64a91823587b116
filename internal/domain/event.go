package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// GatewayEvent is an inbound payment-gateway notification, validated at
// the boundary before it reaches the state machine. Amounts arrive in
// minor units.
type GatewayEvent struct {
	EventID       string `json:"event_id"`
	EventType     string `json:"event_type"`
	CheckoutID    string `json:"checkout_id"`
	TransactionID string `json:"transaction_id"`
	// Reference correlates the event to a payment request, booking or
	// invoice, e.g. "req_<id>", "booking_<id>", "invoice_<id>".
	Reference   string    `json:"reference"`
	AmountCents int64     `json:"amount"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// ParseGatewayEvent decodes and validates a raw webhook payload.
// Malformed payloads are rejected here, before any state mutation.
func ParseGatewayEvent(payload []byte) (*GatewayEvent, error) {
	var event GatewayEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, &DomainError{
			Code:    ErrCodeValidation,
			Message: "malformed gateway payload",
			Err:     err,
		}
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}

func (e *GatewayEvent) Validate() error {
	switch {
	case e.EventID == "":
		return NewValidationError("event_id")
	case e.TransactionID == "":
		return NewValidationError("transaction_id")
	case e.Reference == "":
		return NewValidationError("reference")
	case e.Status == "":
		return NewValidationError("status")
	case e.Currency == "":
		return NewValidationError("currency")
	}
	if e.AmountCents <= 0 {
		return NewInvalidAmountError(e.AmountCents)
	}
	return nil
}

func (e *GatewayEvent) String() string {
	return fmt.Sprintf("event %s (%s) tx=%s ref=%s status=%s", e.EventID, e.EventType, e.TransactionID, e.Reference, e.Status)
}
