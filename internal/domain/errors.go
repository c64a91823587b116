package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Domain validation errors
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeUnresolvedReference = "UNRESOLVED_REFERENCE"
	ErrCodeAmbiguousTarget     = "AMBIGUOUS_TARGET"
	ErrCodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	ErrCodeRequestNotFound     = "REQUEST_NOT_FOUND"
	ErrCodeInvoiceNotFound     = "INVOICE_NOT_FOUND"
	ErrCodeBookingNotFound     = "BOOKING_NOT_FOUND"
	ErrCodeDuplicateEvent      = "DUPLICATE_EVENT"
)

var ErrInvalidTransition = errors.New("invalid status transition")

func NewValidationError(field string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func NewInvalidAmountError(cents int64) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount: %d", cents),
	}
}

func NewMalformedAmountError(input, reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: fmt.Sprintf("invalid amount %q: %s", input, reason),
	}
}

func NewInvalidTransitionError(from, to string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Err:     ErrInvalidTransition,
	}
}

func NewUnresolvedReferenceError(reference string) *DomainError {
	return &DomainError{
		Code:    ErrCodeUnresolvedReference,
		Message: fmt.Sprintf("reference %q does not match any payment request, booking or invoice", reference),
	}
}

func NewAmbiguousTargetError(invoiceID, bookingID string) *DomainError {
	return &DomainError{
		Code:    ErrCodeAmbiguousTarget,
		Message: fmt.Sprintf("invoice %s and booking %s belong to different customers", invoiceID, bookingID),
	}
}

func IsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	ok := errors.As(err, &domainErr)
	return domainErr, ok
}
