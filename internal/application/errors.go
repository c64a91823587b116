package application

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/clinicdesk/payments/internal/domain"
)

// ServiceError carries an HTTP status alongside an application error.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInternal = "INTERNAL_ERROR"
	ErrCodeNotFound = "NOT_FOUND"
)

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "an internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewNotFoundError(what string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", what),
		HTTPStatus: http.StatusNotFound,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// ToHTTPStatus maps domain and service errors to response codes.
// Validation problems are the caller's fault; unresolved references are
// 404 so the gateway's redelivery can retry once correlation data lands.
func ToHTTPStatus(err error) int {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}
	if domainErr, ok := domain.IsDomainError(err); ok {
		switch domainErr.Code {
		case domain.ErrCodeValidation, domain.ErrCodeInvalidAmount, domain.ErrCodeAmbiguousTarget:
			return http.StatusBadRequest
		case domain.ErrCodeInvalidTransition:
			return http.StatusConflict
		case domain.ErrCodeUnresolvedReference,
			domain.ErrCodePaymentNotFound,
			domain.ErrCodeRequestNotFound,
			domain.ErrCodeInvoiceNotFound,
			domain.ErrCodeBookingNotFound:
			return http.StatusNotFound
		}
	}
	return http.StatusInternalServerError
}

// ToErrorCode extracts the machine-readable code for the response body.
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}
	if domainErr, ok := domain.IsDomainError(err); ok {
		return domainErr.Code
	}
	return ErrCodeInternal
}
