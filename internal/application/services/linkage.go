package services

import (
	"context"
	"errors"

	"github.com/clinicdesk/payments/internal/application"
	"github.com/clinicdesk/payments/internal/domain"
)

// checkTargetLinkage verifies that the referenced invoice and booking
// exist and that every named record belongs to the given customer.
func checkTargetLinkage(
	ctx context.Context,
	billing application.BillingReader,
	customerID string,
	invoiceID, bookingID *string,
) error {
	var invoice *domain.Invoice
	var booking *domain.Booking
	var err error

	if invoiceID != nil {
		invoice, err = billing.InvoiceByID(ctx, *invoiceID)
		if err != nil {
			if errors.Is(err, application.ErrNotFound) {
				return application.NewNotFoundError("invoice", err)
			}
			return application.NewInternalError(err)
		}
	}
	if bookingID != nil {
		booking, err = billing.BookingByID(ctx, *bookingID)
		if err != nil {
			if errors.Is(err, application.ErrNotFound) {
				return application.NewNotFoundError("booking", err)
			}
			return application.NewInternalError(err)
		}
	}

	if invoice != nil && booking != nil && invoice.CustomerID != booking.CustomerID {
		return domain.NewAmbiguousTargetError(invoice.ID, booking.ID)
	}
	if invoice != nil && invoice.CustomerID != customerID {
		return domain.NewAmbiguousTargetError(invoice.ID, "")
	}
	if booking != nil && booking.CustomerID != customerID {
		return domain.NewAmbiguousTargetError("", booking.ID)
	}
	return nil
}
