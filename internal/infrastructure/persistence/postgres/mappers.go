package postgres

import (
	"github.com/clinicdesk/payments/internal/domain"
)

// toPaymentDomain: maps db model to domain entity
func toPaymentDomain(m PaymentModel) *domain.Payment {
	return &domain.Payment{
		ID:                   m.ID,
		CustomerID:           m.CustomerID,
		InvoiceID:            m.InvoiceID,
		BookingID:            m.BookingID,
		AmountCents:          m.AmountCents,
		Currency:             m.Currency,
		Status:               domain.PaymentStatus(m.Status),
		Method:               domain.PaymentMethod(m.Method),
		GatewayTransactionID: m.GatewayTransactionID,
		LastEventID:          m.LastEventID,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
		PaidAt:               m.PaidAt,
	}
}

// toPaymentModel: maps domain entity to db model
func toPaymentModel(p *domain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:                   p.ID,
		CustomerID:           p.CustomerID,
		InvoiceID:            p.InvoiceID,
		BookingID:            p.BookingID,
		AmountCents:          p.AmountCents,
		Currency:             p.Currency,
		Status:               string(p.Status),
		Method:               string(p.Method),
		GatewayTransactionID: p.GatewayTransactionID,
		LastEventID:          p.LastEventID,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		PaidAt:               p.PaidAt,
	}
}

func toRequestDomain(m PaymentRequestModel) *domain.PaymentRequest {
	return &domain.PaymentRequest{
		ID:           m.ID,
		CustomerID:   m.CustomerID,
		InvoiceID:    m.InvoiceID,
		BookingID:    m.BookingID,
		AmountCents:  m.AmountCents,
		Currency:     m.Currency,
		Status:       domain.RequestStatus(m.Status),
		DueDate:      m.DueDate,
		Notes:        m.Notes,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		SentAt:       m.SentAt,
		CancelledAt:  m.CancelledAt,
		CancelReason: m.CancelReason,
	}
}

func toRequestModel(r *domain.PaymentRequest) *PaymentRequestModel {
	return &PaymentRequestModel{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		InvoiceID:    r.InvoiceID,
		BookingID:    r.BookingID,
		AmountCents:  r.AmountCents,
		Currency:     r.Currency,
		Status:       string(r.Status),
		DueDate:      r.DueDate,
		Notes:        r.Notes,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		SentAt:       r.SentAt,
		CancelledAt:  r.CancelledAt,
		CancelReason: r.CancelReason,
	}
}
