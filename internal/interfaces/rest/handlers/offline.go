package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clinicdesk/payments/internal/application/services"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/clinicdesk/payments/internal/interfaces/rest"
)

type offlinePaymentBody struct {
	CustomerID string  `json:"customer_id"`
	Amount     string  `json:"amount"`
	Currency   string  `json:"currency"`
	InvoiceID  *string `json:"invoice_id,omitempty"`
	BookingID  *string `json:"booking_id,omitempty"`
	Notes      string  `json:"notes,omitempty"`
	RecordedBy string  `json:"recorded_by,omitempty"`
}

// RecordOfflinePayment accepts the amount as a decimal string so front
// desk clients never deal in cents.
func (h *Handlers) RecordOfflinePayment(w http.ResponseWriter, r *http.Request) {
	var body offlinePaymentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, domain.NewValidationError("request body"), h.logger)
		return
	}
	if body.CustomerID == "" {
		rest.WriteError(w, domain.NewValidationError("customer_id"), h.logger)
		return
	}

	amountCents, err := domain.ParseAmount(body.Amount)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	payment, err := h.offline.Record(r.Context(), services.RecordOfflineCommand{
		CustomerID:  body.CustomerID,
		AmountCents: amountCents,
		Currency:    body.Currency,
		InvoiceID:   body.InvoiceID,
		BookingID:   body.BookingID,
		Notes:       body.Notes,
		RecordedBy:  body.RecordedBy,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, payment)
}
