package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/clinicdesk/payments/internal/application/services"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/clinicdesk/payments/internal/interfaces/rest"
	"github.com/go-chi/chi/v5"
)

type createRequestBody struct {
	CustomerID  string     `json:"customer_id"`
	AmountCents int64      `json:"amount_cents"`
	Currency    string     `json:"currency"`
	InvoiceID   *string    `json:"invoice_id,omitempty"`
	BookingID   *string    `json:"booking_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
}

func (h *Handlers) CreatePaymentRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, domain.NewValidationError("request body"), h.logger)
		return
	}
	if body.CustomerID == "" {
		rest.WriteError(w, domain.NewValidationError("customer_id"), h.logger)
		return
	}

	request, err := h.requests.CreateRequest(r.Context(), services.CreateRequestCommand{
		CustomerID:  body.CustomerID,
		AmountCents: body.AmountCents,
		Currency:    body.Currency,
		InvoiceID:   body.InvoiceID,
		BookingID:   body.BookingID,
		DueDate:     body.DueDate,
		Notes:       body.Notes,
		CreatedBy:   body.CreatedBy,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, request)
}

func (h *Handlers) SendPaymentRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.requests.MarkSent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, request)
}

type cancelRequestBody struct {
	Reason string `json:"reason"`
}

func (h *Handlers) CancelPaymentRequest(w http.ResponseWriter, r *http.Request) {
	var body cancelRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		rest.WriteError(w, domain.NewValidationError("request body"), h.logger)
		return
	}

	request, err := h.requests.Cancel(r.Context(), chi.URLParam(r, "id"), body.Reason)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, request)
}
