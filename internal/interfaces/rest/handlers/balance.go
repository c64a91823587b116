package handlers

import (
	"net/http"

	"github.com/clinicdesk/payments/internal/interfaces/rest"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) InvoiceBalance(w http.ResponseWriter, r *http.Request) {
	summary, err := h.balances.InvoiceBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handlers) BookingBalance(w http.ResponseWriter, r *http.Request) {
	summary, err := h.balances.BookingBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, summary)
}
