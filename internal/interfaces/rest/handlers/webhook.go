package handlers

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/clinicdesk/payments/internal/application/services"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/clinicdesk/payments/internal/interfaces/rest"
)

// GatewayWebhook receives the gateway's asynchronous notification push.
// Duplicates and illegal transitions acknowledge with 200 so the
// gateway stops redelivering events we have already settled.
func (h *Handlers) GatewayWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		rest.WriteError(w, domain.NewValidationError("request body"), h.logger)
		return
	}

	event, err := domain.ParseGatewayEvent(payload)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	h.applyEvent(w, r, event)
}

// ConfirmReturn is the synchronous return-flow path: the customer's
// browser lands here before the asynchronous notification arrives. Both
// paths funnel into the same ProcessEvent, so whichever comes second is
// an ignored duplicate.
func (h *Handlers) ConfirmReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseInt(q.Get("amount"), 10, 64)
	if err != nil {
		rest.WriteError(w, domain.NewValidationError("amount"), h.logger)
		return
	}

	event := &domain.GatewayEvent{
		EventID:       q.Get("event_id"),
		EventType:     "return_flow",
		CheckoutID:    q.Get("checkout_id"),
		TransactionID: q.Get("transaction_id"),
		Reference:     q.Get("reference"),
		AmountCents:   amount,
		Currency:      q.Get("currency"),
		Status:        q.Get("status"),
		OccurredAt:    time.Now().UTC(),
	}
	if err := event.Validate(); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	h.applyEvent(w, r, event)
}

func (h *Handlers) applyEvent(w http.ResponseWriter, r *http.Request, event *domain.GatewayEvent) {
	result, err := h.processor.ProcessEvent(r.Context(), event)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	status := http.StatusOK
	if result.Outcome == services.OutcomeCreated {
		status = http.StatusCreated
	}
	rest.WriteJSON(w, status, result)
}
