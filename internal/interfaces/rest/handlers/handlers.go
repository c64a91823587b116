// Package handlers routes the HTTP surface onto the payment services.
package handlers

import (
	"log/slog"

	"github.com/clinicdesk/payments/internal/application/services"
	"github.com/clinicdesk/payments/internal/pricing"
	"github.com/go-chi/chi/v5"
)

type Handlers struct {
	processor   *services.WebhookProcessor
	requests    *services.RequestManager
	balances    *services.CachedBalances
	offline     *services.OfflineRecorder
	categorizer *pricing.SlotCategorizer
	logger      *slog.Logger
}

func NewHandlers(
	processor *services.WebhookProcessor,
	requests *services.RequestManager,
	balances *services.CachedBalances,
	offline *services.OfflineRecorder,
	categorizer *pricing.SlotCategorizer,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		processor:   processor,
		requests:    requests,
		balances:    balances,
		offline:     offline,
		categorizer: categorizer,
		logger:      logger,
	}
}

func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/v1", func(r chi.Router) {
		r.Post("/webhooks/gateway", h.GatewayWebhook)
		r.Get("/payments/confirm", h.ConfirmReturn)
		r.Post("/payments/offline", h.RecordOfflinePayment)

		r.Post("/payment-requests", h.CreatePaymentRequest)
		r.Post("/payment-requests/{id}/send", h.SendPaymentRequest)
		r.Post("/payment-requests/{id}/cancel", h.CancelPaymentRequest)

		r.Get("/invoices/{id}/balance", h.InvoiceBalance)
		r.Get("/bookings/{id}/balance", h.BookingBalance)

		r.Get("/slots/tier", h.SlotTier)
	})

	return r
}
