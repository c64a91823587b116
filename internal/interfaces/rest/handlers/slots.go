package handlers

import (
	"net/http"
	"time"

	"github.com/clinicdesk/payments/internal/domain"
	"github.com/clinicdesk/payments/internal/interfaces/rest"
)

type slotTierResponse struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Tier      string `json:"tier"`
}

// SlotTier classifies a booking slot so the scheduling frontend can
// show the deposit tier before the booking is committed.
func (h *Handlers) SlotTier(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dateStr := q.Get("date")
	startTime := q.Get("start_time")
	endTime := q.Get("end_time")

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		rest.WriteError(w, domain.NewValidationError("date"), h.logger)
		return
	}

	tier, err := h.categorizer.Categorize(date, startTime, endTime)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, slotTierResponse{
		Date:      dateStr,
		StartTime: startTime,
		EndTime:   endTime,
		Tier:      string(tier),
	})
}
