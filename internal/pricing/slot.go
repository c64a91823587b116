// Package pricing classifies booking slots into the tier used by the
// billing calculation.
package pricing

import (
	"fmt"
	"time"

	"github.com/clinicdesk/payments/internal/domain"
)

// Tier is the pricing classification of a booking slot.
type Tier string

const (
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
)

// SlotCategorizer maps a booking's date and time span to a Tier.
// Weekends are premium; on weekdays, slots ending before the morning
// cutoff or starting at or after the evening cutoff are premium.
type SlotCategorizer struct {
	morningCutoff int // minutes since midnight
	eveningCutoff int
}

// NewSlotCategorizer parses "HH:MM" cutoffs, e.g. ("09:15", "17:00").
func NewSlotCategorizer(morningCutoff, eveningCutoff string) (*SlotCategorizer, error) {
	morning, err := parseClock(morningCutoff)
	if err != nil {
		return nil, fmt.Errorf("morning cutoff: %w", err)
	}
	evening, err := parseClock(eveningCutoff)
	if err != nil {
		return nil, fmt.Errorf("evening cutoff: %w", err)
	}
	return &SlotCategorizer{morningCutoff: morning, eveningCutoff: evening}, nil
}

// Categorize is pure: identical inputs always yield the identical tier.
//
// The morning boundary looks at the end time only and the evening
// boundary at the start time only. A slot straddling the morning cutoff
// (start before, end after) is therefore standard. Downstream pricing
// data was generated under this asymmetry, so it must not be "fixed".
func (c *SlotCategorizer) Categorize(date time.Time, startTime, endTime string) (Tier, error) {
	if date.IsZero() {
		return "", domain.NewValidationError("booking date")
	}
	start, err := parseClock(startTime)
	if err != nil {
		return "", fmt.Errorf("start time: %w", err)
	}
	end, err := parseClock(endTime)
	if err != nil {
		return "", fmt.Errorf("end time: %w", err)
	}

	if weekday := date.Weekday(); weekday == time.Saturday || weekday == time.Sunday {
		return TierPremium, nil
	}
	if end < c.morningCutoff {
		return TierPremium, nil
	}
	if start >= c.eveningCutoff {
		return TierPremium, nil
	}
	return TierStandard, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, &domain.DomainError{
			Code:    domain.ErrCodeValidation,
			Message: fmt.Sprintf("invalid time %q, expected HH:MM", s),
			Err:     err,
		}
	}
	return t.Hour()*60 + t.Minute(), nil
}
