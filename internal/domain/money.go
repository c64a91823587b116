package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a monetary value in minor units (cents). All internal
// arithmetic stays in cents; decimal strings appear only at the edges.
type Money struct {
	Cents    int64
	Currency string
}

// MaxAmountCents caps a single payment at one million major units. No
// clinic transaction comes anywhere near it; anything above is a data
// entry or payload error.
const MaxAmountCents int64 = 100_000_000

func NewMoney(cents int64, currency string) (Money, error) {
	if cents < 0 {
		return Money{}, NewInvalidAmountError(cents)
	}
	if cents > MaxAmountCents {
		return Money{}, NewInvalidAmountError(cents)
	}
	if currency == "" {
		return Money{}, NewValidationError("currency")
	}
	return Money{Cents: cents, Currency: currency}, nil
}

// ParseAmount converts a decimal string such as "80.00" or "100" into
// cents. More than two fractional digits is rejected rather than rounded
// so the caller cannot silently lose sub-cent precision.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, NewValidationError("amount")
	}

	if strings.HasPrefix(s, "-") {
		return 0, NewMalformedAmountError(s, "amount cannot be negative")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	units, err := strconv.ParseUint(whole, 10, 63)
	if err != nil {
		return 0, NewMalformedAmountError(s, "not a decimal number")
	}
	if units > uint64(MaxAmountCents/100) {
		return 0, NewMalformedAmountError(s, "exceeds the maximum of "+FormatCents(MaxAmountCents))
	}

	var cents uint64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, NewMalformedAmountError(s, "expected at most two decimal places")
		}
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseUint(frac, 10, 63)
		if err != nil {
			return 0, NewMalformedAmountError(s, "not a decimal number")
		}
	}

	total := int64(units)*100 + int64(cents)
	if total > MaxAmountCents {
		return 0, NewMalformedAmountError(s, "exceeds the maximum of "+FormatCents(MaxAmountCents))
	}
	return total, nil
}

// FormatCents renders cents as a two-decimal string, rounding only at
// this final presentation step.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// RoundToCents converts a float major-unit amount (legacy rows, gateway
// payloads that insist on decimals) into cents with half-away-from-zero
// rounding.
func RoundToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
