package services

import (
	"strings"

	"github.com/clinicdesk/payments/internal/domain"
)

// gatewayStatusMap is the single source of truth for translating the
// gateway's status vocabulary into payment statuses. Every consumer goes
// through MapGatewayStatus; nothing else may interpret raw status
// strings.
var gatewayStatusMap = map[string]domain.PaymentStatus{
	"completed":  domain.PaymentPaid,
	"complete":   domain.PaymentPaid,
	"paid":       domain.PaymentPaid,
	"success":    domain.PaymentPaid,
	"successful": domain.PaymentPaid,

	"failed":   domain.PaymentFailed,
	"declined": domain.PaymentFailed,
	"rejected": domain.PaymentFailed,
	"expired":  domain.PaymentFailed,

	"refunded": domain.PaymentRefunded,

	"created": domain.PaymentPending,
	"pending": domain.PaymentPending,

	"processing":  domain.PaymentProcessing,
	"in_progress": domain.PaymentProcessing,
	"open":        domain.PaymentProcessing,
}

// MapGatewayStatus translates a raw gateway status. Unrecognized strings
// map to PROCESSING and report ok=false so the caller can log them;
// they are never dropped silently.
func MapGatewayStatus(raw string) (status domain.PaymentStatus, ok bool) {
	status, ok = gatewayStatusMap[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return domain.PaymentProcessing, false
	}
	return status, true
}
