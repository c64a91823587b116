package services_test

import (
	"testing"

	"github.com/clinicdesk/payments/internal/application/services"
	"github.com/clinicdesk/payments/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapGatewayStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   domain.PaymentStatus
		wantOK bool
	}{
		{raw: "completed", want: domain.PaymentPaid, wantOK: true},
		{raw: "paid", want: domain.PaymentPaid, wantOK: true},
		{raw: "SUCCESS", want: domain.PaymentPaid, wantOK: true},
		{raw: " failed ", want: domain.PaymentFailed, wantOK: true},
		{raw: "declined", want: domain.PaymentFailed, wantOK: true},
		{raw: "expired", want: domain.PaymentFailed, wantOK: true},
		{raw: "refunded", want: domain.PaymentRefunded, wantOK: true},
		{raw: "created", want: domain.PaymentPending, wantOK: true},
		{raw: "in_progress", want: domain.PaymentProcessing, wantOK: true},
		{raw: "settlement_scheduled", want: domain.PaymentProcessing, wantOK: false},
		{raw: "", want: domain.PaymentProcessing, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			status, ok := services.MapGatewayStatus(tt.raw)
			assert.Equal(t, tt.want, status)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestMapGatewayStatusNeverCancels(t *testing.T) {
	for raw := range map[string]bool{
		"cancelled": true, "canceled": true, "voided": true,
	} {
		status, ok := services.MapGatewayStatus(raw)
		assert.False(t, ok, "status %q must not be in the mapping table", raw)
		assert.NotEqual(t, domain.PaymentCancelled, status)
	}
}
