package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefundStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from RefundStatus
		to   RefundStatus
		want bool
	}{
		{"processing to completed", RefundProcessing, RefundCompleted, true},
		{"processing to rejected", RefundProcessing, RefundRejected, true},
		{"processing to processing", RefundProcessing, RefundProcessing, false},
		{"completed is terminal", RefundCompleted, RefundRejected, false},
		{"completed cannot reopen", RefundCompleted, RefundProcessing, false},
		{"rejected is terminal", RefundRejected, RefundCompleted, false},
		{"rejected cannot reopen", RefundRejected, RefundProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestBookingStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, BookingConfirmed.CanTransitionTo(BookingCancelled))
	assert.False(t, BookingCancelled.CanTransitionTo(BookingConfirmed))
	assert.False(t, BookingConfirmed.CanTransitionTo(BookingConfirmed))
}

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, PaymentPaid.CanTransitionTo(PaymentRefunded))
	assert.False(t, PaymentRefunded.CanTransitionTo(PaymentPaid))
}

func TestRefundStatus_Resolved(t *testing.T) {
	assert.False(t, RefundProcessing.Resolved())
	assert.True(t, RefundCompleted.Resolved())
	assert.True(t, RefundRejected.Resolved())
}

func TestClassName_Valid(t *testing.T) {
	assert.True(t, ClassFirst.Valid())
	assert.True(t, ClassBusiness.Valid())
	assert.True(t, ClassEconomy.Valid())
	assert.False(t, ClassName("Premium").Valid())
	assert.False(t, ClassName("").Valid())
	assert.False(t, ClassName("economy").Valid())
}
