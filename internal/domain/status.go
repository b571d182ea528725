package domain

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "Confirmed"
	BookingCancelled BookingStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
)

type RefundStatus string

const (
	RefundProcessing RefundStatus = "Processing"
	RefundCompleted  RefundStatus = "Completed"
	RefundRejected   RefundStatus = "Rejected"
)

// Status transitions are closed tables. Anything not listed is rejected,
// so a resolved refund cannot be re-opened and a cancelled booking cannot
// come back.
var (
	bookingTransitions = map[BookingStatus]map[BookingStatus]bool{
		BookingConfirmed: {BookingCancelled: true},
	}

	paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
		PaymentPaid: {PaymentRefunded: true},
	}

	refundTransitions = map[RefundStatus]map[RefundStatus]bool{
		RefundProcessing: {RefundCompleted: true, RefundRejected: true},
	}
)

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	return bookingTransitions[s][next]
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return paymentTransitions[s][next]
}

func (s RefundStatus) CanTransitionTo(next RefundStatus) bool {
	return refundTransitions[s][next]
}

// Resolved reports whether the refund has reached a terminal state.
func (s RefundStatus) Resolved() bool {
	return s == RefundCompleted || s == RefundRejected
}

func (s RefundStatus) Valid() bool {
	switch s {
	case RefundProcessing, RefundCompleted, RefundRejected:
		return true
	}
	return false
}
