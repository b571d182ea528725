package refund

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid refund input")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrRefundNotFound    = errors.New("refund not found")
	ErrAlreadyRefunded   = errors.New("a refund for this booking is already processing or completed")
	ErrInvalidTransition = errors.New("refund already resolved with a different decision")
	ErrInvalidDecision   = errors.New("decision must be Completed or Rejected")
)
