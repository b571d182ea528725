package booking

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid booking input")
	ErrSeatConflict     = errors.New("seat already booked")
	ErrOutboundConflict = errors.New("outbound seat already booked")
	ErrReturnConflict   = errors.New("return seat already booked")
	ErrBothConflict     = errors.New("both seats already booked")
	ErrSeatNotFound     = errors.New("seat not found")
	ErrSeatMismatch     = errors.New("seat does not belong to the given flight and class")
	ErrRateLimited      = errors.New("rate limited")
)
