package flightops

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid flight input")
	ErrFlightNotFound = errors.New("flight not found")
	ErrInvalidUnit    = errors.New("delay unit must be minutes or hours")
	ErrInvalidAmount  = errors.New("delay amount must be positive")
)
