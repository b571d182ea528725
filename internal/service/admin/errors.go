package admin

import "errors"

var (
	ErrFlightExists  = errors.New("flight number already exists")
	ErrInvalidFlight = errors.New("invalid flight data")
)
