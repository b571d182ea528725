package query

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid query input")
	ErrFlightNotFound = errors.New("flight not found")
	ErrInvalidClass   = errors.New("unknown flight class")
)
