package repository

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrSeatBooked     = errors.New("seat already booked")
	ErrClassSoldOut   = errors.New("class sold out")
	ErrStatusMismatch = errors.New("row not in expected status")
)
