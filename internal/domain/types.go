package domain

import "time"

type ClassName string

const (
	ClassFirst    ClassName = "First"
	ClassBusiness ClassName = "Business"
	ClassEconomy  ClassName = "Economy"
)

func (c ClassName) Valid() bool {
	switch c {
	case ClassFirst, ClassBusiness, ClassEconomy:
		return true
	}
	return false
}

type Flight struct {
	ID               int64
	FlightNumber     string
	DepartureAirport int64
	ArrivalAirport   int64
	DepartureTime    time.Time
	ArrivalTime      time.Time
	DelayedStatus    bool
	DelayedTime      *time.Time // set only when DelayedStatus is true
}

type FlightClass struct {
	ID              int64
	FlightID        int64
	ClassName       ClassName
	SeatCount       int
	SeatBookedCount int
	PriceCents      int64
}

type Seat struct {
	ID         int64
	FlightID   int64
	ClassID    int64
	SeatNumber string
	IsBooked   bool
}

// SeatClass is the seat row joined with its class, used to validate that a
// requested seat actually belongs to the flight and class the caller named.
type SeatClass struct {
	SeatID    int64
	FlightID  int64
	ClassID   int64
	ClassName ClassName
	IsBooked  bool
}

type Booking struct {
	ID            int64
	BookingNumber string
	UserID        int64
	FlightID      int64
	SeatID        int64
	Status        BookingStatus
	BookingDate   time.Time
}

type Payment struct {
	ID          int64
	BookingID   int64
	AmountCents int64
	Status      PaymentStatus
}

type TravelHistory struct {
	ID         int64
	UserID     int64
	BookingID  int64
	TravelDate time.Time
}

type Refund struct {
	ID          int64
	BookingID   int64
	Reason      string
	AmountCents int64
	Status      RefundStatus
	CreatedAt   time.Time
}

// BookingWithPayment backs the per-user booking listing that fronts
// refund submission.
type BookingWithPayment struct {
	Booking
	FlightNumber  string
	AmountCents   int64
	PaymentStatus PaymentStatus
}

// ClassAvailability is a display-only availability counter. The booking
// decision never reads it; seat state is re-checked inside the transaction.
type ClassAvailability struct {
	ClassName       ClassName
	SeatCount       int
	SeatBookedCount int
	Available       int
	PriceCents      int64
}

// BookedSeat references one leg of a committed purchase.
type BookedSeat struct {
	BookingID     int64
	BookingNumber string
	SeatID        int64
}

// RoundTrip is the result of an all-or-nothing two-leg purchase.
type RoundTrip struct {
	Outbound BookedSeat
	Return   BookedSeat
}
