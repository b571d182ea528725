package httpgin

import "time"

type BookSeatRequest struct {
	FlightID    int64  `json:"flight_id" binding:"required"`
	Class       string `json:"class" binding:"required"`
	SeatID      int64  `json:"seat_id" binding:"required"`
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	TravelDate  string `json:"travel_date" binding:"required"`
}

type BookRoundTripRequest struct {
	OutboundFlightID    int64  `json:"outbound_flight_id" binding:"required"`
	ReturnFlightID      int64  `json:"return_flight_id" binding:"required"`
	Class               string `json:"class" binding:"required"`
	OutboundSeatID      int64  `json:"outbound_seat_id" binding:"required"`
	ReturnSeatID        int64  `json:"return_seat_id" binding:"required"`
	AmountOutboundCents int64  `json:"amount_outbound_cents" binding:"required,gt=0"`
	AmountReturnCents   int64  `json:"amount_return_cents" binding:"required,gt=0"`
	DepartureDate       string `json:"departure_date" binding:"required"`
	ReturnDate          string `json:"return_date" binding:"required"`
}

type BookedSeatResponse struct {
	BookingID     int64  `json:"booking_id"`
	BookingNumber string `json:"booking_number"`
	SeatID        int64  `json:"seat_id"`
}

type BookRoundTripResponse struct {
	Outbound BookedSeatResponse `json:"outbound"`
	Return   BookedSeatResponse `json:"return"`
}

type CreateRefundRequest struct {
	BookingNumber string `json:"booking_number" binding:"required"`
	Reason        string `json:"reason" binding:"required"`
}

type ResolveRefundRequest struct {
	Status string `json:"status" binding:"required"`
}

type AddDelayRequest struct {
	Amount int    `json:"amount" binding:"required,gt=0"`
	Unit   string `json:"unit" binding:"required"`
}

type AddDelayResponse struct {
	FlightNumber string    `json:"flight_number"`
	DelayedTime  time.Time `json:"delayed_time"`
}

type CreateFlightRequest struct {
	FlightNumber       string `json:"flight_number" binding:"required"`
	DepartureAirport   int64  `json:"departure_airport" binding:"required"`
	ArrivalAirport     int64  `json:"arrival_airport" binding:"required"`
	DepartureTime      string `json:"departure_time" binding:"required"`
	ArrivalTime        string `json:"arrival_time" binding:"required"`
	PriceFirstCents    int64  `json:"price_first_cents" binding:"required,gt=0"`
	PriceBusinessCents int64  `json:"price_business_cents" binding:"required,gt=0"`
	PriceEconomyCents  int64  `json:"price_economy_cents" binding:"required,gt=0"`
}

type CreateFlightResponse struct {
	FlightID int64 `json:"flight_id"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
