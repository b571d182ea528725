package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/altavia/airways/internal/domain"
	redisrepo "github.com/altavia/airways/internal/repository/redis"
	"github.com/altavia/airways/internal/service"
	"github.com/altavia/airways/internal/service/admin"
	"github.com/altavia/airways/internal/service/booking"
	"github.com/altavia/airways/internal/service/flightops"
	"github.com/altavia/airways/internal/service/query"
	"github.com/altavia/airways/internal/service/refund"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/flights/:flight", handleTrackFlight(svcs))
	r.GET("/flights/:flight/availability", handleGetAvailability(svcs))
	r.GET("/flights/:flight/seats", handleListSeats(svcs))
	r.PATCH("/flights/:flight/delay", handleAddDelay(svcs))

	r.POST("/bookings", handleBookSeat(svcs, idem))
	r.POST("/bookings/round-trip", handleBookRoundTrip(svcs, idem))

	r.POST("/refunds", handleCreateRefund(svcs))
	r.PATCH("/refunds/:id", handleResolveRefund(svcs))
	r.GET("/refunds", handleListRefunds(svcs))

	r.GET("/users/:id/bookings", handleListUserBookings(svcs))
	r.GET("/users/:id/refunds", handleListUserRefunds(svcs))

	// Admin-API
	// TODO: add admin middleware
	adminGroup := r.Group("/admin")
	{
		adminGroup.POST("/flights", handleCreateFlight(svcs))
	}

	return r
}

// --- Handlers ---

func handleTrackFlight(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := svcs.FlightOps.Track(c.Request.Context(), c.Param("flight"))
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, f, "public, max-age=30", true)
	}
}

func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		flightID, ok := parseInt64Param(c, "flight")
		if !ok {
			return
		}
		avail, err := svcs.Query.ClassAvailability(c.Request.Context(), flightID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, avail, "public, max-age=15", true)
	}
}

func handleListSeats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		flightID, ok := parseInt64Param(c, "flight")
		if !ok {
			return
		}
		class := domain.ClassName(c.Query("class"))
		seats, err := svcs.Query.ListBookableSeats(c.Request.Context(), flightID, class)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, seats, "public, max-age=15", true)
	}
}

func handleAddDelay(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddDelayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		flightNumber := c.Param("flight")
		delayed, err := svcs.FlightOps.AddDelay(
			c.Request.Context(),
			flightNumber,
			req.Amount,
			flightops.DelayUnit(req.Unit),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, AddDelayResponse{
			FlightNumber: flightNumber,
			DelayedTime:  delayed,
		})
	}
}

func handleBookSeat(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			return
		}
		var req BookSeatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		travelDate, err := parseRFC3339(req.TravelDate)
		if err != nil {
			badRequest(c, "invalid travel_date (RFC3339)")
			return
		}

		idemStorageKey, done := idemReplay(c, idem, userID)
		if done {
			return
		}

		booked, err := svcs.Booking.BookSingle(c.Request.Context(), booking.BookSingleInput{
			FlightID:    req.FlightID,
			Class:       domain.ClassName(req.Class),
			SeatID:      req.SeatID,
			UserID:      userID,
			AmountCents: req.AmountCents,
			TravelDate:  travelDate,
		}, "ip:"+c.ClientIP())
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := BookedSeatResponse{
			BookingID:     booked.BookingID,
			BookingNumber: booked.BookingNumber,
			SeatID:        booked.SeatID,
		}
		idemSave(c, idem, idemStorageKey, resp)

		c.JSON(http.StatusCreated, resp)
	}
}

func handleBookRoundTrip(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			return
		}
		var req BookRoundTripRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		departureDate, err := parseRFC3339(req.DepartureDate)
		if err != nil {
			badRequest(c, "invalid departure_date (RFC3339)")
			return
		}
		returnDate, err := parseRFC3339(req.ReturnDate)
		if err != nil {
			badRequest(c, "invalid return_date (RFC3339)")
			return
		}

		idemStorageKey, done := idemReplay(c, idem, userID)
		if done {
			return
		}

		trip, err := svcs.Booking.BookRoundTrip(c.Request.Context(), booking.BookRoundTripInput{
			OutboundFlightID:    req.OutboundFlightID,
			ReturnFlightID:      req.ReturnFlightID,
			Class:               domain.ClassName(req.Class),
			OutboundSeatID:      req.OutboundSeatID,
			ReturnSeatID:        req.ReturnSeatID,
			UserID:              userID,
			AmountOutboundCents: req.AmountOutboundCents,
			AmountReturnCents:   req.AmountReturnCents,
			DepartureDate:       departureDate,
			ReturnDate:          returnDate,
		}, "ip:"+c.ClientIP())
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := BookRoundTripResponse{
			Outbound: BookedSeatResponse{
				BookingID:     trip.Outbound.BookingID,
				BookingNumber: trip.Outbound.BookingNumber,
				SeatID:        trip.Outbound.SeatID,
			},
			Return: BookedSeatResponse{
				BookingID:     trip.Return.BookingID,
				BookingNumber: trip.Return.BookingNumber,
				SeatID:        trip.Return.SeatID,
			},
		}
		idemSave(c, idem, idemStorageKey, resp)

		c.JSON(http.StatusCreated, resp)
	}
}

func handleCreateRefund(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := userIDFrom(c)
		if !ok {
			return
		}
		var req CreateRefundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		r, err := svcs.Refund.Create(c.Request.Context(), req.BookingNumber, userID, req.Reason)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, r)
	}
}

func handleResolveRefund(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		refundID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req ResolveRefundRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		r, err := svcs.Refund.Resolve(
			c.Request.Context(),
			refundID,
			domain.RefundStatus(req.Status),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

func handleListRefunds(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var status *domain.RefundStatus
		if s := c.Query("status"); s != "" {
			st := domain.RefundStatus(s)
			status = &st
		}
		out, err := svcs.Refund.List(c.Request.Context(), status)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleListUserBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		out, err := svcs.Query.ListUserBookings(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleListUserRefunds(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		out, err := svcs.Refund.ListForUser(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func handleCreateFlight(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateFlightRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		departure, err := parseRFC3339(req.DepartureTime)
		if err != nil {
			badRequest(c, "invalid departure_time (RFC3339)")
			return
		}
		arrival, err := parseRFC3339(req.ArrivalTime)
		if err != nil {
			badRequest(c, "invalid arrival_time (RFC3339)")
			return
		}
		id, err := svcs.Admin.ProvisionFlight(c.Request.Context(), admin.ProvisionFlightInput{
			FlightNumber:       req.FlightNumber,
			DepartureAirport:   req.DepartureAirport,
			ArrivalAirport:     req.ArrivalAirport,
			DepartureTime:      departure,
			ArrivalTime:        arrival,
			PriceFirstCents:    req.PriceFirstCents,
			PriceBusinessCents: req.PriceBusinessCents,
			PriceEconomyCents:  req.PriceEconomyCents,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateFlightResponse{FlightID: id})
	}
}

// --- Helpers ---

// userIDFrom reads the caller's identity from the X-User-ID header. Stands in
// for real authentication; the services only ever see the numeric ID.
func userIDFrom(c *gin.Context) (int64, bool) {
	s := strings.TrimSpace(c.GetHeader("X-User-ID"))
	if s == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing X-User-ID"})
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid X-User-ID"})
		return 0, false
	}
	return v, true
}

// idemReplay handles the read side of the Idempotency-Key protocol: replay a
// stored result, or acquire the in-progress lock. done means a response has
// already been written.
func idemReplay(
	c *gin.Context,
	idem *redisrepo.IdempotencyStore,
	userID int64,
) (storageKey string, done bool) {
	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if idem == nil || idemKey == "" {
		return "", false
	}

	storageKey = redisrepo.KeyIdemBooking(userID, idemKey)

	if payload, ok, _ := idem.GetResult(c.Request.Context(), storageKey); ok {
		c.Header("Idempotency-Key", idemKey)
		c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
		return storageKey, true
	}

	locked, err := idem.AcquireLock(c.Request.Context(), storageKey, 60*time.Second)
	if err != nil {
		respondErr(c, err)
		return storageKey, true
	}
	if !locked {
		if payload, ok, _ := idem.GetResult(c.Request.Context(), storageKey); ok {
			c.Header("Idempotency-Key", idemKey)
			c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
			return storageKey, true
		}
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
		return storageKey, true
	}

	return storageKey, false
}

func idemSave(c *gin.Context, idem *redisrepo.IdempotencyStore, storageKey string, resp any) {
	if idem == nil || storageKey == "" {
		return
	}
	b, _ := json.Marshal(resp)
	_ = idem.SaveResult(c.Request.Context(), storageKey, string(b))
	c.Header("Idempotency-Key", strings.TrimSpace(c.GetHeader("Idempotency-Key")))
}

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// booking service
	case errors.Is(err, booking.ErrRateLimited):
		c.Header("Retry-After", "60")
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, booking.ErrBothConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "both seats already booked"})
		return
	case errors.Is(err, booking.ErrOutboundConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "outbound seat already booked"})
		return
	case errors.Is(err, booking.ErrReturnConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "return seat already booked"})
		return
	case errors.Is(err, booking.ErrSeatConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "seat already booked"})
		return
	case errors.Is(err, booking.ErrSeatNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "seat not found"})
		return
	case errors.Is(err, booking.ErrSeatMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "seat does not belong to flight and class"})
		return
	// refund service
	case errors.Is(err, refund.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
		return
	case errors.Is(err, refund.ErrRefundNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "refund not found"})
		return
	case errors.Is(err, refund.ErrAlreadyRefunded):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "refund already requested"})
		return
	case errors.Is(err, refund.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "refund already resolved"})
		return
	case errors.Is(err, refund.ErrInvalidDecision):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "decision must be Completed or Rejected"})
		return
	// flightops service
	case errors.Is(err, flightops.ErrFlightNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "flight not found"})
		return
	case errors.Is(err, flightops.ErrInvalidUnit):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unit must be minutes or hours"})
		return
	case errors.Is(err, flightops.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be positive"})
		return
	// query service
	case errors.Is(err, query.ErrFlightNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "flight not found"})
		return
	case errors.Is(err, query.ErrInvalidClass):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown class"})
		return
	// admin service
	case errors.Is(err, admin.ErrFlightExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "flight number already exists"})
		return
	case errors.Is(err, admin.ErrInvalidFlight):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	// input validation from any service
	case errors.Is(err, booking.ErrInvalidInput),
		errors.Is(err, refund.ErrInvalidInput),
		errors.Is(err, flightops.ErrInvalidInput),
		errors.Is(err, query.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	// Anything unmatched is an internal failure; the detail stays in the logs.
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
