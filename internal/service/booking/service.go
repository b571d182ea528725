package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/altavia/airways/internal/domain"
	"github.com/altavia/airways/internal/repository"
	postgresrepo "github.com/altavia/airways/internal/repository/postgres"
	"github.com/altavia/airways/internal/uow"
)

// Inventory is the seat-and-counter surface the engine writes through. Both
// mutations are conditional updates; the repository reports a sentinel when
// zero rows changed instead of letting a stale read win.
type Inventory interface {
	SeatClass(ctx context.Context, db postgresrepo.DB, seatID int64) (*domain.SeatClass, error)
	MarkBooked(ctx context.Context, db postgresrepo.DB, seatID int64) error
	IncrementSold(ctx context.Context, db postgresrepo.DB, flightID int64, class domain.ClassName) error
}

// Ledger appends the booking, payment and travel-history rows of a purchase.
type Ledger interface {
	InsertConfirmed(ctx context.Context, db postgresrepo.DB, userID, flightID, seatID int64, bookingNumber string) (*domain.Booking, error)
	InsertPayment(ctx context.Context, db postgresrepo.DB, bookingID int64, amountCents int64) (int64, error)
	InsertTravelHistory(ctx context.Context, db postgresrepo.DB, userID, bookingID int64, travelDate time.Time) error
}

// TxRunner scopes one transaction per purchase and runs after-commit hooks
// only when it committed.
type TxRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error) error
}

type Invalidator interface {
	InvalidateFlight(ctx context.Context, flightID int64) error
}

type Notifier interface {
	PublishFlightChanged(ctx context.Context, flightID int64) error
}

type Limiter interface {
	Allow(ctx context.Context, suffix string) (bool, int64, time.Duration, error)
}

type Service struct {
	inv     Inventory
	ledger  Ledger
	uow     TxRunner
	cache   Invalidator
	pubsub  Notifier
	limiter Limiter
}

func New(
	inv Inventory,
	ledger Ledger,
	txr TxRunner,
	cache Invalidator,
	pubsub Notifier,
	limiter Limiter,
) *Service {
	return &Service{
		inv:     inv,
		ledger:  ledger,
		uow:     txr,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
	}
}

type BookSingleInput struct {
	FlightID    int64
	Class       domain.ClassName
	SeatID      int64
	UserID      int64
	AmountCents int64
	TravelDate  time.Time
}

func (in BookSingleInput) validate() error {
	switch {
	case in.FlightID <= 0:
		return fmt.Errorf("%w: flight id is required", ErrInvalidInput)
	case in.SeatID <= 0:
		return fmt.Errorf("%w: seat id is required", ErrInvalidInput)
	case in.UserID <= 0:
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	case in.AmountCents <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	case in.TravelDate.IsZero():
		return fmt.Errorf("%w: travel date is required", ErrInvalidInput)
	case !in.Class.Valid():
		return fmt.Errorf("%w: unknown class %q", ErrInvalidInput, in.Class)
	}
	return nil
}

// BookSingle sells one seat as one transaction: conditional seat flip, class
// counter bump, then the booking, payment and travel-history inserts. Any
// failure rolls all five writes back.
//
// Returns:
//   - booking.ErrSeatNotFound / booking.ErrSeatMismatch before any
//     transaction opens, when the seat is missing or belongs elsewhere.
//   - booking.ErrSeatConflict when another purchase holds the seat.
func (s *Service) BookSingle(ctx context.Context, in BookSingleInput, rlKey string) (*domain.BookedSeat, error) {
	const op = "service.booking.BookSingle"

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.allow(ctx, rlKey); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Cross-entity validation happens outside the transaction. The seat's
	// availability seen here is advisory only; the conditional update below
	// is what decides.
	if err := s.checkSeat(ctx, in.SeatID, in.FlightID, in.Class); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var booked domain.BookedSeat

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		b, err := s.bookLeg(ctx, tx, leg{
			flightID:    in.FlightID,
			class:       in.Class,
			seatID:      in.SeatID,
			userID:      in.UserID,
			amountCents: in.AmountCents,
			travelDate:  in.TravelDate,
		})
		if err != nil {
			if errors.Is(err, repository.ErrSeatBooked) {
				return ErrSeatConflict
			}
			return err
		}

		booked = *b

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateFlight(ctx, in.FlightID)
			_ = s.pubsub.PublishFlightChanged(ctx, in.FlightID)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &booked, nil
}

type BookRoundTripInput struct {
	OutboundFlightID    int64
	ReturnFlightID      int64
	Class               domain.ClassName
	OutboundSeatID      int64
	ReturnSeatID        int64
	UserID              int64
	AmountOutboundCents int64
	AmountReturnCents   int64
	DepartureDate       time.Time
	ReturnDate          time.Time
}

func (in BookRoundTripInput) validate() error {
	switch {
	case in.OutboundFlightID <= 0 || in.ReturnFlightID <= 0:
		return fmt.Errorf("%w: both flight ids are required", ErrInvalidInput)
	case in.OutboundSeatID <= 0 || in.ReturnSeatID <= 0:
		return fmt.Errorf("%w: both seat ids are required", ErrInvalidInput)
	case in.OutboundSeatID == in.ReturnSeatID:
		return fmt.Errorf("%w: outbound and return seats must differ", ErrInvalidInput)
	case in.UserID <= 0:
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	case in.AmountOutboundCents <= 0 || in.AmountReturnCents <= 0:
		return fmt.Errorf("%w: amounts must be positive", ErrInvalidInput)
	case in.DepartureDate.IsZero() || in.ReturnDate.IsZero():
		return fmt.Errorf("%w: departure and return dates are required", ErrInvalidInput)
	case !in.Class.Valid():
		return fmt.Errorf("%w: unknown class %q", ErrInvalidInput, in.Class)
	}
	return nil
}

// BookRoundTrip sells the outbound and return seats as a single unit. Seats
// are acquired in ascending seat-ID order so two mirror-image requests for
// the same pair cannot deadlock each other, and a conflict on either leg
// rolls back everything.
//
// Returns booking.ErrOutboundConflict, booking.ErrReturnConflict or
// booking.ErrBothConflict naming the leg(s) that were already taken.
func (s *Service) BookRoundTrip(ctx context.Context, in BookRoundTripInput, rlKey string) (*domain.RoundTrip, error) {
	const op = "service.booking.BookRoundTrip"

	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.allow(ctx, rlKey); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.checkSeat(ctx, in.OutboundSeatID, in.OutboundFlightID, in.Class); err != nil {
		return nil, fmt.Errorf("%s: outbound: %w", op, err)
	}
	if err := s.checkSeat(ctx, in.ReturnSeatID, in.ReturnFlightID, in.Class); err != nil {
		return nil, fmt.Errorf("%s: return: %w", op, err)
	}

	outboundLeg := leg{
		flightID:    in.OutboundFlightID,
		class:       in.Class,
		seatID:      in.OutboundSeatID,
		userID:      in.UserID,
		amountCents: in.AmountOutboundCents,
		travelDate:  in.DepartureDate,
	}
	returnLeg := leg{
		flightID:    in.ReturnFlightID,
		class:       in.Class,
		seatID:      in.ReturnSeatID,
		userID:      in.UserID,
		amountCents: in.AmountReturnCents,
		travelDate:  in.ReturnDate,
	}

	// Canonical lock order: smaller seat ID first.
	first, second := outboundLeg, returnLeg
	if returnLeg.seatID < outboundLeg.seatID {
		first, second = returnLeg, outboundLeg
	}

	var trip domain.RoundTrip

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		var firstTaken, secondTaken bool

		if err := s.inv.MarkBooked(ctx, tx, first.seatID); err != nil {
			if !errors.Is(err, repository.ErrSeatBooked) {
				return err
			}
			firstTaken = true
		}
		if err := s.inv.MarkBooked(ctx, tx, second.seatID); err != nil {
			if !errors.Is(err, repository.ErrSeatBooked) {
				return err
			}
			secondTaken = true
		}

		if firstTaken || secondTaken {
			// The transaction rolls back; returning the error undoes the
			// seat that was acquired.
			return conflictFor(in, first, firstTaken, secondTaken)
		}

		outBooked, err := s.bookLegAfterSeat(ctx, tx, outboundLeg)
		if err != nil {
			return err
		}
		retBooked, err := s.bookLegAfterSeat(ctx, tx, returnLeg)
		if err != nil {
			return err
		}

		trip = domain.RoundTrip{Outbound: *outBooked, Return: *retBooked}

		after(func(ctx context.Context) {
			for _, flightID := range []int64{in.OutboundFlightID, in.ReturnFlightID} {
				_ = s.cache.InvalidateFlight(ctx, flightID)
				_ = s.pubsub.PublishFlightChanged(ctx, flightID)
			}
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &trip, nil
}

type leg struct {
	flightID    int64
	class       domain.ClassName
	seatID      int64
	userID      int64
	amountCents int64
	travelDate  time.Time
}

// bookLeg acquires the seat and writes the ledgers for one leg.
func (s *Service) bookLeg(ctx context.Context, tx postgresrepo.DB, l leg) (*domain.BookedSeat, error) {
	if err := s.inv.MarkBooked(ctx, tx, l.seatID); err != nil {
		return nil, err
	}

	return s.bookLegAfterSeat(ctx, tx, l)
}

// bookLegAfterSeat writes everything but the seat flip, which the caller has
// already done.
func (s *Service) bookLegAfterSeat(ctx context.Context, tx postgresrepo.DB, l leg) (*domain.BookedSeat, error) {
	if err := s.inv.IncrementSold(ctx, tx, l.flightID, l.class); err != nil {
		return nil, err
	}

	b, err := s.ledger.InsertConfirmed(ctx, tx, l.userID, l.flightID, l.seatID, newBookingNumber())
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.InsertPayment(ctx, tx, b.ID, l.amountCents); err != nil {
		return nil, err
	}

	if err := s.ledger.InsertTravelHistory(ctx, tx, l.userID, b.ID, l.travelDate); err != nil {
		return nil, err
	}

	return &domain.BookedSeat{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		SeatID:        l.seatID,
	}, nil
}

func (s *Service) checkSeat(ctx context.Context, seatID, flightID int64, class domain.ClassName) error {
	sc, err := s.inv.SeatClass(ctx, nil, seatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSeatNotFound
		}
		return err
	}

	if sc.FlightID != flightID || sc.ClassName != class {
		return ErrSeatMismatch
	}

	return nil
}

func (s *Service) allow(ctx context.Context, rlKey string) error {
	if s.limiter == nil || rlKey == "" {
		return nil
	}

	ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w, retry in %s", ErrRateLimited, retry)
	}

	return nil
}

// conflictFor maps the canonically-ordered conflict flags back onto the
// caller's outbound/return roles.
func conflictFor(in BookRoundTripInput, first leg, firstTaken, secondTaken bool) error {
	if firstTaken && secondTaken {
		return ErrBothConflict
	}

	takenSeatID := first.seatID
	if secondTaken {
		if first.seatID == in.OutboundSeatID {
			takenSeatID = in.ReturnSeatID
		} else {
			takenSeatID = in.OutboundSeatID
		}
	}

	if takenSeatID == in.OutboundSeatID {
		return ErrOutboundConflict
	}
	return ErrReturnConflict
}

func newBookingNumber() string {
	u := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "BK-" + strings.ToUpper(u[:10])
}
