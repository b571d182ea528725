package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/altavia/airways/internal/domain"
	redisx "github.com/altavia/airways/internal/redis"
	"github.com/altavia/airways/internal/repository"
	postgresrepo "github.com/altavia/airways/internal/repository/postgres"
	redisrepo "github.com/altavia/airways/internal/repository/redis"
)

type Inventory interface {
	ListBookableSeats(ctx context.Context, db postgresrepo.DB, flightID int64, class domain.ClassName) ([]domain.Seat, error)
	ClassAvailability(ctx context.Context, db postgresrepo.DB, flightID int64) ([]domain.ClassAvailability, error)
}

type Bookings interface {
	ListByUser(ctx context.Context, db postgresrepo.DB, userID int64) ([]domain.BookingWithPayment, error)
}

type Config struct {
	AvailabilityTTL time.Duration
	SeatMapTTL      time.Duration
}

// Service serves the display reads. Everything here may be stale by one TTL;
// the purchase path never consults these answers.
type Service struct {
	inv      Inventory
	bookings Bookings
	cache    *redisrepo.Cache
	cfg      Config
}

func New(inv Inventory, bookings Bookings, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	if cfg.SeatMapTTL <= 0 {
		cfg.SeatMapTTL = 15 * time.Second
	}

	return &Service{
		inv:      inv,
		bookings: bookings,
		cache:    cache,
		cfg:      cfg,
	}
}

// ListBookableSeats returns the seat map of one class, cached for a short
// TTL and invalidated on every committed purchase of that flight.
func (s *Service) ListBookableSeats(ctx context.Context, flightID int64, class domain.ClassName) ([]domain.Seat, error) {
	const op = "service.query.ListBookableSeats"

	if !class.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidClass)
	}

	key := redisx.KeyFlightSeatMap(flightID, string(class))

	seats, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.SeatMapTTL,
		func(ctx context.Context) ([]domain.Seat, error) {
			return s.inv.ListBookableSeats(ctx, nil, flightID, class)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return seats, nil
}

// ClassAvailability returns the per-class counters of a flight.
func (s *Service) ClassAvailability(ctx context.Context, flightID int64) ([]domain.ClassAvailability, error) {
	const op = "service.query.ClassAvailability"

	key := redisx.KeyFlightAvailability(flightID)

	avail, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) ([]domain.ClassAvailability, error) {
			out, err := s.inv.ClassAvailability(ctx, nil, flightID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, ErrFlightNotFound
				}
				return nil, err
			}
			return out, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return avail, nil
}

// ListUserBookings returns the user's bookings with payment info, the view
// that fronts refund submission. Not cached: the user expects their own
// purchase to appear immediately.
func (s *Service) ListUserBookings(ctx context.Context, userID int64) ([]domain.BookingWithPayment, error) {
	const op = "service.query.ListUserBookings"

	if userID <= 0 {
		return nil, fmt.Errorf("%s: %w: user id is required", op, ErrInvalidInput)
	}

	out, err := s.bookings.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
