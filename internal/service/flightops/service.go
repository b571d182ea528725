package flightops

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/altavia/airways/internal/domain"
	"github.com/altavia/airways/internal/repository"
	postgresrepo "github.com/altavia/airways/internal/repository/postgres"
	"github.com/altavia/airways/internal/uow"
)

type DelayUnit string

const (
	UnitMinutes DelayUnit = "minutes"
	UnitHours   DelayUnit = "hours"
)

// Duration converts the unit to its time.Duration base.
func (u DelayUnit) Duration() (time.Duration, bool) {
	switch u {
	case UnitMinutes:
		return time.Minute, true
	case UnitHours:
		return time.Hour, true
	}
	return 0, false
}

type Flights interface {
	GetByNumber(ctx context.Context, db postgresrepo.DB, flightNumber string) (*domain.Flight, error)
	DepartureTimeForUpdate(ctx context.Context, db postgresrepo.DB, flightNumber string) (time.Time, error)
	SetDelay(ctx context.Context, db postgresrepo.DB, flightNumber string, delayedTime time.Time) error
}

type TxRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error) error
}

type Service struct {
	flights Flights
	uow     TxRunner
}

func New(flights Flights, txr TxRunner) *Service {
	return &Service{flights: flights, uow: txr}
}

// AddDelay pushes a flight's departure back by amount·unit. The unit is
// validated before any transaction opens, and the departure time is read
// under a row lock in the same transaction that writes the delay, so the
// computed time can never be based on a stale schedule.
//
// Returns:
//   - flightops.ErrInvalidUnit / flightops.ErrInvalidAmount without touching
//     the flight row.
//   - flightops.ErrFlightNotFound when the flight number is unknown.
func (s *Service) AddDelay(ctx context.Context, flightNumber string, amount int, unit DelayUnit) (time.Time, error) {
	const op = "service.flightops.AddDelay"

	if flightNumber == "" {
		return time.Time{}, fmt.Errorf("%s: %w: flight number is required", op, ErrInvalidInput)
	}
	if amount <= 0 {
		return time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidAmount)
	}

	base, ok := unit.Duration()
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidUnit)
	}

	var delayed time.Time

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		dep, err := s.flights.DepartureTimeForUpdate(ctx, tx, flightNumber)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrFlightNotFound
			}
			return err
		}

		delayed = dep.Add(time.Duration(amount) * base)

		if err := s.flights.SetDelay(ctx, tx, flightNumber, delayed); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrFlightNotFound
			}
			return err
		}

		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return delayed, nil
}

// Track returns the flight row for a public flight number, delay fields
// included.
func (s *Service) Track(ctx context.Context, flightNumber string) (*domain.Flight, error) {
	const op = "service.flightops.Track"

	if flightNumber == "" {
		return nil, fmt.Errorf("%s: %w: flight number is required", op, ErrInvalidInput)
	}

	f, err := s.flights.GetByNumber(ctx, nil, flightNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrFlightNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return f, nil
}
