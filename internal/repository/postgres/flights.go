package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altavia/airways/internal/domain"
	"github.com/altavia/airways/internal/repository"
)

type FlightRepo struct {
	pool *pgxpool.Pool
}

func (r *FlightRepo) handle(db DB) DB {
	if db != nil {
		return db
	}
	return r.pool
}

// GetByNumber retrieves a flight by its public flight number.
//
// Returns repository.ErrNotFound when the flight does not exist.
func (r *FlightRepo) GetByNumber(ctx context.Context, db DB, flightNumber string) (*domain.Flight, error) {
	const op = "postgres.FlightRepo.GetByNumber"

	var f domain.Flight
	err := r.handle(db).QueryRow(ctx,
		`SELECT id, flight_number, departure_airport, arrival_airport,
                departure_time, arrival_time, delayed_status, delayed_time
       	 FROM flights
      	 WHERE flight_number = $1`,
		flightNumber,
	).Scan(
		&f.ID, &f.FlightNumber, &f.DepartureAirport, &f.ArrivalAirport,
		&f.DepartureTime, &f.ArrivalTime, &f.DelayedStatus, &f.DelayedTime,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &f, nil
}

// DepartureTimeForUpdate reads the scheduled departure under a row lock so
// the delay computed from it cannot go stale before the write lands.
func (r *FlightRepo) DepartureTimeForUpdate(ctx context.Context, db DB, flightNumber string) (time.Time, error) {
	const op = "postgres.FlightRepo.DepartureTimeForUpdate"

	var dep time.Time
	err := r.handle(db).QueryRow(ctx,
		`SELECT departure_time FROM flights WHERE flight_number = $1 FOR UPDATE`,
		flightNumber,
	).Scan(&dep)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return dep, nil
}

// SetDelay marks the flight delayed with the given pushed-back departure.
func (r *FlightRepo) SetDelay(ctx context.Context, db DB, flightNumber string, delayedTime time.Time) error {
	const op = "postgres.FlightRepo.SetDelay"

	tag, err := r.handle(db).Exec(ctx,
		`UPDATE flights
        	SET delayed_status = TRUE, delayed_time = $2
      	 WHERE flight_number = $1`,
		flightNumber, delayedTime,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
