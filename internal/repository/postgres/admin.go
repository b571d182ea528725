package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altavia/airways/internal/domain"
)

// AdminRepo provisions flights, their classes and their seat rows. The
// booking core treats provisioned data as given; nothing here runs on the
// purchase path.
type AdminRepo struct {
	pool *pgxpool.Pool
}

func (r *AdminRepo) handle(db DB) DB {
	if db != nil {
		return db
	}
	return r.pool
}

func (r *AdminRepo) InsertFlight(ctx context.Context, db DB, f domain.Flight) (int64, error) {
	const op = "postgres.AdminRepo.InsertFlight"

	var id int64
	err := r.handle(db).QueryRow(ctx,
		`INSERT INTO flights(flight_number, departure_airport, arrival_airport,
                             departure_time, arrival_time, delayed_status)
       	 VALUES ($1, $2, $3, $4, $5, FALSE)
     	 RETURNING id`,
		f.FlightNumber, f.DepartureAirport, f.ArrivalAirport, f.DepartureTime, f.ArrivalTime,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

func (r *AdminRepo) InsertClass(ctx context.Context, db DB, c domain.FlightClass) (int64, error) {
	const op = "postgres.AdminRepo.InsertClass"

	var id int64
	err := r.handle(db).QueryRow(ctx,
		`INSERT INTO flight_classes(flight_id, class_name, seat_count, seat_booked_count, price_cents)
       	 VALUES ($1, $2, $3, 0, $4)
     	 RETURNING id`,
		c.FlightID, c.ClassName, c.SeatCount, c.PriceCents,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

func (r *AdminRepo) BatchInsertSeats(
	ctx context.Context,
	db DB,
	flightID, classID int64,
	seatNumbers []string,
) error {
	const op = "postgres.AdminRepo.BatchInsertSeats"

	batch := &pgx.Batch{}
	for _, sn := range seatNumbers {
		batch.Queue(
			`INSERT INTO seats(flight_id, class_id, seat_number, is_booked)
         	 VALUES ($1, $2, $3, FALSE)`,
			flightID, classID, sn,
		)
	}
	if err := r.handle(db).SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}
