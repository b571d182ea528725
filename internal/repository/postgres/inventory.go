package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altavia/airways/internal/domain"
	"github.com/altavia/airways/internal/repository"
)

// InventoryRepo owns the seat rows and the per-class counters. Both writes
// are conditional updates so two concurrent purchases of the same seat can
// never both succeed; the loser sees zero rows affected.
type InventoryRepo struct {
	pool *pgxpool.Pool
}

func (r *InventoryRepo) handle(db DB) DB {
	if db != nil {
		return db
	}
	return r.pool
}

// ListBookableSeats returns the seat map of one class for display. The
// booking decision never trusts this snapshot; MarkBooked re-checks the row
// inside the purchase transaction.
func (r *InventoryRepo) ListBookableSeats(
	ctx context.Context,
	db DB,
	flightID int64,
	class domain.ClassName,
) ([]domain.Seat, error) {
	const op = "postgres.InventoryRepo.ListBookableSeats"

	rows, err := r.handle(db).Query(ctx,
		`SELECT s.id, s.flight_id, s.class_id, s.seat_number, s.is_booked
       	 FROM seats s
       	 JOIN flight_classes fc ON fc.id = s.class_id AND fc.flight_id = s.flight_id
      	 WHERE s.flight_id = $1 AND fc.class_name = $2
      	 ORDER BY s.id`,
		flightID, class,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var seats []domain.Seat
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.ClassID, &s.SeatNumber, &s.IsBooked); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return seats, nil
}

// SeatClass resolves a seat together with its class so the caller can verify
// the seat belongs to the flight and class named in the request.
//
// Returns repository.ErrNotFound when the seat does not exist.
func (r *InventoryRepo) SeatClass(ctx context.Context, db DB, seatID int64) (*domain.SeatClass, error) {
	const op = "postgres.InventoryRepo.SeatClass"

	var sc domain.SeatClass
	err := r.handle(db).QueryRow(ctx,
		`SELECT s.id, s.flight_id, s.class_id, fc.class_name, s.is_booked
       	 FROM seats s
       	 JOIN flight_classes fc ON fc.id = s.class_id
      	 WHERE s.id = $1`,
		seatID,
	).Scan(&sc.SeatID, &sc.FlightID, &sc.ClassID, &sc.ClassName, &sc.IsBooked)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &sc, nil
}

// MarkBooked flips a seat to booked only if it is currently free. The update
// is the single atomic step the whole purchase hinges on: zero rows affected
// means another transaction already took the seat.
//
// Returns repository.ErrSeatBooked when the seat was not free.
func (r *InventoryRepo) MarkBooked(ctx context.Context, db DB, seatID int64) error {
	const op = "postgres.InventoryRepo.MarkBooked"

	tag, err := r.handle(db).Exec(ctx,
		`UPDATE seats
        	SET is_booked = TRUE
      	 WHERE id = $1 AND is_booked = FALSE`,
		seatID,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrSeatBooked)
	}

	return nil
}

// IncrementSold bumps the class counter after MarkBooked succeeded. The two
// are always issued inside the same transaction. The guard on seat_count
// keeps the counter from ever exceeding capacity.
//
// Returns repository.ErrClassSoldOut when the counter is already at capacity.
func (r *InventoryRepo) IncrementSold(
	ctx context.Context,
	db DB,
	flightID int64,
	class domain.ClassName,
) error {
	const op = "postgres.InventoryRepo.IncrementSold"

	tag, err := r.handle(db).Exec(ctx,
		`UPDATE flight_classes
        	SET seat_booked_count = seat_booked_count + 1
      	 WHERE flight_id = $1
        	AND class_name = $2
        	AND seat_booked_count < seat_count`,
		flightID, class,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrClassSoldOut)
	}

	return nil
}

// ClassAvailability returns the per-class counters of a flight.
//
// Returns repository.ErrNotFound when the flight has no classes.
func (r *InventoryRepo) ClassAvailability(ctx context.Context, db DB, flightID int64) ([]domain.ClassAvailability, error) {
	const op = "postgres.InventoryRepo.ClassAvailability"

	rows, err := r.handle(db).Query(ctx,
		`SELECT class_name, seat_count, seat_booked_count,
                seat_count - seat_booked_count, price_cents
       	 FROM flight_classes
      	 WHERE flight_id = $1
      	 ORDER BY id`,
		flightID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.ClassAvailability
	for rows.Next() {
		var ca domain.ClassAvailability
		if err := rows.Scan(&ca.ClassName, &ca.SeatCount, &ca.SeatBookedCount, &ca.Available, &ca.PriceCents); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return out, nil
}
