package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altavia/airways/internal/domain"
	"github.com/altavia/airways/internal/repository"
)

// BookingRepo owns the three append-only ledgers a purchase writes to:
// bookings, payments and travel history.
type BookingRepo struct {
	pool *pgxpool.Pool
}

func (r *BookingRepo) handle(db DB) DB {
	if db != nil {
		return db
	}
	return r.pool
}

func (r *BookingRepo) InsertConfirmed(
	ctx context.Context,
	db DB,
	userID, flightID, seatID int64,
	bookingNumber string,
) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.InsertConfirmed"

	b := domain.Booking{
		BookingNumber: bookingNumber,
		UserID:        userID,
		FlightID:      flightID,
		SeatID:        seatID,
		Status:        domain.BookingConfirmed,
	}

	err := r.handle(db).QueryRow(ctx,
		`INSERT INTO bookings(booking_number, user_id, flight_id, seat_id, status)
       	 VALUES ($1, $2, $3, $4, $5)
     	 RETURNING id, booking_date`,
		bookingNumber, userID, flightID, seatID, domain.BookingConfirmed,
	).Scan(&b.ID, &b.BookingDate)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &b, nil
}

func (r *BookingRepo) InsertPayment(
	ctx context.Context,
	db DB,
	bookingID int64,
	amountCents int64,
) (int64, error) {
	const op = "postgres.BookingRepo.InsertPayment"

	var id int64
	err := r.handle(db).QueryRow(ctx,
		`INSERT INTO payments(booking_id, amount_cents, status)
       	 VALUES ($1, $2, $3)
     	 RETURNING id`,
		bookingID, amountCents, domain.PaymentPaid,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

func (r *BookingRepo) InsertTravelHistory(
	ctx context.Context,
	db DB,
	userID, bookingID int64,
	travelDate time.Time,
) error {
	const op = "postgres.BookingRepo.InsertTravelHistory"

	_, err := r.handle(db).Exec(ctx,
		`INSERT INTO travel_history(user_id, booking_id, travel_date)
       	 VALUES ($1, $2, $3)`,
		userID, bookingID, travelDate,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// LockForRefund locks the caller's booking row and returns the identifiers a
// refund needs. Row-locking the booking serializes two concurrent refund
// requests for the same booking, so the duplicate guard that follows cannot
// race.
//
// Returns repository.ErrNotFound when the booking does not exist or does not
// belong to the user.
func (r *BookingRepo) LockForRefund(
	ctx context.Context,
	db DB,
	bookingNumber string,
	userID int64,
) (bookingID int64, amountCents int64, err error) {
	const op = "postgres.BookingRepo.LockForRefund"

	err = r.handle(db).QueryRow(ctx,
		`SELECT b.id, p.amount_cents
       	 FROM bookings b
       	 JOIN payments p ON p.booking_id = b.id
      	 WHERE b.booking_number = $1 AND b.user_id = $2
        FOR UPDATE OF b`,
		bookingNumber, userID,
	).Scan(&bookingID, &amountCents)
	if err != nil {
		return 0, 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return bookingID, amountCents, nil
}

// SetStatus moves a booking between statuses with the expected current
// status in the predicate.
//
// Returns repository.ErrStatusMismatch when the row is not in `from`.
func (r *BookingRepo) SetStatus(
	ctx context.Context,
	db DB,
	bookingID int64,
	from, to domain.BookingStatus,
) error {
	const op = "postgres.BookingRepo.SetStatus"

	tag, err := r.handle(db).Exec(ctx,
		`UPDATE bookings SET status = $3 WHERE id = $1 AND status = $2`,
		bookingID, from, to,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrStatusMismatch)
	}

	return nil
}

// SetPaymentStatus is SetStatus for the payment ledger.
func (r *BookingRepo) SetPaymentStatus(
	ctx context.Context,
	db DB,
	bookingID int64,
	from, to domain.PaymentStatus,
) error {
	const op = "postgres.BookingRepo.SetPaymentStatus"

	tag, err := r.handle(db).Exec(ctx,
		`UPDATE payments SET status = $3 WHERE booking_id = $1 AND status = $2`,
		bookingID, from, to,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrStatusMismatch)
	}

	return nil
}

func (r *BookingRepo) ListByUser(ctx context.Context, db DB, userID int64) ([]domain.BookingWithPayment, error) {
	const op = "postgres.BookingRepo.ListByUser"

	rows, err := r.handle(db).Query(ctx,
		`SELECT b.id, b.booking_number, b.user_id, b.flight_id, b.seat_id,
                b.status, b.booking_date, f.flight_number, p.amount_cents, p.status
       	 FROM bookings b
       	 JOIN flights f ON f.id = b.flight_id
       	 JOIN payments p ON p.booking_id = b.id
      	 WHERE b.user_id = $1
      	 ORDER BY b.booking_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.BookingWithPayment
	for rows.Next() {
		var bw domain.BookingWithPayment
		if err := rows.Scan(
			&bw.ID, &bw.BookingNumber, &bw.UserID, &bw.FlightID, &bw.SeatID,
			&bw.Status, &bw.BookingDate, &bw.FlightNumber, &bw.AmountCents, &bw.PaymentStatus,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, bw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}
