package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altavia/airways/internal/domain"
	"github.com/altavia/airways/internal/repository"
)

type RefundRepo struct {
	pool *pgxpool.Pool
}

func (r *RefundRepo) handle(db DB) DB {
	if db != nil {
		return db
	}
	return r.pool
}

// ActiveExists reports whether the booking already has a refund that is not
// Rejected. A Rejected refund does not block resubmission.
func (r *RefundRepo) ActiveExists(ctx context.Context, db DB, bookingID int64) (bool, error) {
	const op = "postgres.RefundRepo.ActiveExists"

	var exists bool
	err := r.handle(db).QueryRow(ctx,
		`SELECT EXISTS(
       		SELECT 1 FROM refunds WHERE booking_id = $1 AND status <> $2
     	 )`,
		bookingID, domain.RefundRejected,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return exists, nil
}

func (r *RefundRepo) Insert(
	ctx context.Context,
	db DB,
	bookingID int64,
	reason string,
	amountCents int64,
) (*domain.Refund, error) {
	const op = "postgres.RefundRepo.Insert"

	rf := domain.Refund{
		BookingID:   bookingID,
		Reason:      reason,
		AmountCents: amountCents,
		Status:      domain.RefundProcessing,
	}

	err := r.handle(db).QueryRow(ctx,
		`INSERT INTO refunds(booking_id, reason, amount_cents, status)
       	 VALUES ($1, $2, $3, $4)
     	 RETURNING id, created_at`,
		bookingID, reason, amountCents, domain.RefundProcessing,
	).Scan(&rf.ID, &rf.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &rf, nil
}

// GetForUpdate locks the refund row for the resolving transaction.
//
// Returns repository.ErrNotFound when the refund does not exist.
func (r *RefundRepo) GetForUpdate(ctx context.Context, db DB, refundID int64) (*domain.Refund, error) {
	const op = "postgres.RefundRepo.GetForUpdate"

	var rf domain.Refund
	err := r.handle(db).QueryRow(ctx,
		`SELECT id, booking_id, reason, amount_cents, status, created_at
       	 FROM refunds
      	 WHERE id = $1
        FOR UPDATE`,
		refundID,
	).Scan(&rf.ID, &rf.BookingID, &rf.Reason, &rf.AmountCents, &rf.Status, &rf.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &rf, nil
}

// SetStatus resolves a refund with the expected current status in the
// predicate.
//
// Returns repository.ErrStatusMismatch when the row is not in `from`.
func (r *RefundRepo) SetStatus(
	ctx context.Context,
	db DB,
	refundID int64,
	from, to domain.RefundStatus,
) error {
	const op = "postgres.RefundRepo.SetStatus"

	tag, err := r.handle(db).Exec(ctx,
		`UPDATE refunds SET status = $3 WHERE id = $1 AND status = $2`,
		refundID, from, to,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrStatusMismatch)
	}

	return nil
}

// List returns refunds, optionally narrowed to one status.
func (r *RefundRepo) List(ctx context.Context, db DB, status *domain.RefundStatus) ([]domain.Refund, error) {
	const op = "postgres.RefundRepo.List"

	query := `SELECT id, booking_id, reason, amount_cents, status, created_at
       	 FROM refunds ORDER BY created_at DESC`
	args := []any{}
	if status != nil {
		query = `SELECT id, booking_id, reason, amount_cents, status, created_at
       	 FROM refunds WHERE status = $1 ORDER BY created_at DESC`
		args = append(args, *status)
	}

	rows, err := r.handle(db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	return scanRefunds(rows, op)
}

func scanRefunds(rows pgx.Rows, op string) ([]domain.Refund, error) {
	var out []domain.Refund
	for rows.Next() {
		var rf domain.Refund
		if err := rows.Scan(&rf.ID, &rf.BookingID, &rf.Reason, &rf.AmountCents, &rf.Status, &rf.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}
		out = append(out, rf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return out, nil
}

func (r *RefundRepo) ListByUser(ctx context.Context, db DB, userID int64) ([]domain.Refund, error) {
	const op = "postgres.RefundRepo.ListByUser"

	rows, err := r.handle(db).Query(ctx,
		`SELECT rf.id, rf.booking_id, rf.reason, rf.amount_cents, rf.status, rf.created_at
       	 FROM refunds rf
       	 JOIN bookings b ON b.id = rf.booking_id
      	 WHERE b.user_id = $1
      	 ORDER BY rf.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	return scanRefunds(rows, op)
}
