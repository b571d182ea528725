package refund

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/altavia/airways/internal/domain"
	"github.com/altavia/airways/internal/repository"
	postgresrepo "github.com/altavia/airways/internal/repository/postgres"
	"github.com/altavia/airways/internal/uow"
)

// Refunds is the refund-ledger surface of the workflow.
type Refunds interface {
	ActiveExists(ctx context.Context, db postgresrepo.DB, bookingID int64) (bool, error)
	Insert(ctx context.Context, db postgresrepo.DB, bookingID int64, reason string, amountCents int64) (*domain.Refund, error)
	GetForUpdate(ctx context.Context, db postgresrepo.DB, refundID int64) (*domain.Refund, error)
	SetStatus(ctx context.Context, db postgresrepo.DB, refundID int64, from, to domain.RefundStatus) error
	List(ctx context.Context, db postgresrepo.DB, status *domain.RefundStatus) ([]domain.Refund, error)
	ListByUser(ctx context.Context, db postgresrepo.DB, userID int64) ([]domain.Refund, error)
}

// Bookings covers the booking/payment rows a completed refund flips.
type Bookings interface {
	LockForRefund(ctx context.Context, db postgresrepo.DB, bookingNumber string, userID int64) (bookingID int64, amountCents int64, err error)
	SetStatus(ctx context.Context, db postgresrepo.DB, bookingID int64, from, to domain.BookingStatus) error
	SetPaymentStatus(ctx context.Context, db postgresrepo.DB, bookingID int64, from, to domain.PaymentStatus) error
}

type TxRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error) error
}

type Service struct {
	refunds  Refunds
	bookings Bookings
	uow      TxRunner
}

func New(refunds Refunds, bookings Bookings, txr TxRunner) *Service {
	return &Service{
		refunds:  refunds,
		bookings: bookings,
		uow:      txr,
	}
}

// Create opens a refund for the caller's booking. The booking row is locked
// for the duration of the check-and-insert, so two concurrent requests for
// the same booking serialize and the second sees the first's row. The refund
// amount is copied from the payment, not recomputed, so later price changes
// cannot alter a pending refund.
//
// Returns:
//   - refund.ErrBookingNotFound when the booking does not exist or belongs
//     to a different user.
//   - refund.ErrAlreadyRefunded when a Processing or Completed refund
//     already exists. A prior Rejected refund does not block a new request.
func (s *Service) Create(ctx context.Context, bookingNumber string, userID int64, reason string) (*domain.Refund, error) {
	const op = "service.refund.Create"

	bookingNumber = strings.TrimSpace(bookingNumber)
	if bookingNumber == "" {
		return nil, fmt.Errorf("%s: %w: booking number is required", op, ErrInvalidInput)
	}
	if userID <= 0 {
		return nil, fmt.Errorf("%s: %w: user id is required", op, ErrInvalidInput)
	}
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%s: %w: reason is required", op, ErrInvalidInput)
	}

	var created *domain.Refund

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		bookingID, amountCents, err := s.bookings.LockForRefund(ctx, tx, bookingNumber, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		exists, err := s.refunds.ActiveExists(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyRefunded
		}

		created, err = s.refunds.Insert(ctx, tx, bookingID, reason, amountCents)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

// Resolve moves a Processing refund to Completed or Rejected. Completing a
// refund also flips the payment to Refunded and the booking to Cancelled, in
// the same transaction, so the three rows change together or not at all.
// Retrying an already-applied decision is a no-op; a conflicting retry fails.
//
// Returns:
//   - refund.ErrRefundNotFound when the refund does not exist.
//   - refund.ErrInvalidDecision when the decision is not a terminal status.
//   - refund.ErrInvalidTransition when the refund was already resolved with
//     the other decision.
func (s *Service) Resolve(ctx context.Context, refundID int64, decision domain.RefundStatus) (*domain.Refund, error) {
	const op = "service.refund.Resolve"

	if decision != domain.RefundCompleted && decision != domain.RefundRejected {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidDecision)
	}

	var resolved *domain.Refund

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		rf, err := s.refunds.GetForUpdate(ctx, tx, refundID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrRefundNotFound
			}
			return err
		}

		if rf.Status.Resolved() {
			if rf.Status == decision {
				// Idempotent retry of the same decision.
				resolved = rf
				return nil
			}
			return ErrInvalidTransition
		}

		if !rf.Status.CanTransitionTo(decision) {
			return ErrInvalidTransition
		}

		if err := s.refunds.SetStatus(ctx, tx, refundID, rf.Status, decision); err != nil {
			return err
		}

		if decision == domain.RefundCompleted {
			if err := s.bookings.SetPaymentStatus(ctx, tx, rf.BookingID, domain.PaymentPaid, domain.PaymentRefunded); err != nil {
				return err
			}
			if err := s.bookings.SetStatus(ctx, tx, rf.BookingID, domain.BookingConfirmed, domain.BookingCancelled); err != nil {
				return err
			}
		}

		out := *rf
		out.Status = decision
		resolved = &out

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return resolved, nil
}

// List returns refunds, optionally filtered to one status.
func (s *Service) List(ctx context.Context, status *domain.RefundStatus) ([]domain.Refund, error) {
	const op = "service.refund.List"

	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%s: %w: unknown status %q", op, ErrInvalidInput, *status)
	}

	out, err := s.refunds.List(ctx, nil, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ListForUser returns every refund attached to the user's bookings.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]domain.Refund, error) {
	const op = "service.refund.ListForUser"

	if userID <= 0 {
		return nil, fmt.Errorf("%s: %w: user id is required", op, ErrInvalidInput)
	}

	out, err := s.refunds.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
