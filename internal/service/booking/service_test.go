package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/altavia/airways/internal/domain"
	"github.com/altavia/airways/internal/repository"
	postgresrepo "github.com/altavia/airways/internal/repository/postgres"
	"github.com/altavia/airways/internal/uow"
)

// MockInventory is a mock implementation of booking.Inventory
type MockInventory struct {
	mock.Mock
}

func (m *MockInventory) SeatClass(ctx context.Context, db postgresrepo.DB, seatID int64) (*domain.SeatClass, error) {
	args := m.Called(ctx, db, seatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatClass), args.Error(1)
}

func (m *MockInventory) MarkBooked(ctx context.Context, db postgresrepo.DB, seatID int64) error {
	args := m.Called(ctx, db, seatID)
	return args.Error(0)
}

func (m *MockInventory) IncrementSold(ctx context.Context, db postgresrepo.DB, flightID int64, class domain.ClassName) error {
	args := m.Called(ctx, db, flightID, class)
	return args.Error(0)
}

// MockLedger is a mock implementation of booking.Ledger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) InsertConfirmed(ctx context.Context, db postgresrepo.DB, userID, flightID, seatID int64, bookingNumber string) (*domain.Booking, error) {
	args := m.Called(ctx, db, userID, flightID, seatID, bookingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockLedger) InsertPayment(ctx context.Context, db postgresrepo.DB, bookingID int64, amountCents int64) (int64, error) {
	args := m.Called(ctx, db, bookingID, amountCents)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedger) InsertTravelHistory(ctx context.Context, db postgresrepo.DB, userID, bookingID int64, travelDate time.Time) error {
	args := m.Called(ctx, db, userID, bookingID, travelDate)
	return args.Error(0)
}

// fakeTxRunner runs the closure without a real transaction and fires the
// after-commit hooks only when the closure succeeds, mirroring uow.UoW.
type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error,
) error {
	f.calls++

	var hooks []uow.AfterCommit
	if err := fn(ctx, nil, func(h uow.AfterCommit) {
		hooks = append(hooks, h)
	}); err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}
	return nil
}

type fakeInvalidator struct {
	flights []int64
}

func (f *fakeInvalidator) InvalidateFlight(ctx context.Context, flightID int64) error {
	f.flights = append(f.flights, flightID)
	return nil
}

type fakeNotifier struct {
	flights []int64
}

func (f *fakeNotifier) PublishFlightChanged(ctx context.Context, flightID int64) error {
	f.flights = append(f.flights, flightID)
	return nil
}

type fakeLimiter struct {
	allowed bool
}

func (f *fakeLimiter) Allow(ctx context.Context, suffix string) (bool, int64, time.Duration, error) {
	return f.allowed, 1, 30 * time.Second, nil
}

func validSingleInput() BookSingleInput {
	return BookSingleInput{
		FlightID:    1,
		Class:       domain.ClassEconomy,
		SeatID:      42,
		UserID:      7,
		AmountCents: 15000,
		TravelDate:  time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC),
	}
}

func validRoundTripInput() BookRoundTripInput {
	return BookRoundTripInput{
		OutboundFlightID:    1,
		ReturnFlightID:      2,
		Class:               domain.ClassEconomy,
		OutboundSeatID:      9,
		ReturnSeatID:        5,
		UserID:              7,
		AmountOutboundCents: 15000,
		AmountReturnCents:   14000,
		DepartureDate:       time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC),
		ReturnDate:          time.Date(2026, 9, 17, 18, 0, 0, 0, time.UTC),
	}
}

func seatOf(in BookSingleInput) *domain.SeatClass {
	return &domain.SeatClass{
		SeatID:    in.SeatID,
		FlightID:  in.FlightID,
		ClassID:   3,
		ClassName: in.Class,
	}
}

func TestService_BookSingle(t *testing.T) {
	in := validSingleInput()

	inv := &MockInventory{}
	ledger := &MockLedger{}
	txr := &fakeTxRunner{}
	cache := &fakeInvalidator{}
	pubsub := &fakeNotifier{}

	inv.On("SeatClass", mock.Anything, mock.Anything, in.SeatID).Return(seatOf(in), nil)
	inv.On("MarkBooked", mock.Anything, mock.Anything, in.SeatID).Return(nil)
	inv.On("IncrementSold", mock.Anything, mock.Anything, in.FlightID, in.Class).Return(nil)

	ledger.On("InsertConfirmed", mock.Anything, mock.Anything, in.UserID, in.FlightID, in.SeatID, mock.Anything).
		Return(&domain.Booking{ID: 100, BookingNumber: "BK-ABCDEF1234"}, nil)
	ledger.On("InsertPayment", mock.Anything, mock.Anything, int64(100), in.AmountCents).Return(int64(200), nil)
	ledger.On("InsertTravelHistory", mock.Anything, mock.Anything, in.UserID, int64(100), in.TravelDate).Return(nil)

	svc := New(inv, ledger, txr, cache, pubsub, nil)

	booked, err := svc.BookSingle(context.Background(), in, "")

	assert.NoError(t, err)
	assert.Equal(t, int64(100), booked.BookingID)
	assert.Equal(t, "BK-ABCDEF1234", booked.BookingNumber)
	assert.Equal(t, in.SeatID, booked.SeatID)

	assert.Equal(t, []int64{in.FlightID}, cache.flights)
	assert.Equal(t, []int64{in.FlightID}, pubsub.flights)

	inv.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestService_BookSingle_seatConflict(t *testing.T) {
	in := validSingleInput()

	inv := &MockInventory{}
	ledger := &MockLedger{}
	txr := &fakeTxRunner{}
	cache := &fakeInvalidator{}
	pubsub := &fakeNotifier{}

	inv.On("SeatClass", mock.Anything, mock.Anything, in.SeatID).Return(seatOf(in), nil)
	inv.On("MarkBooked", mock.Anything, mock.Anything, in.SeatID).Return(repository.ErrSeatBooked)

	svc := New(inv, ledger, txr, cache, pubsub, nil)

	_, err := svc.BookSingle(context.Background(), in, "")

	assert.ErrorIs(t, err, ErrSeatConflict)
	assert.Empty(t, cache.flights)
	assert.Empty(t, pubsub.flights)
	ledger.AssertNotCalled(t, "InsertConfirmed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_BookSingle_seatNotFound(t *testing.T) {
	in := validSingleInput()

	inv := &MockInventory{}
	txr := &fakeTxRunner{}

	inv.On("SeatClass", mock.Anything, mock.Anything, in.SeatID).Return(nil, repository.ErrNotFound)

	svc := New(inv, &MockLedger{}, txr, &fakeInvalidator{}, &fakeNotifier{}, nil)

	_, err := svc.BookSingle(context.Background(), in, "")

	assert.ErrorIs(t, err, ErrSeatNotFound)
	assert.Zero(t, txr.calls)
}

func TestService_BookSingle_seatMismatch(t *testing.T) {
	in := validSingleInput()

	inv := &MockInventory{}
	txr := &fakeTxRunner{}

	// Seat exists, but on another flight.
	inv.On("SeatClass", mock.Anything, mock.Anything, in.SeatID).Return(&domain.SeatClass{
		SeatID:    in.SeatID,
		FlightID:  in.FlightID + 1,
		ClassName: in.Class,
	}, nil)

	svc := New(inv, &MockLedger{}, txr, &fakeInvalidator{}, &fakeNotifier{}, nil)

	_, err := svc.BookSingle(context.Background(), in, "")

	assert.ErrorIs(t, err, ErrSeatMismatch)
	assert.Zero(t, txr.calls)
}

func TestService_BookSingle_validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BookSingleInput)
	}{
		{"missing flight", func(in *BookSingleInput) { in.FlightID = 0 }},
		{"missing seat", func(in *BookSingleInput) { in.SeatID = 0 }},
		{"missing user", func(in *BookSingleInput) { in.UserID = 0 }},
		{"non-positive amount", func(in *BookSingleInput) { in.AmountCents = 0 }},
		{"missing travel date", func(in *BookSingleInput) { in.TravelDate = time.Time{} }},
		{"unknown class", func(in *BookSingleInput) { in.Class = "Premium" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validSingleInput()
			tt.mutate(&in)

			txr := &fakeTxRunner{}
			svc := New(&MockInventory{}, &MockLedger{}, txr, &fakeInvalidator{}, &fakeNotifier{}, nil)

			_, err := svc.BookSingle(context.Background(), in, "")

			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Zero(t, txr.calls)
		})
	}
}

func TestService_BookSingle_rateLimited(t *testing.T) {
	in := validSingleInput()

	txr := &fakeTxRunner{}
	svc := New(&MockInventory{}, &MockLedger{}, txr, &fakeInvalidator{}, &fakeNotifier{}, &fakeLimiter{allowed: false})

	_, err := svc.BookSingle(context.Background(), in, "ip:10.0.0.1")

	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Zero(t, txr.calls)
}

func TestService_BookRoundTrip(t *testing.T) {
	in := validRoundTripInput()

	inv := &MockInventory{}
	ledger := &MockLedger{}
	txr := &fakeTxRunner{}
	cache := &fakeInvalidator{}
	pubsub := &fakeNotifier{}

	inv.On("SeatClass", mock.Anything, mock.Anything, in.OutboundSeatID).Return(&domain.SeatClass{
		SeatID: in.OutboundSeatID, FlightID: in.OutboundFlightID, ClassName: in.Class,
	}, nil)
	inv.On("SeatClass", mock.Anything, mock.Anything, in.ReturnSeatID).Return(&domain.SeatClass{
		SeatID: in.ReturnSeatID, FlightID: in.ReturnFlightID, ClassName: in.Class,
	}, nil)

	var markOrder []int64
	inv.On("MarkBooked", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		markOrder = append(markOrder, args.Get(2).(int64))
	}).Return(nil)

	inv.On("IncrementSold", mock.Anything, mock.Anything, in.OutboundFlightID, in.Class).Return(nil)
	inv.On("IncrementSold", mock.Anything, mock.Anything, in.ReturnFlightID, in.Class).Return(nil)

	ledger.On("InsertConfirmed", mock.Anything, mock.Anything, in.UserID, in.OutboundFlightID, in.OutboundSeatID, mock.Anything).
		Return(&domain.Booking{ID: 100, BookingNumber: "BK-OUT0000001"}, nil)
	ledger.On("InsertConfirmed", mock.Anything, mock.Anything, in.UserID, in.ReturnFlightID, in.ReturnSeatID, mock.Anything).
		Return(&domain.Booking{ID: 101, BookingNumber: "BK-RET0000001"}, nil)
	ledger.On("InsertPayment", mock.Anything, mock.Anything, int64(100), in.AmountOutboundCents).Return(int64(200), nil)
	ledger.On("InsertPayment", mock.Anything, mock.Anything, int64(101), in.AmountReturnCents).Return(int64(201), nil)
	ledger.On("InsertTravelHistory", mock.Anything, mock.Anything, in.UserID, int64(100), in.DepartureDate).Return(nil)
	ledger.On("InsertTravelHistory", mock.Anything, mock.Anything, in.UserID, int64(101), in.ReturnDate).Return(nil)

	svc := New(inv, ledger, txr, cache, pubsub, nil)

	trip, err := svc.BookRoundTrip(context.Background(), in, "")

	assert.NoError(t, err)
	assert.Equal(t, int64(100), trip.Outbound.BookingID)
	assert.Equal(t, int64(101), trip.Return.BookingID)
	assert.Equal(t, in.OutboundSeatID, trip.Outbound.SeatID)
	assert.Equal(t, in.ReturnSeatID, trip.Return.SeatID)

	// Seats are acquired in ascending seat-ID order regardless of leg roles.
	assert.Equal(t, []int64{5, 9}, markOrder)

	assert.ElementsMatch(t, []int64{in.OutboundFlightID, in.ReturnFlightID}, cache.flights)
	assert.ElementsMatch(t, []int64{in.OutboundFlightID, in.ReturnFlightID}, pubsub.flights)

	inv.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestService_BookRoundTrip_conflicts(t *testing.T) {
	tests := []struct {
		name       string
		takenSeats map[int64]bool
		wantErr    error
	}{
		{"outbound taken", map[int64]bool{9: true}, ErrOutboundConflict},
		{"return taken", map[int64]bool{5: true}, ErrReturnConflict},
		{"both taken", map[int64]bool{5: true, 9: true}, ErrBothConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRoundTripInput()

			inv := &MockInventory{}
			ledger := &MockLedger{}
			cache := &fakeInvalidator{}
			pubsub := &fakeNotifier{}

			inv.On("SeatClass", mock.Anything, mock.Anything, in.OutboundSeatID).Return(&domain.SeatClass{
				SeatID: in.OutboundSeatID, FlightID: in.OutboundFlightID, ClassName: in.Class,
			}, nil)
			inv.On("SeatClass", mock.Anything, mock.Anything, in.ReturnSeatID).Return(&domain.SeatClass{
				SeatID: in.ReturnSeatID, FlightID: in.ReturnFlightID, ClassName: in.Class,
			}, nil)

			for _, seatID := range []int64{in.OutboundSeatID, in.ReturnSeatID} {
				if tt.takenSeats[seatID] {
					inv.On("MarkBooked", mock.Anything, mock.Anything, seatID).Return(repository.ErrSeatBooked)
				} else {
					inv.On("MarkBooked", mock.Anything, mock.Anything, seatID).Return(nil)
				}
			}

			svc := New(inv, ledger, &fakeTxRunner{}, cache, pubsub, nil)

			_, err := svc.BookRoundTrip(context.Background(), in, "")

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, cache.flights)
			assert.Empty(t, pubsub.flights)
			ledger.AssertNotCalled(t, "InsertConfirmed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_BookRoundTrip_sameSeatRejected(t *testing.T) {
	in := validRoundTripInput()
	in.ReturnSeatID = in.OutboundSeatID

	txr := &fakeTxRunner{}
	svc := New(&MockInventory{}, &MockLedger{}, txr, &fakeInvalidator{}, &fakeNotifier{}, nil)

	_, err := svc.BookRoundTrip(context.Background(), in, "")

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, txr.calls)
}

func TestNewBookingNumber(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := newBookingNumber()
		assert.Len(t, n, 13)
		assert.Equal(t, "BK-", n[:3])
		assert.False(t, seen[n])
		seen[n] = true
	}
}
