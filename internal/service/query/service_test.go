package query

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/altavia/airways/internal/domain"
	"github.com/altavia/airways/internal/repository"
	postgresrepo "github.com/altavia/airways/internal/repository/postgres"
	redisrepo "github.com/altavia/airways/internal/repository/redis"
)

// MockInventory is a mock implementation of query.Inventory
type MockInventory struct {
	mock.Mock
}

func (m *MockInventory) ListBookableSeats(ctx context.Context, db postgresrepo.DB, flightID int64, class domain.ClassName) ([]domain.Seat, error) {
	args := m.Called(ctx, db, flightID, class)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockInventory) ClassAvailability(ctx context.Context, db postgresrepo.DB, flightID int64) ([]domain.ClassAvailability, error) {
	args := m.Called(ctx, db, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ClassAvailability), args.Error(1)
}

// MockBookings is a mock implementation of query.Bookings
type MockBookings struct {
	mock.Mock
}

func (m *MockBookings) ListByUser(ctx context.Context, db postgresrepo.DB, userID int64) ([]domain.BookingWithPayment, error) {
	args := m.Called(ctx, db, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BookingWithPayment), args.Error(1)
}

func newTestCache(t *testing.T) *redisrepo.Cache {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redisrepo.New(client)
}

func TestService_ListBookableSeats_cached(t *testing.T) {
	inv := &MockInventory{}

	seats := []domain.Seat{
		{ID: 1, FlightID: 5, SeatNumber: "E1"},
		{ID: 2, FlightID: 5, SeatNumber: "E2"},
	}
	inv.On("ListBookableSeats", mock.Anything, mock.Anything, int64(5), domain.ClassEconomy).
		Return(seats, nil).Once()

	svc := New(inv, &MockBookings{}, newTestCache(t), Config{})

	first, err := svc.ListBookableSeats(context.Background(), 5, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, seats, first)

	// Within the TTL the database is not consulted again.
	second, err := svc.ListBookableSeats(context.Background(), 5, domain.ClassEconomy)
	require.NoError(t, err)
	assert.Equal(t, seats, second)

	inv.AssertExpectations(t)
}

func TestService_ListBookableSeats_invalidClass(t *testing.T) {
	svc := New(&MockInventory{}, &MockBookings{}, newTestCache(t), Config{})

	_, err := svc.ListBookableSeats(context.Background(), 5, "Premium")

	assert.ErrorIs(t, err, ErrInvalidClass)
}

func TestService_ClassAvailability(t *testing.T) {
	inv := &MockInventory{}

	avail := []domain.ClassAvailability{
		{ClassName: domain.ClassFirst, SeatCount: 12, SeatBookedCount: 2, Available: 10, PriceCents: 90000},
		{ClassName: domain.ClassEconomy, SeatCount: 30, SeatBookedCount: 30, Available: 0, PriceCents: 20000},
	}
	inv.On("ClassAvailability", mock.Anything, mock.Anything, int64(5)).Return(avail, nil).Once()

	svc := New(inv, &MockBookings{}, newTestCache(t), Config{})

	got, err := svc.ClassAvailability(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, avail, got)

	got, err = svc.ClassAvailability(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, avail, got)

	inv.AssertExpectations(t)
}

func TestService_ClassAvailability_notFound(t *testing.T) {
	inv := &MockInventory{}
	inv.On("ClassAvailability", mock.Anything, mock.Anything, int64(99)).Return(nil, repository.ErrNotFound)

	svc := New(inv, &MockBookings{}, newTestCache(t), Config{})

	_, err := svc.ClassAvailability(context.Background(), 99)

	assert.ErrorIs(t, err, ErrFlightNotFound)
}

func TestService_ListUserBookings(t *testing.T) {
	bookings := &MockBookings{}

	out := []domain.BookingWithPayment{
		{
			Booking:       domain.Booking{ID: 100, BookingNumber: "BK-ABCDEF1234", Status: domain.BookingConfirmed},
			FlightNumber:  "AW101",
			AmountCents:   15000,
			PaymentStatus: domain.PaymentPaid,
		},
	}
	bookings.On("ListByUser", mock.Anything, mock.Anything, int64(7)).Return(out, nil)

	svc := New(&MockInventory{}, bookings, newTestCache(t), Config{})

	got, err := svc.ListUserBookings(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, out, got)

	_, err = svc.ListUserBookings(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewDefaults(t *testing.T) {
	svc := New(&MockInventory{}, &MockBookings{}, newTestCache(t), Config{})

	assert.Equal(t, 15*time.Second, svc.cfg.AvailabilityTTL)
	assert.Equal(t, 15*time.Second, svc.cfg.SeatMapTTL)
}
