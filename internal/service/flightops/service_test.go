package flightops

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

// MockFlights is a mock implementation of flightops.Flights
type MockFlights struct {
	mock.Mock
}

func (m *MockFlights) GetByNumber(ctx context.Context, db postgresrepo.DB, flightNumber string) (*domain.Flight, error) {
	args := m.Called(ctx, db, flightNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlights) DepartureTimeForUpdate(ctx context.Context, db postgresrepo.DB, flightNumber string) (time.Time, error) {
	args := m.Called(ctx, db, flightNumber)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *MockFlights) SetDelay(ctx context.Context, db postgresrepo.DB, flightNumber string, delayedTime time.Time) error {
	args := m.Called(ctx, db, flightNumber, delayedTime)
	return args.Error(0)
}

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

func TestService_AddDelay(t *testing.T) {
	departure := time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		amount int
		unit   DelayUnit
		want   time.Time
	}{
		{"two hours", 2, UnitHours, departure.Add(2 * time.Hour)},
		{"ninety minutes", 90, UnitMinutes, departure.Add(90 * time.Minute)},
		{"one minute", 1, UnitMinutes, departure.Add(time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flights := &MockFlights{}
			flights.On("DepartureTimeForUpdate", mock.Anything, mock.Anything, "AW101").Return(departure, nil)
			flights.On("SetDelay", mock.Anything, mock.Anything, "AW101", tt.want).Return(nil)

			svc := New(flights, &fakeTxRunner{})

			got, err := svc.AddDelay(context.Background(), "AW101", tt.amount, tt.unit)

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			flights.AssertExpectations(t)
		})
	}
}

func TestService_AddDelay_invalidUnit(t *testing.T) {
	txr := &fakeTxRunner{}
	svc := New(&MockFlights{}, txr)

	_, err := svc.AddDelay(context.Background(), "AW101", 30, "days")

	assert.ErrorIs(t, err, ErrInvalidUnit)
	assert.Zero(t, txr.calls)
}

func TestService_AddDelay_invalidAmount(t *testing.T) {
	txr := &fakeTxRunner{}
	svc := New(&MockFlights{}, txr)

	_, err := svc.AddDelay(context.Background(), "AW101", 0, UnitHours)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.AddDelay(context.Background(), "AW101", -5, UnitMinutes)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	assert.Zero(t, txr.calls)
}

func TestService_AddDelay_flightNotFound(t *testing.T) {
	flights := &MockFlights{}
	flights.On("DepartureTimeForUpdate", mock.Anything, mock.Anything, "AW999").
		Return(time.Time{}, repository.ErrNotFound)

	svc := New(flights, &fakeTxRunner{})

	_, err := svc.AddDelay(context.Background(), "AW999", 1, UnitHours)

	assert.ErrorIs(t, err, ErrFlightNotFound)
	flights.AssertNotCalled(t, "SetDelay", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Track(t *testing.T) {
	delayed := time.Date(2026, 9, 10, 10, 0, 0, 0, time.UTC)

	flights := &MockFlights{}
	flights.On("GetByNumber", mock.Anything, mock.Anything, "AW101").Return(&domain.Flight{
		ID:            1,
		FlightNumber:  "AW101",
		DelayedStatus: true,
		DelayedTime:   &delayed,
	}, nil)

	svc := New(flights, &fakeTxRunner{})

	f, err := svc.Track(context.Background(), "AW101")

	assert.NoError(t, err)
	assert.True(t, f.DelayedStatus)
	assert.Equal(t, delayed, *f.DelayedTime)
}

func TestService_Track_notFound(t *testing.T) {
	flights := &MockFlights{}
	flights.On("GetByNumber", mock.Anything, mock.Anything, "AW999").Return(nil, repository.ErrNotFound)

	svc := New(flights, &fakeTxRunner{})

	_, err := svc.Track(context.Background(), "AW999")

	assert.ErrorIs(t, err, ErrFlightNotFound)
}

func TestDelayUnit_Duration(t *testing.T) {
	d, ok := UnitMinutes.Duration()
	assert.True(t, ok)
	assert.Equal(t, time.Minute, d)

	d, ok = UnitHours.Duration()
	assert.True(t, ok)
	assert.Equal(t, time.Hour, d)

	_, ok = DelayUnit("seconds").Duration()
	assert.False(t, ok)
}
