package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/altavia/airways/internal/domain"
	"github.com/altavia/airways/internal/repository"
	postgresrepo "github.com/altavia/airways/internal/repository/postgres"
	"github.com/altavia/airways/internal/uow"
)

// Cabin layout of every provisioned aircraft. Seat numbers carry the class
// letter so a seat map reads naturally (F1..F12, B1..B18, E1..E30).
var cabinLayout = []struct {
	class  domain.ClassName
	seats  int
	prefix string
}{
	{domain.ClassFirst, 12, "F"},
	{domain.ClassBusiness, 18, "B"},
	{domain.ClassEconomy, 30, "E"},
}

type Provisioner interface {
	InsertFlight(ctx context.Context, db postgresrepo.DB, f domain.Flight) (int64, error)
	InsertClass(ctx context.Context, db postgresrepo.DB, c domain.FlightClass) (int64, error)
	BatchInsertSeats(ctx context.Context, db postgresrepo.DB, flightID, classID int64, seatNumbers []string) error
}

type TxRunner interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error) error
}

type Service struct {
	repo Provisioner
	uow  TxRunner
}

func New(repo Provisioner, txr TxRunner) *Service {
	return &Service{repo: repo, uow: txr}
}

type ProvisionFlightInput struct {
	FlightNumber     string
	DepartureAirport int64
	ArrivalAirport   int64
	DepartureTime    time.Time
	ArrivalTime      time.Time

	// Per-class prices in cents.
	PriceFirstCents    int64
	PriceBusinessCents int64
	PriceEconomyCents  int64
}

func (in ProvisionFlightInput) validate() error {
	switch {
	case strings.TrimSpace(in.FlightNumber) == "":
		return fmt.Errorf("%w: flight number is required", ErrInvalidFlight)
	case in.DepartureAirport <= 0 || in.ArrivalAirport <= 0:
		return fmt.Errorf("%w: both airports are required", ErrInvalidFlight)
	case in.DepartureAirport == in.ArrivalAirport:
		return fmt.Errorf("%w: departure and arrival airports must differ", ErrInvalidFlight)
	case in.DepartureTime.IsZero() || in.ArrivalTime.IsZero():
		return fmt.Errorf("%w: departure and arrival times are required", ErrInvalidFlight)
	case !in.ArrivalTime.After(in.DepartureTime):
		return fmt.Errorf("%w: arrival must be after departure", ErrInvalidFlight)
	case in.PriceFirstCents <= 0 || in.PriceBusinessCents <= 0 || in.PriceEconomyCents <= 0:
		return fmt.Errorf("%w: all class prices must be positive", ErrInvalidFlight)
	}
	return nil
}

func (in ProvisionFlightInput) priceFor(class domain.ClassName) int64 {
	switch class {
	case domain.ClassFirst:
		return in.PriceFirstCents
	case domain.ClassBusiness:
		return in.PriceBusinessCents
	default:
		return in.PriceEconomyCents
	}
}

// ProvisionFlight creates the flight, its three classes and all sixty seat
// rows in one transaction. A duplicate flight number aborts everything.
func (s *Service) ProvisionFlight(ctx context.Context, in ProvisionFlightInput) (int64, error) {
	const op = "service.admin.ProvisionFlight"

	if err := in.validate(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var flightID int64

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		id, err := s.repo.InsertFlight(ctx, tx, domain.Flight{
			FlightNumber:     strings.TrimSpace(in.FlightNumber),
			DepartureAirport: in.DepartureAirport,
			ArrivalAirport:   in.ArrivalAirport,
			DepartureTime:    in.DepartureTime,
			ArrivalTime:      in.ArrivalTime,
		})
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrFlightExists
			}
			return err
		}
		flightID = id

		for _, layout := range cabinLayout {
			classID, err := s.repo.InsertClass(ctx, tx, domain.FlightClass{
				FlightID:   flightID,
				ClassName:  layout.class,
				SeatCount:  layout.seats,
				PriceCents: in.priceFor(layout.class),
			})
			if err != nil {
				return err
			}

			if err := s.repo.BatchInsertSeats(ctx, tx, flightID, classID, seatNumbers(layout.prefix, layout.seats)); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return flightID, nil
}

func seatNumbers(prefix string, n int) []string {
	out := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, fmt.Sprintf("%s%d", prefix, i))
	}
	return out
}
