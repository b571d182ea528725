package service

import (
	redisx "github.com/altavia/airways/internal/redis"
	postgres "github.com/altavia/airways/internal/repository/postgres"
	redisrepo "github.com/altavia/airways/internal/repository/redis"
	"github.com/altavia/airways/internal/service/admin"
	"github.com/altavia/airways/internal/service/booking"
	"github.com/altavia/airways/internal/service/flightops"
	"github.com/altavia/airways/internal/service/query"
	"github.com/altavia/airways/internal/service/refund"
	"github.com/altavia/airways/internal/uow"
)

type Services struct {
	Booking   *booking.Service
	Refund    *refund.Service
	FlightOps *flightops.Service
	Query     *query.Service
	Admin     *admin.Service
}

type Config struct {
	Query query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.FlightsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Services {
	txr := uow.NewUoW(store)

	return &Services{
		Booking:   booking.New(store.Inventory(), store.Bookings(), txr, cache, pubsub, limiter),
		Refund:    refund.New(store.Refunds(), store.Bookings(), txr),
		FlightOps: flightops.New(store.Flights(), txr),
		Query:     query.New(store.Inventory(), store.Bookings(), cache, cfg.Query),
		Admin:     admin.New(store.Admin(), txr),
	}
}
