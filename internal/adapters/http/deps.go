package http

import (
	"github.com/nats-io/nats.go"
	"github.com/voltroute/voltroute/internal/adapters/postgres"
	"github.com/voltroute/voltroute/internal/adapters/valkey"
	"github.com/voltroute/voltroute/internal/core/ports"
	"github.com/voltroute/voltroute/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Chargers *usecases.ChargerService
	Planner  *usecases.PlannerService
	Plans    *usecases.PlanService
	Geocode  *usecases.GeocodeService
	// AltRoutes serves the optional second route choice; nil disables it.
	AltRoutes ports.AlternativeRouteProvider
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}
