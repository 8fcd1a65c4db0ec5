package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/pkg/metrics"
)

// parseFilters extracts charger search filters from query parameters.
func parseFilters(c *fiber.Ctx) domain.SearchFilters {
	f := domain.SearchFilters{
		ConnectorSet: c.Query("connector"),
		MinPowerKW:   c.QueryFloat("min_power", 0),
		MinRating:    c.QueryFloat("min_rating", 0),
		Operator:     c.Query("operator"),
	}
	if raw := c.Query("amenities"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(a); trimmed != "" {
				f.Amenities = append(f.Amenities, trimmed)
			}
		}
	}
	return f
}

// NearbyChargersHandler returns charging stations within a radius of a point.
func NearbyChargersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryInt("radius", 5000)

		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}

		point := domain.GeoPoint{Lat: lat, Lon: lon}
		chargers, err := deps.Chargers.FindNearby(c.Context(), point, radius, parseFilters(c))
		if err != nil {
			if errors.Is(err, domain.ErrInvalidCoordinate) {
				return errUnprocessable(c, "invalid_coordinate", err.Error())
			}
			if errors.Is(err, domain.ErrRateLimited) {
				return errUpstream(c, "charger provider throttled the request")
			}
			return errUpstream(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(chargers)
	}
}

// ChargerClustersHandler returns zoom-aware cluster markers for the map screen.
func ChargerClustersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryInt("radius", 5000)
		zoom := c.QueryFloat("zoom", 12)
		maxNodes := c.QueryInt("max_nodes", 0)

		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		if zoom < 0 || zoom > 22 {
			return errBadRequest(c, "zoom must be between 0 and 22")
		}

		point := domain.GeoPoint{Lat: lat, Lon: lon}
		nodes, err := deps.Chargers.FindClusters(c.Context(), point, radius, zoom, maxNodes, parseFilters(c))
		if err != nil {
			if errors.Is(err, domain.ErrInvalidCoordinate) {
				return errUnprocessable(c, "invalid_coordinate", err.Error())
			}
			if errors.Is(err, domain.ErrRateLimited) {
				return errUpstream(c, "charger provider throttled the request")
			}
			return errUpstream(c, err.Error())
		}

		metrics.ClusterNodesReturned.Observe(float64(len(nodes)))

		c.Set("Cache-Control", "public, max-age=120")
		return c.JSON(fiber.Map{
			"nodes": nodes,
			"count": len(nodes),
		})
	}
}

// planRequest is the POST /v1/routes/plan body.
type planRequest struct {
	Origin           domain.GeoPoint      `json:"origin"`
	Destination      domain.GeoPoint      `json:"destination"`
	AvailableRangeKm float64              `json:"available_range_km"`
	MaxRangeKm       float64              `json:"max_range_km"`
	Filters          domain.SearchFilters `json:"filters"`
	// IncludeAlternative requests a second route choice alongside the plan.
	IncludeAlternative bool `json:"include_alternative"`
}

// planResponse is the plan plus the optional alternative route geometry.
type planResponse struct {
	domain.PlannedRoute
	Alternative *domain.RouteGeometry `json:"alternative,omitempty"`
}

// PlanRouteHandler computes a range-feasible route with charging stops.
func PlanRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req planRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.AvailableRangeKm <= 0 {
			return errBadRequest(c, "available_range_km must be positive")
		}

		profile := domain.RangeProfile{
			AvailableRangeKm: req.AvailableRangeKm,
			MaxRangeKm:       req.MaxRangeKm,
		}

		start := time.Now()
		plan, err := deps.Planner.PlanRoute(c.Context(), req.Origin, req.Destination, profile, req.Filters)
		if err != nil {
			metrics.PlansComputed.WithLabelValues("error").Inc()
			switch {
			case errors.Is(err, domain.ErrInvalidCoordinate):
				return errUnprocessable(c, "invalid_coordinate", err.Error())
			case errors.Is(err, domain.ErrNoRoute):
				return errUnprocessable(c, "no_route", "no drivable route between origin and destination")
			default:
				return errUpstream(c, err.Error())
			}
		}

		outcome := "completed"
		if plan.Degraded {
			outcome = "degraded"
		}
		metrics.PlansComputed.WithLabelValues(outcome).Inc()
		metrics.PlanDuration.Observe(time.Since(start).Seconds())
		metrics.ChargingStopsPerPlan.Observe(float64(len(plan.ChargingStops)))

		resp := planResponse{PlannedRoute: *plan}
		if req.IncludeAlternative && deps.AltRoutes != nil {
			// Best-effort: a failed alternative lookup never fails the plan.
			alt, err := deps.AltRoutes.GetAlternativeRoute(c.Context(),
				[]domain.GeoPoint{req.Origin, req.Destination})
			if err == nil {
				resp.Alternative = alt
			}
		}
		return c.JSON(resp)
	}
}

// GetPlanHandler returns a stored plan by ID.
func GetPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "plan id is required")
		}
		plan, err := deps.Plans.GetPlan(c.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrPlanNotFound) {
				return errNotFound(c, "plan not found")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(plan)
	}
}

// ListPlansHandler returns recently computed plans, newest first.
func ListPlansHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 10)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 50 {
			limit = 10
		}

		plans, err := deps.Plans.ListRecent(c.Context(), offset+limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		total := len(plans)
		if offset >= total {
			plans = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			plans = plans[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: plans, Pagination: pg})
	}
}

// DeletePlanHandler removes a stored plan.
func DeletePlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "plan id is required")
		}
		if err := deps.Plans.DeletePlan(c.Context(), id); err != nil {
			if errors.Is(err, domain.ErrPlanNotFound) {
				return errNotFound(c, "plan not found")
			}
			return errInternal(c, err.Error())
		}
		return c.SendStatus(204)
	}
}

// GeocodeSuggestHandler returns place autocomplete suggestions.
func GeocodeSuggestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		suggestions, err := deps.Geocode.Suggest(c.Context(), query)
		if err != nil {
			if errors.Is(err, domain.ErrRateLimited) {
				return errUpstream(c, "geocoding provider throttled the request")
			}
			return errUpstream(c, err.Error())
		}
		return c.JSON(suggestions)
	}
}

// PlaceDetailsHandler resolves a suggestion ID to a coordinate.
func PlaceDetailsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "place id is required")
		}
		place, err := deps.Geocode.Resolve(c.Context(), id)
		if err != nil {
			return errUpstream(c, err.Error())
		}
		if place == nil {
			return errNotFound(c, "place not found")
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(place)
	}
}

// ReverseGeocodeHandler returns the address at a coordinate.
func ReverseGeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}

		place, err := deps.Geocode.ReverseGeocode(c.Context(), domain.GeoPoint{Lat: lat, Lon: lon})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidCoordinate) {
				return errUnprocessable(c, "invalid_coordinate", err.Error())
			}
			return errUpstream(c, err.Error())
		}
		if place == nil {
			return errNotFound(c, "no address at this location")
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(place)
	}
}

// PlanStats holds statistics about stored route plans.
type PlanStats struct {
	Plans    int    `json:"plans"`
	Degraded int    `json:"degraded"`
	LastPlan string `json:"last_plan,omitempty"`
}

// PlanStatsHandler returns row counts from the plans table.
func PlanStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats PlanStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM plans),
				(SELECT count(*) FROM plans WHERE degraded),
				COALESCE((SELECT max(created_at)::text FROM plans), '')
		`)
		if err := row.Scan(&stats.Plans, &stats.Degraded, &stats.LastPlan); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}
