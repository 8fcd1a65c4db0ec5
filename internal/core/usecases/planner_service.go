package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/core/ports"
	"github.com/voltroute/voltroute/internal/pkg/geospatial"
)

// RoutingProfile is the profile string handed to the turn-by-turn renderer.
const RoutingProfile = "driving"

// PlannerConfig tunes the segment planner. Zero values are replaced with the
// defaults from DefaultPlannerConfig.
type PlannerConfig struct {
	// MaxDepth caps the segment recursion; at the cap an infeasible leg is
	// returned unresolved instead of recursing further.
	MaxDepth int
	// SamplePoints is how many interior points of an infeasible segment are
	// searched for chargers.
	SamplePoints int
	// MaxSearchRadiusMeters bounds the per-sample charger search radius.
	MaxSearchRadiusMeters int
	// RadiusPerRangeKm scales the search radius with the range budget, in
	// meters of radius per kilometer of available range.
	RadiusPerRangeKm float64
	// SearchInterval spaces out provider calls within one planning pass.
	// Upstream rate limits make this pacing a correctness requirement, not a
	// performance knob.
	SearchInterval time.Duration
	// RetryBackoff is the wait before the single retry of a failed search.
	RetryBackoff time.Duration
	// PlanTimeout bounds the whole planning pass; zero disables it.
	PlanTimeout time.Duration
	// CacheTTLSeconds is the lifetime of cached charger search results.
	CacheTTLSeconds int
}

// DefaultPlannerConfig returns the production tuning.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		MaxDepth:              5,
		SamplePoints:          5,
		MaxSearchRadiusMeters: 30000,
		RadiusPerRangeKm:      400,
		SearchInterval:        1500 * time.Millisecond,
		RetryBackoff:          5 * time.Second,
		PlanTimeout:           2 * time.Minute,
		CacheTTLSeconds:       300,
	}
}

func (c PlannerConfig) withDefaults() PlannerConfig {
	def := DefaultPlannerConfig()
	if c.MaxDepth <= 0 {
		c.MaxDepth = def.MaxDepth
	}
	if c.SamplePoints <= 0 {
		c.SamplePoints = def.SamplePoints
	}
	if c.MaxSearchRadiusMeters <= 0 {
		c.MaxSearchRadiusMeters = def.MaxSearchRadiusMeters
	}
	if c.RadiusPerRangeKm <= 0 {
		c.RadiusPerRangeKm = def.RadiusPerRangeKm
	}
	if c.SearchInterval <= 0 {
		c.SearchInterval = def.SearchInterval
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = def.RetryBackoff
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = def.CacheTTLSeconds
	}
	return c
}

// PlannerService produces range-feasible routes by recursively splitting
// infeasible legs at charging stops.
type PlannerService struct {
	searcher ports.ChargerSearcher
	routes   ports.RouteProvider
	cache    ports.CacheService
	events   ports.EventPublisher
	plans    ports.PlanRepository
	cfg      PlannerConfig
	limiter  *rate.Limiter
}

// NewPlannerService creates a PlannerService. cache, events and plans may be
// nil, which disables caching, event publishing and persistence respectively.
func NewPlannerService(searcher ports.ChargerSearcher, routes ports.RouteProvider, cache ports.CacheService, events ports.EventPublisher, plans ports.PlanRepository, cfg PlannerConfig) *PlannerService {
	cfg = cfg.withDefaults()
	return &PlannerService{
		searcher: searcher,
		routes:   routes,
		cache:    cache,
		events:   events,
		plans:    plans,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(cfg.SearchInterval), 1),
	}
}

// PlanRoute plans a trip from origin to dest for a vehicle with the given
// range profile. When the available range covers the whole driving route the
// original two-point route is returned untouched and no charger search runs.
// Otherwise legs beyond the feasibility radius are split at scored charging
// stops. A plan where some leg could not be resolved is still returned, marked
// Degraded.
//
// Returns domain.ErrNoRoute when no driving route exists between the
// endpoints and a wrapped domain.ErrInvalidCoordinate for out-of-range input.
func (s *PlannerService) PlanRoute(ctx context.Context, origin, dest domain.GeoPoint, profile domain.RangeProfile, filters domain.SearchFilters) (*domain.PlannedRoute, error) {
	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	if err := dest.Validate(); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	profile = profile.Clamped()
	if profile.AvailableRangeKm <= 0 {
		return nil, fmt.Errorf("available range must be positive, got %.1f", profile.AvailableRangeKm)
	}

	if s.cfg.PlanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PlanTimeout)
		defer cancel()
	}

	route, err := s.routes.GetRoute(ctx, []domain.GeoPoint{origin, dest})
	if err != nil {
		return nil, fmt.Errorf("route geometry: %w", err)
	}
	if route == nil {
		return nil, domain.ErrNoRoute
	}

	plan := &domain.PlannedRoute{
		Profile:    RoutingProfile,
		DistanceKm: route.DistanceKm(),
		Range:      profile,
		CreatedAt:  time.Now().UTC(),
	}

	if profile.AvailableRangeKm >= route.DistanceKm() {
		plan.Waypoints = []domain.GeoPoint{origin, dest}
	} else {
		points, stops, degraded, err := s.planSegment(ctx, origin, dest, profile, filters, 0)
		if err != nil {
			return nil, err
		}
		plan.Waypoints = points
		plan.ChargingStops = stops
		plan.Degraded = degraded
	}

	s.persist(ctx, plan)
	s.publish(ctx, plan)
	return plan, nil
}

// planSegment resolves one leg. It returns the ordered waypoints covering the
// leg (including both endpoints), the chargers inserted between them, and
// whether any sub-leg was left unresolved. The only error it returns is
// context cancellation; provider failures degrade to "no candidates".
func (s *PlannerService) planSegment(ctx context.Context, start, end domain.GeoPoint, profile domain.RangeProfile, filters domain.SearchFilters, depth int) ([]domain.GeoPoint, []domain.Charger, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, false, err
	}

	distKm := geospatial.HaversineKm(start.Lat, start.Lon, end.Lat, end.Lon)
	if distKm <= profile.FeasibilityRadiusKm() {
		return []domain.GeoPoint{start, end}, nil, false, nil
	}
	if depth >= s.cfg.MaxDepth {
		// Recursion cap: hand back the raw leg as a best-effort partial plan.
		return []domain.GeoPoint{start, end}, nil, true, nil
	}

	candidates, err := s.searchAlongSegment(ctx, start, end, profile, filters)
	if err != nil {
		return nil, nil, false, err
	}

	// A stop means a full recharge, so legs between chargers are budgeted by
	// the feasibility radius rather than the current available range.
	best := SelectBestCharger(candidates, start, end, profile.FeasibilityRadiusKm())
	if best == nil {
		// No suitable charger for this leg; the caller surfaces this as a
		// notice, not an error.
		return []domain.GeoPoint{start, end}, nil, true, nil
	}

	left, leftStops, leftDeg, err := s.planSegment(ctx, start, best.Position, profile, filters, depth+1)
	if err != nil {
		return nil, nil, false, err
	}
	right, rightStops, rightDeg, err := s.planSegment(ctx, best.Position, end, profile, filters, depth+1)
	if err != nil {
		return nil, nil, false, err
	}

	// Elide the charger coordinate duplicated at the join.
	points := append(left, right[1:]...)
	stops := append(leftStops, *best)
	stops = append(stops, rightStops...)
	return points, stops, leftDeg || rightDeg, nil
}

// searchAlongSegment samples interior points of the leg and accumulates
// deduplicated charger candidates from the search provider. Sample points are
// spaced by parametric interpolation of the great-circle endpoints, not by
// road geometry; at search radii of tens of kilometers the difference does
// not matter.
func (s *PlannerService) searchAlongSegment(ctx context.Context, start, end domain.GeoPoint, profile domain.RangeProfile, filters domain.SearchFilters) ([]domain.Charger, error) {
	radius := int(profile.FeasibilityRadiusKm() * s.cfg.RadiusPerRangeKm)
	if radius > s.cfg.MaxSearchRadiusMeters {
		radius = s.cfg.MaxSearchRadiusMeters
	}

	var accumulated []domain.Charger
	n := s.cfg.SamplePoints
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n+1)
		lat, lon := geospatial.Interpolate(start.Lat, start.Lon, end.Lat, end.Lon, t)
		point := domain.GeoPoint{Lat: lat, Lon: lon}

		found, err := s.searchWithRetry(ctx, point, radius, filters)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// Hard failure for this sample point only: zero candidates.
			continue
		}
		accumulated = append(accumulated, found...)
	}

	return domain.DedupeChargers(accumulated), nil
}

// searchWithRetry performs one paced, cached charger search and retries
// exactly once after a backoff when the provider throttles or fails.
func (s *PlannerService) searchWithRetry(ctx context.Context, point domain.GeoPoint, radius int, filters domain.SearchFilters) ([]domain.Charger, error) {
	found, err := s.cachedSearch(ctx, point, radius, filters)
	if err == nil {
		return found, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	backoff := s.cfg.RetryBackoff
	if !errors.Is(err, domain.ErrRateLimited) {
		// Transient upstream failures retry sooner than throttles.
		backoff = s.cfg.SearchInterval
	}
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return s.cachedSearch(ctx, point, radius, filters)
}

// cachedSearch is the read-through cache around one provider search, paced by
// the shared limiter. Cache keys round coordinates so nearby sample points on
// retried passes hit the same entry.
func (s *PlannerService) cachedSearch(ctx context.Context, point domain.GeoPoint, radius int, filters domain.SearchFilters) ([]domain.Charger, error) {
	key := chargerSearchKey(point, radius, filters)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && data != nil {
			var cached []domain.Charger
			if json.Unmarshal(data, &cached) == nil {
				return domain.DedupeChargers(cached), nil
			}
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	found, err := s.searcher.Search(ctx, point, radius, filters)
	if err != nil {
		return nil, err
	}
	// The key is shared with the map-screen search, which serves cached
	// entries directly; only deduped lists may be written under it.
	found = domain.DedupeChargers(found)

	if s.cache != nil {
		if data, err := json.Marshal(found); err == nil {
			_ = s.cache.Set(ctx, key, data, s.cfg.CacheTTLSeconds)
		}
	}
	return found, nil
}

// chargerSearchKey builds the cache key for one search. Coordinates are
// rounded to ~100 m so overlapping queries share entries.
func chargerSearchKey(point domain.GeoPoint, radius int, filters domain.SearchFilters) string {
	return fmt.Sprintf("chargers:search:%.3f:%.3f:%d:%s", point.Lat, point.Lon, radius, filters.Fingerprint())
}

func (s *PlannerService) persist(ctx context.Context, plan *domain.PlannedRoute) {
	if s.plans == nil {
		return
	}
	// Persistence is best-effort; a failed insert never fails the plan.
	_ = s.plans.Insert(ctx, plan)
}

func (s *PlannerService) publish(ctx context.Context, plan *domain.PlannedRoute) {
	if s.events == nil {
		return
	}
	if plan.Degraded {
		_ = s.events.PublishPlanDegraded(ctx, plan)
		return
	}
	_ = s.events.PublishPlanCompleted(ctx, plan)
}
