package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/core/ports"
	"github.com/voltroute/voltroute/internal/pkg/geospatial"
)

const (
	minSearchRadiusMeters     = 100
	maxSearchRadiusMeters     = 50000
	defaultSearchRadiusMeters = 5000
	nearbyCacheTTLSeconds     = 300
)

// ChargerService serves the map screen: charger search around a viewport
// center, and the clustered rendition of those results.
type ChargerService struct {
	searcher ports.ChargerSearcher
	cache    ports.CacheService
	clusters *ClusterService
}

// NewChargerService creates a ChargerService. cache may be nil to disable
// result caching.
func NewChargerService(searcher ports.ChargerSearcher, cache ports.CacheService, clusters *ClusterService) *ChargerService {
	if clusters == nil {
		clusters = NewClusterService(0)
	}
	return &ChargerService{searcher: searcher, cache: cache, clusters: clusters}
}

// FindNearby returns deduplicated chargers around a point. The radius is
// clamped to sane bounds; zero means the default viewport radius.
func (s *ChargerService) FindNearby(ctx context.Context, point domain.GeoPoint, radiusMeters int, filters domain.SearchFilters) ([]domain.Charger, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		radiusMeters = defaultSearchRadiusMeters
	}
	if radiusMeters < minSearchRadiusMeters {
		radiusMeters = minSearchRadiusMeters
	}
	if radiusMeters > maxSearchRadiusMeters {
		radiusMeters = maxSearchRadiusMeters
	}

	bounds := viewportBounds(point, radiusMeters)

	key := chargerSearchKey(point, radiusMeters, filters)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && data != nil {
			var cached []domain.Charger
			if json.Unmarshal(data, &cached) == nil {
				// An entry written by the planner holds raw provider
				// results; the map screen contract is deduped either way.
				return inViewport(domain.DedupeChargers(cached), bounds), nil
			}
		}
	}

	found, err := s.searcher.Search(ctx, point, radiusMeters, filters)
	if err != nil {
		return nil, fmt.Errorf("charger search: %w", err)
	}
	found = inViewport(domain.DedupeChargers(found), bounds)

	if s.cache != nil {
		if data, err := json.Marshal(found); err == nil {
			_ = s.cache.Set(ctx, key, data, nearbyCacheTTLSeconds)
		}
	}
	return found, nil
}

// viewportBounds is the box circumscribing the search circle. Everything the
// provider returns within the radius lies inside it.
func viewportBounds(center domain.GeoPoint, radiusMeters int) domain.Bounds {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(center.Lat, center.Lon, float64(radiusMeters))
	return domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
}

// inViewport drops chargers the provider returned well outside the requested
// radius; they would render off the visible map.
func inViewport(chargers []domain.Charger, b domain.Bounds) []domain.Charger {
	out := make([]domain.Charger, 0, len(chargers))
	for _, c := range chargers {
		if b.Contains(c.Position) {
			out = append(out, c)
		}
	}
	return out
}

// FindClusters returns the clustered map nodes for the chargers around a
// point at the given zoom. maxNodes <= 0 uses the service default.
func (s *ChargerService) FindClusters(ctx context.Context, point domain.GeoPoint, radiusMeters int, zoom float64, maxNodes int, filters domain.SearchFilters) ([]domain.ClusterNode, error) {
	chargers, err := s.FindNearby(ctx, point, radiusMeters, filters)
	if err != nil {
		return nil, err
	}
	return s.clusters.ClusterWithCap(chargers, zoom, maxNodes), nil
}
