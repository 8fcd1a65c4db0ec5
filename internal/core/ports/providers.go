package ports

import (
	"context"

	"github.com/voltroute/voltroute/internal/core/domain"
)

// ChargerSearcher finds charging stations around a point via an external POI
// provider. Implementations return domain.ErrRateLimited (wrapped) when the
// upstream throttles the request, so callers can distinguish throttling from
// other failures.
type ChargerSearcher interface {
	Search(ctx context.Context, point domain.GeoPoint, radiusMeters int, filters domain.SearchFilters) ([]domain.Charger, error)
}

// RouteProvider resolves driving routes between waypoints. A (nil, nil)
// return means no route exists, which is a user-visible outcome rather than
// an infrastructure failure.
type RouteProvider interface {
	GetRoute(ctx context.Context, waypoints []domain.GeoPoint) (*domain.RouteGeometry, error)
}

// AlternativeRouteProvider serves a second route choice for display next to
// the planned one. (nil, nil) means the provider has no alternative to offer.
type AlternativeRouteProvider interface {
	GetAlternativeRoute(ctx context.Context, waypoints []domain.GeoPoint) (*domain.RouteGeometry, error)
}

// Suggestion is one autocomplete result for a place search.
type Suggestion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Place is a resolved place with its coordinate.
type Place struct {
	Name     string          `json:"name"`
	Position domain.GeoPoint `json:"position"`
	PhotoURL string          `json:"photo_url,omitempty"`
}

// Geocoder abstracts the place-search provider (Mapbox or Google Places).
// The core never branches on which provider backs it.
type Geocoder interface {
	Suggest(ctx context.Context, query string) ([]Suggestion, error)
	PlaceDetails(ctx context.Context, placeID string) (*Place, error)
	ReverseGeocode(ctx context.Context, point domain.GeoPoint) (*Place, error)
}
