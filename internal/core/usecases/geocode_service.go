package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/core/ports"
)

// GeocodeService wraps the place-search provider for the destination picker.
type GeocodeService struct {
	geocoder ports.Geocoder
}

// NewGeocodeService creates a new GeocodeService.
func NewGeocodeService(geocoder ports.Geocoder) *GeocodeService {
	return &GeocodeService{geocoder: geocoder}
}

// Suggest returns autocomplete suggestions for a partial place query.
func (s *GeocodeService) Suggest(ctx context.Context, query string) ([]ports.Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	return s.geocoder.Suggest(ctx, query)
}

// Resolve turns a suggestion ID into a concrete place with coordinates.
func (s *GeocodeService) Resolve(ctx context.Context, placeID string) (*ports.Place, error) {
	if placeID == "" {
		return nil, fmt.Errorf("place ID is required")
	}
	return s.geocoder.PlaceDetails(ctx, placeID)
}

// ReverseGeocode names the place at a coordinate, for labeling a map tap.
func (s *GeocodeService) ReverseGeocode(ctx context.Context, point domain.GeoPoint) (*ports.Place, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}
	return s.geocoder.ReverseGeocode(ctx, point)
}
