package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/core/ports"
	"github.com/voltroute/voltroute/internal/pkg/metrics"
)

const defaultBaseURL = "https://api.mapbox.com"

// Client implements ports.RouteProvider and ports.Geocoder against the
// Mapbox Directions and Geocoding APIs.
type Client struct {
	baseURL     string
	accessToken string
	httpc       *http.Client
}

// New creates a Mapbox client.
func New(accessToken string) *Client {
	return NewWithBaseURL(accessToken, defaultBaseURL)
}

// NewWithBaseURL creates a client against a non-default endpoint, used by
// tests to point at a local server.
func NewWithBaseURL(accessToken, baseURL string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpc:       &http.Client{Timeout: 15 * time.Second},
	}
}

// GetRoute resolves a driving route through the given waypoints. Returns
// (nil, nil) when Mapbox finds no route, which callers surface to the user as
// a recoverable condition.
func (c *Client) GetRoute(ctx context.Context, waypoints []domain.GeoPoint) (*domain.RouteGeometry, error) {
	body, err := c.directions(ctx, waypoints, false)
	if err != nil {
		return nil, err
	}
	if len(body.Routes) == 0 {
		return nil, nil
	}
	return toRouteGeometry(body.Routes[0]), nil
}

// GetAlternativeRoute returns the best alternative to the primary route, or
// (nil, nil) when Mapbox offers none.
func (c *Client) GetAlternativeRoute(ctx context.Context, waypoints []domain.GeoPoint) (*domain.RouteGeometry, error) {
	body, err := c.directions(ctx, waypoints, true)
	if err != nil {
		return nil, err
	}
	if len(body.Routes) < 2 {
		return nil, nil
	}
	return toRouteGeometry(body.Routes[1]), nil
}

func (c *Client) directions(ctx context.Context, waypoints []domain.GeoPoint, alternatives bool) (*directionsResponse, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("mapbox: at least 2 waypoints required, got %d", len(waypoints))
	}

	coords := make([]string, len(waypoints))
	for i, p := range waypoints {
		coords[i] = fmt.Sprintf("%f,%f", p.Lon, p.Lat)
	}
	endpoint := fmt.Sprintf("%s/directions/v5/mapbox/driving/%s?access_token=%s&geometries=geojson&overview=full",
		c.baseURL, strings.Join(coords, ";"), url.QueryEscape(c.accessToken))
	if alternatives {
		endpoint += "&alternatives=true"
	}

	var body directionsResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("mapbox: directions: %w", err)
	}
	return &body, nil
}

func toRouteGeometry(route directionsRoute) *domain.RouteGeometry {
	geometry := make([]domain.GeoPoint, 0, len(route.Geometry.Coordinates))
	for _, c := range route.Geometry.Coordinates {
		if len(c) != 2 {
			continue
		}
		// GeoJSON positions are [lon, lat].
		geometry = append(geometry, domain.GeoPoint{Lat: c[1], Lon: c[0]})
	}
	return &domain.RouteGeometry{
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
		Geometry:        geometry,
	}
}

// Suggest returns autocomplete suggestions for a partial place query.
func (c *Client) Suggest(ctx context.Context, query string) ([]ports.Suggestion, error) {
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?autocomplete=true&access_token=%s",
		c.baseURL, url.PathEscape(query), url.QueryEscape(c.accessToken))

	var body geocodingResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("mapbox: suggest: %w", err)
	}

	suggestions := make([]ports.Suggestion, 0, len(body.Features))
	for _, f := range body.Features {
		suggestions = append(suggestions, ports.Suggestion{ID: f.ID, Name: f.PlaceName})
	}
	return suggestions, nil
}

// PlaceDetails resolves a feature ID to a place. Mapbox does not serve
// photos, so PhotoURL is always empty.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (*ports.Place, error) {
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?access_token=%s",
		c.baseURL, url.PathEscape(placeID), url.QueryEscape(c.accessToken))

	var body geocodingResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("mapbox: place details: %w", err)
	}
	if len(body.Features) == 0 {
		return nil, nil
	}

	f := body.Features[0]
	if len(f.Center) != 2 {
		return nil, fmt.Errorf("mapbox: malformed center for feature %s", f.ID)
	}
	return &ports.Place{
		Name:     f.Text,
		Position: domain.GeoPoint{Lat: f.Center[1], Lon: f.Center[0]},
	}, nil
}

// ReverseGeocode names the place at a coordinate.
func (c *Client) ReverseGeocode(ctx context.Context, point domain.GeoPoint) (*ports.Place, error) {
	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%f,%f.json?access_token=%s",
		c.baseURL, point.Lon, point.Lat, url.QueryEscape(c.accessToken))

	var body geocodingResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("mapbox: reverse geocode: %w", err)
	}
	if len(body.Features) == 0 {
		return nil, nil
	}

	return &ports.Place{
		Name:     body.Features[0].PlaceName,
		Position: point,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	start := time.Now()
	resp, err := c.httpc.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues("mapbox").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequests.WithLabelValues("mapbox", "error").Inc()
		return err
	}
	defer resp.Body.Close()
	metrics.ProviderRequests.WithLabelValues("mapbox", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.RateLimitRetries.WithLabelValues("mapbox").Inc()
		return domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type directionsResponse struct {
	Routes []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
}

type geocodingResponse struct {
	Features []struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"`
	} `json:"features"`
}
