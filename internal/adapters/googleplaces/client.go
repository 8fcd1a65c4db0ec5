package googleplaces

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

const defaultBaseURL = "https://maps.googleapis.com"

// Client implements ports.Geocoder against the Google Places and Geocoding
// APIs. Unlike Mapbox it serves place photos, which the charger detail view
// uses.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// New creates a Google Places client.
func New(apiKey string) *Client {
	return NewWithBaseURL(apiKey, defaultBaseURL)
}

// NewWithBaseURL creates a client against a non-default endpoint, used by
// tests to point at a local server.
func NewWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Suggest returns autocomplete predictions for a partial place query.
func (c *Client) Suggest(ctx context.Context, query string) ([]ports.Suggestion, error) {
	endpoint := fmt.Sprintf("%s/maps/api/place/autocomplete/json?input=%s&key=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))

	var body autocompleteResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("googleplaces: suggest: %w", err)
	}
	if err := body.statusError(); err != nil {
		return nil, fmt.Errorf("googleplaces: suggest: %w", err)
	}

	suggestions := make([]ports.Suggestion, 0, len(body.Predictions))
	for _, p := range body.Predictions {
		suggestions = append(suggestions, ports.Suggestion{ID: p.PlaceID, Name: p.Description})
	}
	return suggestions, nil
}

// PlaceDetails resolves a place ID to its name, coordinate and first photo.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (*ports.Place, error) {
	endpoint := fmt.Sprintf("%s/maps/api/place/details/json?placeid=%s&key=%s",
		c.baseURL, url.QueryEscape(placeID), url.QueryEscape(c.apiKey))

	var body detailsResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("googleplaces: place details: %w", err)
	}
	if err := body.statusError(); err != nil {
		return nil, fmt.Errorf("googleplaces: place details: %w", err)
	}
	if body.Result == nil {
		return nil, nil
	}

	place := &ports.Place{
		Name: body.Result.Name,
		Position: domain.GeoPoint{
			Lat: body.Result.Geometry.Location.Lat,
			Lon: body.Result.Geometry.Location.Lng,
		},
	}
	if len(body.Result.Photos) > 0 {
		place.PhotoURL = fmt.Sprintf("%s/maps/api/place/photo?maxwidth=400&photoreference=%s&key=%s",
			c.baseURL, url.QueryEscape(body.Result.Photos[0].PhotoReference), url.QueryEscape(c.apiKey))
	}
	return place, nil
}

// ReverseGeocode names the place at a coordinate.
func (c *Client) ReverseGeocode(ctx context.Context, point domain.GeoPoint) (*ports.Place, error) {
	endpoint := fmt.Sprintf("%s/maps/api/geocode/json?latlng=%f,%f&key=%s",
		c.baseURL, point.Lat, point.Lon, url.QueryEscape(c.apiKey))

	var body geocodeResponse
	if err := c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, fmt.Errorf("googleplaces: reverse geocode: %w", err)
	}
	if err := body.statusError(); err != nil {
		return nil, fmt.Errorf("googleplaces: reverse geocode: %w", err)
	}
	if len(body.Results) == 0 {
		return nil, nil
	}

	return &ports.Place{
		Name:     body.Results[0].FormattedAddress,
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
	metrics.ProviderRequestDuration.WithLabelValues("google").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequests.WithLabelValues("google", "error").Inc()
		return err
	}
	defer resp.Body.Close()
	metrics.ProviderRequests.WithLabelValues("google", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.RateLimitRetries.WithLabelValues("google").Inc()
		return domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiStatus is the in-body status string Google returns alongside HTTP 200.
type apiStatus struct {
	Status string `json:"status"`
}

func (s apiStatus) statusError() error {
	switch s.Status {
	case "", "OK", "ZERO_RESULTS":
		return nil
	case "OVER_QUERY_LIMIT":
		return domain.ErrRateLimited
	default:
		return fmt.Errorf("status %s", s.Status)
	}
}

type autocompleteResponse struct {
	apiStatus
	Predictions []struct {
		PlaceID     string `json:"place_id"`
		Description string `json:"description"`
	} `json:"predictions"`
}

type detailsResponse struct {
	apiStatus
	Result *struct {
		Name     string `json:"name"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Photos []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"result"`
}

type geocodeResponse struct {
	apiStatus
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}
