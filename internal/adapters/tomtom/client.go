package tomtom

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
	"github.com/voltroute/voltroute/internal/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.tomtom.com"

	// TomTom POI category for EV charging stations.
	evChargerCategorySet = "7309"

	searchQuery = "ev charger"
)

// Client implements ports.ChargerSearcher against the TomTom POI Search API.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// New creates a TomTom search client.
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

// Search queries EV chargers around a point. A 429 from upstream is returned
// as a wrapped domain.ErrRateLimited so the planner can back off and retry.
func (c *Client) Search(ctx context.Context, point domain.GeoPoint, radiusMeters int, filters domain.SearchFilters) ([]domain.Charger, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("lat", strconv.FormatFloat(point.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(point.Lon, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(radiusMeters))
	q.Set("categorySet", evChargerCategorySet)
	if filters.ConnectorSet != "" {
		q.Set("connectorSet", filters.ConnectorSet)
	}
	if filters.MinPowerKW > 0 {
		q.Set("minPowerKW", strconv.FormatFloat(filters.MinPowerKW, 'f', -1, 64))
	}

	endpoint := fmt.Sprintf("%s/search/2/poiSearch/%s.json?%s",
		c.baseURL, url.PathEscape(searchQuery), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("tomtom: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues("tomtom").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequests.WithLabelValues("tomtom", "error").Inc()
		return nil, fmt.Errorf("tomtom: search: %w", err)
	}
	defer resp.Body.Close()
	metrics.ProviderRequests.WithLabelValues("tomtom", strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.RateLimitRetries.WithLabelValues("tomtom").Inc()
		return nil, fmt.Errorf("tomtom: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tomtom: search returned %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("tomtom: decode response: %w", err)
	}

	chargers := make([]domain.Charger, 0, len(body.Results))
	for _, r := range body.Results {
		ch := r.toDomain()
		if matchesFilters(ch, filters) {
			chargers = append(chargers, ch)
		}
	}
	return chargers, nil
}

// matchesFilters applies the constraints the TomTom query cannot express.
func matchesFilters(c domain.Charger, f domain.SearchFilters) bool {
	if f.Operator != "" && !strings.EqualFold(c.Operator, f.Operator) {
		return false
	}
	if f.MinRating > 0 && (c.Rating == nil || *c.Rating < f.MinRating) {
		return false
	}
	return true
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID  string `json:"id"`
	Poi struct {
		Name       string   `json:"name"`
		Brands     []brand  `json:"brands"`
		Categories []string `json:"categories"`
	} `json:"poi"`
	Position struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"position"`
	Address struct {
		FreeformAddress string `json:"freeformAddress"`
	} `json:"address"`
	ChargingAvailability *chargingAvailability `json:"chargingAvailability"`
}

type brand struct {
	Name string `json:"name"`
}

type chargingAvailability struct {
	Connectors []connector `json:"connectors"`
}

type connector struct {
	Type         string  `json:"type"`
	PowerKW      float64 `json:"powerKW"`
	Availability struct {
		Current struct {
			Available int `json:"available"`
		} `json:"current"`
	} `json:"availability"`
}

func (r searchResult) toDomain() domain.Charger {
	ch := domain.Charger{
		ID:           r.ID,
		ProviderID:   r.ID,
		Name:         r.Poi.Name,
		Address:      r.Address.FreeformAddress,
		Position:     domain.GeoPoint{Lat: r.Position.Lat, Lon: r.Position.Lon},
		Availability: domain.AvailabilityUnknown,
		Categories:   r.Poi.Categories,
	}
	if ch.ID == "" {
		ch.ID = ch.Position.Key()
	}
	if len(r.Poi.Brands) > 0 {
		ch.Operator = r.Poi.Brands[0].Name
	}

	if r.ChargingAvailability == nil {
		return ch
	}

	var maxPower float64
	freeTotal := 0
	for _, conn := range r.ChargingAvailability.Connectors {
		free := conn.Availability.Current.Available
		freeTotal += free
		if conn.PowerKW > maxPower {
			maxPower = conn.PowerKW
		}
		ch.Connectors = append(ch.Connectors, domain.Connector{
			Type:      conn.Type,
			PowerKW:   conn.PowerKW,
			Available: free,
		})
	}
	if maxPower > 0 {
		ch.PowerKW = &maxPower
	}
	if len(r.ChargingAvailability.Connectors) > 0 {
		if freeTotal > 0 {
			ch.Availability = domain.AvailabilityAvailable
		} else {
			ch.Availability = domain.AvailabilityUnavailable
		}
	}
	return ch
}
