package tomtom_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voltroute/voltroute/internal/adapters/tomtom"
	"github.com/voltroute/voltroute/internal/core/domain"
)

const searchFixture = `{
  "results": [
    {
      "id": "es/poi/100",
      "poi": {
        "name": "Iberdrola Fast Charge",
        "brands": [{"name": "Iberdrola"}],
        "categories": ["EV Charging Station"]
      },
      "position": {"lat": 43.2630, "lon": -2.9350},
      "address": {"freeformAddress": "Gran Via 1, Bilbao"},
      "chargingAvailability": {
        "connectors": [
          {"type": "CCS", "powerKW": 150, "availability": {"current": {"available": 2}}},
          {"type": "CHAdeMO", "powerKW": 50, "availability": {"current": {"available": 0}}}
        ]
      }
    },
    {
      "id": "es/poi/101",
      "poi": {"name": "Town Hall Charger", "categories": ["EV Charging Station"]},
      "position": {"lat": 43.2700, "lon": -2.9300},
      "address": {"freeformAddress": "Plaza Nueva, Bilbao"}
    }
  ]
}`

func TestClient_Search(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"key":          q.Get("key"),
			"categorySet":  q.Get("categorySet"),
			"radius":       q.Get("radius"),
			"connectorSet": q.Get("connectorSet"),
			"minPowerKW":   q.Get("minPowerKW"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	client := tomtom.NewWithBaseURL("test-key", srv.URL)
	chargers, err := client.Search(context.Background(),
		domain.GeoPoint{Lat: 43.263, Lon: -2.935}, 5000,
		domain.SearchFilters{ConnectorSet: "IEC62196Type2CCS", MinPowerKW: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery["key"] != "test-key" {
		t.Errorf("key = %q", gotQuery["key"])
	}
	if gotQuery["categorySet"] != "7309" {
		t.Errorf("categorySet = %q, want 7309", gotQuery["categorySet"])
	}
	if gotQuery["radius"] != "5000" {
		t.Errorf("radius = %q, want 5000", gotQuery["radius"])
	}
	if gotQuery["connectorSet"] != "IEC62196Type2CCS" || gotQuery["minPowerKW"] != "50" {
		t.Errorf("filters not forwarded: %v", gotQuery)
	}

	if len(chargers) != 2 {
		t.Fatalf("expected 2 chargers, got %d", len(chargers))
	}

	first := chargers[0]
	if first.ProviderID != "es/poi/100" {
		t.Errorf("provider ID = %q", first.ProviderID)
	}
	if first.Operator != "Iberdrola" {
		t.Errorf("operator = %q", first.Operator)
	}
	if first.PowerKW == nil || *first.PowerKW != 150 {
		t.Errorf("power should be the max connector power, got %v", first.PowerKW)
	}
	if first.Availability != domain.AvailabilityAvailable {
		t.Errorf("availability = %q, want available", first.Availability)
	}
	if len(first.Connectors) != 2 {
		t.Errorf("expected 2 connectors, got %d", len(first.Connectors))
	}

	second := chargers[1]
	if second.Availability != domain.AvailabilityUnknown {
		t.Errorf("charger without availability data must be unknown, got %q", second.Availability)
	}
	if second.PowerKW != nil {
		t.Errorf("charger without connectors must have nil power, got %v", *second.PowerKW)
	}
}

func TestClient_Search_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := tomtom.NewWithBaseURL("test-key", srv.URL)
	_, err := client.Search(context.Background(), domain.GeoPoint{Lat: 43.263, Lon: -2.935}, 5000, domain.SearchFilters{})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestClient_Search_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := tomtom.NewWithBaseURL("test-key", srv.URL)
	_, err := client.Search(context.Background(), domain.GeoPoint{Lat: 43.263, Lon: -2.935}, 5000, domain.SearchFilters{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Error("a 502 must not be classified as rate limiting")
	}
}

func TestClient_Search_OperatorFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchFixture))
	}))
	defer srv.Close()

	client := tomtom.NewWithBaseURL("test-key", srv.URL)
	chargers, err := client.Search(context.Background(),
		domain.GeoPoint{Lat: 43.263, Lon: -2.935}, 5000,
		domain.SearchFilters{Operator: "iberdrola"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chargers) != 1 || chargers[0].Operator != "Iberdrola" {
		t.Errorf("case-insensitive operator filter should keep only Iberdrola, got %v", chargers)
	}
}
