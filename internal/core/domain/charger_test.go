package domain_test

import (
	"testing"

	"github.com/voltroute/voltroute/internal/core/domain"
)

func TestDedupeChargers_ByCoordinate(t *testing.T) {
	chargers := []domain.Charger{
		{Name: "Ionity A", Position: domain.GeoPoint{Lat: 43.2630001, Lon: -2.9350001}},
		{Name: "Ionity A duplicate", Position: domain.GeoPoint{Lat: 43.2630001, Lon: -2.9350001}},
		{Name: "Repsol B", Position: domain.GeoPoint{Lat: 43.30, Lon: -2.90}},
	}

	out := domain.DedupeChargers(chargers)
	if len(out) != 2 {
		t.Fatalf("expected 2 chargers after dedupe, got %d", len(out))
	}
	if out[0].Name != "Ionity A" {
		t.Errorf("first-seen instance should win, got %q", out[0].Name)
	}
}

func TestDedupeChargers_ByProviderID(t *testing.T) {
	chargers := []domain.Charger{
		{ProviderID: "tt-123", Position: domain.GeoPoint{Lat: 43.1, Lon: -2.1}},
		{ProviderID: "tt-123", Position: domain.GeoPoint{Lat: 43.2, Lon: -2.2}}, // same station, shifted coords
	}

	out := domain.DedupeChargers(chargers)
	if len(out) != 1 {
		t.Fatalf("expected 1 charger after provider-id dedupe, got %d", len(out))
	}
}

func TestDedupeChargers_DistinctBelowRounding(t *testing.T) {
	// 6-decimal rounding is ~0.11 m; these differ at the 5th decimal.
	chargers := []domain.Charger{
		{Position: domain.GeoPoint{Lat: 43.26301, Lon: -2.93501}},
		{Position: domain.GeoPoint{Lat: 43.26302, Lon: -2.93502}},
	}

	out := domain.DedupeChargers(chargers)
	if len(out) != 2 {
		t.Fatalf("expected 2 distinct chargers, got %d", len(out))
	}
}

func TestDedupeChargers_Empty(t *testing.T) {
	if out := domain.DedupeChargers(nil); len(out) != 0 {
		t.Errorf("expected empty output, got %d", len(out))
	}
}

func TestGeoPointValidate(t *testing.T) {
	if err := (domain.GeoPoint{Lat: 43.26, Lon: -2.93}).Validate(); err != nil {
		t.Errorf("valid point rejected: %v", err)
	}
	if err := (domain.GeoPoint{Lat: 91, Lon: 0}).Validate(); err == nil {
		t.Error("latitude 91 should be rejected")
	}
	if err := (domain.GeoPoint{Lat: 0, Lon: -181}).Validate(); err == nil {
		t.Error("longitude -181 should be rejected")
	}
}

func TestRangeProfileClamped(t *testing.T) {
	p := domain.RangeProfile{AvailableRangeKm: 600, MaxRangeKm: 500}.Clamped()
	if p.AvailableRangeKm != 500 {
		t.Errorf("available should clamp to max, got %v", p.AvailableRangeKm)
	}

	p = domain.RangeProfile{AvailableRangeKm: 200, MaxRangeKm: 0}.Clamped()
	if p.AvailableRangeKm != 200 {
		t.Errorf("clamp without max should be a no-op, got %v", p.AvailableRangeKm)
	}
	if p.FeasibilityRadiusKm() != 200 {
		t.Errorf("feasibility radius should fall back to available range, got %v", p.FeasibilityRadiusKm())
	}
}
