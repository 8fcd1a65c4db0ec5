package geospatial_test

import (
	"math"
	"testing"

	"github.com/voltroute/voltroute/internal/pkg/geospatial"
)

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Bilbao to Madrid, roughly 323 km great-circle.
	got := geospatial.HaversineKm(43.2630, -2.9350, 40.4168, -3.7038)
	if got < 320 || got > 327 {
		t.Errorf("Bilbao-Madrid distance = %.1f km, want ~323 km", got)
	}
}

func TestHaversineKm_Identity(t *testing.T) {
	if d := geospatial.HaversineKm(48.8566, 2.3522, 48.8566, 2.3522); d != 0 {
		t.Errorf("distance to self = %v, want 0", d)
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	a := geospatial.HaversineKm(51.5074, -0.1278, 40.7128, -74.0060)
	b := geospatial.HaversineKm(40.7128, -74.0060, 51.5074, -0.1278)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("asymmetric distances: %v vs %v", a, b)
	}
}

func TestInterpolate(t *testing.T) {
	lat, lon := geospatial.Interpolate(0, 0, 10, 20, 0.5)
	if lat != 5 || lon != 10 {
		t.Errorf("midpoint = (%v,%v), want (5,10)", lat, lon)
	}

	lat, lon = geospatial.Interpolate(40, -3, 44, -1, 0)
	if lat != 40 || lon != -3 {
		t.Errorf("t=0 should return the start, got (%v,%v)", lat, lon)
	}

	lat, lon = geospatial.Interpolate(40, -3, 44, -1, 1)
	if lat != 44 || lon != -1 {
		t.Errorf("t=1 should return the end, got (%v,%v)", lat, lon)
	}
}

func TestBoundingBox_ContainsCenter(t *testing.T) {
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(43.263, -2.935, 5000)
	if minLat >= 43.263 || maxLat <= 43.263 || minLon >= -2.935 || maxLon <= -2.935 {
		t.Errorf("box (%v,%v)-(%v,%v) does not contain center", minLat, minLon, maxLat, maxLon)
	}
}
