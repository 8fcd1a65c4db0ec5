package usecases_test

import (
	"testing"

	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/core/usecases"
)

func floatPtr(v float64) *float64 { return &v }

// A 500 km leg straight up a meridian; interior points are easy to reason
// about because 1 degree of latitude is ~111 km.
var (
	legStart = domain.GeoPoint{Lat: 40.0, Lon: -3.0}
	legEnd   = domain.GeoPoint{Lat: 44.5, Lon: -3.0}
)

func onLegCharger(id string, lat float64) domain.Charger {
	return domain.Charger{
		ID:       id,
		Name:     "Charger " + id,
		Position: domain.GeoPoint{Lat: lat, Lon: -3.0},
	}
}

func TestSelectBestCharger_Deterministic(t *testing.T) {
	candidates := []domain.Charger{
		onLegCharger("a", 41.0),
		onLegCharger("b", 41.2),
		onLegCharger("c", 41.5),
	}

	first := usecases.SelectBestCharger(candidates, legStart, legEnd, 200)
	if first == nil {
		t.Fatal("expected a selection")
	}
	for i := 0; i < 5; i++ {
		got := usecases.SelectBestCharger(candidates, legStart, legEnd, 200)
		if got == nil || got.ID != first.ID {
			t.Fatalf("run %d selected %v, first run selected %s", i, got, first.ID)
		}
	}
}

func TestSelectBestCharger_RejectsBeyondSafetyMargin(t *testing.T) {
	// Range 200 km, margin 0.85 -> reachable cutoff 170 km. A charger 190 km
	// out is rejected even though it is inside the nominal range.
	tooFar := onLegCharger("far", 41.71) // ~190 km from start
	if got := usecases.SelectBestCharger([]domain.Charger{tooFar}, legStart, legEnd, 200); got != nil {
		t.Errorf("expected nil, got %s", got.ID)
	}

	inside := onLegCharger("near", 41.4) // ~156 km from start
	if got := usecases.SelectBestCharger([]domain.Charger{inside}, legStart, legEnd, 200); got == nil || got.ID != "near" {
		t.Errorf("expected near, got %v", got)
	}
}

func TestSelectBestCharger_SkipsUnavailable(t *testing.T) {
	busy := onLegCharger("busy", 41.4)
	busy.Availability = domain.AvailabilityUnavailable
	free := onLegCharger("free", 41.2)
	free.Availability = domain.AvailabilityAvailable

	got := usecases.SelectBestCharger([]domain.Charger{busy, free}, legStart, legEnd, 200)
	if got == nil || got.ID != "free" {
		t.Errorf("expected free, got %v", got)
	}
}

func TestSelectBestCharger_FallsBackToUnavailable(t *testing.T) {
	// The only reachable charger reports unavailable; the scorer degrades
	// gracefully instead of failing the leg.
	busy := onLegCharger("busy", 41.4)
	busy.Availability = domain.AvailabilityUnavailable

	got := usecases.SelectBestCharger([]domain.Charger{busy}, legStart, legEnd, 200)
	if got == nil || got.ID != "busy" {
		t.Errorf("expected busy via availability fallback, got %v", got)
	}
}

func TestSelectBestCharger_PrefersOnwardReachable(t *testing.T) {
	// Range 400 km on the 500 km leg. From "early" (~111 km in) the
	// remaining ~389 km is within range; from "veryearly" (~55 km in) it is
	// not. Only "early" survives the onward-reachability filter, despite
	// "veryearly" having the smaller detour by position order.
	veryEarly := onLegCharger("veryearly", 40.5)
	early := onLegCharger("early", 41.0)

	got := usecases.SelectBestCharger([]domain.Charger{veryEarly, early}, legStart, legEnd, 400)
	if got == nil || got.ID != "early" {
		t.Errorf("expected early, got %v", got)
	}
}

func TestSelectBestCharger_DetourFallback(t *testing.T) {
	// Range 200 km: no charger can reach the end directly, so the detour
	// fallback applies. An on-route charger (detour factor 1.0) qualifies; a
	// charger far off-route does not.
	onRoute := onLegCharger("onroute", 41.4)
	offRoute := domain.Charger{
		ID:       "offroute",
		Position: domain.GeoPoint{Lat: 41.0, Lon: -4.5}, // ~120 km off the leg
	}

	got := usecases.SelectBestCharger([]domain.Charger{offRoute, onRoute}, legStart, legEnd, 200)
	if got == nil || got.ID != "onroute" {
		t.Errorf("expected onroute, got %v", got)
	}
}

func TestSelectBestCharger_Weighting(t *testing.T) {
	// Same position, all-else-equal comparisons isolate each score term.
	base := onLegCharger("base", 41.4)

	strong := base
	strong.ID = "strong"
	strong.PowerKW = floatPtr(350)
	weak := base
	weak.ID = "weak"
	weak.PowerKW = floatPtr(22)
	if got := usecases.SelectBestCharger([]domain.Charger{weak, strong}, legStart, legEnd, 200); got == nil || got.ID != "strong" {
		t.Errorf("power: expected strong, got %v", got)
	}

	loved := base
	loved.ID = "loved"
	loved.Rating = floatPtr(4.8)
	meh := base
	meh.ID = "meh"
	meh.Rating = floatPtr(2.0)
	if got := usecases.SelectBestCharger([]domain.Charger{meh, loved}, legStart, legEnd, 200); got == nil || got.ID != "loved" {
		t.Errorf("rating: expected loved, got %v", got)
	}

	open := base
	open.ID = "open"
	open.Availability = domain.AvailabilityAvailable
	unknown := base
	unknown.ID = "unknown"
	if got := usecases.SelectBestCharger([]domain.Charger{unknown, open}, legStart, legEnd, 200); got == nil || got.ID != "open" {
		t.Errorf("availability bonus: expected open, got %v", got)
	}
}

func TestSelectBestCharger_DetourDominates(t *testing.T) {
	// A 350 kW charger requiring a real detour loses to a 50 kW charger on
	// the route: the 0.7 distance weight dominates the 0.1 power weight.
	fast := domain.Charger{
		ID:       "fast",
		Position: domain.GeoPoint{Lat: 41.4, Lon: -5.0}, // ~170 km off the leg
		PowerKW:  floatPtr(350),
	}
	slow := onLegCharger("slow", 41.4)
	slow.PowerKW = floatPtr(50)

	got := usecases.SelectBestCharger([]domain.Charger{fast, slow}, legStart, legEnd, 400)
	if got == nil || got.ID != "slow" {
		t.Errorf("expected slow, got %v", got)
	}
}

func TestSelectBestCharger_TieBreaksByInputOrder(t *testing.T) {
	a := onLegCharger("first", 41.4)
	b := onLegCharger("second", 41.4)

	got := usecases.SelectBestCharger([]domain.Charger{a, b}, legStart, legEnd, 200)
	if got == nil || got.ID != "first" {
		t.Errorf("expected first-seen winner, got %v", got)
	}
}

func TestSelectBestCharger_EmptyInput(t *testing.T) {
	if got := usecases.SelectBestCharger(nil, legStart, legEnd, 200); got != nil {
		t.Errorf("expected nil for empty candidates, got %s", got.ID)
	}
}
