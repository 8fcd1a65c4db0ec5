package domain

import "time"

// RangeProfile describes the vehicle's usable range for one planning pass.
// AvailableRangeKm is what is left in the battery now; MaxRangeKm is the range
// after a full charge. Available is clamped to Max by the planner when it
// exceeds it.
type RangeProfile struct {
	AvailableRangeKm float64 `json:"available_range_km"`
	MaxRangeKm       float64 `json:"max_range_km,omitempty"`
}

// FeasibilityRadiusKm is the longest leg considered drivable without a
// recharge: the full-charge range when known, otherwise the available range.
func (r RangeProfile) FeasibilityRadiusKm() float64 {
	if r.MaxRangeKm > 0 {
		return r.MaxRangeKm
	}
	return r.AvailableRangeKm
}

// Clamped returns the profile with AvailableRangeKm capped at MaxRangeKm.
func (r RangeProfile) Clamped() RangeProfile {
	if r.MaxRangeKm > 0 && r.AvailableRangeKm > r.MaxRangeKm {
		r.AvailableRangeKm = r.MaxRangeKm
	}
	return r
}

// RouteGeometry is a driving route as returned by the route-geometry provider.
type RouteGeometry struct {
	DistanceMeters  float64    `json:"distance_meters"`
	DurationSeconds float64    `json:"duration_seconds"`
	Geometry        []GeoPoint `json:"geometry"`
}

// DistanceKm is the route distance in kilometers.
func (r RouteGeometry) DistanceKm() float64 {
	return r.DistanceMeters / 1000
}

// PlannedRoute is the planner's output: the original endpoints interleaved
// with inserted charging stops, in driving order. The first and last waypoints
// always equal the trip origin and destination.
type PlannedRoute struct {
	ID            string       `json:"id,omitempty"`
	Waypoints     []GeoPoint   `json:"waypoints"`
	ChargingStops []Charger    `json:"charging_stops"`
	Profile       string       `json:"profile"` // routing profile for the renderer
	DistanceKm    float64      `json:"distance_km"`
	Range         RangeProfile `json:"range"`
	// Degraded marks a best-effort plan: at least one leg exceeds the
	// feasibility radius because no suitable charger was found for it.
	Degraded  bool      `json:"degraded"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ClusterNode is one renderable map marker: either a single charger
// (Cluster=false, Count=1) or an aggregate of nearby chargers.
type ClusterNode struct {
	ID      string    `json:"id"`
	Cluster bool      `json:"cluster"`
	Count   int       `json:"count"`
	Center  GeoPoint  `json:"center"`
	Members []Charger `json:"members"`
}
