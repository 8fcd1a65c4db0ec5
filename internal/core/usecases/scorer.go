package usecases

import (
	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/pkg/geospatial"
)

const (
	// rangeSafetyMargin keeps 15% of the available range in reserve when
	// deciding whether a charger is reachable.
	rangeSafetyMargin = 0.85

	// maxDetourFactor bounds the fallback path start->charger->end relative
	// to the direct leg distance.
	maxDetourFactor = 1.10

	// referencePowerKW saturates the power score; anything at or above this
	// charges fast enough that extra kilowatts stop mattering.
	referencePowerKW = 150.0

	scoreWeightDistance = 0.7
	scoreWeightRating   = 0.2
	scoreWeightPower    = 0.1
	availabilityBonus   = 0.1
)

// SelectBestCharger picks the single best charging stop for the leg
// start->end given the remaining range budget, or nil when no candidate
// survives filtering. Deterministic: the same inputs always select the same
// charger, with ties broken by input order.
func SelectBestCharger(candidates []domain.Charger, start, end domain.GeoPoint, availableRangeKm float64) *domain.Charger {
	if len(candidates) == 0 {
		return nil
	}

	survivors := filterCandidates(candidates, start, end, availableRangeKm, false)
	if len(survivors) == 0 {
		// Graceful degradation: rather than fail the leg outright, consider
		// chargers whose availability is unknown or reported unavailable.
		survivors = filterCandidates(candidates, start, end, availableRangeKm, true)
	}
	if len(survivors) == 0 {
		return nil
	}

	directKm := geospatial.HaversineKm(start.Lat, start.Lon, end.Lat, end.Lon)
	best := 0
	bestScore := scoreCharger(survivors[0], start, end, directKm)
	for i := 1; i < len(survivors); i++ {
		if s := scoreCharger(survivors[i], start, end, directKm); s > bestScore {
			best, bestScore = i, s
		}
	}
	c := survivors[best]
	return &c
}

// filterCandidates applies the hard constraints: the charger must be
// reachable from start inside the safety margin, and from it the destination
// must be reachable within range. When no charger satisfies the second
// condition, candidates whose total detour stays within maxDetourFactor of
// the direct distance are accepted instead.
func filterCandidates(candidates []domain.Charger, start, end domain.GeoPoint, availableRangeKm float64, ignoreAvailability bool) []domain.Charger {
	directKm := geospatial.HaversineKm(start.Lat, start.Lon, end.Lat, end.Lon)

	var reachable []domain.Charger
	for _, c := range candidates {
		if !ignoreAvailability && c.Availability == domain.AvailabilityUnavailable {
			continue
		}
		toCharger := geospatial.HaversineKm(start.Lat, start.Lon, c.Position.Lat, c.Position.Lon)
		if toCharger <= rangeSafetyMargin*availableRangeKm {
			reachable = append(reachable, c)
		}
	}

	var qualified []domain.Charger
	for _, c := range reachable {
		onward := geospatial.HaversineKm(c.Position.Lat, c.Position.Lon, end.Lat, end.Lon)
		if onward <= availableRangeKm {
			qualified = append(qualified, c)
		}
	}
	if len(qualified) > 0 {
		return qualified
	}

	// Fallback: accept bounded detours even when the onward leg exceeds the
	// range budget; the planner splits that leg again on the next recursion.
	for _, c := range reachable {
		toCharger := geospatial.HaversineKm(start.Lat, start.Lon, c.Position.Lat, c.Position.Lon)
		onward := geospatial.HaversineKm(c.Position.Lat, c.Position.Lon, end.Lat, end.Lon)
		if toCharger+onward <= maxDetourFactor*directKm {
			qualified = append(qualified, c)
		}
	}
	return qualified
}

// scoreCharger computes the soft ranking score. The weighting favors minimal
// detour over raw charging speed.
func scoreCharger(c domain.Charger, start, end domain.GeoPoint, directKm float64) float64 {
	toCharger := geospatial.HaversineKm(start.Lat, start.Lon, c.Position.Lat, c.Position.Lon)
	onward := geospatial.HaversineKm(c.Position.Lat, c.Position.Lon, end.Lat, end.Lon)

	distanceScore := 1.0
	if directKm > 0 {
		detourFactor := (toCharger + onward) / directKm
		if detourFactor > 0 {
			distanceScore = 1 / detourFactor
		}
	}

	powerScore := 0.5
	if c.PowerKW != nil {
		powerScore = *c.PowerKW / referencePowerKW
		if powerScore > 1 {
			powerScore = 1
		}
	}

	ratingScore := 0.5
	if c.Rating != nil {
		ratingScore = *c.Rating / 5
	}

	score := scoreWeightDistance*distanceScore + scoreWeightRating*ratingScore + scoreWeightPower*powerScore
	if c.Availability == domain.AvailabilityAvailable {
		score += availabilityBonus
	}
	return score
}
