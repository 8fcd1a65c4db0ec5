package usecases

import (
	"fmt"

	"github.com/golang/geo/s2"

	"github.com/voltroute/voltroute/internal/core/domain"
	"github.com/voltroute/voltroute/internal/pkg/geospatial"
)

const (
	// DefaultMaxClusterNodes caps the renderable node count; constrained
	// clients request a lower cap per call.
	DefaultMaxClusterNodes = 150

	// noClusterZoom is the zoom at which every charger renders individually.
	noClusterZoom = 14.0

	// S2 level used for aggregate node IDs (~1 km cells). Single chargers get
	// leaf-level IDs.
	clusterIDLevel = 13
)

// ClusterService groups chargers into renderable map nodes. It is pure and
// holds no state between calls: every viewport or zoom change recomputes the
// node list from scratch.
type ClusterService struct {
	maxNodes int
}

// NewClusterService creates a ClusterService with the given node cap
// (DefaultMaxClusterNodes when non-positive).
func NewClusterService(maxNodes int) *ClusterService {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxClusterNodes
	}
	return &ClusterService{maxNodes: maxNodes}
}

// clusterRadiusKm maps a continuous zoom level to a cluster radius. A step
// function rather than a continuous formula; the only requirement is that
// lower zoom yields a larger radius.
func clusterRadiusKm(zoom float64) float64 {
	switch {
	case zoom < 8:
		return 5.0
	case zoom < 10:
		return 3.0
	case zoom < 12:
		return 1.5
	case zoom < 13:
		return 0.8
	default:
		return 0.4
	}
}

// Cluster converts a flat charger list and a zoom level into map nodes using
// the service's default node cap.
func (s *ClusterService) Cluster(chargers []domain.Charger, zoom float64) []domain.ClusterNode {
	return s.ClusterWithCap(chargers, zoom, s.maxNodes)
}

// ClusterWithCap is Cluster with an explicit node cap for this call.
//
// At zoom >= 14 every charger is its own node. Below that, chargers are
// grouped by greedy seed-based absorption: iterating in input order, each
// unassigned charger seeds a cluster and absorbs every later unassigned
// charger within the zoom's cluster radius of the seed. Membership is decided
// against the seed only, so two chargers can share a cluster while being
// farther than the radius from each other, and the output depends on input
// order. Every input charger lands in exactly one node.
func (s *ClusterService) ClusterWithCap(chargers []domain.Charger, zoom float64, maxNodes int) []domain.ClusterNode {
	if len(chargers) == 0 {
		return []domain.ClusterNode{}
	}
	if maxNodes <= 0 {
		maxNodes = s.maxNodes
	}

	if zoom >= noClusterZoom {
		nodes := make([]domain.ClusterNode, 0, len(chargers))
		for _, c := range chargers {
			nodes = append(nodes, singleNode(c))
		}
		return nodes
	}

	radius := clusterRadiusKm(zoom)
	nodes := greedyCluster(chargers, radius)

	// A second merge pass keeps the node count renderable: always when over
	// the cap, and preemptively at low zoom once past 75% of it.
	overCap := len(nodes) > maxNodes
	lowZoomCrowded := zoom < 12 && float64(len(nodes)) > 0.75*float64(maxNodes)
	if overCap || lowZoomCrowded {
		mergeRadius := radius * 1.2
		if zoom < 10 {
			mergeRadius = radius * 1.5
		}
		nodes = mergeNodes(nodes, mergeRadius)
	}

	return nodes
}

// greedyCluster runs the seed-based absorption pass over raw chargers.
func greedyCluster(chargers []domain.Charger, radiusKm float64) []domain.ClusterNode {
	assigned := make([]bool, len(chargers))
	var nodes []domain.ClusterNode

	for i, seed := range chargers {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		members := []domain.Charger{seed}

		for j := i + 1; j < len(chargers); j++ {
			if assigned[j] {
				continue
			}
			d := geospatial.HaversineKm(
				seed.Position.Lat, seed.Position.Lon,
				chargers[j].Position.Lat, chargers[j].Position.Lon,
			)
			if d <= radiusKm {
				assigned[j] = true
				members = append(members, chargers[j])
			}
		}

		nodes = append(nodes, buildNode(members))
	}

	return nodes
}

// mergeNodes runs seed-based absorption again, treating every existing node's
// center as a point. Re-running it on its own output with the same radius
// produces no further merges.
func mergeNodes(nodes []domain.ClusterNode, radiusKm float64) []domain.ClusterNode {
	assigned := make([]bool, len(nodes))
	var out []domain.ClusterNode

	for i, seed := range nodes {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		members := append([]domain.Charger(nil), seed.Members...)
		merged := false

		for j := i + 1; j < len(nodes); j++ {
			if assigned[j] {
				continue
			}
			d := geospatial.HaversineKm(
				seed.Center.Lat, seed.Center.Lon,
				nodes[j].Center.Lat, nodes[j].Center.Lon,
			)
			if d <= radiusKm {
				assigned[j] = true
				members = append(members, nodes[j].Members...)
				merged = true
			}
		}

		if merged {
			out = append(out, buildNode(members))
		} else {
			out = append(out, seed)
		}
	}

	return out
}

// buildNode assembles a node from its members. The center is the
// rating-weighted centroid (weight 1 for unrated chargers); when no member
// carries a rating this degenerates to the plain mean.
func buildNode(members []domain.Charger) domain.ClusterNode {
	if len(members) == 1 {
		return singleNode(members[0])
	}

	var sumLat, sumLon, sumW float64
	for _, c := range members {
		w := 1.0
		if c.Rating != nil {
			w = *c.Rating
		}
		sumLat += c.Position.Lat * w
		sumLon += c.Position.Lon * w
		sumW += w
	}
	var center domain.GeoPoint
	if sumW > 0 {
		center = domain.GeoPoint{Lat: sumLat / sumW, Lon: sumLon / sumW}
	} else {
		// All members rated exactly zero; fall back to the unweighted mean.
		for _, c := range members {
			center.Lat += c.Position.Lat
			center.Lon += c.Position.Lon
		}
		center.Lat /= float64(len(members))
		center.Lon /= float64(len(members))
	}

	return domain.ClusterNode{
		ID:      s2NodeID(center, clusterIDLevel),
		Cluster: true,
		Count:   len(members),
		Center:  center,
		Members: members,
	}
}

func singleNode(c domain.Charger) domain.ClusterNode {
	id := c.ID
	if id == "" {
		// Leaf-level cell: distinct IDs for chargers down to centimeter scale.
		ll := s2.LatLngFromDegrees(c.Position.Lat, c.Position.Lon)
		id = fmt.Sprintf("s2_%d", uint64(s2.CellIDFromLatLng(ll)))
	}
	return domain.ClusterNode{
		ID:      id,
		Cluster: false,
		Count:   1,
		Center:  c.Position,
		Members: []domain.Charger{c},
	}
}

// s2NodeID generates a stable S2-based node ID for a coordinate.
func s2NodeID(p domain.GeoPoint, level int) string {
	ll := s2.LatLngFromDegrees(p.Lat, p.Lon)
	cellID := s2.CellIDFromLatLng(ll).Parent(level)
	return fmt.Sprintf("s2_%d", uint64(cellID))
}
