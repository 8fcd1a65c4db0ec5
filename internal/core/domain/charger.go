package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Availability is the reported occupancy state of a charging station.
// Providers that do not report availability yield AvailabilityUnknown.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
	AvailabilityUnknown     Availability = "unknown"
)

// Charger is a charging station as returned by a POI search provider.
// It is a read-only snapshot valid for the duration of one planning or map
// operation; there is no persistence and no identity beyond position plus
// provider ID.
type Charger struct {
	ID           string       `json:"id"` // provider ID, or derived from position
	ProviderID   string       `json:"provider_id,omitempty"`
	Name         string       `json:"name"`
	Operator     string       `json:"operator,omitempty"`
	Address      string       `json:"address,omitempty"`
	Position     GeoPoint     `json:"position"`
	PowerKW      *float64     `json:"power_kw,omitempty"`
	Rating       *float64     `json:"rating,omitempty"` // 0..5
	Availability Availability `json:"availability"`
	Categories   []string     `json:"categories,omitempty"`
	Connectors   []Connector  `json:"connectors,omitempty"`
}

// Connector is a single plug on a charging station.
type Connector struct {
	Type      string  `json:"type"`
	PowerKW   float64 `json:"power_kw"`
	Available int     `json:"available"`
}

// SearchFilters narrows a charger search. Zero values mean "no filter".
type SearchFilters struct {
	ConnectorSet string   `json:"connector_set,omitempty"`
	MinPowerKW   float64  `json:"min_power_kw,omitempty"`
	MinRating    float64  `json:"min_rating,omitempty"`
	Operator     string   `json:"operator,omitempty"`
	Amenities    []string `json:"amenities,omitempty"`
}

// Fingerprint renders the filters as a short stable string for use in cache
// keys. Equal filters always produce the same fingerprint; amenity order does
// not matter.
func (f SearchFilters) Fingerprint() string {
	amenities := append([]string(nil), f.Amenities...)
	sort.Strings(amenities)
	return fmt.Sprintf("%s|%.1f|%.1f|%s|%s",
		f.ConnectorSet, f.MinPowerKW, f.MinRating, f.Operator, strings.Join(amenities, ","))
}

// DedupeChargers collapses duplicate search results. Repeated and overlapping
// provider queries return the same physical station many times; two entries
// are duplicates when they share a provider ID or their coordinates round to
// the same value at 6 decimal places. The first-seen instance is kept, so the
// result is deterministic for a stable input order.
func DedupeChargers(chargers []Charger) []Charger {
	seen := make(map[string]struct{}, len(chargers))
	out := make([]Charger, 0, len(chargers))

	for _, c := range chargers {
		key := c.Position.Key()
		if c.ProviderID != "" {
			if _, dup := seen["id:"+c.ProviderID]; dup {
				continue
			}
		}
		if _, dup := seen["pos:"+key]; dup {
			continue
		}
		if c.ProviderID != "" {
			seen["id:"+c.ProviderID] = struct{}{}
		}
		seen["pos:"+key] = struct{}{}
		out = append(out, c)
	}
	return out
}
