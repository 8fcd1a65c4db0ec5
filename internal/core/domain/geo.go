package domain

import "fmt"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies within geographic coordinate bounds.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Validate returns ErrInvalidCoordinate (wrapped with the offending values)
// when the point is out of range.
func (p GeoPoint) Validate() error {
	if !p.Valid() {
		return fmt.Errorf("%w: (%f, %f)", ErrInvalidCoordinate, p.Lat, p.Lon)
	}
	return nil
}

// Key returns the point rounded to 6 decimal places (~0.11 m), the resolution
// at which two reported charger positions are considered the same site.
func (p GeoPoint) Key() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Contains reports whether the point lies inside the box.
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}
