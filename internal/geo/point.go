package geo

import (
	"encoding/json"
	"fmt"
)

// Point is a WGS84 coordinate pair. It serializes as a two-element
// [longitude, latitude] array, GeoJSON order.
type Point struct {
	Lat float64
	Lng float64
}

// MarshalJSON renders the point as [longitude, latitude].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.Lng, p.Lat})
}

// UnmarshalJSON parses a [longitude, latitude] array.
func (p *Point) UnmarshalJSON(b []byte) error {
	var a [2]float64
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	p.Lng, p.Lat = a[0], a[1]
	return nil
}

// Validate checks the point is a real coordinate.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude %v out of range", p.Lng)
	}
	return nil
}

// DistanceTo returns the haversine distance in kilometers to another point.
func (p Point) DistanceTo(other Point) float64 {
	return DistanceKm(p.Lat, p.Lng, other.Lat, other.Lng)
}
