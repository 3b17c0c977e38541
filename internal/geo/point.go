// Package geo handles geographic primitives shared across the panel.
package geo

import (
	"fmt"
	"math"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Validate reports whether the point is a usable WGS84 coordinate.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("point %v is not finite", p)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", p.Lon)
	}

	return nil
}

func (p Point) String() string {
	return fmt.Sprintf("%g,%g", p.Lat, p.Lon)
}
