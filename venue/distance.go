package venue

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinate is returned for latitude or longitude out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

const earthRadiusMiles = 3958.8

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Validate checks lat in [-90,90] and lon in [-180,180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, c.Lon)
	}
	return nil
}

// DistanceMiles is the haversine great-circle distance between a and b.
func DistanceMiles(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}
