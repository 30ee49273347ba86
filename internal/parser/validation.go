package parser

import (
	"fmt"

	"github.com/beetlebugorg/novasar/internal/tiepoint"
)

// ValidateCoordinate validates a single coordinate pair
func ValidateCoordinate(lat, lon float64) error {
	if lat < -90.0 || lat > 90.0 {
		return &InvalidCoordinateError{Lat: lat, Lon: lon}
	}
	if lon < -180.0 || lon > 180.0 {
		return &InvalidCoordinateError{Lat: lat, Lon: lon}
	}
	return nil
}

// ValidateTiePoints checks every node of a latitude/longitude grid pair.
func ValidateTiePoints(lat, lon *tiepoint.Grid) error {
	if lat == nil || lon == nil {
		return &InvalidGeometryError{Reason: "latitude/longitude grids are missing"}
	}
	if len(lat.Values) != len(lon.Values) {
		return &InvalidGeometryError{Reason: fmt.Sprintf("latitude grid has %d tie points, longitude grid %d",
			len(lat.Values), len(lon.Values))}
	}
	for i := range lat.Values {
		if err := ValidateCoordinate(float64(lat.Values[i]), float64(lon.Values[i])); err != nil {
			return &InvalidGeometryError{Reason: fmt.Sprintf("tie point %d", i), Err: err}
		}
	}
	return nil
}
