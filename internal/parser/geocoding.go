package parser

import (
	"fmt"
	"strings"

	"github.com/beetlebugorg/novasar/internal/metadata"
	"github.com/beetlebugorg/novasar/internal/orbit"
	"github.com/beetlebugorg/novasar/internal/tiepoint"
)

// Tie-point grid names.
const (
	GridLatitude       = "latitude"
	GridLongitude      = "longitude"
	GridIncidentAngle  = "incident_angle"
	GridSlantRangeTime = "slant_range_time"
)

// FlipPolicy reorders vendor tie points into SAR geometry.
type FlipPolicy struct {
	Enabled       bool
	Ascending     bool
	PointingRight bool
}

// NewFlipPolicy derives the policy from normalized metadata.
func NewFlipPolicy(enabled bool, md *Metadata) FlipPolicy {
	return FlipPolicy{
		Enabled:       enabled,
		Ascending:     md.GetString(KeyPass) == orbit.Ascending,
		PointingRight: md.GetString(KeyAntennaPointing) == "right",
	}
}

// Apply returns values, a w×h row-major grid, flipped according to the
// policy. The input is never modified.
func (p FlipPolicy) Apply(values []float32, w, h int) []float32 {
	if !p.Enabled {
		return values
	}
	out := make([]float32, len(values))
	switch {
	case p.Ascending && p.PointingRight:
		// upside down
		for r := 0; r < h; r++ {
			is := r * w
			id := (h - r - 1) * w
			for c := 0; c < w; c++ {
				out[id+c] = values[is+c]
			}
		}
	case p.Ascending && !p.PointingRight:
		// upside down, then left to right
		for r := 0; r < h; r++ {
			is := r * w
			id := (h - r) * w
			for c := 0; c < w; c++ {
				out[id-c-1] = values[is+c]
			}
		}
	case !p.Ascending && p.PointingRight:
		// left to right
		for r := 0; r < h; r++ {
			is := r * w
			id := r*w + w
			for c := 0; c < w; c++ {
				out[id-c-1] = values[is+c]
			}
		}
	default:
		return values
	}
	return out
}

// BuildLatLonGrids reads the geographic tie points and builds the latitude
// and longitude grids covering a sceneW×sceneH raster.
func BuildLatLonGrids(geo *metadata.Element, sceneW, sceneH int, policy FlipPolicy) (lat, lon *tiepoint.Grid, err error) {
	if !geo.Has("NumberOfRangeTiepoints") || !geo.Has("NumberOfAzimuthTiepoints") {
		return nil, nil, &InvalidGeometryError{Reason: "tie-point grid dimensions are missing"}
	}
	w := geo.AttributeInt("NumberOfRangeTiepoints", 0)
	h := geo.AttributeInt("NumberOfAzimuthTiepoints", 0)
	if w < 2 || h < 2 {
		return nil, nil, &InvalidGeometryError{Reason: fmt.Sprintf("tie-point grid %dx%d is smaller than 2x2", w, h)}
	}

	var lats, lons []float32
	for _, tp := range geo.ElementsNamed("TiePoint") {
		lats = append(lats, float32(tp.AttributeDouble("latitude", 0)))
		lons = append(lons, float32(tp.AttributeDouble("longitude", 0)))
	}
	if len(lats) != w*h {
		return nil, nil, &InvalidGeometryError{
			Reason: fmt.Sprintf("expected %d tie points for a %dx%d grid, found %d", w*h, w, h, len(lats)),
		}
	}

	lats = policy.Apply(lats, w, h)
	lons = policy.Apply(lons, w, h)

	subX := float64(sceneW-1) / float64(w-1)
	subY := float64(sceneH-1) / float64(h-1)

	lat, err = tiepoint.NewGrid(GridLatitude, w, h, 0.5, 0.5, subX, subY, lats)
	if err != nil {
		return nil, nil, &InvalidGeometryError{Reason: "latitude grid", Err: err}
	}
	lat.Unit = "deg"

	lon, err = tiepoint.NewGrid(GridLongitude, w, h, 0.5, 0.5, subX, subY, lons)
	if err != nil {
		return nil, nil, &InvalidGeometryError{Reason: "longitude grid", Err: err}
	}
	lon.Unit = "deg"
	lon.Discontinuity = tiepoint.DiscontAt180

	return lat, lon, nil
}

// SceneCorners samples the grids at the centres of the four corner pixels of
// a w×h scene.
func SceneCorners(lat, lon *tiepoint.Grid, w, h int) Corners {
	return Corners{
		FirstNearLat: lat.PixelDouble(0, 0),
		FirstNearLon: lon.PixelDouble(0, 0),
		FirstFarLat:  lat.PixelDouble(w-1, 0),
		FirstFarLon:  lon.PixelDouble(w-1, 0),
		LastNearLat:  lat.PixelDouble(0, h-1),
		LastNearLon:  lon.PixelDouble(0, h-1),
		LastFarLat:   lat.PixelDouble(w-1, h-1),
		LastFarLon:   lon.PixelDouble(w-1, h-1),
	}
}

// SceneCenter returns the geographic position of the scene centre.
func SceneCenter(gc *tiepoint.GeoCoding, w, h int) tiepoint.GeoPos {
	return gc.GeoPos(tiepoint.PixelPos{X: float64(w) / 2.0, Y: float64(h) / 2.0})
}

// invertedRangeOrder reports whether range-dependent grids must be stored
// far range first. The condition is the inverse of the lat/lon flip table
// and applies only when geometry is not flipped.
func invertedRangeOrder(flip, descending, pointingRight bool) bool {
	return !flip && ((descending && pointingRight) || (!descending && !pointingRight))
}

func isDescending(md *Metadata) bool {
	return strings.EqualFold(md.GetString(KeyPass), orbit.Descending)
}
