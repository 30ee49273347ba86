package tiepoint

import (
	"fmt"
	"math"

	"github.com/dhconnelly/rtreego"
)

// GeoPos is a geographic position in degrees.
type GeoPos struct {
	Lat, Lon float64
}

// PixelPos is a continuous raster position.
type PixelPos struct {
	X, Y float64
}

// GeoCoding maps between raster pixels and geographic positions using a pair
// of latitude/longitude tie-point grids.
//
// The geographic to pixel direction uses an R-tree over the grid cells to
// find candidate cells, then inverts the bilinear mapping inside each one.
type GeoCoding struct {
	lat, lon *Grid
	cells    *rtreego.Rtree
}

// cell is one quad of the tie-point mesh, indexed by its geographic extent.
// Longitudes of a cell crossing the antimeridian are unwrapped above 180.
type cell struct {
	i, j   int
	lat    [4]float64 // v00, v10, v01, v11
	lon    [4]float64
	bounds rtreego.Rect
}

func (c *cell) Bounds() rtreego.Rect { return c.bounds }

// NewGeoCoding builds a geocoding from matching latitude and longitude grids.
func NewGeoCoding(lat, lon *Grid) (*GeoCoding, error) {
	if lat == nil || lon == nil {
		return nil, fmt.Errorf("geocoding requires latitude and longitude grids")
	}
	if lat.Width != lon.Width || lat.Height != lon.Height {
		return nil, fmt.Errorf("%w: latitude grid %dx%d, longitude grid %dx%d",
			ErrGridSize, lat.Width, lat.Height, lon.Width, lon.Height)
	}
	if lat.Width < 2 || lat.Height < 2 {
		return nil, fmt.Errorf("%w: geocoding needs at least 2x2 tie points", ErrGridSize)
	}

	gc := &GeoCoding{lat: lat, lon: lon, cells: rtreego.NewTree(2, 25, 50)}
	for j := 0; j < lat.Height-1; j++ {
		for i := 0; i < lat.Width-1; i++ {
			gc.cells.Insert(newCell(lat, lon, i, j))
		}
	}
	return gc, nil
}

func newCell(lat, lon *Grid, i, j int) *cell {
	c := &cell{i: i, j: j}
	idx := [4][2]int{{i, j}, {i + 1, j}, {i, j + 1}, {i + 1, j + 1}}
	for k, p := range idx {
		c.lat[k] = float64(lat.Value(p[0], p[1]))
		c.lon[k] = float64(lon.Value(p[0], p[1]))
	}
	// keep the cell in one 360° window; if that pushes it below -180 shift
	// it up so the index only ever holds longitudes in [-180, 540)
	for k := 1; k < 4; k++ {
		c.lon[k] = unwrap(c.lon[k], c.lon[0])
	}
	minLon, maxLon := minMax4(c.lon)
	if minLon < -180 {
		for k := range c.lon {
			c.lon[k] += 360
		}
		minLon += 360
		maxLon += 360
	}
	minLat, maxLat := minMax4(c.lat)

	c.bounds = rect(minLon, minLat, maxLon, maxLat)
	return c
}

func rect(minX, minY, maxX, maxY float64) rtreego.Rect {
	const eps = 1e-9
	r, _ := rtreego.NewRect(rtreego.Point{minX, minY}, []float64{
		math.Max(maxX-minX, eps),
		math.Max(maxY-minY, eps),
	})
	return r
}

func minMax4(v [4]float64) (lo, hi float64) {
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return lo, hi
}

// LatGrid returns the latitude grid.
func (gc *GeoCoding) LatGrid() *Grid { return gc.lat }

// LonGrid returns the longitude grid.
func (gc *GeoCoding) LonGrid() *Grid { return gc.lon }

// GeoPos returns the geographic position of a continuous pixel coordinate.
func (gc *GeoCoding) GeoPos(p PixelPos) GeoPos {
	return GeoPos{
		Lat: gc.lat.PixelValue(p.X, p.Y),
		Lon: gc.lon.PixelValue(p.X, p.Y),
	}
}

// PixelPos returns the pixel coordinate of a geographic position. ok is false
// when the position lies outside the tie-point mesh.
func (gc *GeoCoding) PixelPos(g GeoPos) (PixelPos, bool) {
	for _, lon := range []float64{g.Lon, g.Lon + 360} {
		hits := gc.cells.SearchIntersect(rect(lon, g.Lat, lon, g.Lat))
		for _, s := range hits {
			c := s.(*cell)
			u, v, ok := invertBilinear(c, lon, g.Lat)
			if !ok {
				continue
			}
			return PixelPos{
				X: gc.lat.OffsetX + (float64(c.i)+u)*gc.lat.SubSamplingX,
				Y: gc.lat.OffsetY + (float64(c.j)+v)*gc.lat.SubSamplingY,
			}, true
		}
	}
	return PixelPos{}, false
}

// invertBilinear solves for the cell-local (u, v) that maps to (x, y) using
// Newton iterations on the bilinear map.
func invertBilinear(c *cell, x, y float64) (u, v float64, ok bool) {
	const (
		maxIter = 20
		tol     = 1e-10
		slack   = 1e-6
	)
	u, v = 0.5, 0.5
	for n := 0; n < maxIter; n++ {
		fx := bilinear(c.lon[0], c.lon[1], c.lon[2], c.lon[3], u, v) - x
		fy := bilinear(c.lat[0], c.lat[1], c.lat[2], c.lat[3], u, v) - y

		dxu := (1-v)*(c.lon[1]-c.lon[0]) + v*(c.lon[3]-c.lon[2])
		dxv := (1-u)*(c.lon[2]-c.lon[0]) + u*(c.lon[3]-c.lon[1])
		dyu := (1-v)*(c.lat[1]-c.lat[0]) + v*(c.lat[3]-c.lat[2])
		dyv := (1-u)*(c.lat[2]-c.lat[0]) + u*(c.lat[3]-c.lat[1])

		det := dxu*dyv - dxv*dyu
		if math.Abs(det) < 1e-18 {
			return 0, 0, false
		}
		du := (fx*dyv - fy*dxv) / det
		dv := (fy*dxu - fx*dyu) / det
		u -= du
		v -= dv
		if math.Abs(du) < tol && math.Abs(dv) < tol {
			break
		}
	}
	if u < -slack || u > 1+slack || v < -slack || v > 1+slack {
		return 0, 0, false
	}
	return u, v, true
}
