// Package tiepoint implements sparse tie-point grids over a raster scene and
// the geocoding built on top of latitude/longitude grids.
//
// A grid samples a quantity at regularly spaced raster positions: grid node
// (i, j) lies at pixel coordinate (OffsetX + i*SubSamplingX,
// OffsetY + j*SubSamplingY). Values between nodes are obtained by bilinear
// interpolation.
package tiepoint

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Discontinuity describes how a grid's values wrap.
type Discontinuity int

const (
	// DiscontNone means the values are continuous.
	DiscontNone Discontinuity = iota
	// DiscontAt180 means the values are longitudes wrapping at ±180°.
	DiscontAt180
)

// ErrGridSize is returned when the number of values does not match the grid
// dimensions.
var ErrGridSize = errors.New("tie-point grid size mismatch")

// Grid is a named tie-point grid. Values are stored row-major.
type Grid struct {
	Name          string
	Width         int
	Height        int
	OffsetX       float64
	OffsetY       float64
	SubSamplingX  float64
	SubSamplingY  float64
	Values        []float32
	Unit          string
	Discontinuity Discontinuity
}

// NewGrid validates the dimensions and returns a grid. The values slice is
// retained.
func NewGrid(name string, width, height int, offsetX, offsetY, subX, subY float64, values []float32) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %s has dimensions %dx%d", ErrGridSize, name, width, height)
	}
	if len(values) != width*height {
		return nil, fmt.Errorf("%w: %s expects %d values, got %d", ErrGridSize, name, width*height, len(values))
	}
	return &Grid{
		Name:         name,
		Width:        width,
		Height:       height,
		OffsetX:      offsetX,
		OffsetY:      offsetY,
		SubSamplingX: subX,
		SubSamplingY: subY,
		Values:       values,
	}, nil
}

// Value returns the node value at grid index (i, j).
func (g *Grid) Value(i, j int) float32 {
	return g.Values[j*g.Width+i]
}

// PixelValue returns the bilinearly interpolated value at continuous pixel
// coordinate (x, y). Coordinates outside the grid extrapolate from the edge
// cell.
func (g *Grid) PixelValue(x, y float64) float64 {
	fi := g.gridX(x)
	fj := g.gridY(y)
	i0, wi := split(fi, g.Width)
	j0, wj := split(fj, g.Height)
	i1 := min(i0+1, g.Width-1)
	j1 := min(j0+1, g.Height-1)

	v00 := float64(g.Value(i0, j0))
	v10 := float64(g.Value(i1, j0))
	v01 := float64(g.Value(i0, j1))
	v11 := float64(g.Value(i1, j1))

	if g.Discontinuity == DiscontAt180 {
		return interpolateLon(v00, v10, v01, v11, wi, wj)
	}
	return bilinear(v00, v10, v01, v11, wi, wj)
}

// PixelDouble returns the value at the centre of pixel (x, y).
func (g *Grid) PixelDouble(x, y int) float64 {
	return g.PixelValue(float64(x)+0.5, float64(y)+0.5)
}

// PixelRow fills dst with values sampled at the centres of pixels
// [x0, x0+len(dst)) on row y.
func (g *Grid) PixelRow(dst []float64, x0, y int) {
	for k := range dst {
		dst[k] = g.PixelDouble(x0+k, y)
	}
}

// MinMax returns the smallest and largest node values.
func (g *Grid) MinMax() (lo, hi float64) {
	vals := make([]float64, len(g.Values))
	for i, v := range g.Values {
		vals[i] = float64(v)
	}
	if len(vals) == 0 {
		return 0, 0
	}
	return floats.Min(vals), floats.Max(vals)
}

// SceneSize returns the raster extent covered by the grid's nodes.
func (g *Grid) SceneSize() (width, height float64) {
	return g.OffsetX + float64(g.Width-1)*g.SubSamplingX + 0.5,
		g.OffsetY + float64(g.Height-1)*g.SubSamplingY + 0.5
}

func (g *Grid) gridX(x float64) float64 {
	if g.SubSamplingX == 0 {
		return 0
	}
	return (x - g.OffsetX) / g.SubSamplingX
}

func (g *Grid) gridY(y float64) float64 {
	if g.SubSamplingY == 0 {
		return 0
	}
	return (y - g.OffsetY) / g.SubSamplingY
}

// split turns a fractional grid coordinate into the lower node of the
// enclosing cell and the weight of the upper node. Outside the grid the edge
// cell is used, so the weight may fall outside [0, 1].
func split(f float64, n int) (int, float64) {
	if n < 2 {
		return 0, 0
	}
	i := int(math.Floor(f))
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	return i, f - float64(i)
}

func bilinear(v00, v10, v01, v11, wi, wj float64) float64 {
	return (1-wj)*((1-wi)*v00+wi*v10) + wj*((1-wi)*v01+wi*v11)
}

// interpolateLon interpolates longitudes across the antimeridian by moving
// every corner into the same 360° window before blending.
func interpolateLon(v00, v10, v01, v11, wi, wj float64) float64 {
	ref := v00
	v10 = unwrap(v10, ref)
	v01 = unwrap(v01, ref)
	v11 = unwrap(v11, ref)
	return NormalizeLon(bilinear(v00, v10, v01, v11, wi, wj))
}

func unwrap(v, ref float64) float64 {
	for v-ref > 180 {
		v -= 360
	}
	for v-ref < -180 {
		v += 360
	}
	return v
}

// NormalizeLon maps a longitude into [-180, 180].
func NormalizeLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
