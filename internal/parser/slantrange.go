package parser

import (
	"fmt"

	"github.com/beetlebugorg/novasar/internal/tiepoint"
)

const (
	lightSpeed     = 299792458.0
	halfLightSpeed = lightSpeed / 2.0
	oneBillion     = 1e9
)

// SlantRangeInput holds what the slant range time model needs.
type SlantRangeInput struct {
	SceneWidth, SceneHeight int
	GridWidth, GridHeight   int

	RangeSpacing float64
	SRGR         *CoefficientSegment

	Descending        bool
	PointingRight     bool
	FlipToSARGeometry bool
}

// SlantRangeTimeGrid evaluates the quartic ground to slant range polynomial
// at every grid column and converts the range to two-way time in ns.
func SlantRangeTimeGrid(in SlantRangeInput) (*tiepoint.Grid, error) {
	if in.SRGR == nil || len(in.SRGR.Coefficients) < 5 {
		n := 0
		if in.SRGR != nil {
			n = len(in.SRGR.Coefficients)
		}
		return nil, &MalformedCoefficientsError{
			Field: "GroundToSlantRangeCoefficients",
			Index: n,
		}
	}
	if in.GridWidth < 2 || in.GridHeight < 2 {
		return nil, &InvalidGeometryError{Reason: fmt.Sprintf("slant range grid %dx%d is smaller than 2x2", in.GridWidth, in.GridHeight)}
	}
	subX := in.SceneWidth / (in.GridWidth - 1)
	subY := in.SceneHeight / (in.GridHeight - 1)
	if subX < 1 || subY < 1 {
		return nil, &InvalidGeometryError{
			Reason: fmt.Sprintf("scene %dx%d is too small for a %dx%d slant range grid",
				in.SceneWidth, in.SceneHeight, in.GridWidth, in.GridHeight),
		}
	}

	c := in.SRGR.Coefficients
	s0, s1, s2, s3, s4 := c[0], c[1], c[2], c[3], c[4]
	dist := make([]float32, in.GridWidth*in.GridHeight)
	k := 0
	for j := 0; j < in.GridHeight; j++ {
		for i := 0; i < in.GridWidth; i++ {
			g := float64(i*subX)*in.RangeSpacing - in.SRGR.Origin
			g2 := g * g
			dist[k] = float32(s0 + s1*g + s2*g2 + s3*g2*g + s4*g2*g2)
			k++
		}
	}

	reverse := invertedRangeOrder(in.FlipToSARGeometry, in.Descending, in.PointingRight)
	times := make([]float32, len(dist))
	for i, d := range dist {
		index := i
		if reverse {
			index = len(dist) - 1 - i
		}
		times[index] = float32(float64(d) / halfLightSpeed * oneBillion)
	}

	g, err := tiepoint.NewGrid(GridSlantRangeTime, in.GridWidth, in.GridHeight, 0, 0, float64(subX), float64(subY), times)
	if err != nil {
		return nil, &InvalidGeometryError{Reason: "slant range time grid", Err: err}
	}
	g.Unit = "ns"
	return g, nil
}
