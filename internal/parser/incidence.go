package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beetlebugorg/novasar/internal/metadata"
	"github.com/beetlebugorg/novasar/internal/tiepoint"
)

// WGS-84 ellipsoid axes in metres.
const (
	SemiMajorAxis = 6378137.0
	SemiMinorAxis = 6356752.314245
)

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// IncidenceInput holds what the incidence angle model needs.
type IncidenceInput struct {
	SceneWidth, SceneHeight int
	GridWidth, GridHeight   int

	// NearRangeIncidence is in degrees, SceneCenterLat in degrees.
	NearRangeIncidence     float64
	SceneCenterLat         float64
	RangeSpacing           float64
	SlantRangeToFirstPixel float64
	GroundRange            bool

	Descending        bool
	PointingRight     bool
	FlipToSARGeometry bool
}

// NewIncidenceInput collects the model inputs from normalized metadata.
func NewIncidenceInput(md *Metadata, sceneCenterLat, nearRange float64, gridW, gridH int, flip bool) IncidenceInput {
	return IncidenceInput{
		SceneWidth:             md.GetInt(KeyNumSamplesPerLine),
		SceneHeight:            md.GetInt(KeyNumOutputLines),
		GridWidth:              gridW,
		GridHeight:             gridH,
		NearRangeIncidence:     nearRange,
		SceneCenterLat:         sceneCenterLat,
		RangeSpacing:           md.GetFloat(KeyRangeSpacing),
		SlantRangeToFirstPixel: md.GetFloat(KeySlantRangeToFirstPixel),
		GroundRange:            md.IsGroundRange(),
		Descending:             isDescending(md),
		PointingRight:          md.GetString(KeyAntennaPointing) == "right",
		FlipToSARGeometry:      flip,
	}
}

// IncidenceAngleGrid computes the incidence angle across range on the
// WGS-84 ellipsoid at the scene centre latitude. Every grid row holds the
// same values.
func IncidenceAngleGrid(in IncidenceInput) (*tiepoint.Grid, error) {
	if in.GridWidth < 2 || in.GridHeight < 2 {
		return nil, &InvalidGeometryError{Reason: fmt.Sprintf("incidence grid %dx%d is smaller than 2x2", in.GridWidth, in.GridHeight)}
	}
	subX := int(float32(in.SceneWidth) / float32(in.GridWidth-1))
	subY := int(float32(in.SceneHeight) / float32(in.GridHeight-1))
	if subX < 1 || subY < 1 {
		return nil, &InvalidGeometryError{
			Reason: fmt.Sprintf("scene %dx%d is too small for a %dx%d incidence grid",
				in.SceneWidth, in.SceneHeight, in.GridWidth, in.GridHeight),
		}
	}

	if in.SlantRangeToFirstPixel <= 0 {
		return nil, &InvalidGeometryError{
			Reason: fmt.Sprintf("slant range to first pixel %g m is not positive", in.SlantRangeToFirstPixel),
		}
	}

	const a, b = SemiMajorAxis, SemiMinorAxis
	alpha1 := in.NearRangeIncidence * degToRad
	lambda := in.SceneCenterLat * degToRad
	cos2 := math.Cos(lambda) * math.Cos(lambda)
	sin2 := math.Sin(lambda) * math.Sin(lambda)
	e2 := (b * b) / (a * a)
	rt := a * math.Sqrt((cos2+e2*e2*sin2)/(cos2+e2*sin2))
	rt2 := rt * rt

	groundSpacing := in.RangeSpacing
	if !in.GroundRange {
		groundSpacing = in.RangeSpacing / math.Sin(alpha1)
	}
	deltaPsi := groundSpacing / rt

	r1 := in.SlantRangeToFirstPixel
	rtPlusH := math.Sqrt(rt2 + r1*r1 + 2.0*rt*r1*math.Cos(alpha1))
	rtPlusH2 := rtPlusH * rtPlusH
	theta1 := math.Acos((r1 + rt*math.Cos(alpha1)) / rtPlusH)
	psi := alpha1 - theta1

	reverse := invertedRangeOrder(in.FlipToSARGeometry, in.Descending, in.PointingRight)
	row := make([]float32, in.GridWidth)
	n := in.GridWidth * subX
	k := 0
	for i := 0; i < n; i++ {
		ri := math.Sqrt(rt2 + rtPlusH2 - 2.0*rt*rtPlusH*math.Cos(psi))
		alpha := math.Acos((rtPlusH2 - ri*ri - rt2) / (2.0 * ri * rt))
		if i%subX == 0 {
			index := k
			k++
			if reverse {
				index = in.GridWidth - 1 - index
			}
			row[index] = float32(alpha * radToDeg)
		}
		if !in.GroundRange {
			groundSpacing = in.RangeSpacing / math.Sin(alpha)
			deltaPsi = groundSpacing / rt
		}
		psi += deltaPsi
	}

	values := make([]float32, in.GridWidth*in.GridHeight)
	for j := 0; j < in.GridHeight; j++ {
		copy(values[j*in.GridWidth:], row)
	}

	g, err := tiepoint.NewGrid(GridIncidentAngle, in.GridWidth, in.GridHeight, 0, 0, float64(subX), float64(subY), values)
	if err != nil {
		return nil, &InvalidGeometryError{Reason: "incidence angle grid", Err: err}
	}
	g.Unit = "deg"
	return g, nil
}

// NearRangeIncidenceAngle returns the first IncAngleCoeffs value, the
// incidence angle at the near edge in degrees.
func NearRangeIncidenceAngle(igp *metadata.Element) (float64, error) {
	const field = "IncAngleCoeffs"
	tokens := strings.Fields(igp.AttributeString(field, ""))
	if len(tokens) == 0 {
		return 0, &MalformedCoefficientsError{Field: field}
	}
	v, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil {
		return 0, &MalformedCoefficientsError{Field: field, Token: tokens[0]}
	}
	return v, nil
}
