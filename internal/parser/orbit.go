package parser

import (
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/beetlebugorg/novasar/internal/metadata"
	"github.com/beetlebugorg/novasar/internal/orbit"
)

// DopplerSlantRangeTimeReference is the slant-range-time reference (ns) of
// the Doppler centroid segment. NovaSAR metadata carries no reference, so it
// is always zero.
const DopplerSlantRangeTimeReference = 0.0

// IngestOrbit reads NumberOfStateVectorSets state vectors from the first
// child elements of the OrbitData section, in vendor order.
func IngestOrbit(md *Metadata, orbitData *metadata.Element) error {
	count := orbitData.AttributeInt("NumberOfStateVectorSets", 0)
	if count <= 0 {
		return nil
	}
	children := orbitData.Elements()
	if len(children) < count {
		return &MissingFieldError{
			Section: SectionOrbitData,
			Field:   fmt.Sprintf("state vector %d of %d", len(children)+1, count),
		}
	}

	vectors := make([]orbit.StateVector, 0, count)
	for _, elem := range children[:count] {
		vectors = append(vectors, orbit.StateVector{
			Time: elem.AttributeTime("Time", NoMetadataUTC),
			Position: r3.Vec{
				X: elem.AttributeDouble("xPosition", 0),
				Y: elem.AttributeDouble("yPosition", 0),
				Z: elem.AttributeDouble("zPosition", 0),
			},
			Velocity: r3.Vec{
				X: elem.AttributeDouble("xVelocity", 0),
				Y: elem.AttributeDouble("yVelocity", 0),
				Z: elem.AttributeDouble("zVelocity", 0),
			},
		})
	}
	md.OrbitStateVectors = vectors

	if md.IsDefault(KeyStateVectorTime) {
		md.SetTime(KeyStateVectorTime, vectors[0].Time)
	}
	return nil
}

// IngestSRGR reads the ground to slant range polynomial. Slant-range products
// have none and yield nil.
func IngestSRGR(productType string, igp *metadata.Element) (*CoefficientSegment, error) {
	if !isGroundRangeType(strings.ToUpper(productType)) {
		return nil, nil
	}
	coeffs, err := parseCoefficients("GroundToSlantRangeCoefficients", igp.AttributeString("GroundToSlantRangeCoefficients", ""))
	if err != nil {
		return nil, err
	}
	return &CoefficientSegment{
		Kind:         SRGRCoefficients,
		Time:         igp.AttributeTime("ZeroDopplerTimeFirstLine", NoMetadataUTC),
		Origin:       0.0,
		Coefficients: coeffs,
	}, nil
}

// IngestDoppler reads the Doppler centroid coefficients, valid from the
// first line time.
func IngestDoppler(igp *metadata.Element) (*CoefficientSegment, error) {
	coeffs, err := parseCoefficients("DopplerCentroid", igp.AttributeString("DopplerCentroid", ""))
	if err != nil {
		return nil, err
	}
	return &CoefficientSegment{
		Kind:         DopplerCoefficients,
		Time:         igp.AttributeTime("ZeroDopplerTimeFirstLine", NoMetadataUTC),
		Origin:       DopplerSlantRangeTimeReference,
		Coefficients: coeffs,
	}, nil
}

// parseCoefficients splits a whitespace-delimited list of numbers.
func parseCoefficients(field, s string) ([]float64, error) {
	tokens := strings.Fields(s)
	coeffs := make([]float64, 0, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, &MalformedCoefficientsError{Field: field, Token: tok, Index: i}
		}
		coeffs = append(coeffs, v)
	}
	return coeffs, nil
}

// Evaluate returns the polynomial value at x relative to the segment origin.
func (s *CoefficientSegment) Evaluate(x float64) float64 {
	g := x - s.Origin
	var sum float64
	for i := len(s.Coefficients) - 1; i >= 0; i-- {
		sum = sum*g + s.Coefficients[i]
	}
	return sum
}
