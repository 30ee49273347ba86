package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beetlebugorg/novasar/internal/metadata"
)

// Calibration LUT names, also the base names of their files.
const (
	LUTSigma = "lutSigma"
	LUTGamma = "lutGamma"
	LUTBeta  = "lutBeta"
)

// LUTNames lists the calibration LUTs in the order they are read.
var LUTNames = []string{LUTSigma, LUTGamma, LUTBeta}

// CalibrationLUT is a radiometric calibration look-up table: a scalar offset
// and one gain per range sample.
type CalibrationLUT struct {
	Name   string
	Offset float64
	Gains  []float64
}

// ParseLUT reads a calibration LUT document.
func ParseLUT(name string, r io.Reader) (*CalibrationLUT, error) {
	root, err := metadata.LoadXML(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}

	offsetStr, ok := root.Lookup("offset")
	if !ok {
		return nil, &MissingFieldError{Section: name, Field: "offset"}
	}
	offset, err := strconv.ParseFloat(strings.TrimSpace(offsetStr), 64)
	if err != nil {
		return nil, &MalformedCoefficientsError{Field: name + "/offset", Token: strings.TrimSpace(offsetStr)}
	}

	gainsStr, ok := root.Lookup("gains")
	if !ok {
		return nil, &MissingFieldError{Section: name, Field: "gains"}
	}
	tokens := strings.Fields(gainsStr)
	gains := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			// gains end at the first non-numeric token
			break
		}
		gains = append(gains, v)
	}

	return &CalibrationLUT{Name: name, Offset: offset, Gains: gains}, nil
}

// Element returns the LUT as a metadata element carrying offset and gains
// attributes.
func (l *CalibrationLUT) Element() *metadata.Element {
	e := metadata.NewElement(l.Name)
	e.SetAttribute("offset", strconv.FormatFloat(l.Offset, 'g', -1, 64))
	e.SetDoubles("gains", l.Gains)
	return e
}

// LUTFileNames returns the file names probed for a LUT, in order.
func LUTFileNames(name string) []string {
	return []string{name + ".xml", strings.ToLower(name) + ".xml"}
}
