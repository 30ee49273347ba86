package parser

import (
	"fmt"
)

// UnsupportedFormatError indicates a raster container other than GeoTIFF
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("NovaSAR %q format is not supported by this reader", e.Format)
}

// MalformedCoefficientsError indicates a non-numeric token in a coefficient string
type MalformedCoefficientsError struct {
	Field string
	Token string
	Index int
}

func (e *MalformedCoefficientsError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("malformed coefficients in %s: missing value", e.Field)
	}
	return fmt.Sprintf("malformed coefficients in %s: token %d %q is not a number", e.Field, e.Index, e.Token)
}

// InvalidGeometryError indicates tie points or dimensions that cannot form a grid
type InvalidGeometryError struct {
	Reason string
	Err    error
}

func (e *InvalidGeometryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid geometry: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid geometry: %s", e.Reason)
}

func (e *InvalidGeometryError) Unwrap() error { return e.Err }

// MissingFieldError indicates a required vendor field with no usable default
type MissingFieldError struct {
	Section string
	Field   string
}

func (e *MissingFieldError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("missing required field %s", e.Field)
	}
	return fmt.Sprintf("missing required field %s/%s", e.Section, e.Field)
}

// InvalidCoordinateError indicates a tie point outside valid geographic bounds
type InvalidCoordinateError struct {
	Lat, Lon float64
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate: lat=%f lon=%f (lat must be ±90, lon must be ±180)",
		e.Lat, e.Lon)
}
