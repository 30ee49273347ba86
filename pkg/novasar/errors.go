package novasar

import (
	"github.com/beetlebugorg/novasar/internal/parser"
	"github.com/beetlebugorg/novasar/internal/raster"
)

// Errors returned by Open and ReadBand. Match them with errors.As.
type (
	// UnsupportedFormatError is returned for containers other than GeoTIFF
	// and for unrecognized product paths.
	UnsupportedFormatError = parser.UnsupportedFormatError

	// MalformedCoefficientsError is returned when a polynomial coefficient
	// list cannot be parsed.
	MalformedCoefficientsError = parser.MalformedCoefficientsError

	// InvalidGeometryError is returned for inconsistent tie points or image
	// geometry.
	InvalidGeometryError = parser.InvalidGeometryError

	// MissingFieldError is returned when a required metadata field is
	// absent.
	MissingFieldError = parser.MissingFieldError

	InvalidCoordinateError = parser.InvalidCoordinateError

	// DecodeError is returned when a raster window cannot be decoded.
	DecodeError = raster.DecodeError
)
