package novasar

import (
	"github.com/beetlebugorg/novasar/internal/orbit"
	"github.com/beetlebugorg/novasar/internal/parser"
	"github.com/beetlebugorg/novasar/internal/raster"
	"github.com/beetlebugorg/novasar/internal/tiepoint"
)

// Metadata is the normalized product metadata. Every key always holds a
// value; absent vendor fields keep documented defaults.
type Metadata = parser.Metadata

// Key names a normalized metadata attribute.
type Key = parser.Key

// Value is a typed metadata value.
type Value = parser.Value

// CoefficientSegment is a polynomial coefficient set (SRGR or Doppler).
type CoefficientSegment = parser.CoefficientSegment

// CalibrationLUT is a radiometric calibration look-up table.
type CalibrationLUT = parser.CalibrationLUT

// StateVector is one orbit position/velocity sample.
type StateVector = orbit.StateVector

// TiePointGrid is a sparse grid of values over the raster.
type TiePointGrid = tiepoint.Grid

// GeoCoding maps between pixels and geographic positions.
type GeoCoding = tiepoint.GeoCoding

// GeoPos is a geographic position in degrees.
type GeoPos = tiepoint.GeoPos

// PixelPos is a continuous raster position.
type PixelPos = tiepoint.PixelPos

// Window is a rectangular pixel region.
type Window = raster.Window

// Frequently used metadata keys.
const (
	KeyProduct          = parser.KeyProduct
	KeyProductType      = parser.KeyProductType
	KeyMission          = parser.KeyMission
	KeyAcquisitionMode  = parser.KeyAcquisitionMode
	KeyPass             = parser.KeyPass
	KeyAntennaPointing  = parser.KeyAntennaPointing
	KeySampleType       = parser.KeySampleType
	KeyFirstLineTime    = parser.KeyFirstLineTime
	KeyLastLineTime     = parser.KeyLastLineTime
	KeyLineTimeInterval = parser.KeyLineTimeInterval
	KeyRangeSpacing     = parser.KeyRangeSpacing
	KeyAzimuthSpacing   = parser.KeyAzimuthSpacing
	KeyRadarFrequency   = parser.KeyRadarFrequency
	KeySRGRFlag         = parser.KeySRGRFlag
	KeyCentreLat        = parser.KeyCentreLat
	KeyCentreLon        = parser.KeyCentreLon
	KeyIncidenceNear    = parser.KeyIncidenceNear
	KeyIncidenceFar     = parser.KeyIncidenceFar
)

// Tie-point grid names.
const (
	GridLatitude       = parser.GridLatitude
	GridLongitude      = parser.GridLongitude
	GridIncidentAngle  = parser.GridIncidentAngle
	GridSlantRangeTime = parser.GridSlantRangeTime
)
