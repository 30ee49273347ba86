package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beetlebugorg/novasar/internal/orbit"
)

// Sentinels used when a vendor field is absent.
const (
	NoMetadataString = " "
	NoMetadata       = 99999
)

// NoMetadataUTC is the sentinel time.
var NoMetadataUTC = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Key names a normalized metadata attribute.
type Key string

// Normalized metadata keys.
const (
	KeyProduct                    Key = "PRODUCT"
	KeyProductType                Key = "PRODUCT_TYPE"
	KeySPHDescriptor              Key = "SPH_DESCRIPTOR"
	KeyMission                    Key = "MISSION"
	KeyAcquisitionMode            Key = "ACQUISITION_MODE"
	KeyAntennaPointing            Key = "antenna_pointing"
	KeyBeams                      Key = "BEAMS"
	KeySwath                      Key = "SWATH"
	KeyProcTime                   Key = "PROC_TIME"
	KeyProcessingSystemIdentifier Key = "Processing_system_identifier"
	KeyDataTakeID                 Key = "data_take_id"
	KeyPass                       Key = "PASS"
	KeySampleType                 Key = "SAMPLE_TYPE"
	KeyMDS1TxRxPolar              Key = "mds1_tx_rx_polar"
	KeyMDS2TxRxPolar              Key = "mds2_tx_rx_polar"
	KeyMDS3TxRxPolar              Key = "mds3_tx_rx_polar"
	KeyMDS4TxRxPolar              Key = "mds4_tx_rx_polar"
	KeyPolsarData                 Key = "polsarData"
	KeyCompactMode                Key = "compact_mode"
	KeyAlgorithm                  Key = "algorithm"
	KeyGeoRefSystem               Key = "geo_ref_system"
	KeyFirstLineTime              Key = "first_line_time"
	KeyLastLineTime               Key = "last_line_time"
	KeyLineTimeInterval           Key = "line_time_interval"
	KeyNumOutputLines             Key = "num_output_lines"
	KeyNumSamplesPerLine          Key = "num_samples_per_line"
	KeyRangeLooks                 Key = "range_looks"
	KeyAzimuthLooks               Key = "azimuth_looks"
	KeyMultilookFlag              Key = "multilook_flag"
	KeyRangeSpacing               Key = "range_spacing"
	KeyAzimuthSpacing             Key = "azimuth_spacing"
	KeySlantRangeToFirstPixel     Key = "slant_range_to_first_pixel"
	KeyRangeBandwidth             Key = "range_bandwidth"
	KeyAzimuthBandwidth           Key = "azimuth_bandwidth"
	KeyRadarFrequency             Key = "radar_frequency"
	KeyRangeSamplingRate          Key = "range_sampling_rate"
	KeyPulseRepetitionFrequency   Key = "pulse_repetition_frequency"
	KeyAvgSceneHeight             Key = "avg_scene_height"
	KeySRGRFlag                   Key = "srgr_flag"
	KeyAbsCalibrationFlag         Key = "abs_calibration_flag"
	KeyCalibrationFactor          Key = "calibration_factor"
	KeyIncAngleCompFlag           Key = "inc_angle_comp_flag"
	KeyAntElevCorrFlag            Key = "ant_elev_corr_flag"
	KeyRangeSpreadCompFlag        Key = "range_spread_comp_flag"
	KeyReplicaPowerCorrFlag       Key = "replica_power_corr_flag"
	KeyOrbitStateVectorFile       Key = "orbit_state_vector_file"
	KeyVectorSource               Key = "VECTOR_SOURCE"
	KeyStateVectorTime            Key = "STATE_VECTOR_TIME"
	KeyFirstNearLat               Key = "first_near_lat"
	KeyFirstNearLong              Key = "first_near_long"
	KeyFirstFarLat                Key = "first_far_lat"
	KeyFirstFarLong               Key = "first_far_long"
	KeyLastNearLat                Key = "last_near_lat"
	KeyLastNearLong               Key = "last_near_long"
	KeyLastFarLat                 Key = "last_far_lat"
	KeyLastFarLong                Key = "last_far_long"
	KeyCentreLat                  Key = "centre_lat"
	KeyCentreLon                  Key = "centre_lon"
	KeyIncidenceNear              Key = "incidence_near"
	KeyIncidenceFar               Key = "incidence_far"
)

// polarTags are the polarization keys filled in vendor image order.
var polarTags = []Key{KeyMDS1TxRxPolar, KeyMDS2TxRxPolar, KeyMDS3TxRxPolar, KeyMDS4TxRxPolar}

// Kind is the type of a normalized value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	}
	return "unknown"
}

// Value is a typed normalized attribute value.
type Value struct {
	Kind  Kind
	Str   string
	Int   int
	Float float64
	Time  time.Time
	Unit  string
}

// String formats the value for display.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindTime:
		return v.Time.Format("2006-01-02 15:04:05.000000")
	}
	return v.Str
}

type keySpec struct {
	key  Key
	def  Value
	unit string
}

func str(k Key) keySpec { return keySpec{key: k, def: Value{Kind: KindString, Str: NoMetadataString}} }
func utc(k Key) keySpec { return keySpec{key: k, def: Value{Kind: KindTime, Time: NoMetadataUTC}, unit: "utc"} }

func integer(k Key, def int) keySpec {
	return keySpec{key: k, def: Value{Kind: KindInt, Int: def}}
}

func float(k Key, def float64, unit string) keySpec {
	return keySpec{key: k, def: Value{Kind: KindFloat, Float: def}, unit: unit}
}

// keyTable lists every normalized key, its kind, default and unit, in
// display order.
var keyTable = []keySpec{
	str(KeyProduct),
	str(KeyProductType),
	str(KeySPHDescriptor),
	str(KeyMission),
	str(KeyAcquisitionMode),
	str(KeyAntennaPointing),
	str(KeyBeams),
	str(KeySwath),
	utc(KeyProcTime),
	str(KeyProcessingSystemIdentifier),
	integer(KeyDataTakeID, NoMetadata),
	str(KeyPass),
	str(KeySampleType),
	str(KeyMDS1TxRxPolar),
	str(KeyMDS2TxRxPolar),
	str(KeyMDS3TxRxPolar),
	str(KeyMDS4TxRxPolar),
	integer(KeyPolsarData, 0),
	str(KeyCompactMode),
	str(KeyAlgorithm),
	str(KeyGeoRefSystem),
	utc(KeyFirstLineTime),
	utc(KeyLastLineTime),
	float(KeyLineTimeInterval, 0, "s"),
	integer(KeyNumOutputLines, NoMetadata),
	integer(KeyNumSamplesPerLine, NoMetadata),
	integer(KeyRangeLooks, 1),
	integer(KeyAzimuthLooks, 1),
	integer(KeyMultilookFlag, 0),
	float(KeyRangeSpacing, 0, "m"),
	float(KeyAzimuthSpacing, 0, "m"),
	float(KeySlantRangeToFirstPixel, 0, "m"),
	float(KeyRangeBandwidth, NoMetadata, "MHz"),
	float(KeyAzimuthBandwidth, NoMetadata, "Hz"),
	float(KeyRadarFrequency, NoMetadata, "MHz"),
	float(KeyRangeSamplingRate, 99999.9, "MHz"),
	float(KeyPulseRepetitionFrequency, NoMetadata, "Hz"),
	float(KeyAvgSceneHeight, NoMetadata, "m"),
	integer(KeySRGRFlag, 0),
	integer(KeyAbsCalibrationFlag, 0),
	float(KeyCalibrationFactor, 1.0, ""),
	integer(KeyIncAngleCompFlag, 0),
	integer(KeyAntElevCorrFlag, 0),
	integer(KeyRangeSpreadCompFlag, 0),
	integer(KeyReplicaPowerCorrFlag, 0),
	str(KeyOrbitStateVectorFile),
	str(KeyVectorSource),
	utc(KeyStateVectorTime),
	float(KeyFirstNearLat, NoMetadata, "deg"),
	float(KeyFirstNearLong, NoMetadata, "deg"),
	float(KeyFirstFarLat, NoMetadata, "deg"),
	float(KeyFirstFarLong, NoMetadata, "deg"),
	float(KeyLastNearLat, NoMetadata, "deg"),
	float(KeyLastNearLong, NoMetadata, "deg"),
	float(KeyLastFarLat, NoMetadata, "deg"),
	float(KeyLastFarLong, NoMetadata, "deg"),
	float(KeyCentreLat, NoMetadata, "deg"),
	float(KeyCentreLon, NoMetadata, "deg"),
	float(KeyIncidenceNear, NoMetadata, "deg"),
	float(KeyIncidenceFar, NoMetadata, "deg"),
}

// CoefficientKind tags a coefficient segment.
type CoefficientKind int

const (
	SRGRCoefficients CoefficientKind = iota
	DopplerCoefficients
)

func (k CoefficientKind) String() string {
	if k == DopplerCoefficients {
		return "Doppler"
	}
	return "SRGR"
}

// CoefficientSegment is a polynomial coefficient set valid from Time.
//
// For SRGR segments Origin is the ground-range origin in metres; for Doppler
// segments it is the slant-range-time reference in nanoseconds.
type CoefficientSegment struct {
	Kind         CoefficientKind
	Time         time.Time
	Origin       float64
	Coefficients []float64
}

// Metadata is the normalized attribute set of a product. Every key of the
// key table always has a value.
type Metadata struct {
	values map[Key]Value

	// OrbitStateVectors are in vendor order.
	OrbitStateVectors []orbit.StateVector
	// SRGR is nil for slant-range products.
	SRGR    *CoefficientSegment
	Doppler *CoefficientSegment
}

// NewMetadata returns metadata with every key set to its default.
func NewMetadata() *Metadata {
	m := &Metadata{values: make(map[Key]Value, len(keyTable))}
	for _, ks := range keyTable {
		v := ks.def
		v.Unit = ks.unit
		m.values[ks.key] = v
	}
	return m
}

// Keys returns all keys in display order.
func (m *Metadata) Keys() []Key {
	keys := make([]Key, len(keyTable))
	for i, ks := range keyTable {
		keys[i] = ks.key
	}
	return keys
}

// Get returns the value stored for k.
func (m *Metadata) Get(k Key) (Value, bool) {
	v, ok := m.values[k]
	return v, ok
}

// IsDefault reports whether k still holds its documented default.
func (m *Metadata) IsDefault(k Key) bool {
	for _, ks := range keyTable {
		if ks.key != k {
			continue
		}
		v := m.values[k]
		switch v.Kind {
		case KindString:
			return v.Str == ks.def.Str
		case KindInt:
			return v.Int == ks.def.Int
		case KindFloat:
			return v.Float == ks.def.Float
		case KindTime:
			return v.Time.Equal(ks.def.Time)
		}
	}
	return false
}

func (m *Metadata) GetString(k Key) string     { return m.values[k].Str }
func (m *Metadata) GetInt(k Key) int           { return m.values[k].Int }
func (m *Metadata) GetFloat(k Key) float64     { return m.values[k].Float }
func (m *Metadata) GetTime(k Key) time.Time    { return m.values[k].Time }
func (m *Metadata) SetString(k Key, s string)  { m.set(k, Value{Kind: KindString, Str: s}) }
func (m *Metadata) SetInt(k Key, n int)        { m.set(k, Value{Kind: KindInt, Int: n}) }
func (m *Metadata) SetFloat(k Key, f float64)  { m.set(k, Value{Kind: KindFloat, Float: f}) }
func (m *Metadata) SetTime(k Key, t time.Time) { m.set(k, Value{Kind: KindTime, Time: t.UTC()}) }

func (m *Metadata) set(k Key, v Value) {
	v.Unit = m.values[k].Unit
	m.values[k] = v
}

// IsSLC reports whether the product type is single-look complex.
func (m *Metadata) IsSLC() bool {
	return strings.Contains(m.GetString(KeyProductType), "SLC")
}

// IsGroundRange reports whether the product is in ground-range geometry.
func (m *Metadata) IsGroundRange() bool {
	return m.GetInt(KeySRGRFlag) == 1
}

// Polarizations returns the polarization codes recorded in the mdsN keys.
func (m *Metadata) Polarizations() []string {
	var pols []string
	for _, k := range polarTags {
		if p := m.GetString(k); p != NoMetadataString && p != "" {
			pols = append(pols, p)
		}
	}
	return pols
}

// Corners holds the geographic position of the four scene corners.
type Corners struct {
	FirstNearLat, FirstNearLon float64
	FirstFarLat, FirstFarLon   float64
	LastNearLat, LastNearLon   float64
	LastFarLat, LastFarLon     float64
}

// SetCorners records scene corners.
func (m *Metadata) SetCorners(c Corners) {
	m.SetFloat(KeyFirstNearLat, c.FirstNearLat)
	m.SetFloat(KeyFirstNearLong, c.FirstNearLon)
	m.SetFloat(KeyFirstFarLat, c.FirstFarLat)
	m.SetFloat(KeyFirstFarLong, c.FirstFarLon)
	m.SetFloat(KeyLastNearLat, c.LastNearLat)
	m.SetFloat(KeyLastNearLong, c.LastNearLon)
	m.SetFloat(KeyLastFarLat, c.LastFarLat)
	m.SetFloat(KeyLastFarLong, c.LastFarLon)
}

// Corners returns the recorded scene corners.
func (m *Metadata) Corners() Corners {
	return Corners{
		FirstNearLat: m.GetFloat(KeyFirstNearLat),
		FirstNearLon: m.GetFloat(KeyFirstNearLong),
		FirstFarLat:  m.GetFloat(KeyFirstFarLat),
		FirstFarLon:  m.GetFloat(KeyFirstFarLong),
		LastNearLat:  m.GetFloat(KeyLastNearLat),
		LastNearLon:  m.GetFloat(KeyLastNearLong),
		LastFarLat:   m.GetFloat(KeyLastFarLat),
		LastFarLon:   m.GetFloat(KeyLastFarLong),
	}
}

// Dump formats all keys as "key = value unit" lines.
func (m *Metadata) Dump() string {
	var b strings.Builder
	for _, k := range m.Keys() {
		v := m.values[k]
		if v.Unit != "" && v.Kind != KindTime {
			fmt.Fprintf(&b, "%s = %s %s\n", k, v, v.Unit)
		} else {
			fmt.Fprintf(&b, "%s = %s\n", k, v)
		}
	}
	return b.String()
}
