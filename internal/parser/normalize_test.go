package parser

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/novasar/internal/logging"
	"github.com/beetlebugorg/novasar/internal/metadata"
)

func TestNormalizeFields(t *testing.T) {
	md, pm, err := Normalize(rootOf(t, defaultFixture()))
	require.NoError(t, err)

	assert.Equal(t, "right", md.GetString(KeyAntennaPointing))
	assert.Equal(t, "DESCENDING", md.GetString(KeyPass))
	assert.Equal(t, "SCD", md.GetString(KeyProductType))
	assert.Equal(t, "NovaSAR_01_12345_SCD", md.GetString(KeyProduct))
	assert.Equal(t, "NovaSAR-1", md.GetString(KeyMission))
	assert.Equal(t, "Maritime_Survey_MS", md.GetString(KeyAcquisitionMode))
	assert.Equal(t, "MS", md.GetString(KeyBeams))
	assert.Equal(t, "MS", md.GetString(KeySwath))
	assert.Equal(t, "SSTL-1.2", md.GetString(KeyProcessingSystemIdentifier))
	assert.Equal(t, "RangeDoppler", md.GetString(KeyAlgorithm))
	assert.Equal(t, "WGS84", md.GetString(KeyGeoRefSystem))
	assert.Equal(t, "Downlinked", md.GetString(KeyVectorSource))
	assert.Equal(t, "orbit_0042.xml", md.GetString(KeyOrbitStateVectorFile))
	assert.Equal(t, 4321, md.GetInt(KeyDataTakeID))

	assert.InDelta(t, 3200.0, md.GetFloat(KeyRadarFrequency), 1e-9)
	assert.InDelta(t, 80.0, md.GetFloat(KeyRangeSamplingRate), 1e-9)
	assert.InDelta(t, 200.0, md.GetFloat(KeyRangeBandwidth), 1e-9)
	assert.InDelta(t, 1500.0, md.GetFloat(KeyAzimuthBandwidth), 1e-9)
	assert.InDelta(t, 3000.5, md.GetFloat(KeyPulseRepetitionFrequency), 1e-9)
	assert.InDelta(t, 12.0, md.GetFloat(KeyAvgSceneHeight), 1e-9)
	assert.InDelta(t, 620000.0, md.GetFloat(KeySlantRangeToFirstPixel), 1e-9)
	assert.InDelta(t, 6.0, md.GetFloat(KeyRangeSpacing), 1e-9)
	assert.InDelta(t, 6.0, md.GetFloat(KeyAzimuthSpacing), 1e-9)

	assert.Equal(t, 30, md.GetInt(KeyNumOutputLines))
	assert.Equal(t, 40, md.GetInt(KeyNumSamplesPerLine))
	assert.InDelta(t, 3.0/30.0, md.GetFloat(KeyLineTimeInterval), 1e-12)
	assert.Equal(t, 2, md.GetInt(KeyRangeLooks))
	assert.Equal(t, 1, md.GetInt(KeyAzimuthLooks))
	assert.Equal(t, 1, md.GetInt(KeyMultilookFlag))

	assert.Equal(t, 1, md.GetInt(KeyAntElevCorrFlag))
	assert.Equal(t, 1, md.GetInt(KeyRangeSpreadCompFlag))
	assert.Equal(t, 1, md.GetInt(KeyReplicaPowerCorrFlag))
	assert.Equal(t, 1, md.GetInt(KeyIncAngleCompFlag))

	assert.Equal(t, time.Date(2019, 3, 1, 10, 0, 0, 0, time.UTC), md.GetTime(KeyFirstLineTime))
	assert.Equal(t, time.Date(2019, 3, 2, 8, 30, 0, 250000000, time.UTC), md.GetTime(KeyProcTime))

	assert.Equal(t, "HH", md.GetString(KeyMDS1TxRxPolar))
	assert.Equal(t, "HV", md.GetString(KeyMDS2TxRxPolar))
	assert.Equal(t, NoMetadataString, md.GetString(KeyMDS3TxRxPolar))
	assert.Equal(t, []string{"HH", "HV"}, md.Polarizations())
	assert.Equal(t, PolarizationMap{"image_hh.tif": "HH", "image_hv.tif": "HV"}, pm)
}

func TestNormalizeCalibration(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		constant   string
		wantFlag   int
		wantFactor float64
	}{
		{"calibrated with constant", "CALIBRATED", "2.5", 1, 2.5},
		{"calibrated lowercase", "calibrated", "0.75", 1, 0.75},
		{"calibrated without constant", "CALIBRATED", "", 1, 1.0},
		{"uncalibrated ignores constant", "UNCALIBRATED", "3.0", 0, 1.0},
		{"missing status", "", "3.0", 0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultFixture()
			f.CalStatus = tt.status
			f.CalConstant = tt.constant
			md, _, err := Normalize(rootOf(t, f))
			require.NoError(t, err)
			assert.Equal(t, tt.wantFlag, md.GetInt(KeyAbsCalibrationFlag))
			assert.Equal(t, tt.wantFactor, md.GetFloat(KeyCalibrationFactor))
		})
	}
}

func TestNormalizeSampleType(t *testing.T) {
	tests := []struct {
		dataType string
		want     string
	}{
		{"MAGNITUDE_DETECTED", "DETECTED"},
		{"COMPLEX", "COMPLEX"},
		{"", "COMPLEX"},
		{"SOMETHING_ELSE", "COMPLEX"},
	}
	for _, tt := range tests {
		t.Run(tt.dataType, func(t *testing.T) {
			f := defaultFixture()
			f.DataType = tt.dataType
			md, _, err := Normalize(rootOf(t, f))
			require.NoError(t, err)
			if got := md.GetString(KeySampleType); got != tt.want {
				t.Errorf("SAMPLE_TYPE = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeRadiometricScaling(t *testing.T) {
	for scaling, want := range map[string]int{"Sigma0": 1, "SIGMA0": 1, "Beta0": 0, "": 0} {
		f := defaultFixture()
		f.RadiometricScaling = scaling
		md, _, err := Normalize(rootOf(t, f))
		require.NoError(t, err)
		assert.Equal(t, want, md.GetInt(KeyIncAngleCompFlag), "scaling %q", scaling)
	}
}

func TestNormalizeRangeGeometry(t *testing.T) {
	tests := []struct {
		productType string
		wantSLC     bool
		wantSRGR    bool
	}{
		{"SLC", true, false},
		{"slc", true, false},
		{"SCD", false, true},
		{"GRD", false, true},
		{"SRD", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.productType, func(t *testing.T) {
			f := defaultFixture()
			f.ProductType = tt.productType
			md, _, err := Normalize(rootOf(t, f))
			require.NoError(t, err)

			assert.Equal(t, strings.ToUpper(tt.productType), md.GetString(KeyProductType))
			assert.Equal(t, tt.wantSLC, md.IsSLC())
			assert.Equal(t, tt.wantSRGR, md.IsGroundRange())
			if tt.wantSRGR {
				require.NotNil(t, md.SRGR)
				assert.Equal(t, SRGRCoefficients, md.SRGR.Kind)
				assert.Equal(t, []float64{600000, 0.3, 0, 0, 0}, md.SRGR.Coefficients)
				assert.Equal(t, 0.0, md.SRGR.Origin)
				assert.Equal(t, md.GetTime(KeyFirstLineTime), md.SRGR.Time)
			} else {
				assert.Nil(t, md.SRGR)
			}

			require.NotNil(t, md.Doppler)
			assert.Equal(t, DopplerSlantRangeTimeReference, md.Doppler.Origin)
			assert.Equal(t, []float64{12.5}, md.Doppler.Coefficients)
		})
	}
}

func TestNormalizeErrors(t *testing.T) {
	t.Run("unsupported format", func(t *testing.T) {
		f := defaultFixture()
		f.Format = "CEOS"
		_, _, err := Normalize(rootOf(t, f))
		var ferr *UnsupportedFormatError
		require.True(t, errors.As(err, &ferr), "got %v", err)
		assert.Equal(t, "CEOS", ferr.Format)
	})

	t.Run("format is case-insensitive", func(t *testing.T) {
		f := defaultFixture()
		f.Format = "GEOTIFF"
		_, _, err := Normalize(rootOf(t, f))
		assert.NoError(t, err)
	})

	t.Run("missing lines", func(t *testing.T) {
		f := defaultFixture()
		f.OmitLines = true
		_, _, err := Normalize(rootOf(t, f))
		var merr *MissingFieldError
		require.True(t, errors.As(err, &merr), "got %v", err)
		assert.Equal(t, "NumberOfLinesInImage", merr.Field)
	})

	t.Run("single line", func(t *testing.T) {
		f := defaultFixture()
		f.Lines = 1
		_, _, err := Normalize(rootOf(t, f))
		var gerr *InvalidGeometryError
		assert.True(t, errors.As(err, &gerr), "got %v", err)
	})

	t.Run("malformed srgr", func(t *testing.T) {
		f := defaultFixture()
		f.SRGR = "600000.0 abc 0.0"
		_, _, err := Normalize(rootOf(t, f))
		var cerr *MalformedCoefficientsError
		require.True(t, errors.As(err, &cerr), "got %v", err)
		assert.Equal(t, "abc", cerr.Token)
		assert.Equal(t, 1, cerr.Index)
	})

	t.Run("malformed doppler", func(t *testing.T) {
		f := defaultFixture()
		f.Doppler = "1.0 x"
		_, _, err := Normalize(rootOf(t, f))
		var cerr *MalformedCoefficientsError
		assert.True(t, errors.As(err, &cerr), "got %v", err)
	})
}

func TestNormalizeUnparsableTime(t *testing.T) {
	var logs bytes.Buffer
	ctx := logging.ContextWithLogger(context.Background(), logging.New(logging.Config{Output: &logs}))

	f := defaultFixture()
	f.ProcessingTime = "yesterday"
	md, _, err := NormalizeContext(ctx, rootOf(t, f))
	require.NoError(t, err)

	assert.Equal(t, NoMetadataUTC, md.GetTime(KeyProcTime))
	assert.True(t, md.IsDefault(KeyProcTime))
	assert.Contains(t, logs.String(), "unparsable time")
	assert.Contains(t, logs.String(), "ProcessingTime")
}

func TestNormalizeDefaults(t *testing.T) {
	doc := `<metadata><Image_Attributes>
		<ProductFormat>GeoTIFF</ProductFormat>
		<NumberOfLinesInImage>10</NumberOfLinesInImage>
		<NumberOfSamplesPerLine>20</NumberOfSamplesPerLine>
	</Image_Attributes></metadata>`
	root, err := metadata.LoadXML(strings.NewReader(doc))
	require.NoError(t, err)

	md, pm, err := Normalize(root)
	require.NoError(t, err)
	assert.Empty(t, pm)

	assert.Equal(t, NoMetadataString, md.GetString(KeyPass))
	assert.Equal(t, NoMetadataString, md.GetString(KeyProduct))
	assert.Equal(t, NoMetadataString, md.GetString(KeyBeams))
	assert.Equal(t, float64(NoMetadata), md.GetFloat(KeyRadarFrequency))
	assert.Equal(t, float64(NoMetadata), md.GetFloat(KeyRangeBandwidth))
	assert.Equal(t, 99999.9, md.GetFloat(KeyRangeSamplingRate))
	assert.Equal(t, float64(NoMetadata), md.GetFloat(KeyPulseRepetitionFrequency))
	assert.Equal(t, NoMetadataUTC, md.GetTime(KeyFirstLineTime))
	assert.Equal(t, 0.0, md.GetFloat(KeyLineTimeInterval))
	assert.Equal(t, 1, md.GetInt(KeyRangeLooks))
	assert.Equal(t, 0, md.GetInt(KeyMultilookFlag))
	assert.Equal(t, 1.0, md.GetFloat(KeyCalibrationFactor))
	assert.Equal(t, "COMPLEX", md.GetString(KeySampleType))
	assert.Empty(t, md.OrbitStateVectors)
	assert.Nil(t, md.SRGR)
	require.NotNil(t, md.Doppler)
	assert.Empty(t, md.Doppler.Coefficients)

	for _, k := range md.Keys() {
		_, ok := md.Get(k)
		assert.True(t, ok, "key %s unset", k)
	}
}

func TestNormalizeAcceptsParentOfMetadata(t *testing.T) {
	doc := `<product><metadata><Image_Attributes>
		<ProductFormat>GeoTIFF</ProductFormat>
		<NumberOfLinesInImage>10</NumberOfLinesInImage>
		<NumberOfSamplesPerLine>20</NumberOfSamplesPerLine>
	</Image_Attributes></metadata></product>`
	root, err := metadata.LoadXML(strings.NewReader(doc))
	require.NoError(t, err)

	md, _, err := Normalize(root)
	require.NoError(t, err)
	assert.Equal(t, 20, md.GetInt(KeyNumSamplesPerLine))
}

func TestIngestOrbit(t *testing.T) {
	root := rootOf(t, defaultFixture())
	orb := root.Element(SectionOrbitData)

	md := NewMetadata()
	require.NoError(t, IngestOrbit(md, orb))
	require.Len(t, md.OrbitStateVectors, 3)

	first := md.OrbitStateVectors[0]
	assert.Equal(t, time.Date(2019, 3, 1, 9, 59, 50, 0, time.UTC), first.Time)
	assert.Equal(t, 6978137.0, first.Position.X)
	assert.Equal(t, 1000.0, first.Velocity.Y)
	assert.Equal(t, -7000.0, first.Velocity.Z)
	assert.Equal(t, first.Time, md.GetTime(KeyStateVectorTime))

	// state vector time is only set once
	later := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	md.SetTime(KeyStateVectorTime, later)
	require.NoError(t, IngestOrbit(md, orb))
	assert.Equal(t, later, md.GetTime(KeyStateVectorTime))
}

func TestIngestOrbitTooFewVectors(t *testing.T) {
	orb := metadata.NewElement(SectionOrbitData)
	orb.SetAttribute("NumberOfStateVectorSets", "2")
	orb.AddElement(metadata.NewElement("StateVectorData"))

	err := IngestOrbit(NewMetadata(), orb)
	var merr *MissingFieldError
	assert.True(t, errors.As(err, &merr), "got %v", err)
}

func TestCoefficientSegmentEvaluate(t *testing.T) {
	s := &CoefficientSegment{Origin: 10, Coefficients: []float64{1, 2, 3}}
	// 1 + 2*(15-10) + 3*(15-10)^2
	assert.Equal(t, 86.0, s.Evaluate(15))
}

func TestMetadataDump(t *testing.T) {
	md := NewMetadata()
	md.SetFloat(KeyRadarFrequency, 3200)
	out := md.Dump()
	assert.Contains(t, out, "radar_frequency = 3200 MHz\n")
	assert.Contains(t, out, "PASS =  \n")
	assert.True(t, strings.HasPrefix(out, "PRODUCT = "))
}
