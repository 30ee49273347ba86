package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/beetlebugorg/novasar/internal/raster"
)

const sigmaLUT = "<lut><offset>0</offset><gains>1 2 3</gains></lut>"
const gammaLUT = "<lut><offset>0.5</offset><gains>4 5</gains></lut>"

func readProduct(t *testing.T, dir string, opts ParseOptions) *Product {
	t.Helper()
	src, err := OpenSource(dir)
	require.NoError(t, err)
	prod, err := ReadProduct(context.Background(), src, NewDirectory(src, opts))
	require.NoError(t, err)
	t.Cleanup(func() { prod.Close() })
	return prod
}

func gridNames(p *Product) []string {
	names := make([]string, len(p.TiePointGrids))
	for i, g := range p.TiePointGrids {
		names[i] = g.Name
	}
	return names
}

func TestReadProductDetected(t *testing.T) {
	f := defaultFixture()
	dir := writeProduct(t, f, map[string]string{
		"lutSigma.xml":    sigmaLUT,
		"lutgamma.xml":    gammaLUT,
		"QL_image_HH.tif": "not read",
		"readme.txt":      "ignored",
	})

	prod := readProduct(t, dir, DefaultParseOptions())

	assert.Equal(t, "NovaSAR_01_12345_SCD", prod.Name)
	assert.Equal(t, "SCD", prod.Type)
	assert.Equal(t, 40, prod.Width)
	assert.Equal(t, 30, prod.Height)

	want := []string{"Amplitude_HH", "Intensity_HH", "Amplitude_HV", "Intensity_HV"}
	if diff := cmp.Diff(want, bandNames(prod.Bands)); diff != "" {
		t.Errorf("bands mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{GridLatitude, GridLongitude, GridIncidentAngle}, gridNames(prod))
	require.NotNil(t, prod.GeoCoding)

	md := prod.Metadata
	assert.InDelta(t, 51.0, md.GetFloat(KeyFirstNearLat), 1e-6)
	assert.InDelta(t, 50.0, md.GetFloat(KeyLastFarLat), 1e-6)
	assert.InDelta(t, 50.5, md.GetFloat(KeyCentreLat), 1e-6)
	assert.InDelta(t, -0.5, md.GetFloat(KeyCentreLon), 1e-6)
	assert.Less(t, md.GetFloat(KeyIncidenceNear), md.GetFloat(KeyIncidenceFar))
	assert.Equal(t, 0, md.GetInt(KeyPolsarData))

	require.Len(t, prod.LUTs, 2)
	assert.Equal(t, LUTSigma, prod.LUTs[0].Name)
	assert.Equal(t, []float64{1, 2, 3}, prod.LUTs[0].Gains)
	assert.Equal(t, LUTGamma, prod.LUTs[1].Name)
	assert.Equal(t, 0.5, prod.LUTs[1].Offset)
	assert.NotNil(t, prod.Root.Element(LUTSigma))
	assert.Nil(t, prod.Root.Element(LUTBeta))

	assert.Equal(t, "QL_image_HH.tif", prod.Quicklook)

	img, ok := prod.Image("image_hv.tif")
	require.True(t, ok)
	assert.Equal(t, 1, img.SampleBands)
	got, err := img.Decoder.Read(context.Background(), 0, raster.Window{X: 1, Y: 0, Width: 3, Height: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 12, 13}, got)
}

func TestReadProductSlantRangeTimeGrid(t *testing.T) {
	f := defaultFixture()
	opts := DefaultParseOptions()
	opts.SlantRangeTimeGrid = true

	prod := readProduct(t, writeProduct(t, f, nil), opts)
	assert.Equal(t, []string{GridLatitude, GridLongitude, GridIncidentAngle, GridSlantRangeTime}, gridNames(prod))
	assert.Empty(t, prod.LUTs)
	assert.Empty(t, prod.Quicklook)
}

func TestReadProductSLC(t *testing.T) {
	f := defaultFixture()
	f.ProductType = "SLC"
	opts := DefaultParseOptions()
	opts.SlantRangeTimeGrid = true

	prod := readProduct(t, writeProduct(t, f, nil), opts)

	want := []string{"i_HH", "q_HH", "Intensity_HH", "i_HV", "q_HV", "Intensity_HV"}
	assert.Equal(t, want, bandNames(prod.Bands))
	// no SRGR for slant range products
	assert.Nil(t, prod.Metadata.SRGR)
	assert.Equal(t, []string{GridLatitude, GridLongitude, GridIncidentAngle}, gridNames(prod))

	img, ok := prod.Image("image_hh.tif")
	require.True(t, ok)
	q, err := img.Decoder.Read(context.Background(), 1, raster.Window{Width: 2, Height: 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, q)
}

func TestReadProductCompact(t *testing.T) {
	f := defaultFixture()
	f.Images = [][2]string{{"rh_image.tif", "RH"}, {"rv_image.tif", "RV"}}

	prod := readProduct(t, writeProduct(t, f, nil), DefaultParseOptions())
	assert.Equal(t, []string{"Amplitude_RH", "Intensity_RH", "Amplitude_RV", "Intensity_RV"}, bandNames(prod.Bands))
	assert.Equal(t, 1, prod.Metadata.GetInt(KeyPolsarData))
	assert.Equal(t, CompactModeName, prod.Metadata.GetString(KeyCompactMode))
}

func TestReadProductStageSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	readProduct(t, writeProduct(t, defaultFixture(), nil), DefaultParseOptions())

	var names []string
	for _, s := range rec.Ended() {
		names = append(names, s.Name())
	}
	want := []string{
		"novasar." + StageHeaderFileName,
		"novasar." + StageAddAbstractedMetadataHeader,
		"novasar." + StageAddImageFile,
		"novasar." + StageAddBands,
		"novasar." + StageAddGeoCoding,
		"novasar." + StageAddTiePointGrids,
		"novasar." + StageAddAuxiliaryData,
	}
	assert.Equal(t, want, names)
}

// failingGeoCoding fails after the images have been opened.
type failingGeoCoding struct {
	*Directory
}

func (failingGeoCoding) AddGeoCoding(context.Context) error {
	return errors.New("geocoding unavailable")
}

func TestReadProductClosesImagesOnError(t *testing.T) {
	src, err := OpenSource(writeProduct(t, defaultFixture(), nil))
	require.NoError(t, err)
	defer src.Close()

	dir := failingGeoCoding{NewDirectory(src, DefaultParseOptions())}
	prod, err := ReadProduct(context.Background(), src, dir)
	require.Error(t, err)
	assert.Nil(t, prod)
	assert.Contains(t, err.Error(), StageAddGeoCoding)

	images := dir.Product().Images
	require.Len(t, images, 2)
	for _, img := range images {
		_, err := img.Decoder.Read(context.Background(), 0, raster.Window{Width: 1, Height: 1})
		assert.Error(t, err, img.Name)
	}
}

func TestReadProductErrors(t *testing.T) {
	tests := []struct {
		name    string
		fixture func() fixture
		check   func(t *testing.T, err error)
	}{
		{
			name: "complex product with detected images",
			fixture: func() fixture {
				f := defaultFixture()
				f.ProductType = "SLC"
				f.ImageSamples = 1
				return f
			},
			check: func(t *testing.T, err error) {
				var gerr *InvalidGeometryError
				assert.True(t, errors.As(err, &gerr), "got %v", err)
			},
		},
		{
			name: "tie point count mismatch",
			fixture: func() fixture {
				f := defaultFixture()
				f.TiePoints = 5
				return f
			},
			check: func(t *testing.T, err error) {
				var gerr *InvalidGeometryError
				assert.True(t, errors.As(err, &gerr), "got %v", err)
			},
		},
		{
			name: "unsupported format",
			fixture: func() fixture {
				f := defaultFixture()
				f.Format = "CEOS"
				return f
			},
			check: func(t *testing.T, err error) {
				var uerr *UnsupportedFormatError
				assert.True(t, errors.As(err, &uerr), "got %v", err)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := OpenSource(writeProduct(t, tt.fixture(), nil))
			require.NoError(t, err)
			defer src.Close()

			_, err = ReadProduct(context.Background(), src, NewDirectory(src, DefaultParseOptions()))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestReadProductMissingHeader(t *testing.T) {
	src, err := OpenSource(t.TempDir())
	require.NoError(t, err)

	_, err = ReadProduct(context.Background(), src, NewDirectory(src, DefaultParseOptions()))
	var merr *MissingFieldError
	require.True(t, errors.As(err, &merr), "got %v", err)
	assert.Equal(t, HeaderFileName, merr.Field)
}
