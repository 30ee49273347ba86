package novasar

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/novasar/internal/config"
	"github.com/beetlebugorg/novasar/internal/producttest"
)

func openFixture(t *testing.T, f producttest.Fixture, opts ...Option) *Product {
	t.Helper()
	dir := producttest.WriteProduct(t, f, map[string]string{
		"lutSigma.xml":    "<lut><offset>0</offset><gains>1 2</gains></lut>",
		"QL_image_HH.tif": "quicklook",
	})
	p, err := NewReader(opts...).Open(context.Background(), dir)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestOpenDetected(t *testing.T) {
	p := openFixture(t, producttest.Default())

	assert.NotEmpty(t, p.ID())
	assert.Equal(t, "NovaSAR_01_12345_SCD", p.Name())
	assert.Equal(t, "SCD", p.Type())
	assert.Equal(t, 40, p.Width())
	assert.Equal(t, 30, p.Height())
	assert.Equal(t, []string{"HH", "HV"}, p.Polarizations())
	assert.Equal(t, "DESCENDING", p.Metadata().GetString(KeyPass))

	b, ok := p.Band("Intensity_HV")
	require.True(t, ok)
	assert.True(t, b.Virtual)
	assert.Equal(t, "intensity", b.Unit)
	assert.Equal(t, "float32", b.SampleType)
	assert.Equal(t, []string{"Amplitude_HV"}, b.Sources)
	_, ok = p.Band("i_HH")
	assert.False(t, ok)

	assert.Len(t, p.TiePointGrids(), 3)
	assert.NotNil(t, p.TiePointGrid(GridIncidentAngle))
	assert.Nil(t, p.TiePointGrid(GridSlantRangeTime))
	assert.NotNil(t, p.GeoCoding())
	assert.Len(t, p.OrbitStateVectors(), 3)
	require.NotNil(t, p.SRGR())
	assert.Len(t, p.SRGR().Coefficients, 5)
	require.NotNil(t, p.Doppler())

	lut, ok := p.CalibrationLUT("LUTSIGMA")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, lut.Gains)
	assert.Len(t, p.CalibrationLUTs(), 1)

	ql, ok := p.Quicklook()
	assert.True(t, ok)
	assert.Equal(t, "QL_image_HH.tif", ql)

	assert.Equal(t, Bounds{MinLon: -1, MaxLon: 0, MinLat: 50, MaxLat: 51}, p.Bounds())
	c := p.SceneCenter()
	assert.InDelta(t, 50.5, c.Lat, 1e-6)
	assert.InDelta(t, -0.5, c.Lon, 1e-6)
}

func TestReadBand(t *testing.T) {
	p := openFixture(t, producttest.Default())
	ctx := context.Background()
	win := Window{X: 2, Y: 0, Width: 2, Height: 2}

	amp, err := p.ReadBand(ctx, "Amplitude_HV", win)
	require.NoError(t, err)
	// HV samples start at 10; row 1 begins at index 40
	assert.Equal(t, []float64{12, 13, 52, 53}, amp)

	intensity, err := p.ReadBand(ctx, "Intensity_HV", win)
	require.NoError(t, err)
	assert.Equal(t, []float64{144, 169, 2704, 2809}, intensity)

	_, err = p.ReadBand(ctx, "Intensity_VV", win)
	assert.Error(t, err)
	_, err = p.ReadBand(ctx, "Amplitude_HH", Window{X: 39, Y: 0, Width: 2, Height: 1})
	assert.Error(t, err)
	_, err = p.ReadBand(ctx, "Amplitude_HH", Window{})
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = p.ReadBand(cancelled, "Amplitude_HH", win)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadBandComplex(t *testing.T) {
	f := producttest.Default()
	f.ProductType = "SLC"
	p := openFixture(t, f)
	ctx := context.Background()
	win := Window{X: 0, Y: 0, Width: 2, Height: 1}

	i, err := p.ReadBand(ctx, "i_HH", win)
	require.NoError(t, err)
	q, err := p.ReadBand(ctx, "q_HH", win)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2}, i)
	assert.Equal(t, []float64{1, 3}, q)

	intensity, err := p.ReadBand(ctx, "Intensity_HH", win)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 13}, intensity)
	assert.Nil(t, p.SRGR())
}

func TestReaderOptions(t *testing.T) {
	cfg := config.Default()
	cfg.SlantRangeTimeGrid = true
	cfg.IncidenceGridWidth = 5
	p := openFixture(t, producttest.Default(), WithConfig(cfg), WithFlipToSARGeometry(true))

	assert.Equal(t, 5, p.TiePointGrid(GridIncidentAngle).Width)
	require.NotNil(t, p.TiePointGrid(GridSlantRangeTime))

	// descending, right looking: longitudes reversed across range
	lon := p.TiePointGrid(GridLongitude)
	assert.Equal(t, float32(0), lon.Value(0, 0))
}

func TestOpenErrors(t *testing.T) {
	f := producttest.Default()
	f.Format = "CEOS"
	_, err := NewReader().Open(context.Background(), producttest.WriteProduct(t, f, nil))
	var uerr *UnsupportedFormatError
	assert.True(t, errors.As(err, &uerr), "got %v", err)

	f = producttest.Default()
	f.TiePoints = 4
	_, err = NewReader().Open(context.Background(), producttest.WriteProduct(t, f, nil))
	var gerr *InvalidGeometryError
	assert.True(t, errors.As(err, &gerr), "got %v", err)

	_, err = NewReader().Open(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
