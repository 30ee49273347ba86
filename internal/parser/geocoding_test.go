package parser

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/novasar/internal/metadata"
	"github.com/beetlebugorg/novasar/internal/tiepoint"
)

func TestFlipPolicyApply(t *testing.T) {
	// 3x2 grid: rows [0 1 2] [3 4 5]
	in := []float32{0, 1, 2, 3, 4, 5}
	tests := []struct {
		name   string
		policy FlipPolicy
		want   []float32
	}{
		{"ascending right reverses rows", FlipPolicy{true, true, true}, []float32{3, 4, 5, 0, 1, 2}},
		{"ascending left reverses rows and columns", FlipPolicy{true, true, false}, []float32{5, 4, 3, 2, 1, 0}},
		{"descending right reverses columns", FlipPolicy{true, false, true}, []float32{2, 1, 0, 5, 4, 3}},
		{"descending left unchanged", FlipPolicy{true, false, false}, []float32{0, 1, 2, 3, 4, 5}},
		{"disabled", FlipPolicy{false, true, true}, []float32{0, 1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Apply(in, 3, 2)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply mismatch (-want +got):\n%s", diff)
			}
		})
	}
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5}, in, "input modified")
}

func TestNewFlipPolicy(t *testing.T) {
	md := NewMetadata()
	md.SetString(KeyPass, "ASCENDING")
	md.SetString(KeyAntennaPointing, "left")
	assert.Equal(t, FlipPolicy{Enabled: true, Ascending: true, PointingRight: false}, NewFlipPolicy(true, md))
}

func TestBuildLatLonGrids(t *testing.T) {
	f := defaultFixture()
	geo := rootOf(t, f).Element(SectionGeographic)

	lat, lon, err := BuildLatLonGrids(geo, f.Samples, f.Lines, FlipPolicy{})
	require.NoError(t, err)

	assert.Equal(t, GridLatitude, lat.Name)
	assert.Equal(t, GridLongitude, lon.Name)
	assert.Equal(t, 3, lat.Width)
	assert.Equal(t, 3, lat.Height)
	assert.Equal(t, 0.5, lat.OffsetX)
	assert.Equal(t, 0.5, lat.OffsetY)
	assert.Equal(t, 19.5, lat.SubSamplingX)
	assert.Equal(t, 14.5, lat.SubSamplingY)
	assert.Equal(t, "deg", lat.Unit)
	assert.Equal(t, tiepoint.DiscontNone, lat.Discontinuity)
	assert.Equal(t, tiepoint.DiscontAt180, lon.Discontinuity)

	assert.Equal(t, float32(51.0), lat.Value(0, 0))
	assert.Equal(t, float32(50.0), lat.Value(0, 2))
	assert.Equal(t, float32(0.0), lon.Value(2, 1))
}

func TestBuildLatLonGridsFlipped(t *testing.T) {
	f := defaultFixture()
	geo := rootOf(t, f).Element(SectionGeographic)

	// descending, right looking: columns reversed
	lat, lon, err := BuildLatLonGrids(geo, f.Samples, f.Lines, FlipPolicy{Enabled: true, PointingRight: true})
	require.NoError(t, err)
	assert.Equal(t, float32(0.0), lon.Value(0, 0))
	assert.Equal(t, float32(-1.0), lon.Value(2, 0))
	assert.Equal(t, float32(51.0), lat.Value(0, 0))
}

func TestBuildLatLonGridsErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fixture)
	}{
		{"too few tie points", func(f *fixture) { f.TiePoints = 8 }},
		{"too many tie points", func(f *fixture) { f.TiePoints = 10 }},
		{"single column", func(f *fixture) { f.GridW, f.GridH = 1, 9 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultFixture()
			tt.mutate(&f)
			_, _, err := BuildLatLonGrids(rootOf(t, f).Element(SectionGeographic), f.Samples, f.Lines, FlipPolicy{})
			var gerr *InvalidGeometryError
			assert.True(t, errors.As(err, &gerr), "got %v", err)
		})
	}

	t.Run("missing dimensions", func(t *testing.T) {
		_, _, err := BuildLatLonGrids(metadata.NewElement(SectionGeographic), 10, 10, FlipPolicy{})
		var gerr *InvalidGeometryError
		assert.True(t, errors.As(err, &gerr), "got %v", err)
	})
}

func TestSceneCorners(t *testing.T) {
	f := defaultFixture()
	lat, lon, err := BuildLatLonGrids(rootOf(t, f).Element(SectionGeographic), f.Samples, f.Lines, FlipPolicy{})
	require.NoError(t, err)

	c := SceneCorners(lat, lon, f.Samples, f.Lines)
	assert.InDelta(t, 51.0, c.FirstNearLat, 1e-6)
	assert.InDelta(t, -1.0, c.FirstNearLon, 1e-6)
	assert.InDelta(t, 51.0, c.FirstFarLat, 1e-6)
	assert.InDelta(t, 0.0, c.FirstFarLon, 1e-6)
	assert.InDelta(t, 50.0, c.LastNearLat, 1e-6)
	assert.InDelta(t, -1.0, c.LastNearLon, 1e-6)
	assert.InDelta(t, 50.0, c.LastFarLat, 1e-6)
	assert.InDelta(t, 0.0, c.LastFarLon, 1e-6)

	md := NewMetadata()
	md.SetCorners(c)
	assert.Equal(t, c, md.Corners())
	assert.False(t, md.IsDefault(KeyLastFarLat))
}

func incidenceInput() IncidenceInput {
	return IncidenceInput{
		SceneWidth:             4000,
		SceneHeight:            3000,
		GridWidth:              11,
		GridHeight:             11,
		NearRangeIncidence:     20.0,
		SceneCenterLat:         50.0,
		RangeSpacing:           6.0,
		SlantRangeToFirstPixel: 620000.0,
		GroundRange:            true,
		Descending:             false,
		PointingRight:          true,
	}
}

func row(g *tiepoint.Grid, j int) []float32 {
	return g.Values[j*g.Width : (j+1)*g.Width]
}

func TestIncidenceAngleGrid(t *testing.T) {
	g, err := IncidenceAngleGrid(incidenceInput())
	require.NoError(t, err)

	assert.Equal(t, GridIncidentAngle, g.Name)
	assert.Equal(t, "deg", g.Unit)
	assert.Equal(t, 0.0, g.OffsetX)
	assert.Equal(t, 0.0, g.OffsetY)
	assert.Equal(t, 400.0, g.SubSamplingX)
	assert.Equal(t, 300.0, g.SubSamplingY)
	require.Len(t, g.Values, 121)

	first := row(g, 0)
	assert.InDelta(t, 20.0, first[0], 0.01)
	for i := 1; i < len(first); i++ {
		assert.Greater(t, first[i], first[i-1], "column %d", i)
	}
	for _, v := range g.Values {
		assert.True(t, v >= 0 && v <= 90, "angle %v out of range", v)
	}
	for j := 1; j < g.Height; j++ {
		assert.Equal(t, first, row(g, j))
	}
}

func TestIncidenceAngleGridSlantRange(t *testing.T) {
	in := incidenceInput()
	in.GroundRange = false
	g, err := IncidenceAngleGrid(in)
	require.NoError(t, err)

	ground, err := IncidenceAngleGrid(incidenceInput())
	require.NoError(t, err)

	// slant spacing projects to a wider ground swath
	last := g.Width - 1
	assert.Greater(t, g.Values[last], ground.Values[last])
}

func TestIncidenceAngleGridOrder(t *testing.T) {
	tests := []struct {
		name       string
		descending bool
		right      bool
		flip       bool
		increasing bool
	}{
		{"ascending right", false, true, false, true},
		{"descending left", true, false, false, true},
		{"descending right reversed", true, true, false, false},
		{"ascending left reversed", false, false, false, false},
		{"flip switch keeps order", true, true, true, true},
		{"flip switch ascending left", false, false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := incidenceInput()
			in.Descending = tt.descending
			in.PointingRight = tt.right
			in.FlipToSARGeometry = tt.flip
			g, err := IncidenceAngleGrid(in)
			require.NoError(t, err)
			if tt.increasing {
				assert.Less(t, g.Values[0], g.Values[g.Width-1])
			} else {
				assert.Greater(t, g.Values[0], g.Values[g.Width-1])
			}
		})
	}
}

func TestIncidenceAngleGridInvalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*IncidenceInput)
	}{
		{"scene too small", func(in *IncidenceInput) { in.SceneWidth = 5 }},
		{"missing slant range near edge", func(in *IncidenceInput) { in.SlantRangeToFirstPixel = 0 }},
		{"negative slant range", func(in *IncidenceInput) { in.SlantRangeToFirstPixel = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := incidenceInput()
			tt.modify(&in)
			g, err := IncidenceAngleGrid(in)
			assert.Nil(t, g)
			var gerr *InvalidGeometryError
			assert.True(t, errors.As(err, &gerr), "got %v", err)
		})
	}
}

func TestNearRangeIncidenceAngle(t *testing.T) {
	igp := metadata.NewElement(SectionImageGeneration)
	igp.SetAttribute("IncAngleCoeffs", " 24.75 0.002 ")
	v, err := NearRangeIncidenceAngle(igp)
	require.NoError(t, err)
	assert.Equal(t, 24.75, v)

	igp.SetAttribute("IncAngleCoeffs", "n/a")
	_, err = NearRangeIncidenceAngle(igp)
	var cerr *MalformedCoefficientsError
	assert.True(t, errors.As(err, &cerr))

	_, err = NearRangeIncidenceAngle(nil)
	assert.True(t, errors.As(err, &cerr))
}

func slantRangeInput() SlantRangeInput {
	return SlantRangeInput{
		SceneWidth:    40,
		SceneHeight:   30,
		GridWidth:     11,
		GridHeight:    11,
		RangeSpacing:  6.0,
		SRGR:          &CoefficientSegment{Kind: SRGRCoefficients, Coefficients: []float64{600000, 0.3, 0, 0, 0}},
		PointingRight: true,
	}
}

func TestSlantRangeTimeGrid(t *testing.T) {
	g, err := SlantRangeTimeGrid(slantRangeInput())
	require.NoError(t, err)

	assert.Equal(t, GridSlantRangeTime, g.Name)
	assert.Equal(t, "ns", g.Unit)
	assert.Equal(t, 4.0, g.SubSamplingX)
	assert.Equal(t, 3.0, g.SubSamplingY)

	want0 := 600000.0 / halfLightSpeed * 1e9
	assert.InDelta(t, want0, g.Values[0], 0.5)
	// column 10 lies at pixel 40, 240 m of ground range
	want10 := (600000.0 + 0.3*240) / halfLightSpeed * 1e9
	assert.InDelta(t, want10, g.Values[10], 0.5)
	assert.Equal(t, row(g, 0), row(g, 10))
}

func TestSlantRangeTimeGridReversed(t *testing.T) {
	in := slantRangeInput()
	in.Descending = true
	g, err := SlantRangeTimeGrid(in)
	require.NoError(t, err)

	plain, err := SlantRangeTimeGrid(slantRangeInput())
	require.NoError(t, err)

	n := len(g.Values)
	for i := range g.Values {
		if g.Values[i] != plain.Values[n-1-i] {
			t.Fatalf("value %d = %v, want %v", i, g.Values[i], plain.Values[n-1-i])
		}
	}
}

func TestSlantRangeTimeGridShortPolynomial(t *testing.T) {
	in := slantRangeInput()
	in.SRGR.Coefficients = []float64{1, 2, 3}
	_, err := SlantRangeTimeGrid(in)
	var cerr *MalformedCoefficientsError
	assert.True(t, errors.As(err, &cerr), "got %v", err)

	in.SRGR = nil
	_, err = SlantRangeTimeGrid(in)
	assert.True(t, errors.As(err, &cerr), "got %v", err)
}

func TestSceneCenter(t *testing.T) {
	f := defaultFixture()
	lat, lon, err := BuildLatLonGrids(rootOf(t, f).Element(SectionGeographic), f.Samples, f.Lines, FlipPolicy{})
	require.NoError(t, err)
	gc, err := tiepoint.NewGeoCoding(lat, lon)
	require.NoError(t, err)

	c := SceneCenter(gc, f.Samples, f.Lines)
	// pixel (20, 15) is grid position ((20-0.5)/19.5, (15-0.5)/14.5) = (1, 1)
	assert.InDelta(t, 50.5, c.Lat, 1e-6)
	assert.InDelta(t, -0.5, c.Lon, 1e-6)
	assert.False(t, math.IsNaN(c.Lat))
}
