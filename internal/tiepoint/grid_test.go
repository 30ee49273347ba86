package tiepoint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridSize(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		n       int
		wantErr bool
	}{
		{"exact", 3, 2, 6, false},
		{"too few", 3, 2, 5, true},
		{"too many", 3, 2, 7, true},
		{"zero width", 0, 2, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid("g", tt.w, tt.h, 0, 0, 1, 1, make([]float32, tt.n))
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrGridSize), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPixelValueBilinear(t *testing.T) {
	// 2x2 nodes at pixels 0.5 and 10.5
	g, err := NewGrid("g", 2, 2, 0.5, 0.5, 10, 10, []float32{0, 10, 20, 30})
	require.NoError(t, err)

	assert.InDelta(t, 0, g.PixelValue(0.5, 0.5), 1e-9)
	assert.InDelta(t, 10, g.PixelValue(10.5, 0.5), 1e-9)
	assert.InDelta(t, 30, g.PixelValue(10.5, 10.5), 1e-9)
	assert.InDelta(t, 15, g.PixelValue(5.5, 5.5), 1e-9)

	// PixelDouble samples pixel centres
	assert.InDelta(t, g.PixelValue(5.5, 0.5), g.PixelDouble(5, 0), 1e-9)
}

func TestPixelValueExtrapolates(t *testing.T) {
	g, err := NewGrid("g", 2, 1, 0, 0, 10, 1, []float32{0, 10})
	require.NoError(t, err)
	assert.InDelta(t, 15, g.PixelValue(15, 0), 1e-9)
	assert.InDelta(t, -5, g.PixelValue(-5, 0), 1e-9)
}

func TestPixelValueAcrossAntimeridian(t *testing.T) {
	g, err := NewGrid("lon", 2, 2, 0, 0, 10, 10, []float32{170, -170, 170, -170})
	require.NoError(t, err)
	g.Discontinuity = DiscontAt180

	got := g.PixelValue(5, 0)
	assert.InDelta(t, 180, abs(got), 1e-6, "midpoint should sit on the antimeridian, got %v", got)

	got = g.PixelValue(7.5, 0)
	assert.InDelta(t, -175, got, 1e-6)
}

func TestNormalizeLon(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{180, 180},
		{190, -170},
		{-190, 170},
		{530, 170},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeLon(tt.in), 1e-9, "NormalizeLon(%v)", tt.in)
	}
}

func TestMinMax(t *testing.T) {
	g, err := NewGrid("g", 2, 2, 0, 0, 1, 1, []float32{3, -1, 7, 2})
	require.NoError(t, err)
	lo, hi := g.MinMax()
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
