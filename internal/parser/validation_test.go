package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beetlebugorg/novasar/internal/tiepoint"
)

func TestValidateCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"solent", 50.8, -1.2, false},
		{"north pole", 90.0, 0.0, false},
		{"south pole", -90.0, 0.0, false},
		{"antimeridian east", 0.0, 180.0, false},
		{"antimeridian west", 0.0, -180.0, false},
		{"beyond north pole", 90.5, 0.0, true},
		{"beyond south pole", -90.5, 0.0, true},
		{"unwrapped east", 10.0, 181.0, true},
		{"unwrapped west", 10.0, -181.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinate(tt.lat, tt.lon)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCoordinate(%v, %v) error = %v, wantErr %v", tt.lat, tt.lon, err, tt.wantErr)
			}
			var cerr *InvalidCoordinateError
			if tt.wantErr && !errors.As(err, &cerr) {
				t.Errorf("ValidateCoordinate(%v, %v) = %T, want *InvalidCoordinateError", tt.lat, tt.lon, err)
			}
		})
	}
}

func grid2x2(t *testing.T, name string, values ...float32) *tiepoint.Grid {
	t.Helper()
	g, err := tiepoint.NewGrid(name, 2, 2, 0.5, 0.5, 1, 1, values)
	require.NoError(t, err)
	return g
}

func TestValidateTiePoints(t *testing.T) {
	lon := grid2x2(t, GridLongitude, 0, 1, 0, 1)

	assert.NoError(t, ValidateTiePoints(grid2x2(t, GridLatitude, 10, 10, 11, 11), lon))

	err := ValidateTiePoints(grid2x2(t, GridLatitude, 10, 10, 95, 10), lon)
	var gerr *InvalidGeometryError
	require.True(t, errors.As(err, &gerr), "got %v", err)
	assert.Contains(t, gerr.Reason, "tie point 2")
	var cerr *InvalidCoordinateError
	assert.True(t, errors.As(err, &cerr))

	assert.Error(t, ValidateTiePoints(nil, lon))

	small, err := tiepoint.NewGrid(GridLatitude, 1, 2, 0.5, 0.5, 1, 1, []float32{10, 11})
	require.NoError(t, err)
	err = ValidateTiePoints(small, lon)
	require.True(t, errors.As(err, &gerr), "got %v", err)
	assert.Contains(t, gerr.Reason, "2 tie points")
}
