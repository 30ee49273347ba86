// Package orbit holds satellite orbit state vectors and the geodetic
// quantities derived from them.
package orbit

import (
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pass directions as reported in product metadata.
const (
	Ascending  = "ASCENDING"
	Descending = "DESCENDING"
)

// StateVector is an Earth-fixed position (m) and velocity (m/s) at a UTC
// instant.
type StateVector struct {
	Time     time.Time
	Position r3.Vec
	Velocity r3.Vec
}

// GeodeticPoint is a WGS-84 position in degrees and metres.
type GeodeticPoint struct {
	Lat, Lon float64
	Alt      float64
}

// Speed returns the magnitude of the velocity in m/s.
func (sv StateVector) Speed() float64 {
	return r3.Norm(sv.Velocity)
}

// Radius returns the distance from the Earth's centre in metres.
func (sv StateVector) Radius() float64 {
	return r3.Norm(sv.Position)
}

// SubSatellitePoint returns the geodetic point below the satellite.
//
// State vectors are Earth-fixed, so they are converted with a zero sidereal
// angle. go-satellite works in kilometres.
func (sv StateVector) SubSatellitePoint() GeodeticPoint {
	const mToKm = 1e-3
	pos := satellite.Vector3{
		X: sv.Position.X * mToKm,
		Y: sv.Position.Y * mToKm,
		Z: sv.Position.Z * mToKm,
	}
	alt, _, ll := satellite.ECIToLLA(pos, 0)
	deg := satellite.LatLongDeg(ll)
	return GeodeticPoint{Lat: deg.Latitude, Lon: deg.Longitude, Alt: alt * 1e3}
}

// PassDirection infers the pass direction from the state vectors: the
// satellite is ascending when it moves northward at the middle of the list.
// ok is false when there are no vectors or the motion is purely equatorial.
func PassDirection(vectors []StateVector) (dir string, ok bool) {
	if len(vectors) == 0 {
		return "", false
	}
	mid := vectors[len(vectors)/2]
	north := r3.Vec{Z: 1}
	switch v := r3.Dot(mid.Velocity, north); {
	case v > 0:
		return Ascending, true
	case v < 0:
		return Descending, true
	default:
		return "", false
	}
}

// Nearest returns the state vector closest in time to t.
func Nearest(vectors []StateVector, t time.Time) (StateVector, bool) {
	if len(vectors) == 0 {
		return StateVector{}, false
	}
	best := vectors[0]
	bestDiff := absDuration(t.Sub(best.Time))
	for _, sv := range vectors[1:] {
		if d := absDuration(t.Sub(sv.Time)); d < bestDiff {
			best, bestDiff = sv, d
		}
	}
	return best, true
}

// Interpolate linearly interpolates position and velocity at t between the
// two bracketing vectors. Vectors must be in time order; t outside the span
// clamps to the nearest end.
func Interpolate(vectors []StateVector, t time.Time) (StateVector, bool) {
	switch len(vectors) {
	case 0:
		return StateVector{}, false
	case 1:
		return vectors[0], true
	}
	if !t.After(vectors[0].Time) {
		return vectors[0], true
	}
	last := vectors[len(vectors)-1]
	if !t.Before(last.Time) {
		return last, true
	}
	for i := 1; i < len(vectors); i++ {
		a, b := vectors[i-1], vectors[i]
		if t.After(b.Time) {
			continue
		}
		span := b.Time.Sub(a.Time).Seconds()
		if span <= 0 {
			return b, true
		}
		f := t.Sub(a.Time).Seconds() / span
		return StateVector{
			Time:     t,
			Position: r3.Add(a.Position, r3.Scale(f, r3.Sub(b.Position, a.Position))),
			Velocity: r3.Add(a.Velocity, r3.Scale(f, r3.Sub(b.Velocity, a.Velocity))),
		}, true
	}
	return last, true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
