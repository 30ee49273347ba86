package novasar

import (
	"math"

	"github.com/dhconnelly/rtreego"
)

// Bounds is a longitude/latitude box in degrees. Footprints crossing the
// antimeridian are not split.
type Bounds struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// Contains reports whether (lon, lat) lies inside b, edges included.
func (b Bounds) Contains(lon, lat float64) bool {
	return b.MinLon <= lon && lon <= b.MaxLon && b.MinLat <= lat && lat <= b.MaxLat
}

// Intersects reports whether b and o share at least one point.
func (b Bounds) Intersects(o Bounds) bool {
	return b.MinLon <= o.MaxLon && o.MinLon <= b.MaxLon &&
		b.MinLat <= o.MaxLat && o.MinLat <= b.MaxLat
}

// Union returns the smallest box covering b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		MinLon: math.Min(b.MinLon, o.MinLon),
		MaxLon: math.Max(b.MaxLon, o.MaxLon),
		MinLat: math.Min(b.MinLat, o.MinLat),
		MaxLat: math.Max(b.MaxLat, o.MaxLat),
	}
}

// Expand grows b by deg degrees on every side.
func (b Bounds) Expand(deg float64) Bounds {
	return Bounds{b.MinLon - deg, b.MaxLon + deg, b.MinLat - deg, b.MaxLat + deg}
}

// rect converts bounds to an R-tree rectangle. Degenerate sides get a tiny
// extent so point footprints can still be indexed.
func (b Bounds) rect() rtreego.Rect {
	const eps = 1e-9
	r, _ := rtreego.NewRect(rtreego.Point{b.MinLon, b.MinLat}, []float64{
		math.Max(b.MaxLon-b.MinLon, eps),
		math.Max(b.MaxLat-b.MinLat, eps),
	})
	return r
}
