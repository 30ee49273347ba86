package novasar

import (
	"context"
	"fmt"
	"strings"

	"github.com/beetlebugorg/novasar/internal/parser"
)

// Product is an opened NovaSAR product.
//
// A product holds open image decoders; call Close when done. Accessors are
// safe for concurrent use, as is ReadBand.
type Product struct {
	path  string
	p     *parser.Product
	bands []Band
	byKey map[string]int
}

// Band describes one raster band of a product.
type Band struct {
	Name       string
	Unit       string // "real", "imaginary", "amplitude" or "intensity"
	SampleType string // "float32", "uint32" or "int32"
	Width      int
	Height     int

	// Virtual bands are computed from Sources using Expression.
	Virtual    bool
	Expression string
	Sources    []string

	// Image is the source image of a non-virtual band.
	Image string

	internal parser.Band
}

func newProduct(path string, p *parser.Product) *Product {
	prod := &Product{
		path:  path,
		p:     p,
		bands: make([]Band, len(p.Bands)),
		byKey: make(map[string]int, len(p.Bands)),
	}
	for i, b := range p.Bands {
		prod.bands[i] = Band{
			Name:       b.Name,
			Unit:       string(b.Unit),
			SampleType: b.SampleType.String(),
			Width:      b.Width,
			Height:     b.Height,
			Virtual:    b.Virtual,
			Expression: b.Expression,
			Sources:    b.Sources,
			Image:      b.Image,
			internal:   b,
		}
		prod.byKey[b.Name] = i
	}
	return prod
}

// ID is a unique identifier assigned when the product was opened.
func (p *Product) ID() string { return p.p.ID }

// Path is the path the product was opened from.
func (p *Product) Path() string { return p.path }

// Name is the vendor product name.
func (p *Product) Name() string { return p.p.Name }

// Type is the product type, e.g. "SLC", "GRD" or "SCD".
func (p *Product) Type() string { return p.p.Type }

// Width is the number of samples per line.
func (p *Product) Width() int { return p.p.Width }

// Height is the number of lines.
func (p *Product) Height() int { return p.p.Height }

func (p *Product) Metadata() *Metadata { return p.p.Metadata }

// Polarizations returns the polarization codes of the product's bands.
func (p *Product) Polarizations() []string { return p.p.Polarizations.Codes() }

// Bands returns all bands in product order.
func (p *Product) Bands() []Band { return p.bands }

// Band returns the named band.
func (p *Product) Band(name string) (Band, bool) {
	i, ok := p.byKey[name]
	if !ok {
		return Band{}, false
	}
	return p.bands[i], true
}

// TiePointGrids returns latitude, longitude, incident_angle and, when
// enabled, slant_range_time.
func (p *Product) TiePointGrids() []*TiePointGrid { return p.p.TiePointGrids }

// TiePointGrid returns the named grid, or nil.
func (p *Product) TiePointGrid(name string) *TiePointGrid { return p.p.TiePointGrid(name) }

func (p *Product) GeoCoding() *GeoCoding { return p.p.GeoCoding }

// OrbitStateVectors returns the orbit samples in vendor order.
func (p *Product) OrbitStateVectors() []StateVector { return p.p.Metadata.OrbitStateVectors }

// SRGR returns the ground to slant range polynomial, nil for slant range
// products.
func (p *Product) SRGR() *CoefficientSegment { return p.p.Metadata.SRGR }

// Doppler returns the Doppler centroid polynomial.
func (p *Product) Doppler() *CoefficientSegment { return p.p.Metadata.Doppler }

// CalibrationLUTs returns the calibration tables found in the product.
func (p *Product) CalibrationLUTs() []*CalibrationLUT { return p.p.LUTs }

// CalibrationLUT returns the named table ("lutSigma", "lutGamma" or
// "lutBeta").
func (p *Product) CalibrationLUT(name string) (*CalibrationLUT, bool) {
	for _, l := range p.p.LUTs {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return nil, false
}

// Quicklook returns the quicklook image path within the product, if any.
func (p *Product) Quicklook() (string, bool) {
	return p.p.Quicklook, p.p.Quicklook != ""
}

// Bounds returns the extent of the latitude/longitude tie points.
func (p *Product) Bounds() Bounds {
	lat := p.p.TiePointGrid(parser.GridLatitude)
	lon := p.p.TiePointGrid(parser.GridLongitude)
	if lat == nil || lon == nil {
		return Bounds{}
	}
	minLat, maxLat := lat.MinMax()
	minLon, maxLon := lon.MinMax()
	return Bounds{MinLon: minLon, MaxLon: maxLon, MinLat: minLat, MaxLat: maxLat}
}

// SceneCenter returns the geographic position of the scene centre.
func (p *Product) SceneCenter() GeoPos {
	md := p.p.Metadata
	return GeoPos{Lat: md.GetFloat(parser.KeyCentreLat), Lon: md.GetFloat(parser.KeyCentreLon)}
}

// ReadBand returns the samples of a band inside win, row-major. Virtual
// bands are computed from their sources.
func (p *Product) ReadBand(ctx context.Context, name string, win Window) ([]float64, error) {
	b, ok := p.Band(name)
	if !ok {
		return nil, fmt.Errorf("band %s not found", name)
	}
	if win.Empty() || !win.Within(b.Width, b.Height) {
		return nil, fmt.Errorf("window %s outside band %s (%dx%d)", win, name, b.Width, b.Height)
	}
	return p.readBand(ctx, b.internal, win)
}

func (p *Product) readBand(ctx context.Context, b parser.Band, win Window) ([]float64, error) {
	if !b.Virtual {
		img, ok := p.p.Image(b.Image)
		if !ok {
			return nil, fmt.Errorf("band %s: image %s not found", b.Name, b.Image)
		}
		return img.Decoder.Read(ctx, b.BandIndex, win)
	}

	sources := make([][]float64, len(b.Sources))
	for i, name := range b.Sources {
		src, ok := p.Band(name)
		if !ok {
			return nil, fmt.Errorf("band %s: source %s not found", b.Name, name)
		}
		data, err := p.readBand(ctx, src.internal, win)
		if err != nil {
			return nil, err
		}
		sources[i] = data
	}
	return b.Evaluate(sources)
}

// Close releases every image decoder and the product container.
func (p *Product) Close() error {
	return p.p.Close()
}
