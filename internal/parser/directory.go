package parser

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/beetlebugorg/novasar/internal/logging"
	"github.com/beetlebugorg/novasar/internal/metadata"
	"github.com/beetlebugorg/novasar/internal/observability"
	"github.com/beetlebugorg/novasar/internal/raster"
	"github.com/beetlebugorg/novasar/internal/tiepoint"
)

// Pipeline stage names, in execution order.
const (
	StageHeaderFileName              = "HeaderFileName"
	StageAddAbstractedMetadataHeader = "AddAbstractedMetadataHeader"
	StageAddImageFile                = "AddImageFile"
	StageAddBands                    = "AddBands"
	StageAddGeoCoding                = "AddGeoCoding"
	StageAddTiePointGrids            = "AddTiePointGrids"
	StageAddAuxiliaryData            = "AddAuxiliaryData"
)

// ProductDirectoryParser builds a product from the files of a product
// directory. ReadProduct calls the stages in declaration order.
type ProductDirectoryParser interface {
	HeaderFileName() string
	AddAbstractedMetadataHeader(ctx context.Context, root *metadata.Element) error
	// AddImageFile is called for every file next to the header. Files that
	// are not product images are ignored.
	AddImageFile(ctx context.Context, name string) error
	AddBands(ctx context.Context) error
	AddGeoCoding(ctx context.Context) error
	AddTiePointGrids(ctx context.Context) error
	Product() *Product
}

// AuxiliaryDataAdder is implemented by parsers that attach side-channel
// data after the tie-point grids.
type AuxiliaryDataAdder interface {
	AddAuxiliaryData(ctx context.Context) error
}

// Product is a fully assembled NovaSAR product.
type Product struct {
	ID     string
	Name   string
	Type   string
	Width  int
	Height int

	// Root is the vendor metadata document; calibration LUTs are attached
	// to it as child elements.
	Root          *metadata.Element
	Metadata      *Metadata
	Polarizations PolarizationTable
	Images        []ImageFile
	Bands         []Band
	GeoCoding     *tiepoint.GeoCoding
	TiePointGrids []*tiepoint.Grid
	LUTs          []*CalibrationLUT
	// Quicklook is the quicklook image path within Source, if present.
	Quicklook string
	Source    Source
}

// TiePointGrid returns the named grid, or nil.
func (p *Product) TiePointGrid(name string) *tiepoint.Grid {
	for _, g := range p.TiePointGrids {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// Image returns the named image file.
func (p *Product) Image(name string) (ImageFile, bool) {
	for _, img := range p.Images {
		if img.Name == name {
			return img, true
		}
	}
	return ImageFile{}, false
}

// Close releases every decoder and the source.
func (p *Product) Close() error {
	err := closeImages(p.Images)
	if p.Source != nil {
		if cerr := p.Source.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Driver runs a ProductDirectoryParser against a Source.
type Driver struct {
	Metrics *observability.ReaderMetrics
}

// ReadProduct runs the pipeline with a zero Driver.
func ReadProduct(ctx context.Context, src Source, dir ProductDirectoryParser) (*Product, error) {
	return Driver{}.ReadProduct(ctx, src, dir)
}

// ReadProduct runs every stage of dir in order. It stops at the first
// error, closing anything opened so far; no partial product is returned.
func (d Driver) ReadProduct(ctx context.Context, src Source, dir ProductDirectoryParser) (prod *Product, err error) {
	log := logging.FromContext(ctx)
	defer func() {
		if err != nil {
			if p := dir.Product(); p != nil {
				closeImages(p.Images)
			}
		}
	}()

	var header string
	err = d.stage(ctx, StageHeaderFileName, func(ctx context.Context) error {
		name, ok := src.Find(dir.HeaderFileName())
		if !ok {
			return &MissingFieldError{Section: src.Name(), Field: dir.HeaderFileName()}
		}
		header = name
		return nil
	})
	if err != nil {
		return nil, err
	}

	var root *metadata.Element
	err = d.stage(ctx, StageAddAbstractedMetadataHeader, func(ctx context.Context) error {
		rc, err := src.Open(header)
		if err != nil {
			return fmt.Errorf("open %s: %w", header, err)
		}
		defer rc.Close()
		if root, err = metadata.LoadXML(rc); err != nil {
			return fmt.Errorf("load %s: %w", header, err)
		}
		return dir.AddAbstractedMetadataHeader(ctx, root)
	})
	if err != nil {
		return nil, err
	}

	err = d.stage(ctx, StageAddImageFile, func(ctx context.Context) error {
		names, err := src.List()
		if err != nil {
			return err
		}
		folder := path.Dir(header)
		for _, name := range names {
			if path.Dir(name) != folder {
				continue
			}
			if err := dir.AddImageFile(ctx, name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, s := range []struct {
		name string
		run  func(context.Context) error
	}{
		{StageAddBands, dir.AddBands},
		{StageAddGeoCoding, dir.AddGeoCoding},
		{StageAddTiePointGrids, dir.AddTiePointGrids},
	} {
		if err = d.stage(ctx, s.name, s.run); err != nil {
			return nil, err
		}
	}

	if aux, ok := dir.(AuxiliaryDataAdder); ok {
		if err = d.stage(ctx, StageAddAuxiliaryData, aux.AddAuxiliaryData); err != nil {
			return nil, err
		}
	}

	prod = dir.Product()
	prod.Source = src
	log.Debug(ctx, "product read",
		logging.String("product", prod.Name),
		logging.Int("bands", len(prod.Bands)),
		logging.Int("images", len(prod.Images)))
	return prod, nil
}

func (d Driver) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.StartSpan(ctx, "novasar."+name, attribute.String("novasar.stage", name))
	start := time.Now()
	err := fn(ctx)
	d.Metrics.ObserveStage(name, time.Since(start))
	observability.EndSpan(span, err)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	logging.FromContext(ctx).Debug(ctx, "stage complete", logging.String("stage", name))
	return nil
}

// Directory is the NovaSAR ProductDirectoryParser.
type Directory struct {
	src  Source
	opts ParseOptions

	root   *metadata.Element
	pm     PolarizationMap
	folder string
	prod   *Product
}

// NewDirectory returns a parser for the product held by src.
func NewDirectory(src Source, opts ParseOptions) *Directory {
	return &Directory{src: src, opts: opts, prod: &Product{}}
}

func (d *Directory) HeaderFileName() string { return HeaderFileName }

func (d *Directory) Product() *Product { return d.prod }

func (d *Directory) AddAbstractedMetadataHeader(ctx context.Context, root *metadata.Element) error {
	md, pm, err := NormalizeContext(ctx, root)
	if err != nil {
		return err
	}
	d.root = metadataElement(root)
	d.pm = pm
	if name, ok := d.src.Find(d.HeaderFileName()); ok {
		d.folder = path.Dir(name)
	}

	d.prod.Root = d.root
	d.prod.Metadata = md
	d.prod.Name = md.GetString(KeyProduct)
	d.prod.Type = md.GetString(KeyProductType)
	d.prod.Width = md.GetInt(KeyNumSamplesPerLine)
	d.prod.Height = md.GetInt(KeyNumOutputLines)
	return nil
}

func (d *Directory) AddImageFile(ctx context.Context, name string) error {
	kind, ok := AcceptImageFile(name)
	if !ok {
		return nil
	}
	log := logging.FromContext(ctx)
	base := strings.ToLower(path.Base(name))

	f, size, err := d.src.OpenReaderAt(name)
	if err != nil {
		return fmt.Errorf("open image %s: %w", name, err)
	}
	dec, err := raster.OpenTIFF(f, size)
	if err != nil {
		f.Close()
		return fmt.Errorf("open image %s: %w", name, err)
	}

	samples := dec.SampleBands()
	if d.prod.Metadata.IsSLC() {
		if samples < 2 {
			dec.Close()
			return &InvalidGeometryError{Reason: fmt.Sprintf("complex image %s has %d sample bands, want 2", base, samples)}
		}
		samples = 2
	}
	if w, h := dec.Size(); w != d.prod.Width || h != d.prod.Height {
		log.Warn(ctx, "image size differs from metadata",
			logging.String("image", base),
			logging.Int("width", w), logging.Int("height", h))
	}

	d.prod.Images = append(d.prod.Images, ImageFile{
		Name:        base,
		Path:        name,
		Kind:        kind,
		SampleBands: samples,
		Decoder:     raster.NewSerialized(base, dec, log, d.opts.Metrics),
	})
	log.Debug(ctx, "image added", logging.String("image", base), logging.Int("sample_bands", samples))
	return nil
}

func (d *Directory) AddBands(ctx context.Context) error {
	log := logging.FromContext(ctx)
	md := d.prod.Metadata

	table := BuildPolarizationTable(d.prod.Images, d.pm)
	for _, name := range table.Unresolved(d.prod.Images) {
		log.Warn(ctx, "skipping image with unknown polarization", logging.String("image", name))
	}

	d.prod.Polarizations = table
	d.prod.Bands = BuildBands(d.prod.Width, d.prod.Height, md.IsSLC(), d.prod.Images, table)
	if table.Compact() {
		md.SetInt(KeyPolsarData, 1)
		md.SetString(KeyCompactMode, CompactModeName)
	}
	return nil
}

func (d *Directory) AddGeoCoding(ctx context.Context) error {
	md := d.prod.Metadata
	policy := NewFlipPolicy(d.opts.FlipToSARGeometry, md)

	lat, lon, err := BuildLatLonGrids(d.root.Element(SectionGeographic), d.prod.Width, d.prod.Height, policy)
	if err != nil {
		return err
	}
	if !d.opts.SkipGeometryValidation {
		if err := ValidateTiePoints(lat, lon); err != nil {
			return err
		}
	}
	gc, err := tiepoint.NewGeoCoding(lat, lon)
	if err != nil {
		return &InvalidGeometryError{Reason: "geocoding", Err: err}
	}

	d.prod.GeoCoding = gc
	d.prod.TiePointGrids = append(d.prod.TiePointGrids, lat, lon)

	md.SetCorners(SceneCorners(lat, lon, d.prod.Width, d.prod.Height))
	centre := SceneCenter(gc, d.prod.Width, d.prod.Height)
	md.SetFloat(KeyCentreLat, centre.Lat)
	md.SetFloat(KeyCentreLon, centre.Lon)
	return nil
}

func (d *Directory) AddTiePointGrids(ctx context.Context) error {
	md := d.prod.Metadata
	igp := d.root.Element(SectionImageGeneration)

	near, err := NearRangeIncidenceAngle(igp)
	if err != nil {
		return err
	}
	in := NewIncidenceInput(md, md.GetFloat(KeyCentreLat), near,
		d.opts.IncidenceGridWidth, d.opts.IncidenceGridHeight, d.opts.FlipToSARGeometry)
	inc, err := IncidenceAngleGrid(in)
	if err != nil {
		return err
	}
	d.prod.TiePointGrids = append(d.prod.TiePointGrids, inc)

	lo, hi := inc.MinMax()
	md.SetFloat(KeyIncidenceNear, lo)
	md.SetFloat(KeyIncidenceFar, hi)

	if !d.opts.SlantRangeTimeGrid {
		return nil
	}
	if md.SRGR == nil {
		logging.FromContext(ctx).Debug(ctx, "no SRGR coefficients, slant range time grid skipped")
		return nil
	}
	srt, err := SlantRangeTimeGrid(SlantRangeInput{
		SceneWidth:        d.prod.Width,
		SceneHeight:       d.prod.Height,
		GridWidth:         d.opts.IncidenceGridWidth,
		GridHeight:        d.opts.IncidenceGridHeight,
		RangeSpacing:      md.GetFloat(KeyRangeSpacing),
		SRGR:              md.SRGR,
		Descending:        in.Descending,
		PointingRight:     in.PointingRight,
		FlipToSARGeometry: d.opts.FlipToSARGeometry,
	})
	if err != nil {
		return err
	}
	d.prod.TiePointGrids = append(d.prod.TiePointGrids, srt)
	return nil
}

// AddAuxiliaryData attaches the calibration LUTs and finds the quicklook.
func (d *Directory) AddAuxiliaryData(ctx context.Context) error {
	log := logging.FromContext(ctx)

	for _, lutName := range LUTNames {
		file, ok := d.firstExisting(LUTFileNames(lutName)...)
		if !ok {
			continue
		}
		rc, err := d.src.Open(file)
		if err != nil {
			return fmt.Errorf("open %s: %w", file, err)
		}
		lut, err := ParseLUT(lutName, rc)
		rc.Close()
		if err != nil {
			return err
		}
		d.prod.LUTs = append(d.prod.LUTs, lut)
		d.root.AddElement(lut.Element())
		log.Debug(ctx, "calibration lut added", logging.String("lut", lutName), logging.Int("gains", len(lut.Gains)))
	}

	pol := d.prod.Metadata.GetString(KeyMDS1TxRxPolar)
	if ql, ok := d.firstExisting("QL_image_" + pol + ".tif"); ok {
		d.prod.Quicklook = ql
	}
	return nil
}

func (d *Directory) firstExisting(names ...string) (string, bool) {
	for _, n := range names {
		p := path.Join(d.folder, n)
		if d.src.Exists(p) {
			return p, true
		}
	}
	return "", false
}
