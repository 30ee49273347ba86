package parser

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/beetlebugorg/novasar/internal/config"
	"github.com/beetlebugorg/novasar/internal/logging"
	"github.com/beetlebugorg/novasar/internal/observability"
)

// Parser reads NovaSAR products.
//
// A product is a directory or zip archive holding metadata.xml, one GeoTIFF
// per polarization and optional calibration LUTs and quicklook.
type Parser interface {
	// Parse reads the product at path with default options.
	Parse(ctx context.Context, path string) (*Product, error)

	// ParseWithOptions parses with custom options
	ParseWithOptions(ctx context.Context, path string, opts ParseOptions) (*Product, error)
}

// ParseOptions configures parsing behavior
type ParseOptions struct {
	// FlipToSARGeometry: if true, reorder tie points into SAR geometry
	// Default: false
	FlipToSARGeometry bool

	// IncidenceGridWidth, IncidenceGridHeight: tie-point grid size for the
	// incidence angle and slant range time grids
	// Default: 11x11
	IncidenceGridWidth  int
	IncidenceGridHeight int

	// SlantRangeTimeGrid: if true, add the slant range time grid for ground
	// range products
	// Default: false
	SlantRangeTimeGrid bool

	// SkipGeometryValidation: if true, accept tie points outside ±90/±180.
	// The zero value validates.
	// Default: false
	SkipGeometryValidation bool

	// Logger receives reader logs. Nil uses the logger in the context.
	Logger logging.Logger

	// Metrics records decoder and pipeline metrics. Nil disables them.
	Metrics *observability.ReaderMetrics
}

// DefaultParseOptions returns parse options with defaults
func DefaultParseOptions() ParseOptions {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig maps reader configuration to parse options.
func OptionsFromConfig(cfg config.Config) ParseOptions {
	return ParseOptions{
		FlipToSARGeometry:      cfg.FlipToSARGeometry,
		IncidenceGridWidth:     cfg.IncidenceGridWidth,
		IncidenceGridHeight:    cfg.IncidenceGridHeight,
		SlantRangeTimeGrid:     cfg.SlantRangeTimeGrid,
		SkipGeometryValidation: !cfg.ValidateGeometry,
	}
}

// defaultParser implements the Parser interface
type defaultParser struct {
}

// NewParser creates a new NovaSAR parser
func NewParser() Parser {
	return &defaultParser{}
}

// Parse reads a product with default options
func (p *defaultParser) Parse(ctx context.Context, path string) (*Product, error) {
	return p.ParseWithOptions(ctx, path, DefaultParseOptions())
}

// ParseWithOptions parses with custom options
func (p *defaultParser) ParseWithOptions(ctx context.Context, path string, opts ParseOptions) (*Product, error) {
	defaults := DefaultParseOptions()
	if opts.IncidenceGridWidth == 0 {
		opts.IncidenceGridWidth = defaults.IncidenceGridWidth
	}
	if opts.IncidenceGridHeight == 0 {
		opts.IncidenceGridHeight = defaults.IncidenceGridHeight
	}

	base := opts.Logger
	if base == nil {
		base = logging.FromContext(ctx)
	}
	id := uuid.NewString()
	ctx, log := logging.WithProduct(ctx, base, id)

	src, err := OpenSource(path)
	if err != nil {
		opts.Metrics.ObserveOpen("", err)
		return nil, err
	}

	dir := NewDirectory(src, opts)
	prod, err := Driver{Metrics: opts.Metrics}.ReadProduct(ctx, src, dir)
	opts.Metrics.ObserveOpen(dir.Product().Type, err)
	if err != nil {
		src.Close()
		log.Error(ctx, "product open failed", logging.String("path", path), logging.Err(err))
		return nil, fmt.Errorf("failed to read product %s: %w", path, err)
	}

	prod.ID = id
	log.Info(ctx, "product opened",
		logging.String("path", path),
		logging.String("product", prod.Name),
		logging.String("product_type", prod.Type))
	return prod, nil
}
