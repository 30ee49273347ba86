package novasar

import (
	"github.com/beetlebugorg/novasar/internal/config"
	"github.com/beetlebugorg/novasar/internal/logging"
	"github.com/beetlebugorg/novasar/internal/observability"
	"github.com/beetlebugorg/novasar/internal/parser"
)

// OpenOptions configures how a product is opened.
type OpenOptions struct {
	// FlipToSARGeometry reorders the latitude/longitude tie points into SAR
	// acquisition geometry.
	// Default: false
	FlipToSARGeometry bool

	// IncidenceGridWidth and IncidenceGridHeight size the incidence angle
	// and slant range time grids.
	// Default: 11x11
	IncidenceGridWidth  int
	IncidenceGridHeight int

	// SlantRangeTimeGrid adds the slant range time grid to ground range
	// products.
	// Default: false
	SlantRangeTimeGrid bool

	// SkipGeometryValidation accepts tie points outside valid geographic
	// bounds. The zero value validates.
	// Default: false
	SkipGeometryValidation bool

	Logger  logging.Logger
	Metrics *observability.ReaderMetrics
}

// DefaultOpenOptions returns the default options.
func DefaultOpenOptions() OpenOptions {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig maps a loaded configuration to open options.
func OptionsFromConfig(cfg config.Config) OpenOptions {
	return OpenOptions{
		FlipToSARGeometry:      cfg.FlipToSARGeometry,
		IncidenceGridWidth:     cfg.IncidenceGridWidth,
		IncidenceGridHeight:    cfg.IncidenceGridHeight,
		SlantRangeTimeGrid:     cfg.SlantRangeTimeGrid,
		SkipGeometryValidation: !cfg.ValidateGeometry,
	}
}

func (o OpenOptions) parseOptions() parser.ParseOptions {
	return parser.ParseOptions{
		FlipToSARGeometry:      o.FlipToSARGeometry,
		IncidenceGridWidth:     o.IncidenceGridWidth,
		IncidenceGridHeight:    o.IncidenceGridHeight,
		SlantRangeTimeGrid:     o.SlantRangeTimeGrid,
		SkipGeometryValidation: o.SkipGeometryValidation,
		Logger:                 o.Logger,
		Metrics:                o.Metrics,
	}
}

// Option adjusts the options a Reader opens products with.
type Option func(*OpenOptions)

// WithConfig replaces the reader options with those of cfg. Logger and
// metrics already set are kept.
func WithConfig(cfg config.Config) Option {
	return func(o *OpenOptions) {
		logger, metrics := o.Logger, o.Metrics
		*o = OptionsFromConfig(cfg)
		o.Logger, o.Metrics = logger, metrics
	}
}

// WithFlipToSARGeometry sets OpenOptions.FlipToSARGeometry.
func WithFlipToSARGeometry(flip bool) Option {
	return func(o *OpenOptions) { o.FlipToSARGeometry = flip }
}

// WithSlantRangeTimeGrid sets OpenOptions.SlantRangeTimeGrid.
func WithSlantRangeTimeGrid(enabled bool) Option {
	return func(o *OpenOptions) { o.SlantRangeTimeGrid = enabled }
}

// WithLogger sets the logger products are opened with.
func WithLogger(l logging.Logger) Option {
	return func(o *OpenOptions) { o.Logger = l }
}

// WithMetrics records reader metrics into m.
func WithMetrics(m *observability.ReaderMetrics) Option {
	return func(o *OpenOptions) { o.Metrics = m }
}
