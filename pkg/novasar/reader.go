package novasar

import (
	"context"

	"github.com/beetlebugorg/novasar/internal/parser"
)

// Reader opens NovaSAR products.
//
// Create a reader with NewReader and use Open or OpenWithOptions to read
// products.
type Reader interface {
	// Open reads the product at path: a product directory, its
	// metadata.xml, or a zip archive.
	//
	// On failure no product is returned and every file opened so far is
	// closed.
	Open(ctx context.Context, path string) (*Product, error)

	// OpenWithOptions opens a product with explicit options, ignoring the
	// reader's own.
	OpenWithOptions(ctx context.Context, path string, opts OpenOptions) (*Product, error)
}

// NewReader creates a reader. Options are applied over DefaultOpenOptions.
//
// Example:
//
//	reader := novasar.NewReader(novasar.WithFlipToSARGeometry(true))
//	product, err := reader.Open(ctx, "NovaSAR_01_12345_SLC.zip")
func NewReader(opts ...Option) Reader {
	o := DefaultOpenOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &readerWrapper{
		internal: parser.NewParser(),
		opts:     o,
	}
}

// readerWrapper wraps the internal parser and converts types
type readerWrapper struct {
	internal parser.Parser
	opts     OpenOptions
}

func (r *readerWrapper) Open(ctx context.Context, path string) (*Product, error) {
	return r.OpenWithOptions(ctx, path, r.opts)
}

func (r *readerWrapper) OpenWithOptions(ctx context.Context, path string, opts OpenOptions) (*Product, error) {
	p, err := r.internal.ParseWithOptions(ctx, path, opts.parseOptions())
	if err != nil {
		return nil, err
	}
	return newProduct(path, p), nil
}
