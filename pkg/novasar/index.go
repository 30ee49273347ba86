package novasar

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dhconnelly/rtreego"

	"github.com/beetlebugorg/novasar/internal/parser"
)

// ProductIndex provides fast footprint queries over a collection of
// products.
//
// The index stores lightweight metadata for each product (footprint, type,
// pass, polarizations, acquisition time) in an R-tree, so products covering
// a region of interest can be found without opening every one of them.
//
// Example:
//
//	idx, errs := novasar.BuildIndexFromDirs(ctx, reader, []string{"/data/novasar"},
//	    novasar.DefaultLoadOptions())
//	products := idx.Query(novasar.Bounds{
//	    MinLon: -2.0, MaxLon: 1.0,
//	    MinLat: 50.0, MaxLat: 52.0,
//	}, novasar.QueryOptions{ProductTypes: []string{"SLC"}})
type ProductIndex struct {
	products []ProductEntry
	rtree    *rtreego.Rtree
}

// ProductEntry contains indexed metadata for a single product.
type ProductEntry struct {
	Path          string    // Product directory, metadata.xml or zip archive
	Name          string    // Vendor product name
	Type          string    // Product type (SLC, GRD, SCD, ...)
	Mission       string    // Satellite name
	Pass          string    // ASCENDING or DESCENDING
	Polarizations []string  // Polarization codes, sorted
	FirstLineTime time.Time // Zero Doppler time of the first line
	GeoBounds     Bounds    // Tie-point footprint
}

// Bounds method for rtreego.Spatial interface.
func (e ProductEntry) Bounds() rtreego.Rect {
	return e.GeoBounds.rect()
}

// EntryFromProduct extracts the index entry of an open product.
func EntryFromProduct(p *Product) ProductEntry {
	md := p.Metadata()
	return ProductEntry{
		Path:          p.Path(),
		Name:          p.Name(),
		Type:          p.Type(),
		Mission:       md.GetString(parser.KeyMission),
		Pass:          md.GetString(parser.KeyPass),
		Polarizations: p.Polarizations(),
		FirstLineTime: md.GetTime(parser.KeyFirstLineTime),
		GeoBounds:     p.Bounds(),
	}
}

// QueryOptions filters query results. Zero values disable a filter.
type QueryOptions struct {
	// ProductTypes keeps only products of these types.
	ProductTypes []string

	// Pass keeps only products of this pass direction (case-insensitive).
	Pass string

	// Polarization keeps only products carrying this polarization.
	Polarization string

	// After and Before bound the first line time.
	After  time.Time
	Before time.Time
}

func (o QueryOptions) match(e ProductEntry) bool {
	if len(o.ProductTypes) > 0 {
		found := false
		for _, t := range o.ProductTypes {
			if strings.EqualFold(t, e.Type) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if o.Pass != "" && !strings.EqualFold(o.Pass, e.Pass) {
		return false
	}
	if o.Polarization != "" {
		found := false
		for _, p := range e.Polarizations {
			if strings.EqualFold(p, o.Polarization) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !o.After.IsZero() && e.FirstLineTime.Before(o.After) {
		return false
	}
	if !o.Before.IsZero() && !e.FirstLineTime.Before(o.Before) {
		return false
	}
	return true
}

// BuildIndex creates an index from product entries.
func BuildIndex(entries []ProductEntry) *ProductIndex {
	// 2D, min=25 children, max=50 children
	rtree := rtreego.NewTree(2, 25, 50)
	products := make([]ProductEntry, len(entries))
	copy(products, entries)
	for _, e := range products {
		rtree.Insert(e)
	}
	return &ProductIndex{
		products: products,
		rtree:    rtree,
	}
}

// FindProducts returns the products below root: directories holding a
// metadata.xml and zip archives. Product directories are not descended
// into.
func FindProducts(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if hasHeader(path) {
				paths = append(paths, path)
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".zip") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func hasHeader(dir string) bool {
	entries, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.EqualFold(filepath.Base(e), parser.HeaderFileName) {
			return true
		}
	}
	return false
}

// BuildIndexFromDirs opens every product found below roots, records its
// entry and closes it again.
func BuildIndexFromDirs(ctx context.Context, reader Reader, roots []string, opts LoadOptions) (*ProductIndex, []error) {
	var paths []string
	for _, root := range roots {
		found, err := FindProducts(root)
		if err != nil {
			return nil, []error{err}
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, []error{fmt.Errorf("no products found in %s", strings.Join(roots, ", "))}
	}

	entries, errs := loadParallel(ctx, paths, opts, func(ctx context.Context, path string) (ProductEntry, error) {
		p, err := reader.Open(ctx, path)
		if err != nil {
			return ProductEntry{}, err
		}
		defer p.Close()
		return EntryFromProduct(p), nil
	}, nil)
	if len(entries) == 0 {
		return nil, append(errs, fmt.Errorf("no products could be loaded (%d errors)", len(errs)))
	}
	return BuildIndex(entries), errs
}

// Query returns products whose footprint intersects bounds, oldest first.
func (idx *ProductIndex) Query(bounds Bounds, opts QueryOptions) []ProductEntry {
	var result []ProductEntry
	for _, spatial := range idx.rtree.SearchIntersect(bounds.rect()) {
		entry := spatial.(ProductEntry)
		if opts.match(entry) {
			result = append(result, entry)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].FirstLineTime.Equal(result[j].FirstLineTime) {
			return result[i].FirstLineTime.Before(result[j].FirstLineTime)
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// Count returns the total number of products in the index.
func (idx *ProductIndex) Count() int {
	return len(idx.products)
}

// Bounds returns the union of all product footprints in the index.
func (idx *ProductIndex) Bounds() Bounds {
	if len(idx.products) == 0 {
		return Bounds{}
	}
	bounds := idx.products[0].GeoBounds
	for _, e := range idx.products[1:] {
		bounds = bounds.Union(e.GeoBounds)
	}
	return bounds
}

// All returns all entries in the index.
func (idx *ProductIndex) All() []ProductEntry {
	return idx.products
}
