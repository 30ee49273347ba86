package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/beetlebugorg/novasar/internal/logging"
	"github.com/beetlebugorg/novasar/pkg/novasar"
)

func (e *env) open(c *cli.Context) (*novasar.Product, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("%s: expected exactly one product path", c.Command.Name)
	}
	return e.reader.Open(e.context(), c.Args().First())
}

func (e *env) info(c *cli.Context) error {
	p, err := e.open(c)
	if err != nil {
		return err
	}
	defer p.Close()

	b := p.Bounds()
	centre := p.SceneCenter()
	fmt.Fprintf(e.out, "Product:       %s\n", p.Name())
	fmt.Fprintf(e.out, "Type:          %s\n", p.Type())
	fmt.Fprintf(e.out, "Size:          %d x %d\n", p.Width(), p.Height())
	fmt.Fprintf(e.out, "Polarizations: %s\n", strings.Join(p.Polarizations(), " "))
	fmt.Fprintf(e.out, "Bounds:        [%.4f,%.4f] to [%.4f,%.4f]\n", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
	fmt.Fprintf(e.out, "Centre:        %.6f, %.6f\n", centre.Lat, centre.Lon)
	for _, l := range p.CalibrationLUTs() {
		fmt.Fprintf(e.out, "LUT:           %s (%d gains)\n", l.Name, len(l.Gains))
	}
	if ql, ok := p.Quicklook(); ok {
		fmt.Fprintf(e.out, "Quicklook:     %s\n", ql)
	}
	fmt.Fprintf(e.out, "\n=== Metadata ===\n%s", p.Metadata().Dump())
	return nil
}

func (e *env) bands(c *cli.Context) error {
	p, err := e.open(c)
	if err != nil {
		return err
	}
	defer p.Close()

	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUNIT\tTYPE\tSIZE\tSOURCE")
	for _, b := range p.Bands() {
		source := b.Image
		if b.Virtual {
			source = b.Expression
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%s\n", b.Name, b.Unit, b.SampleType, b.Width, b.Height, source)
	}
	return w.Flush()
}

func (e *env) grids(c *cli.Context) error {
	p, err := e.open(c)
	if err != nil {
		return err
	}
	defer p.Close()

	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tSUBSAMPLING\tMIN\tMAX\tUNIT")
	for _, g := range p.TiePointGrids() {
		lo, hi := g.MinMax()
		fmt.Fprintf(w, "%s\t%dx%d\t%.3f x %.3f\t%.6g\t%.6g\t%s\n",
			g.Name, g.Width, g.Height, g.SubSamplingX, g.SubSamplingY, lo, hi, g.Unit)
	}
	return w.Flush()
}

func (e *env) index(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("index: expected at least one directory")
	}
	opts := novasar.DefaultLoadOptions()
	if n := c.Int("workers"); n > 0 {
		opts.Workers = n
	}

	ctx := e.context()
	idx, errs := novasar.BuildIndexFromDirs(ctx, e.reader, c.Args(), opts)
	for _, err := range errs {
		e.log.Warn(ctx, "product skipped", logging.Err(err))
	}
	if idx == nil {
		return fmt.Errorf("index: no products could be loaded")
	}

	bounds := idx.Bounds()
	if s := c.String("bbox"); s != "" {
		var err error
		if bounds, err = parseBBox(s); err != nil {
			return err
		}
	}
	query := novasar.QueryOptions{Pass: c.String("pass"), Polarization: c.String("pol")}
	if s := c.String("type"); s != "" {
		query.ProductTypes = strings.Split(s, ",")
	}

	entries := idx.Query(bounds, query)
	printEntries(e, entries)
	fmt.Fprintf(e.out, "%d of %d products\n", len(entries), idx.Count())
	return nil
}

func (e *env) catalogPath(c *cli.Context) string {
	if db := c.String("db"); db != "" {
		return db
	}
	return e.cfg.CatalogPath
}

func (e *env) catalogAdd(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("catalog add: expected at least one product")
	}
	cat, err := novasar.OpenCatalog(e.catalogPath(c))
	if err != nil {
		return err
	}
	defer cat.Close()

	ctx := e.context()
	products, errs := novasar.OpenAll(ctx, e.reader, c.Args(), novasar.DefaultLoadOptions())
	for _, err := range errs {
		e.log.Warn(ctx, "product skipped", logging.Err(err))
	}
	defer func() {
		for _, p := range products {
			p.Close()
		}
	}()

	for _, p := range products {
		if err := cat.Record(ctx, novasar.EntryFromProduct(p)); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "recorded %s\n", p.Name())
	}
	if len(products) == 0 {
		return fmt.Errorf("catalog add: no products could be opened")
	}
	return nil
}

func (e *env) catalogList(c *cli.Context) error {
	cat, err := novasar.OpenCatalog(e.catalogPath(c))
	if err != nil {
		return err
	}
	defer cat.Close()

	var entries []novasar.ProductEntry
	if s := c.String("bbox"); s != "" {
		b, err := parseBBox(s)
		if err != nil {
			return err
		}
		entries, err = cat.Intersecting(e.context(), b)
		if err != nil {
			return err
		}
	} else if entries, err = cat.List(e.context()); err != nil {
		return err
	}
	printEntries(e, entries)
	return nil
}

func (e *env) catalogRemove(c *cli.Context) error {
	cat, err := novasar.OpenCatalog(e.catalogPath(c))
	if err != nil {
		return err
	}
	defer cat.Close()

	for _, path := range c.Args() {
		if err := cat.Remove(e.context(), path); err != nil {
			return err
		}
	}
	return nil
}

func printEntries(e *env, entries []novasar.ProductEntry) {
	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tPASS\tPOL\tFIRST LINE\tBOUNDS\tPATH")
	for _, p := range entries {
		b := p.GeoBounds
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t[%.3f,%.3f,%.3f,%.3f]\t%s\n",
			p.Name, p.Type, p.Pass, strings.Join(p.Polarizations, "+"),
			p.FirstLineTime.Format("2006-01-02T15:04:05"),
			b.MinLon, b.MinLat, b.MaxLon, b.MaxLat, p.Path)
	}
	w.Flush()
}

// parseBBox parses "minLon,minLat,maxLon,maxLat".
func parseBBox(s string) (novasar.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return novasar.Bounds{}, fmt.Errorf("bbox %q: expected minLon,minLat,maxLon,maxLat", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return novasar.Bounds{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return novasar.Bounds{}, fmt.Errorf("bbox %q: minimum exceeds maximum", s)
	}
	return novasar.Bounds{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}, nil
}
