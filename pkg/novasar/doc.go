// Package novasar reads NovaSAR-1 synthetic aperture radar products.
//
// A product is a directory or zip archive holding the vendor metadata.xml,
// one GeoTIFF per polarization and, optionally, calibration look-up tables
// and a quicklook image. Opening a product normalizes the vendor metadata,
// maps images to bands, builds the latitude/longitude geocoding and derives
// the incidence angle (and optionally slant range time) tie-point grids.
//
// # Basic Usage
//
//	reader := novasar.NewReader()
//	product, err := reader.Open(ctx, "/data/NovaSAR_01_12345_SCD")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer product.Close()
//
//	fmt.Printf("%s: %dx%d covering %+v\n",
//	    product.Name(), product.Width(), product.Height(), product.Bounds())
//
// # Reading Pixels
//
// Bands are either backed by an image sample band or computed from other
// bands (intensity, Pauli decomposition). ReadBand handles both:
//
//	win := novasar.Window{X: 0, Y: 0, Width: 512, Height: 512}
//	intensity, err := product.ReadBand(ctx, "Intensity_HH", win)
//
// Reads of one image are serialized; reads of different images may run
// concurrently.
//
// # Geocoding
//
//	centre := product.SceneCenter()
//	pix, ok := product.GeoCoding().PixelPos(novasar.GeoPos{Lat: 50.5, Lon: -0.5})
//
// Set FlipToSARGeometry (OpenOptions or WithFlipToSARGeometry) to reorder the
// tie points so the first row and column follow the acquisition geometry.
//
// # Collections
//
// ProductIndex answers footprint queries over many products using an R-tree,
// ProductCache keeps recently used products open, and Catalog persists
// product footprints in SQLite.
package novasar
