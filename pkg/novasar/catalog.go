package novasar

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS products (
	path            TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	product_type    TEXT NOT NULL,
	mission         TEXT NOT NULL DEFAULT '',
	pass            TEXT NOT NULL DEFAULT '',
	polarizations   TEXT NOT NULL DEFAULT '',
	first_line_time TEXT NOT NULL,
	min_lon         DOUBLE NOT NULL,
	max_lon         DOUBLE NOT NULL,
	min_lat         DOUBLE NOT NULL,
	max_lat         DOUBLE NOT NULL,
	recorded_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS products_footprint ON products (min_lon, max_lon, min_lat, max_lat);
`

const catalogColumns = `path, name, product_type, mission, pass, polarizations, first_line_time,
	min_lon, max_lon, min_lat, max_lat`

// Catalog is a persistent SQLite catalog of product footprints.
//
// Example:
//
//	cat, err := novasar.OpenCatalog("novasar-catalog.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cat.Close()
//	err = cat.Record(ctx, novasar.EntryFromProduct(product))
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens or creates the catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Record inserts or replaces the entry for e.Path.
func (c *Catalog) Record(ctx context.Context, e ProductEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO products (`+catalogColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			product_type = excluded.product_type,
			mission = excluded.mission,
			pass = excluded.pass,
			polarizations = excluded.polarizations,
			first_line_time = excluded.first_line_time,
			min_lon = excluded.min_lon,
			max_lon = excluded.max_lon,
			min_lat = excluded.min_lat,
			max_lat = excluded.max_lat,
			recorded_at = CURRENT_TIMESTAMP`,
		e.Path, e.Name, e.Type, e.Mission, e.Pass, strings.Join(e.Polarizations, ","),
		e.FirstLineTime.UTC().Format(time.RFC3339Nano),
		e.GeoBounds.MinLon, e.GeoBounds.MaxLon, e.GeoBounds.MinLat, e.GeoBounds.MaxLat)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Path, err)
	}
	return nil
}

// List returns every entry, oldest acquisition first.
func (c *Catalog) List(ctx context.Context) ([]ProductEntry, error) {
	return c.query(ctx, `SELECT `+catalogColumns+` FROM products ORDER BY first_line_time, name`)
}

// Intersecting returns the entries whose footprint intersects b, oldest
// acquisition first.
func (c *Catalog) Intersecting(ctx context.Context, b Bounds) ([]ProductEntry, error) {
	return c.query(ctx, `SELECT `+catalogColumns+` FROM products
		WHERE NOT (max_lon < ? OR min_lon > ? OR max_lat < ? OR min_lat > ?)
		ORDER BY first_line_time, name`,
		b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
}

// Remove deletes the entry for path.
func (c *Catalog) Remove(ctx context.Context, path string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM products WHERE path = ?`, path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Index loads every entry into a ProductIndex.
func (c *Catalog) Index(ctx context.Context) (*ProductIndex, error) {
	entries, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildIndex(entries), nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) query(ctx context.Context, q string, args ...any) ([]ProductEntry, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var entries []ProductEntry
	for rows.Next() {
		var e ProductEntry
		var pols, first string
		if err := rows.Scan(&e.Path, &e.Name, &e.Type, &e.Mission, &e.Pass, &pols, &first,
			&e.GeoBounds.MinLon, &e.GeoBounds.MaxLon, &e.GeoBounds.MinLat, &e.GeoBounds.MaxLat); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		if pols != "" {
			e.Polarizations = strings.Split(pols, ",")
		}
		if e.FirstLineTime, err = time.Parse(time.RFC3339Nano, first); err != nil {
			return nil, fmt.Errorf("catalog entry %s: %w", e.Path, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
