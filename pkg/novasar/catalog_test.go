package novasar

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	cat, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return cat
}

func TestCatalogRecordList(t *testing.T) {
	ctx := context.Background()
	cat := openTestCatalog(t)

	for _, e := range testEntries() {
		require.NoError(t, cat.Record(ctx, e))
	}

	entries, err := cat.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, entryNames(entries))
	assert.Equal(t, testEntries()[1], entries[0])

	// upsert keeps one row per path
	updated := testEntries()[0]
	updated.Name = "A2"
	updated.Polarizations = nil
	require.NoError(t, cat.Record(ctx, updated))
	entries, err = cat.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, updated, entries[2])
}

func TestCatalogIntersecting(t *testing.T) {
	ctx := context.Background()
	cat := openTestCatalog(t)
	for _, e := range testEntries() {
		require.NoError(t, cat.Record(ctx, e))
	}

	got, err := cat.Intersecting(ctx, Bounds{MinLon: -2, MaxLon: 2, MinLat: 49, MaxLat: 52})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, entryNames(got))

	got, err = cat.Intersecting(ctx, Bounds{MinLon: 50, MaxLon: 60, MinLat: 0, MaxLat: 1})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, cat.Remove(ctx, "/data/b"))
	got, err = cat.Intersecting(ctx, Bounds{MinLon: -2, MaxLon: 2, MinLat: 49, MaxLat: 52})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, entryNames(got))
}

func TestCatalogIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	cat, err := OpenCatalog(path)
	require.NoError(t, err)
	for _, e := range testEntries() {
		require.NoError(t, cat.Record(ctx, e))
	}
	require.NoError(t, cat.Close())

	// reopening keeps the recorded entries
	cat, err = OpenCatalog(path)
	require.NoError(t, err)
	defer cat.Close()

	idx, err := cat.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Count())
	got := idx.Query(Bounds{MinLon: 10, MaxLon: 10.5, MinLat: 10, MaxLat: 10.5}, QueryOptions{Pass: "DESCENDING"})
	assert.Equal(t, []string{"C"}, entryNames(got))
}
