package novasar

import (
	"container/list"
	"fmt"
	"sync"
)

// ProductCache keeps opened products, evicting the least recently used
// ones once an approximate memory budget is exceeded.
//
// Products hold open image decoders, so the cache closes every product it
// evicts, replaces, removes or clears. Fetch products through Get each time
// rather than holding on to them.
//
// The memory estimate covers the decoded metadata (tie points, bands, LUT
// gains, orbit vectors). Pixels are decoded on demand and not counted.
//
// Example:
//
//	cache := novasar.NewProductCache(64 << 20)
//	product, err := cache.Get(path, func() (*novasar.Product, error) {
//	    return reader.Open(ctx, path)
//	})
type ProductCache struct {
	mu      sync.Mutex
	budget  int64 // 0 is unlimited
	used    int64
	byKey   map[string]*list.Element
	recency *list.List // of *cached, most recent first
}

type cached struct {
	key     string
	product *Product
	size    int64
	hits    int
}

// NewProductCache creates a cache limited to maxMemoryBytes of estimated
// product memory. 0 means unlimited.
func NewProductCache(maxMemoryBytes int64) *ProductCache {
	return &ProductCache{
		budget:  maxMemoryBytes,
		byKey:   make(map[string]*list.Element),
		recency: list.New(),
	}
}

// Get returns the product cached under key, opening it with loader on a
// miss. Concurrent misses on one key may each run loader; the first product
// cached wins and the others are closed. A product too large for the cache
// is returned uncached and the caller owns it.
func (c *ProductCache) Get(key string, loader func() (*Product, error)) (*Product, error) {
	if p, ok := c.lookup(key); ok {
		return p, nil
	}

	product, err := loader()
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byKey[key]; ok {
		e := el.Value.(*cached)
		if e.product != product {
			product.Close()
		}
		e.hits++
		c.recency.MoveToFront(el)
		return e.product, nil
	}
	// a failed add leaves the product uncached; it is still returned
	_ = c.add(key, product)
	return product, nil
}

func (c *ProductCache) lookup(key string) (*Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*cached)
	e.hits++
	c.recency.MoveToFront(el)
	return e.product, true
}

// Add caches product under key. A product already cached under key is
// closed and replaced. Least recently used products are evicted to fit the
// budget; a product larger than the whole budget is rejected.
func (c *ProductCache) Add(key string, product *Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.add(key, product)
}

// add implements Add. c.mu must be held.
func (c *ProductCache) add(key string, product *Product) error {
	size := estimateProductMemory(product)

	if el, ok := c.byKey[key]; ok {
		e := el.Value.(*cached)
		if e.product != product {
			e.product.Close()
		}
		c.used += size - e.size
		e.product, e.size = product, size
		e.hits++
		c.recency.MoveToFront(el)
		return nil
	}

	if c.budget > 0 {
		if size > c.budget {
			return fmt.Errorf("product too large for cache (%d bytes > %d bytes max)", size, c.budget)
		}
		for c.used+size > c.budget && c.recency.Len() > 0 {
			c.drop(c.recency.Back())
		}
	}

	c.byKey[key] = c.recency.PushFront(&cached{key: key, product: product, size: size, hits: 1})
	c.used += size
	return nil
}

// drop unlinks and closes one entry. c.mu must be held.
func (c *ProductCache) drop(el *list.Element) {
	e := c.recency.Remove(el).(*cached)
	delete(c.byKey, e.key)
	c.used -= e.size
	e.product.Close()
}

// Remove drops and closes the product cached under key, if any.
func (c *ProductCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.byKey[key]; ok {
		c.drop(el)
	}
}

// Clear drops and closes every cached product.
func (c *ProductCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.recency.Len() > 0 {
		c.drop(c.recency.Back())
	}
}

// Stats returns a snapshot of the cache counters.
func (c *ProductCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := CacheStats{ProductCount: len(c.byKey), UsedMemory: c.used, MaxMemory: c.budget}
	for el := c.recency.Front(); el != nil; el = el.Next() {
		s.TotalAccess += el.Value.(*cached).hits
	}
	return s
}

// CacheStats is a snapshot of a ProductCache.
type CacheStats struct {
	ProductCount int   // products currently cached
	UsedMemory   int64 // estimated bytes in use
	MaxMemory    int64 // budget, 0 for unlimited
	TotalAccess  int   // adds and hits over the cached products
}

// estimateProductMemory approximates the resident size of a product: 4KB
// of fixed overhead, 4 bytes per tie point, 256 bytes per band, 8 bytes per
// LUT gain and 64 bytes per orbit state vector.
func estimateProductMemory(p *Product) int64 {
	if p == nil || p.p == nil {
		return 0
	}
	size := int64(4096)
	for _, g := range p.p.TiePointGrids {
		size += int64(len(g.Values)) * 4
	}
	size += int64(len(p.p.Bands)) * 256
	for _, l := range p.p.LUTs {
		size += int64(len(l.Gains)) * 8
	}
	if p.p.Metadata != nil {
		size += int64(len(p.p.Metadata.OrbitStateVectors)) * 64
	}
	return size
}
