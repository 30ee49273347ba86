package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/beetlebugorg/novasar/pkg/novasar"
)

func main() {
	ctx := context.Background()

	catalog, err := novasar.OpenCatalog("novasar-catalog.db")
	if err != nil {
		log.Fatal(err)
	}
	defer catalog.Close()

	// Record every product found below the archive root
	paths, err := novasar.FindProducts("/data/novasar")
	if err != nil {
		log.Fatal(err)
	}
	products, errs := novasar.OpenAll(ctx, novasar.NewReader(), paths, novasar.LoadOptions{
		Parallel:   true,
		SkipErrors: true,
		ErrorLog:   os.Stderr,
	})
	for _, p := range products {
		if err := catalog.Record(ctx, novasar.EntryFromProduct(p)); err != nil {
			log.Fatal(err)
		}
		p.Close()
	}
	fmt.Printf("Recorded %d products (%d failed)\n", len(products), len(errs))

	// Later runs can query the catalog without opening any product
	entries, err := catalog.Intersecting(ctx, novasar.Bounds{
		MinLon: -6, MaxLon: 2,
		MinLat: 49.9, MaxLat: 56,
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%s\n", e.Name, e.Type, e.Path)
	}

	// Keep a bounded set of products open while working through them
	cache := novasar.NewProductCache(64 * 1024 * 1024)
	defer cache.Clear()
	for _, e := range entries {
		p, err := cache.Get(e.Path, func() (*novasar.Product, error) {
			return novasar.NewReader().Open(ctx, e.Path)
		})
		if err != nil {
			log.Printf("open %s: %v", e.Path, err)
			continue
		}
		fmt.Printf("%s: %d bands\n", p.Name(), len(p.Bands()))
	}
	fmt.Printf("Cache: %+v\n", cache.Stats())
}
