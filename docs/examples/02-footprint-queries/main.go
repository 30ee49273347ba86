package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/beetlebugorg/novasar/pkg/novasar"
)

func main() {
	ctx := context.Background()
	reader := novasar.NewReader()

	// Index every product below the archive root
	opts := novasar.DefaultLoadOptions()
	opts.Progress = func(loaded, total int) {
		fmt.Printf("\rIndexing: %d/%d", loaded, total)
	}
	idx, errs := novasar.BuildIndexFromDirs(ctx, reader, []string{"/data/novasar"}, opts)
	fmt.Println()
	for _, err := range errs {
		log.Printf("skipped: %v", err)
	}
	if idx == nil {
		log.Fatal("no products indexed")
	}

	// Solent, descending passes from 2019 onwards
	solent := novasar.Bounds{
		MinLon: -1.6, MaxLon: -0.9,
		MinLat: 50.6, MaxLat: 50.95,
	}
	products := idx.Query(solent, novasar.QueryOptions{
		Pass:  "DESCENDING",
		After: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	fmt.Printf("%d of %d products cover the area\n", len(products), idx.Count())
	for _, p := range products {
		fmt.Printf("  %s %s %v %s\n", p.Name, p.Type, p.Polarizations,
			p.FirstLineTime.Format(time.RFC3339))
	}
}
