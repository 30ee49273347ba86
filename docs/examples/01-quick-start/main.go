package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/beetlebugorg/novasar/pkg/novasar"
)

func main() {
	ctx := context.Background()

	// Create reader
	reader := novasar.NewReader()

	// Open product directory, metadata.xml or zip archive
	product, err := reader.Open(ctx, "NovaSAR_01_12345_SCD")
	if err != nil {
		log.Fatal(err)
	}
	defer product.Close()

	// Print product info
	fmt.Printf("Product: %s\n", product.Name())
	fmt.Printf("Type: %s\n", product.Type())
	fmt.Printf("Size: %d x %d\n", product.Width(), product.Height())
	fmt.Printf("Polarizations: %s\n", strings.Join(product.Polarizations(), ", "))

	// Get footprint
	bounds := product.Bounds()
	fmt.Printf("Bounds: [%.4f,%.4f] to [%.4f,%.4f]\n",
		bounds.MinLon, bounds.MinLat,
		bounds.MaxLon, bounds.MaxLat)
}
