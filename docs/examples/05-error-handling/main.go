package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/beetlebugorg/novasar/pkg/novasar"
)

func safeOpen(ctx context.Context, path string) (*novasar.Product, error) {
	product, err := novasar.NewReader().Open(ctx, path)
	if err == nil {
		return product, nil
	}

	var (
		formatErr  *novasar.UnsupportedFormatError
		missingErr *novasar.MissingFieldError
		geomErr    *novasar.InvalidGeometryError
	)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("product not found: %s", path)
	case errors.As(err, &formatErr):
		log.Printf("Not a GeoTIFF product: %v", formatErr)
	case errors.As(err, &missingErr):
		log.Printf("Incomplete metadata, missing %s", missingErr.Field)
	case errors.As(err, &geomErr):
		log.Printf("Unusable geolocation: %v", geomErr)
	}
	return nil, err
}

func main() {
	ctx := context.Background()

	product, err := safeOpen(ctx, "NovaSAR_01_12345_GRD")
	if err != nil {
		log.Printf("Error: %v", err)
		return
	}
	defer product.Close()
	fmt.Printf("Successfully opened %s\n", product.Name())

	// Reads outside the raster are rejected
	_, err = product.ReadBand(ctx, "Amplitude_HH", novasar.Window{
		X: product.Width() - 1, Width: 2, Height: 1,
	})
	if err != nil {
		log.Printf("Expected error: %v", err)
	}

	_, err = safeOpen(ctx, "NONEXISTENT")
	if err != nil {
		log.Printf("Expected error: %v", err)
	}
}
