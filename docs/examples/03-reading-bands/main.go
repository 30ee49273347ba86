package main

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/beetlebugorg/novasar/pkg/novasar"
)

func main() {
	ctx := context.Background()

	reader := novasar.NewReader(novasar.WithFlipToSARGeometry(true))
	product, err := reader.Open(ctx, "NovaSAR_01_12345_SLC.zip")
	if err != nil {
		log.Fatal(err)
	}
	defer product.Close()

	for _, b := range product.Bands() {
		if b.Virtual {
			fmt.Printf("%-14s %-10s = %s\n", b.Name, b.Unit, b.Expression)
		} else {
			fmt.Printf("%-14s %-10s from %s\n", b.Name, b.Unit, b.Image)
		}
	}

	// Mean intensity of a 256x256 window at the scene centre, in dB
	win := novasar.Window{
		X: product.Width()/2 - 128, Y: product.Height()/2 - 128,
		Width: 256, Height: 256,
	}
	data, err := product.ReadBand(ctx, "Intensity_HH", win)
	if err != nil {
		log.Fatal(err)
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	fmt.Printf("Mean intensity: %.2f dB\n", 10*math.Log10(sum/float64(len(data))))

	// Geolocate the window corner
	pos := product.GeoCoding().GeoPos(novasar.PixelPos{X: float64(win.X), Y: float64(win.Y)})
	fmt.Printf("Window origin: %.5f, %.5f\n", pos.Lat, pos.Lon)

	if g := product.TiePointGrid(novasar.GridIncidentAngle); g != nil {
		fmt.Printf("Incidence angle at centre: %.2f deg\n",
			g.PixelValue(float64(product.Width())/2, float64(product.Height())/2))
	}
}
