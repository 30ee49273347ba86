// Package raster decodes sample windows from product GeoTIFF images.
package raster

import (
	"fmt"
)

// Window is a rectangular region of an image in pixel coordinates.
type Window struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the window covers no pixels.
func (w Window) Empty() bool { return w.Width <= 0 || w.Height <= 0 }

// Len returns the number of pixels in the window.
func (w Window) Len() int {
	if w.Empty() {
		return 0
	}
	return w.Width * w.Height
}

func (w Window) String() string {
	return fmt.Sprintf("[%d,%d %dx%d]", w.X, w.Y, w.Width, w.Height)
}

// Within reports whether w lies entirely inside a width x height image.
func (w Window) Within(width, height int) bool {
	return w.X >= 0 && w.Y >= 0 && w.X+w.Width <= width && w.Y+w.Height <= height
}

// Decoder reads samples from one image. Implementations are not safe for
// concurrent use; wrap them with Serialized.
type Decoder interface {
	// Size returns the image dimensions.
	Size() (width, height int)
	// SampleBands returns the number of samples per pixel.
	SampleBands() int
	// ReadWindow fills dst (len >= win.Len()) with the samples of one band,
	// row-major.
	ReadWindow(band int, win Window, dst []float64) error
	Close() error
}

// DecodeError reports a failed window read.
type DecodeError struct {
	Image  string
	Band   int
	Window Window
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s band %d window %s: %v", e.Image, e.Band, e.Window, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedError reports a TIFF layout the decoder cannot read.
type UnsupportedError struct {
	Reason string
}

func (e *UnsupportedError) Error() string {
	return "unsupported tiff: " + e.Reason
}
