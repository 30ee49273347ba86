package raster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/beetlebugorg/novasar/internal/logging"
	"github.com/beetlebugorg/novasar/internal/observability"
)

// Serialized guards one Decoder with a mutex so that windows of the same
// image may be requested from several goroutines.
//
// A failed read is returned as *DecodeError and logged; decoder panics are
// converted into errors.
type Serialized struct {
	name    string
	log     logging.Logger
	metrics *observability.ReaderMetrics

	mu     sync.Mutex
	dec    Decoder
	closed bool
}

// NewSerialized wraps dec. name identifies the image in errors, logs and
// metrics.
func NewSerialized(name string, dec Decoder, log logging.Logger, metrics *observability.ReaderMetrics) *Serialized {
	if log == nil {
		log = logging.Noop()
	}
	return &Serialized{name: name, dec: dec, log: log, metrics: metrics}
}

// Name returns the image name.
func (s *Serialized) Name() string { return s.name }

// Size returns the image dimensions.
func (s *Serialized) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dec.Size()
}

// SampleBands returns the number of samples per pixel.
func (s *Serialized) SampleBands() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dec.SampleBands()
}

// Read decodes one band of win. The context is checked before the decoder
// lock is taken.
func (s *Serialized) Read(ctx context.Context, band int, win Window) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	dst := make([]float64, win.Len())

	err := s.read(band, win, dst)
	s.metrics.ObserveRead(s.name, start, err)
	if err != nil {
		derr := &DecodeError{Image: s.name, Band: band, Window: win, Err: err}
		s.log.Error(ctx, "raster decode failed",
			logging.String("image", s.name),
			logging.Int("band", band),
			logging.String("window", win.String()),
			logging.Err(err))
		return nil, derr
	}
	return dst, nil
}

func (s *Serialized) read(band int, win Window, dst []float64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoder panic: %v", r)
		}
	}()

	if s.closed {
		return fmt.Errorf("decoder closed")
	}
	return s.dec.ReadWindow(band, win, dst)
}

// Close releases the decoder. Further reads fail.
func (s *Serialized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.dec.Close()
}
