// Package observability holds the Prometheus metrics and OpenTelemetry
// tracing helpers used by the product reader.
package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReaderMetrics bundles the counters and histograms recorded while opening
// products and decoding raster windows.
type ReaderMetrics struct {
	ProductOpens  *prometheus.CounterVec
	DecoderReads  *prometheus.CounterVec
	DecodeSeconds *prometheus.HistogramVec
	StageSeconds  *prometheus.HistogramVec
}

// NewReaderMetrics registers the reader metrics against reg, defaulting to the
// global registry when nil. Registering twice against the same registry
// returns the collectors already present.
func NewReaderMetrics(reg prometheus.Registerer) (*ReaderMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	opens, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "novasar_product_opens_total",
		Help: "Products opened, labeled by product type and result.",
	}, []string{"product_type", "result"}), "novasar_product_opens_total")
	if err != nil {
		return nil, err
	}

	reads, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "novasar_decoder_reads_total",
		Help: "Raster window reads, labeled by image and result.",
	}, []string{"image", "result"}), "novasar_decoder_reads_total")
	if err != nil {
		return nil, err
	}

	decode, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "novasar_decode_duration_seconds",
		Help:    "Time spent decoding a raster window, including time waiting for the decoder lock.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"image"}), "novasar_decode_duration_seconds")
	if err != nil {
		return nil, err
	}

	stages, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "novasar_open_stage_duration_seconds",
		Help:    "Duration of each product open stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"}), "novasar_open_stage_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &ReaderMetrics{
		ProductOpens:  opens,
		DecoderReads:  reads,
		DecodeSeconds: decode,
		StageSeconds:  stages,
	}, nil
}

var (
	defaultOnce    sync.Once
	defaultMetrics *ReaderMetrics
)

// Default returns metrics registered on the global Prometheus registry. It
// never returns nil; if registration fails the metrics are left unregistered.
func Default() *ReaderMetrics {
	defaultOnce.Do(func() {
		m, err := NewReaderMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			m, _ = NewReaderMetrics(prometheus.NewRegistry())
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// ObserveOpen records the outcome of a product open.
func (m *ReaderMetrics) ObserveOpen(productType string, err error) {
	if m == nil || m.ProductOpens == nil {
		return
	}
	m.ProductOpens.WithLabelValues(productType, result(err)).Inc()
}

// ObserveRead records one decoder read and its latency.
func (m *ReaderMetrics) ObserveRead(image string, start time.Time, err error) {
	if m == nil {
		return
	}
	if m.DecoderReads != nil {
		m.DecoderReads.WithLabelValues(image, result(err)).Inc()
	}
	if m.DecodeSeconds != nil {
		m.DecodeSeconds.WithLabelValues(image).Observe(time.Since(start).Seconds())
	}
}

// ObserveStage records the duration of an open stage.
func (m *ReaderMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil || m.StageSeconds == nil {
		return
	}
	m.StageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
