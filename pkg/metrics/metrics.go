// Package metrics provides Prometheus instrumentation for conversions.
//
// # Overview
//
// A Collector owns one set of conversion metrics registered on the
// prometheus.Registerer it was created with, so several converters (or
// tests) can live in one process without colliding on the default
// registry.
//
// # Basic Usage
//
//	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
//	timer := metrics.NewTimer()
//	buf, err := convert()
//	collector.ObserveConversion("Patient", metrics.StatusOf(err), timer.Stop(), rows, len(buf))
//
// # Metrics
//
//   - jsonparquet_conversions_total{resource_type,status}
//   - jsonparquet_conversion_duration_seconds{resource_type}
//   - jsonparquet_output_bytes{resource_type}
//   - jsonparquet_rows_written_total{resource_type}
//   - jsonparquet_registered_schemas
//   - jsonparquet_outstanding_buffers
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
)

const namespace = "jsonparquet"

// StatusSuccess labels conversions that produced output
const StatusSuccess = "success"

// Collector records conversion metrics
type Collector struct {
	conversions        *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
	outputBytes        *prometheus.HistogramVec
	rowsWritten        *prometheus.CounterVec
	registeredSchemas  prometheus.Gauge
	outstandingBuffers prometheus.Gauge
}

// NewCollector creates the conversion metrics on reg. A nil reg creates
// unregistered metrics, which is useful when metrics are disabled.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		conversions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conversions_total",
				Help:      "Total number of JSON to parquet conversions",
			},
			[]string{"resource_type", "status"},
		),
		conversionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "conversion_duration_seconds",
				Help:      "Time spent converting one input",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
			},
			[]string{"resource_type"},
		),
		outputBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "output_bytes",
				Help:      "Size of produced parquet files",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
			},
			[]string{"resource_type"},
		),
		rowsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_written_total",
				Help:      "Total number of rows written to parquet",
			},
			[]string{"resource_type"},
		),
		registeredSchemas: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registered_schemas",
				Help:      "Number of schemas in the registry",
			},
		),
		outstandingBuffers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "outstanding_buffers",
				Help:      "Output buffers handed to callers and not yet released",
			},
		),
	}
}

// StatusOf returns the status label for a conversion result
func StatusOf(err error) string {
	if err == nil {
		return StatusSuccess
	}
	return string(errors.TypeOf(err))
}

// ObserveConversion records one finished conversion. rows and size are only
// recorded for successful conversions.
func (c *Collector) ObserveConversion(resourceType, status string, d time.Duration, rows int64, size int) {
	c.conversions.WithLabelValues(resourceType, status).Inc()
	c.conversionDuration.WithLabelValues(resourceType).Observe(d.Seconds())
	if status != StatusSuccess {
		return
	}
	c.rowsWritten.WithLabelValues(resourceType).Add(float64(rows))
	c.outputBytes.WithLabelValues(resourceType).Observe(float64(size))
}

// SetRegisteredSchemas sets the registry size
func (c *Collector) SetRegisteredSchemas(n int) {
	c.registeredSchemas.Set(float64(n))
}

// BufferHandedOut counts a buffer given to a caller
func (c *Collector) BufferHandedOut() {
	c.outstandingBuffers.Inc()
}

// BufferReleased counts a buffer given back by a caller
func (c *Collector) BufferReleased() {
	c.outstandingBuffers.Dec()
}

// Conversions returns the conversions counter, for inspection in tests
func (c *Collector) Conversions() *prometheus.CounterVec {
	return c.conversions
}

// RowsWritten returns the rows counter, for inspection in tests
func (c *Collector) RowsWritten() *prometheus.CounterVec {
	return c.rowsWritten
}

// RegisteredSchemas returns the registry size gauge
func (c *Collector) RegisteredSchemas() prometheus.Gauge {
	return c.registeredSchemas
}

// OutstandingBuffers returns the outstanding buffer gauge
func (c *Collector) OutstandingBuffers() prometheus.Gauge {
	return c.outstandingBuffers
}

// Timer measures the duration of an operation
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the time elapsed since the timer started. It may be called
// more than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
