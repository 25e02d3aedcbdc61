// Package converter turns JSON documents into Parquet files for registered
// resource types.
//
// A Converter owns the schema registry and the process-wide writer
// settings. Each Convert call looks up the schema, builds a validated arrow
// table, encodes it and hands back one owned buffer:
//
//	conv, err := converter.New(config.NewConfig())
//	if err != nil {
//	    return err
//	}
//	if err := conv.RegisterSchema("Patient", description); err != nil {
//	    return err
//	}
//	buf, err := conv.Convert(ctx, "Patient", input)
//	if err != nil {
//	    return err
//	}
//	defer conv.Release(buf)
package converter

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsonparquet/pkg/buffer"
	"github.com/ajitpratap0/jsonparquet/pkg/columnar"
	"github.com/ajitpratap0/jsonparquet/pkg/config"
	"github.com/ajitpratap0/jsonparquet/pkg/errors"
	"github.com/ajitpratap0/jsonparquet/pkg/logger"
	"github.com/ajitpratap0/jsonparquet/pkg/metrics"
	"github.com/ajitpratap0/jsonparquet/pkg/observability"
	"github.com/ajitpratap0/jsonparquet/pkg/schema"
	"github.com/ajitpratap0/jsonparquet/pkg/tablebuilder"
)

// Converter converts JSON input to parquet. It is safe for concurrent use.
type Converter struct {
	registry *schema.Registry
	builder  *tablebuilder.Builder
	encoder  *columnar.Encoder
	alloc    buffer.Allocator
	logger   *zap.Logger
	metrics  *metrics.Collector
	tracer   trace.Tracer
}

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	tracer     trace.TracerProvider
	alloc      buffer.Allocator
	registry   *schema.Registry
}

// Option customizes a Converter
type Option func(*options)

// WithLogger sets the logger; the global logger is used by default
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer sets where metrics are registered. Without it metrics are
// collected but never exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithTracerProvider sets the tracer provider; the global provider is used
// by default
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracer = tp }
}

// WithAllocator sets the allocator for output buffers
func WithAllocator(a buffer.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithRegistry uses an existing schema registry
func WithRegistry(r *schema.Registry) Option {
	return func(o *options) { o.registry = r }
}

// New creates a Converter from cfg. Writer settings are fixed for the life
// of the converter.
func New(cfg *config.Config, opts ...Option) (*Converter, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	if o.alloc == nil {
		o.alloc = buffer.NewGoAllocator()
	}
	log := o.logger.With(zap.String("component", "converter"), zap.String("name", cfg.Name))

	readOpts, err := tablebuilder.OptionsFromConfig(cfg.Reader)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid reader configuration")
	}
	encOpts, err := columnar.EncoderOptionsFromConfig(cfg.Writer)
	if err != nil {
		return nil, err
	}
	encoder, err := columnar.NewEncoder(encOpts, log)
	if err != nil {
		return nil, err
	}

	compat, err := schema.ParseCompatibilityMode(cfg.Registry.Compatibility)
	if err != nil {
		return nil, err
	}
	registry := o.registry
	if registry == nil {
		registry = schema.NewRegistry(log)
	}
	registry.SetCompatibility(compat)

	c := &Converter{
		registry: registry,
		builder:  tablebuilder.New(readOpts, log),
		encoder:  encoder,
		alloc:    o.alloc,
		logger:   log,
		metrics:  metrics.NewCollector(o.registerer),
		tracer:   observability.Tracer(o.tracer),
	}

	c.metrics.SetRegisteredSchemas(registry.Len())
	registry.OnChange(func(_, _ *schema.Entry) {
		c.metrics.SetRegisteredSchemas(registry.Len())
	})

	log.Info("converter created",
		zap.String("compression", string(encOpts.Compression)),
		zap.Int("write_batch_size", encOpts.WriteBatchSize),
		zap.String("unexpected_field_behavior", readOpts.UnexpectedFieldBehavior.String()),
		zap.Int("workers", c.builder.Options().Workers))

	return c, nil
}

// Registry returns the schema registry
func (c *Converter) Registry() *schema.Registry {
	return c.registry
}

// Metrics returns the metrics collector
func (c *Converter) Metrics() *metrics.Collector {
	return c.metrics
}

// RegisterSchema parses description and stores it for resource type key.
// Re-registering a key replaces its schema.
func (c *Converter) RegisterSchema(key, description string) error {
	_, span := c.tracer.Start(context.Background(), "converter.RegisterSchema",
		trace.WithAttributes(attribute.String("resource_type", key)))

	entry, err := c.registry.Register(key, description)
	if err == nil {
		span.SetAttributes(
			attribute.Int("schema.version", entry.Version),
			attribute.Int("schema.columns", len(entry.Schema.Columns)))
	} else {
		c.logger.Debug("schema registration failed",
			zap.String("key", key),
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Error(err))
	}
	observability.EndSpan(span, err)
	return err
}

// Convert converts input, one or more JSON objects, using the schema
// registered for resourceType and returns the parquet file in a newly
// allocated buffer owned by the caller. Nothing is allocated on failure.
func (c *Converter) Convert(ctx context.Context, resourceType string, input []byte) (buf *buffer.Buffer, err error) {
	timer := metrics.NewTimer()
	ctx = context.WithValue(ctx, logger.ResourceTypeKey, resourceType)
	log := logger.FromContext(ctx, c.logger)

	ctx, span := c.tracer.Start(ctx, "converter.Convert",
		trace.WithAttributes(
			attribute.String("resource_type", resourceType),
			attribute.Int("input.bytes", len(input))))

	var rows int64
	defer func() {
		d := timer.Stop()
		size := 0
		if buf != nil {
			size = buf.Len()
		}
		c.metrics.ObserveConversion(resourceType, metrics.StatusOf(err), d, rows, size)
		span.SetAttributes(attribute.Int64("rows", rows), attribute.Int("output.bytes", size))
		observability.EndSpan(span, err)

		if err != nil {
			level := log.Debug
			switch errors.TypeOf(err) {
			case errors.ErrorTypeInternal, errors.ErrorTypeWriteParquet:
				level = log.Warn
			}
			level("conversion failed",
				zap.String("error_type", string(errors.TypeOf(err))),
				zap.Duration("duration", d),
				zap.Error(err))
			return
		}
		log.Debug("conversion finished",
			zap.Int64("rows", rows),
			zap.Int("row_groups", c.encoder.RowGroups(rows)),
			zap.Int("bytes", size),
			zap.Duration("duration", d))
	}()

	entry, err := c.registry.Get(resourceType)
	if err != nil {
		return nil, err
	}

	tbl, err := c.builder.Build(ctx, entry.Arrow, input)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()

	err = c.encoder.EncodeFunc(tbl, func(encoded []byte) error {
		out, err := buffer.FromBytes(c.alloc, encoded)
		if err != nil {
			return err
		}
		buf = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows = tbl.NumRows()
	c.metrics.BufferHandedOut()
	return buf, nil
}

// Release gives an output buffer back. Releasing nil is a no-op and a
// second release returns an ownership error.
func (c *Converter) Release(buf *buffer.Buffer) error {
	if buf == nil {
		return nil
	}
	if err := buf.Release(); err != nil {
		return err
	}
	c.metrics.BufferReleased()
	return nil
}
