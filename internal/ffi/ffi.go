// Package ffi is the process-wide surface behind the exported C functions.
// It maps structured errors to stable status codes and tracks the buffers
// handed to foreign callers by address.
package ffi

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"unsafe"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsonparquet/pkg/buffer"
	"github.com/ajitpratap0/jsonparquet/pkg/config"
	"github.com/ajitpratap0/jsonparquet/pkg/converter"
	"github.com/ajitpratap0/jsonparquet/pkg/errors"
	"github.com/ajitpratap0/jsonparquet/pkg/logger"
)

// Status is the integer result code returned across the boundary
type Status int32

// Status codes are part of the binary interface and must not be renumbered.
const (
	StatusSuccess Status = iota
	StatusSchemaParseError
	StatusSchemaNotFound
	StatusReadInputJSONError
	StatusWriteToParquetError
	StatusInvalidArgument
	StatusOwnershipError
	StatusInternalError
)

var statusNames = map[Status]string{
	StatusSuccess:             "Success",
	StatusSchemaParseError:    "SchemaParseError",
	StatusSchemaNotFound:      "SchemaNotFound",
	StatusReadInputJSONError:  "ReadInputJsonError",
	StatusWriteToParquetError: "WriteToParquetError",
	StatusInvalidArgument:     "InvalidArgument",
	StatusOwnershipError:      "OwnershipError",
	StatusInternalError:       "InternalError",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// StatusOf translates an error into its status code
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	switch errors.TypeOf(err) {
	case errors.ErrorTypeSchemaParse:
		return StatusSchemaParseError
	case errors.ErrorTypeSchemaNotFound:
		return StatusSchemaNotFound
	case errors.ErrorTypeReadInputJSON:
		return StatusReadInputJSONError
	case errors.ErrorTypeWriteParquet:
		return StatusWriteToParquetError
	case errors.ErrorTypeValidation, errors.ErrorTypeConfig:
		return StatusInvalidArgument
	case errors.ErrorTypeOwnership:
		return StatusOwnershipError
	default:
		return StatusInternalError
	}
}

// MaxOutputLength is the largest output the C interface can describe; its
// length parameter is a C int.
const MaxOutputLength = math.MaxInt32

// Library serves the exported functions. All methods are safe for
// concurrent use.
type Library struct {
	conv      *converter.Converter
	handles   *buffer.Table
	logger    *zap.Logger
	maxOutput int
}

// New creates a Library around conv
func New(conv *converter.Converter, log *zap.Logger) *Library {
	if log == nil {
		log = logger.Get()
	}
	return &Library{
		conv:      conv,
		handles:   buffer.NewTable(),
		logger:    log.With(zap.String("component", "ffi")),
		maxOutput: MaxOutputLength,
	}
}

// Converter returns the underlying converter
func (l *Library) Converter() *converter.Converter {
	return l.conv
}

// RegisterSchema registers description under key
func (l *Library) RegisterSchema(key, description string) Status {
	if key == "" {
		return StatusInvalidArgument
	}
	return StatusOf(l.conv.RegisterSchema(key, description))
}

// Convert converts input with the schema registered under key. On success
// the returned address points at length bytes the caller owns until it
// passes the address to Release. On failure the address is nil and the
// length zero.
func (l *Library) Convert(key string, input []byte) (Status, unsafe.Pointer, int) {
	buf, err := l.conv.Convert(context.Background(), key, input)
	if err != nil {
		return StatusOf(err), nil, 0
	}

	if buf.Len() > l.maxOutput {
		l.logger.Error("output too large for the C interface",
			zap.String("resource_type", key),
			zap.Int("bytes", buf.Len()),
			zap.Int("limit", l.maxOutput))
		_ = l.conv.Release(buf)
		return StatusWriteToParquetError, nil, 0
	}

	if _, err := l.handles.Track(buf); err != nil {
		l.logger.Error("failed to track output buffer", zap.Error(err))
		_ = l.conv.Release(buf)
		return StatusInternalError, nil, 0
	}
	return StatusSuccess, buf.Ptr(), buf.Len()
}

// Release frees a buffer returned by Convert. A nil address is a no-op.
// Addresses that are unknown or already released yield StatusOwnershipError
// and free nothing.
func (l *Library) Release(ptr unsafe.Pointer) Status {
	if ptr == nil {
		return StatusSuccess
	}
	buf, err := l.handles.Take(ptr)
	if err != nil {
		l.logger.Warn("release of unknown buffer", zap.Uintptr("address", uintptr(ptr)))
		return StatusOf(err)
	}
	return StatusOf(l.conv.Release(buf))
}

// Outstanding returns the number of buffers handed out and not yet released
func (l *Library) Outstanding() int {
	return l.handles.Outstanding()
}

// ConfigEnv names the environment variable holding the configuration file
// path used by Default.
const ConfigEnv = "JSONPARQUET_CONFIG"

var (
	defaultOnce sync.Once
	defaultLib  *Library
	defaultErr  error
)

// Default returns the process-wide library, built on first use with the
// allocator alloc. The configuration is read from the file named by
// JSONPARQUET_CONFIG when set and from defaults otherwise.
func Default(alloc buffer.Allocator) (*Library, error) {
	defaultOnce.Do(func() {
		defaultLib, defaultErr = newDefault(alloc)
	})
	return defaultLib, defaultErr
}

func newDefault(alloc buffer.Allocator) (*Library, error) {
	cfg := config.NewConfig()
	if path := os.Getenv(ConfigEnv); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load configuration").
				WithDetail("path", path)
		}
		cfg = loaded
	}

	if err := logger.Init(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Encoding:    cfg.Observability.LogEncoding,
		OutputPaths: []string{"stderr"},
	}); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}

	opts := []converter.Option{
		converter.WithLogger(logger.Get()),
		converter.WithAllocator(alloc),
	}
	if cfg.Observability.EnableMetrics {
		opts = append(opts, converter.WithRegisterer(prometheus.DefaultRegisterer))
	}
	conv, err := converter.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return New(conv, logger.Get()), nil
}
