// Package config provides the converter configuration for jsonparquet.
//
// The configuration is organized into logical sections:
//   - Writer: parquet row group sizing, compression codec, page options
//   - Reader: JSON parsing strictness, block size, worker parallelism
//   - Registry: which schema replacements are accepted
//   - Observability: logging and metrics switches
//
// Writer and reader settings are process-wide: they are read once when a
// converter is constructed and never change for its lifetime.
//
// Example usage:
//
//	cfg := config.NewConfig()
//	cfg.Writer.WriteBatchSize = 5000
//	cfg.Reader.UnexpectedFieldBehavior = "error"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"runtime"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
)

const (
	// DefaultWriteBatchSize is the default number of rows per row group
	DefaultWriteBatchSize = 10000
	// DefaultBlockSize is the default JSON read block size (1 GiB), large
	// enough that most inputs are parsed as a single block
	DefaultBlockSize = 1 << 30
	// DefaultDataPageSize is the default parquet data page size (1 MiB)
	DefaultDataPageSize = 1 << 20
)

// Config is the single configuration structure for a converter.
type Config struct {
	// Name identifies the converter instance in logs
	Name string `yaml:"name" json:"name"`
	// Version indicates the configuration version
	Version string `yaml:"version" json:"version"`

	// Writer settings control parquet encoding
	Writer WriterConfig `yaml:"writer" json:"writer"`

	// Reader settings control JSON parsing
	Reader ReaderConfig `yaml:"reader" json:"reader"`

	// Registry settings control schema re-registration
	Registry RegistryConfig `yaml:"registry" json:"registry"`

	// Observability settings for logging and metrics
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`
}

// WriterConfig contains parquet encoding settings.
type WriterConfig struct {
	// WriteBatchSize caps the number of rows in each row group
	WriteBatchSize int `yaml:"write_batch_size" json:"write_batch_size"`
	// Compression selects the codec (uncompressed, snappy, gzip, brotli, zstd, lz4_raw)
	Compression string `yaml:"compression" json:"compression"`
	// DataPageSize sets the target data page size in bytes
	DataPageSize int64 `yaml:"data_page_size" json:"data_page_size"`
	// EnableDictionary turns on dictionary encoding for all columns
	EnableDictionary bool `yaml:"enable_dictionary" json:"enable_dictionary"`
	// StoreSchema embeds the arrow schema in the file footer metadata
	StoreSchema bool `yaml:"store_schema" json:"store_schema"`
}

// ReaderConfig contains JSON parsing settings.
type ReaderConfig struct {
	// UnexpectedFieldBehavior is one of error, ignore, infer
	UnexpectedFieldBehavior string `yaml:"unexpected_field_behavior" json:"unexpected_field_behavior"`
	// BlockSize is the target size in bytes of a parse block
	BlockSize int `yaml:"block_size" json:"block_size"`
	// Workers bounds the number of blocks parsed concurrently
	Workers int `yaml:"workers" json:"workers"`
}

// RegistryConfig contains schema registry settings.
type RegistryConfig struct {
	// Compatibility is one of none, backward, forward, full
	Compatibility string `yaml:"compatibility" json:"compatibility"`
}

// ObservabilityConfig contains monitoring settings.
type ObservabilityConfig struct {
	// EnableMetrics activates prometheus metrics collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// EnableTracing activates opentelemetry spans
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogEncoding selects json or console output
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
}

// NewConfig creates a new Config with defaults matching the native
// converter: snappy compression, unexpected fields ignored, one large
// read block and one worker per CPU.
func NewConfig() *Config {
	return &Config{
		Name:    "jsonparquet",
		Version: "1.0.0",
		Writer: WriterConfig{
			WriteBatchSize:   DefaultWriteBatchSize,
			Compression:      "snappy",
			DataPageSize:     DefaultDataPageSize,
			EnableDictionary: true,
			StoreSchema:      true,
		},
		Reader: ReaderConfig{
			UnexpectedFieldBehavior: "ignore",
			BlockSize:               DefaultBlockSize,
			Workers:                 runtime.NumCPU(),
		},
		Registry: RegistryConfig{
			Compatibility: "none",
		},
		Observability: ObservabilityConfig{
			EnableMetrics: true,
			EnableTracing: false,
			LogLevel:      "info",
			LogEncoding:   "json",
		},
	}
}

// Validate validates the configuration for correctness. Codec and
// behavior names are checked by the components that interpret them.
func (c *Config) Validate() error {
	if c.Writer.WriteBatchSize <= 0 {
		return errors.New(errors.ErrorTypeConfig, "write_batch_size must be positive").
			WithDetail("write_batch_size", c.Writer.WriteBatchSize)
	}
	if c.Writer.Compression == "" {
		return errors.New(errors.ErrorTypeConfig, "compression is required")
	}
	if c.Writer.DataPageSize < 0 {
		return errors.New(errors.ErrorTypeConfig, "data_page_size cannot be negative")
	}
	if c.Reader.UnexpectedFieldBehavior == "" {
		return errors.New(errors.ErrorTypeConfig, "unexpected_field_behavior is required")
	}
	if c.Reader.BlockSize <= 0 {
		return errors.New(errors.ErrorTypeConfig, "block_size must be positive").
			WithDetail("block_size", c.Reader.BlockSize)
	}
	if c.Reader.Workers < 0 {
		return errors.New(errors.ErrorTypeConfig, "workers cannot be negative")
	}
	return nil
}

// GetWorkers returns the number of workers, ensuring it's at least 1
func (r *ReaderConfig) GetWorkers() int {
	if r.Workers <= 0 {
		return runtime.NumCPU()
	}
	return r.Workers
}
