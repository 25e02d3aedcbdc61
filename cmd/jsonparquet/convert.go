package main

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsonparquet/pkg/columnar"
	"github.com/ajitpratap0/jsonparquet/pkg/compression"
	"github.com/ajitpratap0/jsonparquet/pkg/converter"
	"github.com/ajitpratap0/jsonparquet/pkg/mmap"
	"github.com/ajitpratap0/jsonparquet/pkg/observability"
)

type convertOptions struct {
	schemaFile       string
	resourceType     string
	input            string
	output           string
	configFile       string
	batchSize        int
	compression      string
	unexpectedFields string
	workers          int
	maxInputSize     int64
	logLevel         string
	trace            bool
}

func newConvertCommand() *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a JSON file to Parquet",
		Long: `Convert one or more JSON objects to a single Parquet file.

The input may hold one object, several concatenated objects or one object per
line. Compressed inputs (.gz, .zst, .lz4, .sz, .snappy, .s2) are decompressed
transparently. Use - to read from stdin or write to stdout.

Example:
  jsonparquet convert --schema patient.schema.json --type Patient \
    --input patients.ndjson.gz --output patients.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.schemaFile, "schema", "s", "", "Path to the schema description (required)")
	f.StringVarP(&opts.resourceType, "type", "t", "", "Resource type the schema is registered under (required)")
	f.StringVarP(&opts.input, "input", "i", "", "Path to the JSON input, or - for stdin (required)")
	f.StringVarP(&opts.output, "output", "o", "", "Path of the Parquet output, or - for stdout (required)")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	f.StringVarP(&opts.configFile, "config", "c", "", "Path to a YAML configuration file")
	f.IntVar(&opts.batchSize, "batch-size", 0, "Maximum rows per row group")
	f.StringVar(&opts.compression, "compression", "", "Parquet codec: uncompressed, snappy, gzip, brotli, zstd, lz4_raw")
	f.StringVar(&opts.unexpectedFields, "unexpected-fields", "", "Handling of fields missing from the schema: ignore, error, infer")
	f.IntVar(&opts.workers, "workers", 0, "Number of blocks parsed in parallel")
	f.Int64Var(&opts.maxInputSize, "max-input-size", compression.DefaultMaxSize, "Maximum decompressed input size in bytes")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.BoolVar(&opts.trace, "trace", false, "Write trace spans to stderr")

	return cmd
}

func runConvert(cmd *cobra.Command, opts *convertOptions) error {
	cfg, err := loadConfig(opts.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("batch-size") {
		cfg.Writer.WriteBatchSize = opts.batchSize
	}
	if flags.Changed("compression") {
		cfg.Writer.Compression = opts.compression
	}
	if flags.Changed("unexpected-fields") {
		cfg.Reader.UnexpectedFieldBehavior = opts.unexpectedFields
	}
	if flags.Changed("workers") {
		cfg.Reader.Workers = opts.workers
	}
	if opts.trace {
		cfg.Observability.EnableTracing = true
	}

	log, err := newLogger(cfg, opts.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Observability.EnableTracing {
		tracing := observability.DefaultTracingConfig()
		tracing.ServiceVersion = version
		tracing.Output = cmd.ErrOrStderr()
		shutdown, err := observability.InitTracing(tracing)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() { _ = shutdown(cmd.Context()) }()
	}

	description, err := readSource(opts.schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	conv, err := converter.New(cfg, converter.WithLogger(log))
	if err != nil {
		return err
	}
	if err := conv.RegisterSchema(opts.resourceType, string(description)); err != nil {
		return fmt.Errorf("invalid schema %s: %w", opts.schemaFile, err)
	}

	input, closeInput, err := openInput(opts.input, opts.maxInputSize)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	defer func() { _ = closeInput() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	start := time.Now()
	buf, err := conv.Convert(ctx, opts.resourceType, input)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	defer func() { _ = conv.Release(buf) }()

	if opts.output == "-" {
		_, err = bytes.NewReader(buf.Bytes()).WriteTo(cmd.OutOrStdout())
	} else {
		err = os.WriteFile(opts.output, buf.Bytes(), 0o644) //nolint:gosec // output files are meant to be shared
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	info, err := columnar.Inspect(buf.Bytes())
	if err != nil {
		return err
	}
	log.Info("conversion completed",
		zap.String("resource_type", opts.resourceType),
		zap.String("output", opts.output),
		zap.Int64("rows", info.Rows),
		zap.Int("row_groups", info.RowGroups),
		zap.Int("bytes", buf.Len()),
		zap.Duration("duration", time.Since(start)))

	if opts.output != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows in %d row groups (%d bytes) to %s\n",
			info.Rows, info.RowGroups, buf.Len(), opts.output)
	}
	return nil
}

// openInput returns the decompressed contents of path. Uncompressed files
// are memory mapped and stay valid until the returned close function runs.
func openInput(path string, maxSize int64) ([]byte, func() error, error) {
	noop := func() error { return nil }
	if path == "-" {
		data, err := compression.ReadAll(os.Stdin, compression.None, maxSize)
		return data, noop, err
	}

	f, err := mmap.Open(path)
	if err != nil {
		return nil, nil, err
	}
	data := f.Bytes()

	alg := compression.ForPath(path)
	if alg == compression.None {
		alg = compression.Detect(data)
	}
	if alg == compression.None {
		if maxSize > 0 && int64(len(data)) > maxSize {
			_ = f.Close()
			return nil, nil, fmt.Errorf("input of %d bytes exceeds the %d byte limit", len(data), maxSize)
		}
		return data, f.Close, nil
	}

	defer func() { _ = f.Close() }()
	out, err := compression.ReadAll(bytes.NewReader(data), alg, maxSize)
	if err != nil {
		return nil, nil, err
	}
	return out, noop, nil
}
