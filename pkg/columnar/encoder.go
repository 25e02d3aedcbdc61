package columnar

import (
	"bytes"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsonparquet/pkg/config"
	"github.com/ajitpratap0/jsonparquet/pkg/errors"
	"github.com/ajitpratap0/jsonparquet/pkg/pool"
)

// CreatedBy is written into the footer of every file
const CreatedBy = "jsonparquet"

// EncoderOptions configures parquet output
type EncoderOptions struct {
	// WriteBatchSize caps the rows per row group
	WriteBatchSize int
	Compression    Codec
	// DataPageSize is the target page size in bytes; 0 keeps the library default
	DataPageSize     int64
	EnableDictionary bool
	// StoreSchema embeds the serialized arrow schema in the footer so readers
	// recover timestamp zones and the resource type metadata
	StoreSchema bool
	Allocator   memory.Allocator
}

// DefaultEncoderOptions returns the defaults used by the native converter
func DefaultEncoderOptions() EncoderOptions {
	return EncoderOptions{
		WriteBatchSize:   config.DefaultWriteBatchSize,
		Compression:      CodecSnappy,
		DataPageSize:     config.DefaultDataPageSize,
		EnableDictionary: true,
		StoreSchema:      true,
	}
}

// EncoderOptionsFromConfig builds EncoderOptions from writer configuration
func EncoderOptionsFromConfig(cfg config.WriterConfig) (EncoderOptions, error) {
	codec, err := ParseCodec(cfg.Compression)
	if err != nil {
		return EncoderOptions{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid writer compression")
	}
	return EncoderOptions{
		WriteBatchSize:   cfg.WriteBatchSize,
		Compression:      codec,
		DataPageSize:     cfg.DataPageSize,
		EnableDictionary: cfg.EnableDictionary,
		StoreSchema:      cfg.StoreSchema,
	}, nil
}

// Encoder writes arrow tables as complete parquet files. Writer properties
// are fixed when the encoder is created. An Encoder is safe for concurrent
// use.
type Encoder struct {
	opts       EncoderOptions
	props      *parquet.WriterProperties
	arrowProps pqarrow.ArrowWriterProperties
	scratch    *pool.ScratchPool
	logger     *zap.Logger
}

// NewEncoder validates opts and creates an Encoder
func NewEncoder(opts EncoderOptions, logger *zap.Logger) (*Encoder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.WriteBatchSize <= 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "write batch size must be positive").
			WithDetail("write_batch_size", opts.WriteBatchSize)
	}
	if opts.DataPageSize < 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "data page size cannot be negative")
	}
	if opts.Compression == "" {
		opts.Compression = CodecSnappy
	}
	if _, ok := codecs[opts.Compression]; !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression codec %q", opts.Compression)
	}
	if opts.Allocator == nil {
		opts.Allocator = memory.NewGoAllocator()
	}

	writerOpts := []parquet.WriterProperty{
		parquet.WithCompression(opts.Compression.compression()),
		parquet.WithDictionaryDefault(opts.EnableDictionary),
		parquet.WithMaxRowGroupLength(int64(opts.WriteBatchSize)),
		parquet.WithCreatedBy(CreatedBy),
		parquet.WithAllocator(opts.Allocator),
	}
	if opts.DataPageSize > 0 {
		writerOpts = append(writerOpts, parquet.WithDataPageSize(opts.DataPageSize))
	}

	arrowOpts := []pqarrow.WriterOption{pqarrow.WithAllocator(opts.Allocator)}
	if opts.StoreSchema {
		arrowOpts = append(arrowOpts, pqarrow.WithStoreSchema())
	}

	return &Encoder{
		opts:       opts,
		props:      parquet.NewWriterProperties(writerOpts...),
		arrowProps: pqarrow.NewArrowWriterProperties(arrowOpts...),
		scratch:    pool.NewScratchPool(64 * 1024),
		logger:     logger,
	}, nil
}

// Options returns the effective options
func (e *Encoder) Options() EncoderOptions {
	return e.opts
}

// RowGroups returns the number of row groups Encode produces for rows rows
func (e *Encoder) RowGroups(rows int64) int {
	if rows <= 0 {
		return 0
	}
	batch := int64(e.opts.WriteBatchSize)
	return int((rows + batch - 1) / batch)
}

// Encode writes tbl as a parquet file and returns its bytes. The file is
// assembled in a pooled scratch buffer; the returned slice is a copy the
// caller owns. Failures are write_parquet errors and produce no output.
func (e *Encoder) Encode(tbl arrow.Table) ([]byte, error) {
	var out []byte
	err := e.EncodeFunc(tbl, func(encoded []byte) error {
		out = bytes.Clone(encoded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeFunc writes tbl as a parquet file and passes the finished bytes to
// fn. The slice is scratch memory that is reused once fn returns, so fn
// must copy anything it keeps. An error from fn is returned unchanged.
func (e *Encoder) EncodeFunc(tbl arrow.Table, fn func(encoded []byte) error) error {
	if tbl == nil {
		return errors.New(errors.ErrorTypeWriteParquet, "table is nil")
	}

	start := time.Now()
	buf := e.scratch.Get()
	defer e.scratch.Put(buf)

	if err := e.write(buf, tbl); err != nil {
		return err
	}

	e.logger.Debug("table encoded",
		zap.Int64("rows", tbl.NumRows()),
		zap.Int("row_groups", e.RowGroups(tbl.NumRows())),
		zap.Int("bytes", buf.Len()),
		zap.String("compression", string(e.opts.Compression)),
		zap.Duration("duration", time.Since(start)))

	return fn(buf.Bytes())
}

func (e *Encoder) write(buf *bytes.Buffer, tbl arrow.Table) error {
	fw, err := pqarrow.NewFileWriter(tbl.Schema(), buf, e.props, e.arrowProps)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeWriteParquet, "failed to create parquet writer")
	}

	if err := fw.WriteTable(tbl, int64(e.opts.WriteBatchSize)); err != nil {
		_ = fw.Close()
		return errors.Wrap(err, errors.ErrorTypeWriteParquet, "failed to write table").
			WithDetail("rows", tbl.NumRows())
	}

	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeWriteParquet, "failed to close parquet writer")
	}
	return nil
}
