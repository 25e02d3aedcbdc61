// Package tablebuilder turns newline-delimited JSON into an arrow table that
// conforms to a registered schema.
package tablebuilder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
	jsonpool "github.com/ajitpratap0/jsonparquet/pkg/json"
)

// Builder builds validated arrow tables from JSON input. It is safe for
// concurrent use.
type Builder struct {
	opts   Options
	logger *zap.Logger
}

// New creates a Builder
func New(opts Options, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		opts:   opts.withDefaults(),
		logger: logger,
	}
}

// Options returns the effective options
func (b *Builder) Options() Options {
	return b.opts
}

// Build parses input against s and returns the resulting table. The caller
// must release the table. Input that is empty, malformed or does not fit
// the schema yields a read_input_json error and no partial table.
//
// With InferType, the schema of the returned table extends s with the
// unknown top-level fields, so callers should use tbl.Schema() rather than s
// when writing it out.
func (b *Builder) Build(ctx context.Context, s *arrow.Schema, input []byte) (arrow.Table, error) {
	if s == nil || s.NumFields() == 0 {
		return nil, errors.New(errors.ErrorTypeValidation, "schema has no fields")
	}
	if jsonpool.IsBlank(input) {
		return nil, errors.New(errors.ErrorTypeReadInputJSON, "input json is empty")
	}

	start := time.Now()

	scanned, err := newScanner(s, b.opts.UnexpectedFieldBehavior).scan(input)
	if err != nil {
		return nil, err
	}

	target := s
	if len(scanned.inferred) > 0 {
		if target, err = extendSchema(s, scanned.inferred); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeReadInputJSON, "cannot extend schema with inferred fields")
		}
	}

	blocks := splitBlocks(scanned.docs, b.opts.BlockSize)
	records, err := b.parseBlocks(ctx, target, blocks)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()

	tbl := array.NewTableFromRecords(target, records)

	b.logger.Debug("table built",
		zap.Int64("rows", tbl.NumRows()),
		zap.Int("blocks", len(blocks)),
		zap.Int("inferred_fields", len(scanned.inferred)),
		zap.Duration("duration", time.Since(start)))

	return tbl, nil
}

// parseBlocks parses every block with the arrow JSON reader, at most
// Workers at a time. Records come back in block order.
// parseBlock appends every document of block to one record. Numbers are
// decoded as literals so int64 values keep full precision. A document the
// column builders reject fails the block; no partial record escapes.
func (b *Builder) parseBlock(s *arrow.Schema, block []byte) (rec arrow.Record, err error) {
	bldr := array.NewRecordBuilder(b.opts.Allocator, s)
	defer bldr.Release()

	defer func() {
		if r := recover(); r != nil {
			if rec != nil {
				rec.Release()
			}
			rec = nil
			err = errors.Newf(errors.ErrorTypeReadInputJSON, "input json does not match schema: %v", r)
		}
	}()

	dec := jsonpool.NewDecoder(bytes.NewReader(block))
	for row := 0; ; row++ {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeReadInputJSON, "input json is invalid").
				WithDetail("row", row)
		}
		if tok != jsonpool.Delim('{') {
			return nil, errors.New(errors.ErrorTypeReadInputJSON, "input json document is not an object").
				WithDetail("row", row)
		}
		if err := decodeRow(bldr, s, dec); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeReadInputJSON, "input json does not match schema").
				WithDetail("row", row)
		}
	}

	rec = bldr.NewRecord()
	if rec.NumRows() == 0 {
		rec.Release()
		return nil, errors.New(errors.ErrorTypeReadInputJSON, "input json block has no rows")
	}
	return rec, nil
}

// decodeRow reads the members of one object, the opening brace already
// consumed, into the column builders. Absent columns get a null.
func decodeRow(bldr *array.RecordBuilder, s *arrow.Schema, dec *jsonpool.Decoder) error {
	seen := make([]bool, s.NumFields())
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, found %v", keyTok)
		}

		indices := s.FieldIndices(key)
		if len(indices) == 0 {
			var skipped jsonpool.RawMessage
			if err := dec.Decode(&skipped); err != nil {
				return err
			}
			continue
		}
		idx := indices[0]
		if seen[idx] {
			return fmt.Errorf("duplicate key %q", key)
		}
		seen[idx] = true

		if err := bldr.Field(idx).UnmarshalOne(dec); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	for i, ok := range seen {
		if !ok {
			bldr.Field(i).AppendNull()
		}
	}
	return nil
}

// splitBlocks groups documents into newline-delimited blocks of roughly
// blockSize bytes. A block always holds at least one document.
func splitBlocks(docs []jsonpool.RawMessage, blockSize int) [][]byte {
	var (
		blocks  [][]byte
		current bytes.Buffer
	)
	for _, doc := range docs {
		if current.Len() > 0 && current.Len()+len(doc) > blockSize {
			blocks = append(blocks, bytes.Clone(current.Bytes()))
			current.Reset()
		}
		current.Write(doc)
		current.WriteByte('\n')
	}
	if current.Len() > 0 {
		blocks = append(blocks, bytes.Clone(current.Bytes()))
	}
	return blocks
}

func extendSchema(s *arrow.Schema, inferred []inferredField) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, s.NumFields()+len(inferred))
	fields = append(fields, s.Fields()...)
	for _, f := range inferred {
		dt, err := f.typ.ToArrow()
		if err != nil {
			return nil, err
		}
		fields = append(fields, arrow.Field{Name: f.name, Type: dt, Nullable: true})
	}
	md := s.Metadata()
	return arrow.NewSchema(fields, &md), nil
}
