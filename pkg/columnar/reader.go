package columnar

import (
	"bytes"
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
)

// FileInfo summarizes a parquet file
type FileInfo struct {
	Rows         int64
	RowGroups    int
	RowGroupRows []int64
	Compression  Codec
	CreatedBy    string
	Schema       *arrow.Schema
}

// ReadTable decodes a complete parquet file into an arrow table. The caller
// must release the table.
func ReadTable(ctx context.Context, data []byte) (arrow.Table, error) {
	rdr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to open parquet data")
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to create arrow reader")
	}

	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to read parquet table")
	}
	defer tbl.Release()

	// ReadTable drops the schema metadata recorded in the footer
	stored, err := fr.Schema()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to read arrow schema")
	}
	md := stored.Metadata()
	s := arrow.NewSchema(tbl.Schema().Fields(), &md)

	cols := make([]arrow.Column, tbl.NumCols())
	for i := range cols {
		cols[i] = *tbl.Column(i)
	}
	return array.NewTable(s, cols, tbl.NumRows()), nil
}

// Inspect reads the footer of a parquet file
func Inspect(data []byte) (*FileInfo, error) {
	rdr, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to open parquet data")
	}
	defer rdr.Close()

	fr, err := pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to create arrow reader")
	}
	s, err := fr.Schema()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to read arrow schema")
	}

	md := rdr.MetaData()
	info := &FileInfo{
		Rows:        rdr.NumRows(),
		RowGroups:   rdr.NumRowGroups(),
		Compression: CodecUncompressed,
		CreatedBy:   md.GetCreatedBy(),
		Schema:      s,
	}
	for i := 0; i < info.RowGroups; i++ {
		rg := md.RowGroup(i)
		info.RowGroupRows = append(info.RowGroupRows, rg.NumRows())
		if i == 0 && rg.NumColumns() > 0 {
			if cc, err := rg.ColumnChunk(0); err == nil {
				info.Compression = codecOf(cc.Compression())
			}
		}
	}
	return info, nil
}
