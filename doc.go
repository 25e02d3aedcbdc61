// Package jsonparquet converts JSON documents into Parquet files using
// schemas registered per resource type.
//
// A schema description is a JSON-Schema style object whose properties fix
// the column names, types and nullability of a resource type. Conversions
// look the schema up by key, parse the input into arrow record batches,
// validate it against the schema and encode a complete Parquet file into a
// single buffer owned by the caller.
//
// # Architecture
//
// The conversion path is split into small packages, each usable alone:
//
//	pkg/schema        - schema descriptions, structured schemas, the registry
//	pkg/tablebuilder  - JSON input to a validated arrow table
//	pkg/columnar      - arrow tables to Parquet bytes, and back for inspection
//	pkg/buffer        - owned output buffers and their release protocol
//	pkg/converter     - the pipeline tying the above together
//	internal/ffi      - status codes and pointer tracking for the C boundary
//
// Ambient concerns live beside them:
//
//	pkg/config        - YAML configuration with ${ENV} substitution
//	pkg/errors        - structured errors carrying an error type
//	pkg/logger        - zap based structured logging
//	pkg/metrics       - prometheus conversion metrics
//	pkg/observability - opentelemetry tracing
//	pkg/compression   - transparent decompression of CLI inputs
//
// # Quick Start
//
//	conv, err := converter.New(config.NewConfig())
//	if err != nil {
//	    return err
//	}
//	err = conv.RegisterSchema("Patient", `{"type":"object","properties":{
//	    "id":{"type":"string"},"birthDate":{"type":"string"}}}`)
//	if err != nil {
//	    return err
//	}
//
//	buf, err := conv.Convert(ctx, "Patient", []byte(`{"id":"123","birthDate":"1990-01-01"}`))
//	if err != nil {
//	    return err
//	}
//	defer conv.Release(buf)
//	os.WriteFile("patient.parquet", buf.Bytes(), 0o644)
//
// # Native Library
//
// cmd/libjsonparquet builds a C shared library exporting
// RegisterParquetSchema, ConvertJsonToParquet and ReleaseUnmanagedData.
// Output memory comes from malloc and must be returned through
// ReleaseUnmanagedData; every call returns one of the stable status codes
// defined in internal/ffi.
//
// # Command Line
//
//	jsonparquet convert --schema patient.json --type Patient --input in.ndjson.gz --output out.parquet
//	jsonparquet schema validate patient.json --type Patient
//	jsonparquet schema diff v1.json v2.json --mode backward
//	jsonparquet inspect out.parquet
package jsonparquet
