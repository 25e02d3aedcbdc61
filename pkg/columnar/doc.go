// Package columnar encodes arrow tables as Apache Parquet files.
//
// # Overview
//
// An Encoder is configured once with EncoderOptions and then turns each
// table into one complete, self-describing parquet file:
//
//   - row groups hold at most WriteBatchSize rows
//   - pages are compressed with the configured Codec
//   - the footer carries the parquet schema and, with StoreSchema, the
//     serialized arrow schema including its metadata
//
// Encoding happens in a pooled scratch buffer; the bytes handed back are a
// private copy, so the scratch memory is reused across calls.
//
// # Reading
//
// ReadTable and Inspect decode files produced by the Encoder. They exist
// for verification and the inspect command rather than for the conversion
// path.
package columnar
