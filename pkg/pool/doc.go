// Package pool provides type-safe object pooling.
//
// # Architecture
//
// Pool[T] builds on sync.Pool and adds a reset hook and usage statistics.
// ScratchPool specializes it for the bytes.Buffers that the parquet encoder
// writes into before the finished file is copied into an owned buffer.
//
// # Usage
//
//	scratch := pool.NewScratchPool(1 << 20)
//	buf := scratch.Get()
//	defer scratch.Put(buf)
//
// Objects must not be used after Put. Buffers that grew past
// MaxRetainedBuffer are released to the garbage collector instead of being
// pooled.
package pool
