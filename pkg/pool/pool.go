package pool

import (
	"bytes"
	"sync"
	"sync/atomic"
)

// Pool represents a generic object pool with type safety.
// It wraps sync.Pool with statistics tracking and an optional reset
// function. The pool is safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)
	stats struct {
		allocated int64
		inUse     int64
		gets      int64
	}
}

// New creates a new typed pool. new is called when the pool is empty;
// reset, if not nil, cleans an object before it goes back to the pool.
func New[T any](new func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{
		new:   new,
		reset: reset,
	}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return new()
	}
	return p
}

// Get retrieves an object from the pool, creating one if the pool is empty.
func (p *Pool[T]) Get() T {
	atomic.AddInt64(&p.stats.inUse, 1)
	atomic.AddInt64(&p.stats.gets, 1)
	return p.pool.Get().(T)
}

// Put resets obj and returns it to the pool.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	atomic.AddInt64(&p.stats.inUse, -1)
	p.pool.Put(obj)
}

// Stats returns the number of objects created by the pool, the number
// currently checked out, and how many Gets were served from a recycled
// object rather than a fresh allocation.
func (p *Pool[T]) Stats() (allocated, inUse, hits int64) {
	allocated = atomic.LoadInt64(&p.stats.allocated)
	gets := atomic.LoadInt64(&p.stats.gets)
	hits = gets - allocated
	if hits < 0 {
		hits = 0
	}
	return allocated, atomic.LoadInt64(&p.stats.inUse), hits
}

// MaxRetainedBuffer caps the capacity of buffers kept by a ScratchPool.
// Larger buffers are dropped on Put so one huge conversion does not pin
// its memory for the life of the process.
const MaxRetainedBuffer = 64 << 20

// ScratchPool pools bytes.Buffers used as temporary encode targets
type ScratchPool struct {
	pool *Pool[*bytes.Buffer]
}

// NewScratchPool creates a pool of buffers with the given initial capacity
func NewScratchPool(initialCapacity int) *ScratchPool {
	return &ScratchPool{
		pool: New(
			func() *bytes.Buffer {
				return bytes.NewBuffer(make([]byte, 0, initialCapacity))
			},
			func(b *bytes.Buffer) { b.Reset() },
		),
	}
}

// Get returns an empty buffer
func (s *ScratchPool) Get() *bytes.Buffer {
	return s.pool.Get()
}

// Put returns buf to the pool unless it has grown past MaxRetainedBuffer
func (s *ScratchPool) Put(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	if buf.Cap() > MaxRetainedBuffer {
		atomic.AddInt64(&s.pool.stats.inUse, -1)
		return
	}
	s.pool.Put(buf)
}

// Stats reports the underlying pool statistics
func (s *ScratchPool) Stats() (allocated, inUse, hits int64) {
	return s.pool.Stats()
}
