package buffer

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// GoAllocator allocates buffers on the Go heap. Allocations are pinned in a
// map until freed so their addresses stay valid while a caller holds them.
type GoAllocator struct {
	mu   sync.Mutex
	live map[unsafe.Pointer][]byte

	outstanding atomic.Int64
	bytes       atomic.Int64
}

// NewGoAllocator creates a Go heap allocator
func NewGoAllocator() *GoAllocator {
	return &GoAllocator{live: make(map[unsafe.Pointer][]byte)}
}

// Alloc implements Allocator. Zero-length requests still get a distinct
// address.
func (a *GoAllocator) Alloc(n int) (unsafe.Pointer, []byte, error) {
	data := make([]byte, max(n, 1))
	ptr := unsafe.Pointer(unsafe.SliceData(data))

	a.mu.Lock()
	a.live[ptr] = data
	a.mu.Unlock()

	a.outstanding.Add(1)
	a.bytes.Add(int64(len(data)))
	return ptr, data[:n], nil
}

// Free implements Allocator. Unknown pointers are ignored.
func (a *GoAllocator) Free(ptr unsafe.Pointer) {
	a.mu.Lock()
	data, ok := a.live[ptr]
	delete(a.live, ptr)
	a.mu.Unlock()

	if ok {
		a.outstanding.Add(-1)
		a.bytes.Add(-int64(len(data)))
	}
}

// Name implements Allocator
func (a *GoAllocator) Name() string {
	return "go"
}

// Outstanding returns the number of allocations not yet freed
func (a *GoAllocator) Outstanding() int64 {
	return a.outstanding.Load()
}

// OutstandingBytes returns the number of bytes not yet freed
func (a *GoAllocator) OutstandingBytes() int64 {
	return a.bytes.Load()
}
