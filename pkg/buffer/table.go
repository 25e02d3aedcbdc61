package buffer

import (
	"sync"
	"unsafe"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
)

// Table tracks buffers handed across the boundary by address, so a caller
// that only holds a raw pointer can give the memory back.
type Table struct {
	mu      sync.Mutex
	buffers map[uintptr]*Buffer
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{buffers: make(map[uintptr]*Buffer)}
}

// Track registers an owned buffer and returns its address
func (t *Table) Track(b *Buffer) (uintptr, error) {
	if b == nil {
		return 0, errors.New(errors.ErrorTypeValidation, "cannot track a nil buffer")
	}
	if state := b.State(); state != Owned {
		return 0, errors.Newf(errors.ErrorTypeOwnership, "cannot track a %s buffer", state)
	}

	addr := uintptr(b.Ptr())

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.buffers[addr]; exists {
		return 0, errors.New(errors.ErrorTypeOwnership, "buffer address is already tracked").
			WithDetail("address", addr)
	}
	t.buffers[addr] = b
	return addr, nil
}

// Release frees the buffer at ptr. A nil pointer is a no-op. Pointers that
// were never handed out, or were already released, yield an ownership error
// and nothing is freed.
func (t *Table) Release(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}
	b, err := t.Take(ptr)
	if err != nil {
		return err
	}
	return b.Release()
}

// Take stops tracking the buffer at ptr and returns it. The caller becomes
// responsible for releasing it.
func (t *Table) Take(ptr unsafe.Pointer) (*Buffer, error) {
	addr := uintptr(ptr)

	t.mu.Lock()
	b, ok := t.buffers[addr]
	delete(t.buffers, addr)
	t.mu.Unlock()

	if !ok {
		return nil, errors.New(errors.ErrorTypeOwnership, "pointer is not an outstanding buffer").
			WithDetail("address", addr)
	}
	return b, nil
}

// Outstanding returns the number of tracked buffers
func (t *Table) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buffers)
}
