// Package buffer implements the ownership protocol for output buffers that
// cross the library boundary.
//
// A Buffer is allocated by an Allocator, filled while Building, handed to
// the caller as Owned and finally Released exactly once through the
// allocator that created it. Releasing twice is reported as an ownership
// error and never frees memory a second time.
package buffer

import (
	stderrors "errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/ajitpratap0/jsonparquet/pkg/errors"
)

// State is the lifecycle state of a Buffer
type State int32

const (
	Building State = iota
	Owned
	Released
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Owned:
		return "owned"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Allocator provides the memory behind buffers. Free must only be called
// with pointers returned by Alloc on the same allocator.
type Allocator interface {
	// Alloc returns n bytes of memory and its address
	Alloc(n int) (unsafe.Pointer, []byte, error)
	// Free releases memory returned by Alloc
	Free(ptr unsafe.Pointer)
	// Name identifies the strategy in logs
	Name() string
}

// ErrAlreadyReleased is the message of the ownership error returned when a
// buffer is released twice.
const ErrAlreadyReleased = "buffer already released"

// IsAlreadyReleased reports whether err is a double release
func IsAlreadyReleased(err error) bool {
	var e *errors.Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Type == errors.ErrorTypeOwnership && e.Message == ErrAlreadyReleased
}

// Buffer is a contiguous byte region with a single owner
type Buffer struct {
	mu    sync.Mutex
	ptr   unsafe.Pointer
	data  []byte
	alloc Allocator
	state State
}

// New allocates a buffer of exactly size bytes. The buffer starts in the
// Building state.
func New(alloc Allocator, size int) (*Buffer, error) {
	if alloc == nil {
		return nil, errors.New(errors.ErrorTypeInternal, "buffer allocator is nil")
	}
	if size < 0 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "invalid buffer size %d", size)
	}
	ptr, data, err := alloc.Alloc(size)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "buffer allocation failed").
			WithDetail("size", size).
			WithDetail("allocator", alloc.Name())
	}
	return &Buffer{ptr: ptr, data: data[:size:size], alloc: alloc, state: Building}, nil
}

// FromBytes allocates a buffer sized to src, copies src into it and hands it
// over as Owned.
func FromBytes(alloc Allocator, src []byte) (*Buffer, error) {
	b, err := New(alloc, len(src))
	if err != nil {
		return nil, err
	}
	copy(b.data, src)
	if err := b.Seal(); err != nil {
		_ = b.Release()
		return nil, err
	}
	return b, nil
}

// Writable returns the memory to fill. It is only valid while Building.
func (b *Buffer) Writable() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Building {
		return nil, errors.Newf(errors.ErrorTypeOwnership, "buffer is %s, not building", b.state)
	}
	return b.data, nil
}

// Seal transfers ownership to the caller
func (b *Buffer) Seal() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Building {
		return errors.Newf(errors.ErrorTypeOwnership, "buffer is %s, not building", b.state)
	}
	b.state = Owned
	return nil
}

// Bytes returns the buffer contents, or nil once released
func (b *Buffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Released {
		return nil
	}
	return b.data
}

// Len returns the buffer length in bytes
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Released {
		return 0
	}
	return len(b.data)
}

// Ptr returns the address of the buffer memory, or nil once released
func (b *Buffer) Ptr() unsafe.Pointer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Released {
		return nil
	}
	return b.ptr
}

// State returns the current lifecycle state
func (b *Buffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allocator returns the allocator that owns the memory
func (b *Buffer) Allocator() Allocator {
	return b.alloc
}

// Release frees the memory through the allocator that created it. A nil
// buffer is a no-op; a second release returns an ownership error.
func (b *Buffer) Release() error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Released {
		return errors.New(errors.ErrorTypeOwnership, ErrAlreadyReleased)
	}

	b.alloc.Free(b.ptr)
	b.ptr = nil
	b.data = nil
	b.state = Released
	return nil
}
