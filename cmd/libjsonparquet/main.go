// Command libjsonparquet builds the converter as a C shared library:
//
//	go build -buildmode=c-shared -o libjsonparquet.so ./cmd/libjsonparquet
//
// Output buffers are allocated with malloc. Callers must hand them back
// through ReleaseUnmanagedData and never free them directly.
package main

/*
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/ajitpratap0/jsonparquet/internal/ffi"
	"github.com/ajitpratap0/jsonparquet/pkg/errors"
)

// mallocAllocator backs output buffers with C heap memory
type mallocAllocator struct{}

func (mallocAllocator) Alloc(n int) (unsafe.Pointer, []byte, error) {
	ptr := C.malloc(C.size_t(max(n, 1)))
	if ptr == nil {
		return nil, nil, errors.New(errors.ErrorTypeInternal, "malloc failed").WithDetail("size", n)
	}
	return ptr, unsafe.Slice((*byte)(ptr), n), nil
}

func (mallocAllocator) Free(ptr unsafe.Pointer) {
	C.free(ptr)
}

func (mallocAllocator) Name() string {
	return "malloc"
}

func library() (*ffi.Library, ffi.Status) {
	lib, err := ffi.Default(mallocAllocator{})
	if err != nil {
		return nil, ffi.StatusOf(err)
	}
	return lib, ffi.StatusSuccess
}

// RegisterParquetSchema registers a NUL-terminated schema description under
// a NUL-terminated key.
//
//export RegisterParquetSchema
func RegisterParquetSchema(key *C.char, description *C.char) C.int {
	if key == nil || description == nil {
		return C.int(ffi.StatusInvalidArgument)
	}
	lib, status := library()
	if status != ffi.StatusSuccess {
		return C.int(status)
	}
	return C.int(lib.RegisterSchema(C.GoString(key), C.GoString(description)))
}

// ConvertJsonToParquet converts inputLength bytes of JSON. On success
// *output and *outputLength describe a buffer the caller owns; on failure
// *output is NULL and *outputLength is 0.
//
//export ConvertJsonToParquet
func ConvertJsonToParquet(key *C.char, input *C.uchar, inputLength C.int, output **C.uchar, outputLength *C.int) C.int {
	if output == nil || outputLength == nil {
		return C.int(ffi.StatusInvalidArgument)
	}
	*output = nil
	*outputLength = 0

	if key == nil || inputLength < 0 || (input == nil && inputLength > 0) {
		return C.int(ffi.StatusInvalidArgument)
	}
	lib, status := library()
	if status != ffi.StatusSuccess {
		return C.int(status)
	}

	var data []byte
	if inputLength > 0 {
		data = C.GoBytes(unsafe.Pointer(input), inputLength)
	}

	status, ptr, length := lib.Convert(C.GoString(key), data)
	if status != ffi.StatusSuccess {
		return C.int(status)
	}
	if length > ffi.MaxOutputLength {
		_ = lib.Release(ptr)
		return C.int(ffi.StatusWriteToParquetError)
	}
	*output = (*C.uchar)(ptr)
	*outputLength = C.int(length)
	return C.int(ffi.StatusSuccess)
}

// ReleaseUnmanagedData frees a buffer returned by ConvertJsonToParquet and
// sets *data to NULL. Releasing NULL is a no-op.
//
//export ReleaseUnmanagedData
func ReleaseUnmanagedData(data **C.uchar) C.int {
	if data == nil || *data == nil {
		return C.int(ffi.StatusSuccess)
	}
	lib, status := library()
	if status != ffi.StatusSuccess {
		return C.int(status)
	}
	status = lib.Release(unsafe.Pointer(*data))
	if status == ffi.StatusSuccess {
		*data = nil
	}
	return C.int(status)
}

func main() {}
