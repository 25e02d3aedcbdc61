// Package mmap maps input files read-only into memory so large inputs are
// parsed without first being copied onto the heap.
package mmap

import (
	"fmt"
	"math"
	"os"
)

// File is a read-only view of a file's contents
type File struct {
	file   *os.File
	data   []byte
	mapped bool
}

// Open maps path into memory. Where mapping is unavailable the file is read
// instead, so callers can always rely on Bytes.
func Open(path string) (*File, error) {
	file, err := os.Open(path) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	size := stat.Size()
	if size > math.MaxInt {
		file.Close()
		return nil, fmt.Errorf("file is too large to map: %d bytes", size)
	}
	if size == 0 {
		return &File{file: file}, nil
	}

	data, err := mmap(int(file.Fd()), 0, int(size), protRead, mapShared)
	if err != nil {
		data, err = os.ReadFile(path) //nolint:gosec // G304: path is chosen by the caller
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return &File{file: file, data: data}, nil
	}

	// Advisory only
	_ = madvise(data, madvSequential)

	return &File{file: file, data: data, mapped: true}, nil
}

// Bytes returns the file contents. The slice is invalid after Close.
func (f *File) Bytes() []byte {
	return f.data
}

// Len returns the file size
func (f *File) Len() int {
	return len(f.data)
}

// Mapped reports whether the contents are memory mapped
func (f *File) Mapped() bool {
	return f.mapped
}

// Close unmaps and closes the file
func (f *File) Close() error {
	var err error
	if f.mapped && f.data != nil {
		err = munmap(f.data)
	}
	f.data = nil
	f.mapped = false

	if f.file != nil {
		if closeErr := f.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		f.file = nil
	}
	return err
}
