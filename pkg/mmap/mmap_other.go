//go:build !linux && !darwin

package mmap

import "errors"

const (
	protRead       = 0
	mapShared      = 0
	madvSequential = 0
)

var errUnsupported = errors.New("mmap is not supported on this platform")

func mmap(int, int64, int, int, int) ([]byte, error) {
	return nil, errUnsupported
}

func munmap([]byte) error {
	return nil
}

func madvise([]byte, int) error {
	return nil
}
