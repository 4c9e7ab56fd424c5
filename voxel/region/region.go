// Package region provides the byte region mirrored by the buddy allocator's
// address space. Element stores flush encoded records into it at
// allocation.Start + localOffset, which is the layout a renderer uploads.
//
// On Linux, macOS and FreeBSD the region is an anonymous private mapping so large, sparsely
// touched regions cost no resident memory until written; elsewhere it is a
// plain heap slice.
package region

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds indicates a write or read past the end of the region.
	ErrOutOfBounds = errors.New("region: access out of bounds")
	// ErrClosed indicates use of a region after Close.
	ErrClosed = errors.New("region: closed")
)

// Region is a fixed-size byte region.
type Region struct {
	data   []byte
	mapped bool
}

// New creates a zeroed region of size bytes.
func New(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("region: invalid size %d", size)
	}
	data, mapped, err := mapRegion(size)
	if err != nil {
		return nil, fmt.Errorf("region: map %d bytes: %w", size, err)
	}
	return &Region{data: data, mapped: mapped}, nil
}

// Size returns the region size in bytes.
func (r *Region) Size() int { return len(r.data) }

// Bytes returns the backing slice. It is invalid after Close.
func (r *Region) Bytes() []byte { return r.data }

// WriteAt implements io.WriterAt.
func (r *Region) WriteAt(p []byte, off int64) (int, error) {
	if r.data == nil {
		return 0, ErrClosed
	}
	if off < 0 || off+int64(len(p)) > int64(len(r.data)) {
		return 0, fmt.Errorf("write [%d,%d) of %d: %w", off, off+int64(len(p)), len(r.data), ErrOutOfBounds)
	}
	return copy(r.data[off:], p), nil
}

// ReadAt implements io.ReaderAt.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	if r.data == nil {
		return 0, ErrClosed
	}
	if off < 0 || off+int64(len(p)) > int64(len(r.data)) {
		return 0, fmt.Errorf("read [%d,%d) of %d: %w", off, off+int64(len(p)), len(r.data), ErrOutOfBounds)
	}
	return copy(p, r.data[off:]), nil
}

// Discard zeroes [off, off+n), letting the OS drop the pages when mapped.
func (r *Region) Discard(off, n int) error {
	if r.data == nil {
		return ErrClosed
	}
	if off < 0 || n < 0 || off+n > len(r.data) {
		return fmt.Errorf("discard [%d,%d) of %d: %w", off, off+n, len(r.data), ErrOutOfBounds)
	}
	return discard(r.data, off, n, r.mapped)
}

// Close releases the region. Calling Close twice is a no-op.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if r.mapped {
		return unmapRegion(data)
	}
	return nil
}
