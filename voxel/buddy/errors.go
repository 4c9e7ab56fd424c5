package buddy

import "errors"

var (
	// ErrOutOfMemory indicates no free block of the requested order or larger exists.
	ErrOutOfMemory = errors.New("buddy: out of memory")

	// ErrInvalidRelease indicates a release of an address with no recorded allocation.
	ErrInvalidRelease = errors.New("buddy: release of unallocated block")

	// ErrBadConfig indicates a region or minimum block size that is not a power of two.
	ErrBadConfig = errors.New("buddy: size and minimum block must be powers of two with min <= size")
)
