package dag

import "errors"

var (
	// ErrAllocationExhausted indicates the allocator could not back a push.
	// The underlying allocator or store error is wrapped as well.
	ErrAllocationExhausted = errors.New("dag: allocation exhausted")

	// ErrStaleKey indicates a key whose entry was deleted or never existed.
	ErrStaleKey = errors.New("dag: stale entry key")

	// ErrBadLevel indicates a level outside [1, format.MaxLevels].
	ErrBadLevel = errors.New("dag: level out of range")

	// ErrNameTaken indicates Bind on a name already bound to a live entry.
	ErrNameTaken = errors.New("dag: name already bound")

	// ErrCorrupt indicates a node whose payload cannot be read back.
	ErrCorrupt = errors.New("dag: corrupt node")
)
