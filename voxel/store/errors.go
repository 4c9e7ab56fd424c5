package store

import "errors"

var (
	// ErrIndexNotFound indicates an index that no chunk owns.
	ErrIndexNotFound = errors.New("store: index not found")

	// ErrOutOfRange indicates a read or removal that runs past its chunk.
	ErrOutOfRange = errors.New("store: range crosses chunk boundary")

	// ErrIndexSpace indicates the global index space is exhausted.
	ErrIndexSpace = errors.New("store: index space exhausted")

	// ErrClosed indicates use of a store after Close.
	ErrClosed = errors.New("store: closed")
)
