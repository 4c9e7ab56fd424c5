package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a record.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrPointerRange indicates a node pointer does not fit in the 31-bit pointer field.
	ErrPointerRange = errors.New("format: pointer exceeds 31 bits")
	// ErrUnsupportedVersion indicates a record layout version this codec cannot read.
	ErrUnsupportedVersion = errors.New("format: unsupported layout version")
	// ErrMaskMismatch indicates a payload length that disagrees with its occupancy mask.
	ErrMaskMismatch = errors.New("format: payload length does not match mask")
)
