package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// MulOverflowSafe multiplies two non-negative ints, returning ok = false on overflow
// or when either operand is negative.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// CheckRecords validates that count fixed-size records starting at record
// index first fit in a buffer of bufLen bytes. It returns the byte offset
// just past the last record.
//
//	end, err := buf.CheckRecords(len(data), first, count, format.NodeRecordSize)
//	if err != nil {
//	    return fmt.Errorf("node list: %w", err)
//	}
func CheckRecords(bufLen, first, count, recordSize int) (int, error) {
	if first < 0 || count < 0 || recordSize <= 0 {
		return 0, fmt.Errorf("invalid record window: first=%d count=%d size=%d", first, count, recordSize)
	}
	start, ok := MulOverflowSafe(first, recordSize)
	if !ok {
		return 0, fmt.Errorf("overflow: first=%d * size=%d", first, recordSize)
	}
	n, ok := MulOverflowSafe(count, recordSize)
	if !ok {
		return 0, fmt.Errorf("overflow: count=%d * size=%d", count, recordSize)
	}
	end, ok := AddOverflowSafe(start, n)
	if !ok {
		return 0, fmt.Errorf("overflow: start=%d + len=%d", start, n)
	}
	if end > bufLen {
		return 0, fmt.Errorf("bounds: end=%d > len=%d", end, bufLen)
	}
	return end, nil
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}
