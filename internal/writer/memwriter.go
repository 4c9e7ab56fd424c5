package writer

import (
	"errors"
	"sync"
)

// MemWriter is an io.WriterAt over a buffer that grows to the highest byte
// written. Gaps read as zero.
type MemWriter struct {
	mu  sync.Mutex
	buf []byte
}

// WriteAt copies p to off, growing the buffer as needed.
func (w *MemWriter) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("writer: negative offset")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	end := int(off) + len(p)
	if end > len(w.buf) {
		if end > cap(w.buf) {
			grown := make([]byte, end, max(end, 2*cap(w.buf)))
			copy(grown, w.buf)
			w.buf = grown
		} else {
			w.buf = w.buf[:end]
		}
	}
	return copy(w.buf[off:], p), nil
}

// WriteImage replaces the buffer with a copy of buf.
func (w *MemWriter) WriteImage(buf []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf[:0], buf...)
	return nil
}

// Bytes returns the buffer. It aliases later writes.
func (w *MemWriter) Bytes() []byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf
}

// Len returns the number of bytes up to the highest write.
func (w *MemWriter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buf)
}
