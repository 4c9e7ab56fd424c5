//go:build !linux && !darwin && !freebsd

package region

func mapRegion(size int) ([]byte, bool, error) {
	return make([]byte, size), false, nil
}

func unmapRegion([]byte) error { return nil }

func discard(data []byte, off, n int, _ bool) error {
	clear(data[off : off+n])
	return nil
}
