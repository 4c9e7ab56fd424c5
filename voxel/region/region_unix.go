//go:build linux || darwin || freebsd

package region

import (
	"golang.org/x/sys/unix"
)

// pageSize is the OS page size used to keep madvise on page boundaries.
var pageSize = unix.Getpagesize()

func mapRegion(size int) ([]byte, bool, error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func unmapRegion(data []byte) error {
	return unix.Munmap(data)
}

// discard zeroes the head and tail partial pages by hand and hands whole pages
// back with MADV_DONTNEED, which reads back as zeroes for private anonymous maps.
func discard(data []byte, off, n int, mapped bool) error {
	if !mapped {
		clear(data[off : off+n])
		return nil
	}
	end := off + n
	first := (off + pageSize - 1) / pageSize * pageSize
	last := end / pageSize * pageSize
	if first >= last {
		clear(data[off:end])
		return nil
	}
	clear(data[off:first])
	clear(data[last:end])
	return unix.Madvise(data[first:last], unix.MADV_DONTNEED)
}
