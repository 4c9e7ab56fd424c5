package store

import (
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/voxkit/voxel/dirty"
	"github.com/joshuapare/voxkit/voxel/hashcache"
)

// Remove queues [idx, idx+count) for release at the next Optimize. The span
// must lie inside one chunk. Content shared with other pushes is the
// caller's responsibility.
func (s *Store[T]) Remove(idx uint32, count int) error {
	if count <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	c, ok := s.owner(idx)
	if !ok {
		return fmt.Errorf("remove %d+%d: %w", idx, count, ErrIndexNotFound)
	}
	off := int64(idx - c.base)
	if off+int64(count) > int64(len(c.data)) {
		return fmt.Errorf("remove %d+%d: %w", idx, count, ErrOutOfRange)
	}
	c.freed.Add(off, int64(count))
	s.removed.Add(uint64(count))
	return nil
}

// OptimizeResult summarizes one Optimize pass.
type OptimizeResult struct {
	Chunks        int   // chunks with pending frees
	Ranges        int   // merged free ranges applied
	Elements      int64 // elements returned to free space
	HashesDropped int   // cached spans forgotten
}

// Optimize merges every chunk's pending frees, returns them to the chunk's
// free space and drops cached hashes overlapping them. Chunks stay
// allocated until Close.
func (s *Store[T]) Optimize() OptimizeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res OptimizeResult
	for _, c := range s.chunks {
		frees := c.freed.Take()
		if len(frees) == 0 {
			continue
		}
		res.Chunks++
		res.Ranges += len(frees)
		before := c.usedLen()
		c.used = dirty.Subtract(c.used, frees)
		res.Elements += before - c.usedLen()
		for _, f := range frees {
			res.HashesDropped += c.hashes.DropOverlapping(hashcache.Span{
				Start: uint32(f.Off),
				Len:   uint32(f.Len),
			})
		}
	}
	if res.Chunks > 0 {
		s.log.Debug("optimize",
			"chunks", res.Chunks,
			"ranges", res.Ranges,
			"elements", res.Elements,
			"hashes_dropped", res.HashesDropped)
	}
	return res
}

// Flush writes every range modified since the previous Flush to dst. Bytes
// land at allocation offset + local index * element size, so dst is
// addressed like the allocator's region.
func (s *Store[T]) Flush(dst io.WriterAt) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush(dst, func(c *chunk[T]) []dirty.Range { return c.written.Take() })
}

// FlushAll writes every live range regardless of dirtiness and clears the
// dirty state.
func (s *Store[T]) FlushAll(dst io.WriterAt) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chunks {
		c.written.Reset()
	}
	return s.flush(dst, func(c *chunk[T]) []dirty.Range { return c.used })
}

func (s *Store[T]) flush(dst io.WriterAt, ranges func(c *chunk[T]) []dirty.Range) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	size := int64(s.codec.Size())
	var total int64
	var buf []byte
	for _, c := range s.chunks {
		for _, r := range ranges(c) {
			buf = encodeInto(s.codec, buf, c.data[r.Off:r.End()])
			at := int64(c.alloc.Start()) + r.Off*size
			n, err := dst.WriteAt(buf, at)
			total += int64(n)
			if err != nil {
				return total, fmt.Errorf("store %s: flush [%d,%d) at %#x: %w", s.opts.Name, r.Off, r.End(), at, err)
			}
		}
	}
	return total, nil
}

// Close releases every chunk back to the allocator. The store is unusable
// afterwards; a second Close is a no-op.
func (s *Store[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, c := range s.chunks {
		if err := c.alloc.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	s.chunks = nil
	return errors.Join(errs...)
}
