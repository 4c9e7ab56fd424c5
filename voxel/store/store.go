package store

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/joshuapare/voxkit/voxel/buddy"
	"github.com/joshuapare/voxkit/voxel/hashcache"
)

// Store is a deduplicating element store over a shared buddy allocator.
type Store[T comparable] struct {
	mu     sync.RWMutex
	alloc  *buddy.Shared
	codec  ElementCodec[T]
	opts   Options
	log    *slog.Logger
	chunks []*chunk[T]
	next   uint64 // base index of the next chunk
	closed bool

	// scratch holds encode buffers for hashing pushes.
	scratch sync.Pool

	counters
}

// New creates an empty store. opts may be nil for defaults.
func New[T comparable](alloc *buddy.Shared, codec ElementCodec[T], opts *Options) *Store[T] {
	o := opts.withDefaults()
	s := &Store[T]{
		alloc: alloc,
		codec: codec,
		opts:  o,
		log:   o.Logger.With("store", o.Name),
	}
	s.scratch.New = func() any {
		b := make([]byte, 0, 256)
		return &b
	}
	return s
}

// Options returns the effective options.
func (s *Store[T]) Options() Options { return s.opts }

// ElementSize returns the encoded size of one element in bytes.
func (s *Store[T]) ElementSize() int { return s.codec.Size() }

// Push stores values and returns the global index of values[0]. The elements
// at [index, index+len(values)) equal values until they are removed. An empty
// push returns 0 and stores nothing.
func (s *Store[T]) Push(values []T) (uint32, error) {
	if len(values) == 0 {
		return 0, nil
	}
	s.pushes.Add(1)
	key := s.hash(values)

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return 0, ErrClosed
	}
	idx, ok := s.lookupExact(key, values)
	s.mu.RUnlock()
	if ok {
		s.exactHits.Add(1)
		s.saved.Add(uint64(len(values)))
		return idx, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	// another writer may have stored the same content meanwhile
	if idx, ok := s.lookupExact(key, values); ok {
		s.exactHits.Add(1)
		s.saved.Add(uint64(len(values)))
		return idx, nil
	}

	n := int64(len(values))
	if m := s.search(values); m.found() {
		c := s.chunks[m.chunk]
		c.write(m.at+int64(m.have), values[m.have:])
		c.hashes.Store(key, hashcache.Span{Start: uint32(m.at), Len: uint32(n)})
		if m.have == len(values) {
			s.containedHits.Add(1)
		} else {
			s.overlapHits.Add(1)
		}
		s.saved.Add(uint64(m.have))
		s.written.Add(uint64(len(values) - m.have))
		return c.base + uint32(m.at), nil
	}

	for _, c := range s.chunks {
		if off, ok := c.firstGap(n); ok {
			if len(c.used) > 0 && off < c.used[len(c.used)-1].End() {
				s.gapReuses.Add(1)
			}
			s.place(c, off, key, values)
			return c.base + uint32(off), nil
		}
	}

	c, err := s.grow(len(values))
	if err != nil {
		return 0, err
	}
	s.place(c, 0, key, values)
	return c.base, nil
}

// place writes values at off in c and records their hash.
func (s *Store[T]) place(c *chunk[T], off int64, key uint64, values []T) {
	c.write(off, values)
	c.hashes.Store(key, hashcache.Span{Start: uint32(off), Len: uint32(len(values))})
	s.written.Add(uint64(len(values)))
}

// hash returns the content hash of the encoded values.
func (s *Store[T]) hash(values []T) uint64 {
	bp := s.scratch.Get().(*[]byte)
	*bp = encodeInto(s.codec, *bp, values)
	key := hashcache.Sum(*bp)
	s.scratch.Put(bp)
	return key
}

// lookupExact checks every chunk's hash cache and verifies candidates
// element by element, so hash collisions never alias content.
func (s *Store[T]) lookupExact(key uint64, values []T) (uint32, bool) {
	n := int64(len(values))
	for _, c := range s.chunks {
		for _, sp := range c.hashes.Lookup(key) {
			off := int64(sp.Start)
			if int64(sp.Len) != n || !c.live(off, n) {
				continue
			}
			if slices.Equal(c.data[off:off+n], values) {
				return c.base + sp.Start, true
			}
		}
	}
	return 0, false
}

// grow allocates a chunk with room for at least n elements.
func (s *Store[T]) grow(n int) (*chunk[T], error) {
	size := uint64(s.codec.Size())
	want := max(s.opts.MinAllocBytes, uint64(n)*size)
	h, err := s.alloc.Alloc(want)
	if err != nil {
		return nil, fmt.Errorf("store %s: grow for %d elements: %w", s.opts.Name, n, err)
	}
	capacity := h.Size() / size
	if s.next+capacity-1 > uint64(s.opts.MaxIndex) {
		_ = h.Release()
		return nil, fmt.Errorf("store %s: base %d + %d elements: %w", s.opts.Name, s.next, capacity, ErrIndexSpace)
	}

	c := newChunk[T](h, uint32(s.next), int(capacity), s.opts.HashCacheCapacity)
	s.chunks = append(s.chunks, c)
	s.next += capacity
	s.newChunks.Add(1)
	s.log.Debug("new chunk",
		"base", c.base,
		"elements", capacity,
		"offset", h.Start(),
		"bytes", h.Size())
	return c, nil
}

// owner returns the chunk holding global index idx. Chunk bases are
// increasing so a binary search suffices.
func (s *Store[T]) owner(idx uint32) (*chunk[T], bool) {
	i := sort.Search(len(s.chunks), func(i int) bool {
		c := s.chunks[i]
		return uint64(c.base)+uint64(len(c.data)) > uint64(idx)
	})
	if i == len(s.chunks) || !s.chunks[i].contains(idx) {
		return nil, false
	}
	return s.chunks[i], true
}

// ByteOffset returns where idx lands in a flush destination: the owning
// chunk's allocation start plus the element offset.
func (s *Store[T]) ByteOffset(idx uint32) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.owner(idx)
	if !ok {
		return 0, fmt.Errorf("offset %d: %w", idx, ErrIndexNotFound)
	}
	return int64(c.alloc.Start()) + int64(idx-c.base)*int64(s.codec.Size()), nil
}

// Get returns the element at idx.
func (s *Store[T]) Get(idx uint32) (T, error) {
	var zero T
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.owner(idx)
	if !ok {
		return zero, fmt.Errorf("get %d: %w", idx, ErrIndexNotFound)
	}
	return c.data[idx-c.base], nil
}

// Range returns a copy of count elements starting at idx. The span must lie
// inside one chunk, which holds for every span returned by Push.
func (s *Store[T]) Range(idx uint32, count int) ([]T, error) {
	if count == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.owner(idx)
	if !ok {
		return nil, fmt.Errorf("range %d+%d: %w", idx, count, ErrIndexNotFound)
	}
	off := int(idx - c.base)
	if count < 0 || off+count > len(c.data) {
		return nil, fmt.Errorf("range %d+%d: %w", idx, count, ErrOutOfRange)
	}
	return slices.Clone(c.data[off : off+count]), nil
}

// View calls fn with the elements at [idx, idx+count) while holding the read
// lock. fn must not retain the slice or call back into the store's writers.
func (s *Store[T]) View(idx uint32, count int, fn func(values []T) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.owner(idx)
	if !ok {
		return fmt.Errorf("view %d+%d: %w", idx, count, ErrIndexNotFound)
	}
	off := int(idx - c.base)
	if count < 0 || off+count > len(c.data) {
		return fmt.Errorf("view %d+%d: %w", idx, count, ErrOutOfRange)
	}
	return fn(c.data[off : off+count])
}
