package buddy

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Shared serializes access to an Allocator and hands out refcounted handles.
type Shared struct {
	mu sync.Mutex
	a  *Allocator
}

// NewShared wraps a. The caller must not use a directly afterwards.
func NewShared(a *Allocator) *Shared {
	return &Shared{a: a}
}

// Allocation is a block owned by one or more holders. The last Release
// returns the block to the allocator.
type Allocation struct {
	owner *Shared
	block Block
	refs  atomic.Int32
}

// Alloc allocates size bytes and returns a handle with one reference.
func (s *Shared) Alloc(size uint64) (*Allocation, error) {
	s.mu.Lock()
	blk, err := s.a.Alloc(size)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	h := &Allocation{owner: s, block: blk}
	h.refs.Store(1)
	return h, nil
}

// Coalesce runs a full coalescing pass under the lock.
func (s *Shared) Coalesce() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Coalesce()
}

// Stats returns a snapshot of the allocator counters.
func (s *Shared) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Stats()
}

// Size returns the region size in bytes.
func (s *Shared) Size() uint64 { return s.a.Size() }

// With runs fn with exclusive access to the underlying allocator.
func (s *Shared) With(fn func(a *Allocator)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.a)
}

// Start returns the first byte of the block.
func (h *Allocation) Start() uint64 { return h.block.Start }

// Size returns the block size in bytes.
func (h *Allocation) Size() uint64 { return h.block.Size }

// Block returns the underlying block.
func (h *Allocation) Block() Block { return h.block }

// Refs returns the current number of holders.
func (h *Allocation) Refs() int { return int(h.refs.Load()) }

// Retain adds a holder and returns h.
func (h *Allocation) Retain() *Allocation {
	h.refs.Add(1)
	return h
}

// Release drops one holder. The final release deallocates the block;
// releasing more times than retained returns ErrInvalidRelease.
func (h *Allocation) Release() error {
	n := h.refs.Add(-1)
	switch {
	case n > 0:
		return nil
	case n < 0:
		h.refs.Add(1)
		return fmt.Errorf("release %#x: %w", h.block.Start, ErrInvalidRelease)
	}
	h.owner.mu.Lock()
	defer h.owner.mu.Unlock()
	return h.owner.a.Dealloc(h.block.Start)
}
