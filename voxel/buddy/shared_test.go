package buddy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShared_ReleaseReturnsBlock(t *testing.T) {
	s := NewShared(newTestAllocator(t, 1024, 64, CoalesceCascade))

	h, err := s.Alloc(100)
	require.NoError(t, err)
	assert.Equal(t, uint64(128), h.Size())
	assert.Equal(t, 1, h.Refs())

	h.Retain()
	require.NoError(t, h.Release())
	assert.Equal(t, uint64(128), s.Stats().BytesInUse, "block must stay live while a holder remains")

	require.NoError(t, h.Release())
	assert.Equal(t, uint64(0), s.Stats().BytesInUse)

	require.ErrorIs(t, h.Release(), ErrInvalidRelease)
}

func TestShared_ConcurrentAllocRelease(t *testing.T) {
	s := NewShared(newTestAllocator(t, 1<<20, 64, CoalesceCascade))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for g := range 16 {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			var held []*Allocation
			for i := range 100 {
				h, err := s.Alloc(uint64(64 * (1 + (g+i)%8)))
				if err != nil {
					errs <- err
					return
				}
				held = append(held, h)
			}
			for _, h := range held {
				if err := h.Release(); err != nil {
					errs <- err
					return
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent use failed: %v", err)
	}

	s.Coalesce()
	stats := s.Stats()
	require.Equal(t, uint64(0), stats.BytesInUse)
	require.Equal(t, 1, stats.FreeBlocks)
	require.Equal(t, uint64(1<<20), stats.LargestFree)
}

func TestShared_With(t *testing.T) {
	s := NewShared(newTestAllocator(t, 256, 16, CoalesceSingle))
	s.With(func(a *Allocator) {
		assert.Equal(t, CoalesceSingle, a.Policy())
		assert.Equal(t, uint64(16), a.MinBlock())
	})
	assert.Equal(t, uint64(256), s.Size())
}
