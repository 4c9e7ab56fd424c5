package buddy

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAllocator(t testing.TB, size, minBlock uint64, policy CoalescePolicy) *Allocator {
	t.Helper()
	a, err := New(size, minBlock, policy)
	if err != nil {
		t.Fatalf("New(%d, %d): %v", size, minBlock, err)
	}
	return a
}

// Test_Buddy_Exhaustion allocates 32, 16 and 64 bytes from a 128-byte region
// with 16-byte minimum blocks; a further 32-byte request must fail.
func Test_Buddy_Exhaustion(t *testing.T) {
	a := newTestAllocator(t, 128, 16, CoalesceCascade)

	for _, size := range []uint64{32, 16, 64} {
		if _, err := a.Alloc(size); err != nil {
			t.Fatalf("Alloc(%d) failed: %v", size, err)
		}
	}
	if a.InUse() != 112 {
		t.Fatalf("InUse = %d, want 112", a.InUse())
	}

	_, err := a.Alloc(32)
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("Alloc(32) err = %v, want ErrOutOfMemory", err)
	}

	// The remaining 16 bytes are still usable.
	blk, err := a.Alloc(16)
	require.NoError(t, err)
	require.Equal(t, uint64(48), blk.Start)
}

// Test_Buddy_SplitPushesUpperHalves checks the free lists after one split chain.
func Test_Buddy_SplitPushesUpperHalves(t *testing.T) {
	a := newTestAllocator(t, 1024, 64, CoalesceCascade)

	blk, err := a.Alloc(50)
	require.NoError(t, err)
	require.Equal(t, Block{Start: 0, Size: 64}, blk)

	require.Equal(t, []Block{{Start: 64, Size: 64}}, a.FreeBlocks(64))
	require.Equal(t, []Block{{Start: 128, Size: 128}}, a.FreeBlocks(128))
	require.Equal(t, []Block{{Start: 256, Size: 256}}, a.FreeBlocks(256))
	require.Equal(t, []Block{{Start: 512, Size: 512}}, a.FreeBlocks(512))
	require.Empty(t, a.FreeBlocks(1024))
	require.Equal(t, 4, a.Stats().Splits)
}

func Test_Buddy_RoundsUpAndUsesMinimum(t *testing.T) {
	a := newTestAllocator(t, 4096, 256, CoalesceCascade)

	blk, err := a.Alloc(0)
	require.NoError(t, err)
	require.Equal(t, uint64(256), blk.Size)

	blk, err = a.Alloc(257)
	require.NoError(t, err)
	require.Equal(t, uint64(512), blk.Size)

	size, ok := a.SizeOf(blk.Start)
	require.True(t, ok)
	require.Equal(t, uint64(512), size)

	_, err = a.Alloc(8192)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.Equal(t, 1, a.Stats().AllocFailed)
}

func Test_Buddy_InvalidRelease(t *testing.T) {
	a := newTestAllocator(t, 256, 16, CoalesceCascade)
	blk, err := a.Alloc(16)
	require.NoError(t, err)

	require.ErrorIs(t, a.Dealloc(blk.Start+1), ErrInvalidRelease)
	require.NoError(t, a.Dealloc(blk.Start))
	require.ErrorIs(t, a.Dealloc(blk.Start), ErrInvalidRelease)
}

func Test_Buddy_BadConfig(t *testing.T) {
	cases := []struct {
		name      string
		size, min uint64
	}{
		{"size not pow2", 100, 4},
		{"min not pow2", 128, 12},
		{"min larger than size", 64, 128},
		{"zero size", 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.size, tc.min, CoalesceCascade)
			require.ErrorIs(t, err, ErrBadConfig)
		})
	}
}

// Test_Buddy_SingleStepCoalesce shows the one-merge limit and that Coalesce
// finishes the job.
func Test_Buddy_SingleStepCoalesce(t *testing.T) {
	a := newTestAllocator(t, 128, 16, CoalesceSingle)

	b0, err := a.Alloc(16) // [0,16), leaves [16,32) [32,64) [64,128) free
	require.NoError(t, err)

	require.NoError(t, a.Dealloc(b0.Start))
	// One merge only: [0,32) sits next to its free buddy [32,64).
	require.Equal(t, []Block{{Start: 0, Size: 32}}, a.FreeBlocks(32)[1:])
	require.Len(t, a.FreeBlocks(64), 1)
	require.Empty(t, a.FreeBlocks(128))

	merges := a.Coalesce()
	require.Equal(t, 2, merges)
	require.Equal(t, []Block{{Start: 0, Size: 128}}, a.FreeBlocks(128))
	require.Empty(t, a.FreeBlocks(32))
	require.Empty(t, a.FreeBlocks(64))
}

func Test_Buddy_CascadeCoalesce(t *testing.T) {
	a := newTestAllocator(t, 128, 16, CoalesceCascade)

	b0, err := a.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, a.Dealloc(b0.Start))

	require.Equal(t, []Block{{Start: 0, Size: 128}}, a.FreeBlocks(128))
	require.Equal(t, 0, a.Coalesce())
}

// Test_Buddy_RoundTrip releases every block of a random alloc/free sequence
// and expects exactly one free block covering the whole region afterwards.
func Test_Buddy_RoundTrip(t *testing.T) {
	for _, policy := range []CoalescePolicy{CoalesceCascade, CoalesceSingle} {
		t.Run(policy.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(7))
			a := newTestAllocator(t, 1<<16, 64, policy)

			var live []Block
			for range 2000 {
				if len(live) > 0 && rng.Intn(3) == 0 {
					i := rng.Intn(len(live))
					require.NoError(t, a.Dealloc(live[i].Start))
					live = append(live[:i], live[i+1:]...)
					continue
				}
				blk, err := a.Alloc(uint64(rng.Intn(4096) + 1))
				if errors.Is(err, ErrOutOfMemory) {
					continue
				}
				require.NoError(t, err)
				live = append(live, blk)
			}

			assertDisjoint(t, live)

			for _, blk := range live {
				require.NoError(t, a.Dealloc(blk.Start))
			}
			a.Coalesce()

			require.Equal(t, []Block{{Start: 0, Size: 1 << 16}}, a.FreeBlocks(1<<16))
			stats := a.Stats()
			require.Equal(t, 1, stats.FreeBlocks)
			require.Equal(t, uint64(0), stats.BytesInUse)
			require.Equal(t, 0, stats.LiveBlocks)
		})
	}
}

func Test_Buddy_Reset(t *testing.T) {
	a := newTestAllocator(t, 256, 16, CoalesceSingle)
	_, err := a.Alloc(100)
	require.NoError(t, err)
	a.Reset()
	require.Equal(t, []Block{{Start: 0, Size: 256}}, a.FreeBlocks(256))
	require.Equal(t, uint64(0), a.InUse())
}

func assertDisjoint(t *testing.T, blocks []Block) {
	t.Helper()
	for i := range blocks {
		for j := i + 1; j < len(blocks); j++ {
			if blocks[i].Start < blocks[j].End() && blocks[j].Start < blocks[i].End() {
				t.Fatalf("blocks overlap: %+v and %+v", blocks[i], blocks[j])
			}
		}
	}
}
