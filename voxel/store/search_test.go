package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixFunction(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"a", []int{0}},
		{"aaaa", []int{0, 1, 2, 3}},
		{"ababc", []int{0, 0, 1, 2, 0}},
		{"abcabd", []int{0, 0, 0, 1, 2, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, prefixFunction([]byte(tt.in)))
		})
	}
}

func TestSubstringSearch_OverlapViaAutomaton(t *testing.T) {
	s := newByteStore(t, StrategySubstring)

	require.Equal(t, uint32(0), pushT(t, s, 1, 2, 1, 2))
	// longest prefix of [1 2 1 3] ending the range is [1 2]
	require.Equal(t, uint32(2), pushT(t, s, 1, 2, 1, 3))

	got, err := s.Range(0, 6)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 1, 2, 1, 3}, got)
	assert.Equal(t, uint64(1), s.Stats().OverlapHits)
}

func TestSubstringSearch_MatchesOverlapNextToNeighbour(t *testing.T) {
	run := func(strategy Strategy) []uint32 {
		s := newByteStore(t, strategy)
		pushT(t, s, 1, 2, 1, 2)
		pushT(t, s, 9, 9, 9)
		pushT(t, s, 8, 8, 8)
		require.NoError(t, s.Remove(4, 3))
		s.Optimize()

		// [1 2 1 2] is followed by a 3-element hole
		return []uint32{
			pushT(t, s, 1, 2, 1, 2, 7, 7, 7, 7), // tail overlap 4 needs 4: no room
			pushT(t, s, 2, 1, 2, 5, 6),          // tail overlap 3 needs 2: fits
		}
	}

	overlap := run(StrategyOverlap)
	require.Equal(t, []uint32{10, 1}, overlap)
	assert.Equal(t, overlap, run(StrategySubstring))
}

func TestSubstringSearch_ContainmentAnywhere(t *testing.T) {
	s := newByteStore(t, StrategySubstring)

	pushT(t, s, 5, 1, 2, 1, 2, 3, 6)
	require.Equal(t, uint32(3), pushT(t, s, 1, 2, 3))
	assert.Equal(t, uint64(1), s.Stats().ContainedHits)
	assert.Equal(t, int64(7), s.Stats().Live)
}

func TestBruteForce_AcrossChunks(t *testing.T) {
	opts := DefaultOptions()
	opts.Strategy = StrategyBruteForce
	opts.MinAllocBytes = 16
	opts.BruteForceWorkers = 2
	s := New[uint8](newShared(t, 1<<12), ByteCodec{}, opts)
	defer s.Close()

	fill := func(from uint8) []uint8 {
		out := make([]uint8, 16)
		for i := range out {
			out[i] = from + uint8(i)
		}
		return out
	}
	a := pushT(t, s, fill(0)...)
	b := pushT(t, s, fill(100)...)
	c := pushT(t, s, fill(200)...)
	require.Equal(t, []uint32{0, 16, 32}, []uint32{a, b, c})

	// content inside the middle chunk
	require.Equal(t, uint32(16+5), pushT(t, s, 105, 106, 107))
	assert.Equal(t, 3, s.Stats().Chunks)
}
