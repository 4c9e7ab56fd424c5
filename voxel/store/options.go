package store

import (
	"io"
	"log/slog"
	"math"
)

// Strategy selects how Push searches for overlapping content.
type Strategy int

const (
	// StrategyOverlap extends a used range that already ends with a prefix of
	// the pushed values. Default.
	StrategyOverlap Strategy = iota

	// StrategyExact only reuses byte-identical pushes through the hash cache.
	StrategyExact

	// StrategySubstring runs KMP over every used range, finding full
	// containment anywhere in a range as well as the longest overlap.
	StrategySubstring

	// StrategyBruteForce compares every position of every chunk in parallel.
	StrategyBruteForce
)

func (s Strategy) String() string {
	switch s {
	case StrategyOverlap:
		return "overlap"
	case StrategyExact:
		return "exact"
	case StrategySubstring:
		return "substring"
	case StrategyBruteForce:
		return "bruteforce"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a strategy name back to its value.
func ParseStrategy(name string) (Strategy, bool) {
	for _, s := range []Strategy{StrategyOverlap, StrategyExact, StrategySubstring, StrategyBruteForce} {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Options configures a Store.
type Options struct {
	// Name identifies the store in log records.
	// Default: "store"
	Name string

	// Strategy determines how overlapping content is found.
	// Default: StrategyOverlap
	Strategy Strategy

	// MinAllocBytes is the smallest chunk requested from the allocator.
	// Default: 64 KiB
	MinAllocBytes uint64

	// HashCacheCapacity bounds the distinct hashes cached per chunk.
	// 0 keeps every hash.
	// Default: 0
	HashCacheCapacity int

	// MaxIndex is the largest global index the store may hand out.
	// Default: math.MaxUint32
	MaxIndex uint32

	// BruteForceWorkers bounds the goroutines of StrategyBruteForce.
	// Default: 0 (one per chunk)
	BruteForceWorkers int

	// Logger receives debug records about chunk creation and compaction.
	// Default: discard
	Logger *slog.Logger
}

// DefaultOptions returns the recommended options for general-purpose stores.
func DefaultOptions() *Options {
	return &Options{
		Name:          "store",
		Strategy:      StrategyOverlap,
		MinAllocBytes: 64 << 10,
		MaxIndex:      math.MaxUint32,
	}
}

// withDefaults fills zero fields of a copy of o.
func (o *Options) withDefaults() Options {
	out := *DefaultOptions()
	if o == nil {
		out.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return out
	}
	out.Strategy = o.Strategy
	out.HashCacheCapacity = o.HashCacheCapacity
	out.BruteForceWorkers = o.BruteForceWorkers
	if o.Name != "" {
		out.Name = o.Name
	}
	if o.MinAllocBytes != 0 {
		out.MinAllocBytes = o.MinAllocBytes
	}
	if o.MaxIndex != 0 {
		out.MaxIndex = o.MaxIndex
	}
	out.Logger = o.Logger
	if out.Logger == nil {
		out.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return out
}
