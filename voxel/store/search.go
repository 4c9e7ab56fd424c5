package store

import (
	"slices"

	"golang.org/x/sync/errgroup"
)

// match is a placement inside an existing chunk: values[0] lives at local
// offset at and the first have elements are already stored there.
type match struct {
	chunk int
	at    int64
	have  int
}

func (m match) found() bool { return m.have > 0 }

// better reports whether m shares more content than o. Ties keep o so the
// lowest chunk and lowest range win.
func (m match) better(o match) bool { return m.have > o.have }

// search dispatches to the configured strategy. The caller holds the write
// lock.
func (s *Store[T]) search(values []T) match {
	switch s.opts.Strategy {
	case StrategyExact:
		return match{}
	case StrategySubstring:
		fail := prefixFunction(values)
		return s.scanChunks(values, func(c *chunk[T]) match {
			return substringSearch(c, values, fail)
		})
	case StrategyBruteForce:
		return s.bruteForce(values)
	default:
		return s.scanChunks(values, func(c *chunk[T]) match {
			return overlapSearch(c, values)
		})
	}
}

// scanChunks runs fn over every chunk in order and keeps the best match.
// Full containment ends the scan.
func (s *Store[T]) scanChunks(values []T, fn func(c *chunk[T]) match) match {
	var best match
	for i, c := range s.chunks {
		m := fn(c)
		m.chunk = i
		if m.better(best) {
			best = m
			if best.have == len(values) {
				break
			}
		}
	}
	return best
}

// bruteForce checks every chunk concurrently. Each worker owns one result
// slot so no further synchronization is needed.
func (s *Store[T]) bruteForce(values []T) match {
	results := make([]match, len(s.chunks))
	var g errgroup.Group
	if s.opts.BruteForceWorkers > 0 {
		g.SetLimit(s.opts.BruteForceWorkers)
	}
	for i, c := range s.chunks {
		g.Go(func() error {
			m := bruteSearch(c, values)
			m.chunk = i
			results[i] = m
			return nil
		})
	}
	_ = g.Wait()

	var best match
	for _, m := range results {
		if m.better(best) {
			best = m
		}
	}
	return best
}

// overlapSearch looks for a used range whose tail equals a prefix of values
// and that has room right after it for the rest. The longest such prefix
// wins. A prefix equal to all of values needs no room at all.
func overlapSearch[T comparable](c *chunk[T], values []T) match {
	var best match
	n := int64(len(values))
	for i, r := range c.used {
		end, limit := r.End(), c.limitAfter(i)
		for k := min(n, r.Len); k > int64(best.have); k-- {
			// a shorter overlap only needs more room
			if end+n-k > limit {
				break
			}
			if slices.Equal(c.data[end-k:end], values[:k]) {
				best = match{at: end - k, have: int(k)}
				break
			}
		}
	}
	return best
}

// substringSearch runs KMP over each used range. A full match anywhere is
// returned immediately; otherwise the automaton state at the end of a range
// is the longest prefix of values that ends the range.
func substringSearch[T comparable](c *chunk[T], values []T, fail []int) match {
	var best match
	n := int64(len(values))
	for i, r := range c.used {
		q := 0
		for j, v := range c.data[r.Off:r.End()] {
			for q > 0 && values[q] != v {
				q = fail[q-1]
			}
			if values[q] == v {
				q++
			}
			if q == len(values) {
				return match{at: r.Off + int64(j) - n + 1, have: q}
			}
		}
		// a shorter prefix would need more room, so q is the only candidate
		if q > best.have && r.End()+n-int64(q) <= c.limitAfter(i) {
			best = match{at: r.End() - int64(q), have: q}
		}
	}
	return best
}

// bruteSearch compares values at every position of every used range before
// falling back to the tail overlap.
func bruteSearch[T comparable](c *chunk[T], values []T) match {
	n := int64(len(values))
	for _, r := range c.used {
		for p := r.Off; p+n <= r.End(); p++ {
			if slices.Equal(c.data[p:p+n], values) {
				return match{at: p, have: len(values)}
			}
		}
	}
	return overlapSearch(c, values)
}

// prefixFunction returns the KMP failure table: fail[i] is the length of the
// longest proper prefix of p[:i+1] that is also its suffix.
func prefixFunction[T comparable](p []T) []int {
	fail := make([]int, len(p))
	k := 0
	for i := 1; i < len(p); i++ {
		for k > 0 && p[i] != p[k] {
			k = fail[k-1]
		}
		if p[i] == p[k] {
			k++
		}
		fail[i] = k
	}
	return fail
}
