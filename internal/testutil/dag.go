// Package testutil provides shared fixtures for voxel DAG tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/joshuapare/voxkit/voxel/buddy"
	"github.com/joshuapare/voxkit/voxel/dag"
)

// DefaultRegion is the allocator size used by NewDAG.
const DefaultRegion = 1 << 24

// NewDAG creates a DAG over a fresh cascade-coalescing allocator of size
// bytes and closes it when the test ends. opts may be nil.
//
// Example:
//
//	d, shared := testutil.NewDAG(t, testutil.DefaultRegion, nil)
func NewDAG(t testing.TB, size uint64, opts *dag.Options) (*dag.DAG, *buddy.Shared) {
	t.Helper()
	a, err := buddy.New(size, 16, buddy.CoalesceCascade)
	if err != nil {
		t.Fatalf("buddy.New(%d): %v", size, err)
	}
	shared := buddy.NewShared(a)
	d, err := dag.New(shared, opts)
	if err != nil {
		t.Fatalf("dag.New: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close DAG: %v", err)
		}
	})
	return d, shared
}

// Serial returns options that build on the calling goroutine only.
func Serial() *dag.Options {
	o := dag.DefaultOptions()
	o.Parallel = false
	return o
}

// Parallel returns options that fan out from level 2 with workers goroutines.
func Parallel(workers int) *dag.Options {
	o := dag.DefaultOptions()
	o.Parallel = true
	o.ParallelMinLevel = 2
	o.MaxWorkers = workers
	return o
}

// RequireMatches fails the test unless every voxel of box reads the same
// from the entry as from src.
func RequireMatches(t testing.TB, d *dag.DAG, k dag.Key, src dag.Source, box dag.AABB) {
	t.Helper()
	for z := box.Min.Z; z < box.Max.Z; z++ {
		for y := box.Min.Y; y < box.Max.Y; y++ {
			for x := box.Min.X; x < box.Max.X; x++ {
				p := dag.V(x, y, z)
				got, err := d.ValueAt(k, p)
				if err != nil {
					t.Fatalf("ValueAt(%v): %v", p, err)
				}
				if want := src.ValueAt(p); got != want {
					t.Fatalf("voxel %v = %d, want %d", p, got, want)
				}
			}
		}
	}
}

// Dump renders the structure of an entry without any storage index, so two
// DAGs holding the same volume dump identically.
func Dump(t testing.TB, d *dag.DAG, k dag.Key) string {
	t.Helper()
	e, err := d.Entry(k)
	if err != nil {
		t.Fatalf("Entry(%v): %v", k, err)
	}
	root, err := d.Node(e.Root)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "entry %v levels=%d\n", e.Offset, e.Levels)
	dumpNode(t, d, &sb, root, 0)
	return sb.String()
}

func dumpNode(t testing.TB, d *dag.DAG, sb *strings.Builder, n dag.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if n.IsEmpty() {
		fmt.Fprintf(sb, "%sempty\n", indent)
		return
	}
	if n.Leaf {
		vals, err := d.Leaves(n.Pointer, n.Count())
		if err != nil {
			t.Fatalf("leaves %v: %v", n, err)
		}
		fmt.Fprintf(sb, "%sleaf %016x %v\n", indent, n.Mask, vals)
		return
	}
	children, err := d.Children(n)
	if err != nil {
		t.Fatalf("children %v: %v", n, err)
	}
	fmt.Fprintf(sb, "%snode %016x\n", indent, n.Mask)
	for _, c := range children {
		dumpNode(t, d, sb, c, depth+1)
	}
}
