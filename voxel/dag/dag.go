package dag

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/joshuapare/voxkit/internal/format"
	"github.com/joshuapare/voxkit/voxel/buddy"
	"github.com/joshuapare/voxkit/voxel/store"
)

// DAG is a set of voxel volumes sharing one node store and one leaf store.
// All methods are safe for concurrent use, except that Collect must not run
// while a Build result is still unregistered.
type DAG struct {
	alloc  *buddy.Shared
	nodes  *store.Store[format.Node]
	leaves *store.Store[uint8]
	opts   Options
	log    *slog.Logger

	// workers bounds parallel child evaluation across all builds.
	workers *semaphore.Weighted

	// gc is held shared by operations that push and exclusively by Collect.
	gc sync.RWMutex

	mu      sync.RWMutex
	entries entryTable
}

// New creates an empty DAG whose stores draw from alloc. opts may be nil.
func New(alloc *buddy.Shared, opts *Options) (*DAG, error) {
	if alloc == nil {
		return nil, errors.New("dag: nil allocator")
	}
	o := opts.normalized()
	d := &DAG{
		alloc:   alloc,
		opts:    o,
		log:     o.Logger,
		workers: semaphore.NewWeighted(int64(o.MaxWorkers)),
		entries: newEntryTable(),
	}
	d.nodes = store.New[format.Node](alloc, nodeCodec{},
		storeOptions(o.NodeStore, "nodes", o.Logger, format.MaxPointer))
	d.leaves = store.New[uint8](alloc, store.ByteCodec{},
		storeOptions(o.LeafStore, "leaves", o.Logger, format.MaxPointer))
	return d, nil
}

// Options returns the effective options.
func (d *DAG) Options() Options { return d.opts }

// exhausted tags allocation failures so callers can test for
// ErrAllocationExhausted while still seeing the cause.
func exhausted(err error) error {
	if errors.Is(err, buddy.ErrOutOfMemory) || errors.Is(err, store.ErrIndexSpace) {
		return fmt.Errorf("%w: %w", ErrAllocationExhausted, err)
	}
	return err
}

// Register stores node as a single root record and returns a fresh key for
// the entry {offset, levels, root}.
func (d *DAG) Register(offset Vec3, levels int, node Node) (Key, error) {
	if levels < 1 || levels > format.MaxLevels {
		return Key{}, fmt.Errorf("register %d levels: %w", levels, ErrBadLevel)
	}
	d.gc.RLock()
	defer d.gc.RUnlock()
	return d.register(offset, levels, node)
}

func (d *DAG) register(offset Vec3, levels int, node Node) (Key, error) {
	e, err := d.rootEntry(offset, levels, node)
	if err != nil {
		return Key{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries.add(e), nil
}

func (d *DAG) rootEntry(offset Vec3, levels int, node Node) (Entry, error) {
	idx, err := d.nodes.Push([]Node{node})
	if err != nil {
		return Entry{}, fmt.Errorf("register root: %w", exhausted(err))
	}
	return Entry{Offset: offset, Levels: uint8(levels), Root: idx}, nil
}

// Entry returns the entry of k.
func (d *DAG) Entry(k Key) (Entry, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.entries.get(k)
}

// Root returns the root node of k.
func (d *DAG) Root(k Key) (Node, error) {
	e, err := d.Entry(k)
	if err != nil {
		return Node{}, err
	}
	return d.Node(e.Root)
}

// Keys returns the keys of every live entry.
func (d *DAG) Keys() []Key {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.entries.live()
}

// Delete invalidates k. Storage stays allocated until Collect.
func (d *DAG) Delete(k Key) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries.remove(k)
}

// Bind names k. Names compare under Unicode case folding; rebinding a key
// drops its previous name.
func (d *DAG) Bind(name string, k Key) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entries.bind(name, k)
}

// Lookup returns the key bound to name.
func (d *DAG) Lookup(name string) (Key, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.entries.lookup(name)
}

// Node returns the node record at index.
func (d *DAG) Node(index uint32) (Node, error) {
	return d.nodes.Get(index)
}

// Range returns count node records starting at pointer.
func (d *DAG) Range(pointer uint32, count int) ([]Node, error) {
	return d.nodes.Range(pointer, count)
}

// Leaves returns count material bytes starting at pointer.
func (d *DAG) Leaves(pointer uint32, count int) ([]Value, error) {
	return d.leaves.Range(pointer, count)
}

// Children returns the compact payload of an interior node.
func (d *DAG) Children(n Node) ([]Node, error) {
	if n.Leaf || n.IsEmpty() {
		return nil, nil
	}
	return d.nodes.Range(n.Pointer, n.Count())
}

// Stats is a snapshot of the DAG's storage.
type Stats struct {
	Entries int
	Nodes   store.Stats
	Leaves  store.Stats
	Alloc   buddy.Stats
}

// Stats returns storage counters of both stores and the allocator.
func (d *DAG) Stats() Stats {
	d.mu.RLock()
	n := len(d.entries.live())
	d.mu.RUnlock()
	return Stats{
		Entries: n,
		Nodes:   d.nodes.Stats(),
		Leaves:  d.leaves.Stats(),
		Alloc:   d.alloc.Stats(),
	}
}

// Flush writes the dirty ranges of both stores to dst. Both stores address
// the allocator's region, so a single destination holds them side by side.
func (d *DAG) Flush(dst io.WriterAt) (int64, error) {
	n, err := d.nodes.Flush(dst)
	if err != nil {
		return n, err
	}
	m, err := d.leaves.Flush(dst)
	return n + m, err
}

// FlushAll rewrites every live record of both stores to dst.
func (d *DAG) FlushAll(dst io.WriterAt) (int64, error) {
	n, err := d.nodes.FlushAll(dst)
	if err != nil {
		return n, err
	}
	m, err := d.leaves.FlushAll(dst)
	return n + m, err
}

// Close releases both stores' memory. Keys become useless afterwards.
func (d *DAG) Close() error {
	return errors.Join(d.nodes.Close(), d.leaves.Close())
}
