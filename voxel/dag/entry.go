package dag

import (
	"fmt"

	"golang.org/x/text/cases"

	"github.com/joshuapare/voxkit/internal/format"
)

// Key addresses an entry. The zero Key is never valid.
type Key struct {
	index uint32
	gen   uint32
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool { return k.gen == 0 }

func (k Key) String() string { return fmt.Sprintf("entry#%d.%d", k.index, k.gen) }

// Entry is a registered root.
type Entry struct {
	Offset Vec3
	Levels uint8
	Root   uint32 // node-store index of the root record
}

// Extent returns the edge length of the entry's cube.
func (e Entry) Extent() int64 { return format.CellSize(int(e.Levels)) }

// Bounds returns the cube covered by the entry.
func (e Entry) Bounds() AABB { return Cube(e.Offset, e.Extent()) }

type entrySlot struct {
	entry Entry
	gen   uint32
	live  bool
	name  string // folded
}

// entryTable is a generational slot table with an optional name index.
//
// NOT thread-safe; the DAG guards it with its own lock.
type entryTable struct {
	slots []entrySlot
	free  []uint32
	names map[string]Key
	fold  cases.Caser
}

func newEntryTable() entryTable {
	return entryTable{
		names: make(map[string]Key),
		fold:  cases.Fold(),
	}
}

func (t *entryTable) add(e Entry) Key {
	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.entry, s.live, s.name = e, true, ""
		return Key{index: idx, gen: s.gen}
	}
	t.slots = append(t.slots, entrySlot{entry: e, gen: 1, live: true})
	return Key{index: uint32(len(t.slots) - 1), gen: 1}
}

func (t *entryTable) slot(k Key) (*entrySlot, error) {
	if k.IsZero() || int(k.index) >= len(t.slots) {
		return nil, fmt.Errorf("%v: %w", k, ErrStaleKey)
	}
	s := &t.slots[k.index]
	if !s.live || s.gen != k.gen {
		return nil, fmt.Errorf("%v: %w", k, ErrStaleKey)
	}
	return s, nil
}

func (t *entryTable) get(k Key) (Entry, error) {
	s, err := t.slot(k)
	if err != nil {
		return Entry{}, err
	}
	return s.entry, nil
}

func (t *entryTable) set(k Key, e Entry) error {
	s, err := t.slot(k)
	if err != nil {
		return err
	}
	s.entry = e
	return nil
}

func (t *entryTable) remove(k Key) error {
	s, err := t.slot(k)
	if err != nil {
		return err
	}
	if s.name != "" {
		delete(t.names, s.name)
	}
	s.live, s.name = false, ""
	s.gen++
	t.free = append(t.free, k.index)
	return nil
}

func (t *entryTable) bind(name string, k Key) error {
	s, err := t.slot(k)
	if err != nil {
		return err
	}
	folded := t.fold.String(name)
	if prev, ok := t.names[folded]; ok && prev != k {
		return fmt.Errorf("bind %q: %w", name, ErrNameTaken)
	}
	if s.name != "" {
		delete(t.names, s.name)
	}
	s.name = folded
	t.names[folded] = k
	return nil
}

func (t *entryTable) lookup(name string) (Key, bool) {
	k, ok := t.names[t.fold.String(name)]
	return k, ok
}

func (t *entryTable) live() []Key {
	var out []Key
	for i, s := range t.slots {
		if s.live {
			out = append(out, Key{index: uint32(i), gen: s.gen})
		}
	}
	return out
}
