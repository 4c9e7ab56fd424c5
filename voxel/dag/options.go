package dag

import (
	"io"
	"log/slog"
	"runtime"

	"github.com/joshuapare/voxkit/voxel/store"
)

// Options configures a DAG.
type Options struct {
	// Parallel evaluates the 64 children of a node concurrently.
	// Default: true
	Parallel bool

	// ParallelMinLevel is the lowest level whose children are evaluated in
	// parallel. Level 1 children are single voxels, so anything below 2 is
	// treated as 2.
	// Default: 2
	ParallelMinLevel int

	// MaxWorkers bounds the goroutines working on one DAG at any time.
	// Work that finds no free worker runs on the calling goroutine.
	// Default: runtime.GOMAXPROCS(0)
	MaxWorkers int

	// NodeStore configures the store of node records. MaxIndex is always
	// clamped to the largest encodable pointer.
	// Default: store.DefaultOptions() named "nodes"
	NodeStore *store.Options

	// LeafStore configures the store of leaf material bytes.
	// Default: store.DefaultOptions() named "leaves"
	//
	// Either store keeps the role as its name when Name is empty or the
	// store default; any other Name becomes "<name>/nodes" or "<name>/leaves".
	LeafStore *store.Options

	// Logger receives debug records about root growth and collection.
	// Default: discard
	Logger *slog.Logger
}

// DefaultOptions returns the recommended options for general-purpose DAGs.
func DefaultOptions() *Options {
	return &Options{
		Parallel:         true,
		ParallelMinLevel: 2,
		MaxWorkers:       runtime.GOMAXPROCS(0),
	}
}

func (o *Options) normalized() Options {
	if o == nil {
		o = DefaultOptions()
	}
	out := *o
	out.ParallelMinLevel = max(out.ParallelMinLevel, 2)
	if out.MaxWorkers <= 0 {
		out.MaxWorkers = runtime.GOMAXPROCS(0)
	}
	if out.Logger == nil {
		out.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return out
}

// storeOptions derives the options of one store and shares the DAG logger
// unless the caller set one. The store is named after its role; a custom
// name gets the role appended so the two stores stay distinguishable.
func storeOptions(base *store.Options, name string, logger *slog.Logger, maxIndex uint32) *store.Options {
	var out store.Options
	if base != nil {
		out = *base
	} else {
		out = *store.DefaultOptions()
	}
	switch out.Name {
	case "", store.DefaultOptions().Name:
		out.Name = name
	default:
		out.Name += "/" + name
	}
	if out.Logger == nil {
		out.Logger = logger
	}
	if out.MaxIndex == 0 || out.MaxIndex > maxIndex {
		out.MaxIndex = maxIndex
	}
	return &out
}
