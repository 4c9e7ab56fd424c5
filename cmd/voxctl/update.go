package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/voxkit/voxel/dag"
	"github.com/joshuapare/voxkit/voxel/region"
	"github.com/joshuapare/voxkit/voxel/volume"
)

var (
	updateScene sceneFlags
	updateAt    string
	updateSize  int64
	updateValue uint8
	updateGC    bool
	updateFlush bool
)

func init() {
	cmd := newUpdateCmd()
	updateScene.register(cmd)
	cmd.Flags().StringVar(&updateAt, "at", "0,0,0", "Low corner of the edited box (x,y,z)")
	cmd.Flags().Int64Var(&updateSize, "edit-size", 4, "Edge length of the edited box")
	cmd.Flags().Uint8Var(&updateValue, "edit-value", 2, "Material written into the box (0 clears)")
	cmd.Flags().BoolVar(&updateGC, "collect", false, "Delete the original entry and collect afterwards")
	cmd.Flags().BoolVar(&updateFlush, "flush", false,
		"Flush into an mmap'd region after the edit and discard what --collect frees")
	rootCmd.AddCommand(cmd)
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit a box of a volume and report what was rebuilt",
		Long: `The update command builds a reference volume, overwrites one box with a
material and applies the edit copy-on-write. It reports how many records the
edit added and how much of the original tree is shared.

Example:
  voxctl update --shape sphere --size 128 --at 10,10,10 --edit-size 8
  voxctl update --at -20,0,0 --edit-size 4 --json
  voxctl update --edit-value 0 --collect
  voxctl update --edit-value 0 --collect --flush --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd.Context())
		},
	}
	return cmd
}

type updateResult struct {
	Before      report `json:"before"`
	After       report `json:"after"`
	AddedNodes  int64  `json:"added_node_records"`
	AddedLeaves int64  `json:"added_leaf_bytes"`
	FreedNodes  int64  `json:"freed_node_records,omitempty"`
	FreedLeaves int64  `json:"freed_leaf_bytes,omitempty"`
	Discarded   int64  `json:"discarded_bytes,omitempty"`
}

func runUpdate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	at, err := parseVec(updateAt)
	if err != nil {
		return err
	}
	if updateSize < 1 {
		return fmt.Errorf("edit-size must be positive, got %d", updateSize)
	}
	base, err := updateScene.source()
	if err != nil {
		return err
	}
	d, shared, err := updateScene.newDAG(updateScene.strategy)
	if err != nil {
		return err
	}
	defer d.Close()

	k1, err := d.Create(ctx, base)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	before, err := makeReport(d, k1)
	if err != nil {
		return err
	}

	edit := dag.Cube(at, updateSize)
	var src dag.Source
	if updateValue == 0 {
		src = &cleared{Source: base, hole: edit}
	} else {
		src = volume.Union{&volume.Box{Box: edit, Value: updateValue}, base}
	}

	printVerbose("Updating %v with material %d\n", edit, updateValue)
	start := time.Now()
	k2, err := d.Update(ctx, k1, src, edit)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	elapsed := time.Since(start)

	after, err := makeReport(d, k2)
	if err != nil {
		return err
	}
	after.Milliseconds = elapsed.Milliseconds()
	res := updateResult{
		Before:      before,
		After:       after,
		AddedNodes:  after.NodeRecords - before.NodeRecords,
		AddedLeaves: after.LeafBytes - before.LeafBytes,
	}

	var dst *region.Region
	if updateFlush {
		if dst, err = region.New(int(shared.Size())); err != nil {
			return err
		}
		defer dst.Close()
		if _, err := d.FlushAll(dst); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}

	if updateGC {
		if err := d.Delete(k1); err != nil {
			return err
		}
		cr, err := d.Collect()
		if err != nil {
			return fmt.Errorf("collect: %w", err)
		}
		res.FreedNodes, res.FreedLeaves = cr.NodesFreed, cr.LeavesFreed
		if dst != nil {
			for _, r := range cr.Freed {
				if err := dst.Discard(int(r.Off), int(r.Len)); err != nil {
					return fmt.Errorf("discard: %w", err)
				}
				res.Discarded += r.Len
			}
		}
	}

	if dst != nil {
		if err := d.VerifyImage(k2, dst.Bytes()); err != nil {
			return fmt.Errorf("verify image: %w", err)
		}
	}

	if jsonOut {
		return printJSON(res)
	}
	printReport(after)
	printInfo("  added:          %d node records, %d leaf bytes\n", res.AddedNodes, res.AddedLeaves)
	if updateGC {
		printInfo("  collected:      %d node records, %d leaf bytes\n", res.FreedNodes, res.FreedLeaves)
	}
	if updateFlush && updateGC {
		printInfo("  discarded:      %d bytes of the flushed region\n", res.Discarded)
	}
	return nil
}

// cleared empties hole inside an otherwise unchanged source.
type cleared struct {
	dag.Source
	hole dag.AABB
}

func (c *cleared) ValueAt(p dag.Vec3) dag.Value {
	if c.hole.Contains(p) {
		return 0
	}
	return c.Source.ValueAt(p)
}

func (c *cleared) SampleBox(box dag.AABB) dag.Sample {
	if c.hole.ContainsBox(box) {
		return dag.Full(0)
	}
	if c.hole.Intersects(box) {
		if s := c.Source.SampleBox(box); s.Full && s.Value == 0 {
			return s
		}
		return dag.Mixed
	}
	return c.Source.SampleBox(box)
}
