package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/voxkit/voxel/dag"
)

var (
	statsScene      sceneFlags
	statsStrategies string
)

func init() {
	cmd := newStatsCmd()
	statsScene.register(cmd)
	cmd.Flags().StringVar(&statsStrategies, "strategies", "exact,overlap,substring,bruteforce",
		"Comma separated store strategies to compare")
	rootCmd.AddCommand(cmd)
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compare store strategies on one volume",
		Long: `The stats command builds the same volume once per store strategy and
shows the storage, sharing and allocator figures side by side.

Example:
  voxctl stats --shape terrain --size 256
  voxctl stats --strategies exact,overlap --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context())
		},
	}
	return cmd
}

type strategyStats struct {
	Strategy    string  `json:"strategy"`
	NodeRecords int64   `json:"node_records"`
	LeafBytes   int64   `json:"leaf_bytes"`
	ExactHits   uint64  `json:"exact_hits"`
	OverlapHits uint64  `json:"overlap_hits"`
	Contained   uint64  `json:"contained_hits"`
	Saved       uint64  `json:"saved_elements"`
	DedupRatio  float64 `json:"dedup_ratio"`
	Chunks      int     `json:"chunks"`
	AllocBytes  uint64  `json:"alloc_bytes"`
	Splits      int     `json:"allocator_splits"`
	Ms          int64   `json:"ms"`
}

func runStats(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	src, err := statsScene.source()
	if err != nil {
		return err
	}

	var rows []strategyStats
	for _, name := range strings.Split(statsStrategies, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		printVerbose("Building with %s\n", name)
		row, err := statsFor(ctx, name, src)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	if jsonOut {
		return printJSON(rows)
	}
	if quiet {
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tNODES\tLEAF BYTES\tEXACT\tOVERLAP\tCONTAINED\tSAVED\tDEDUP\tCHUNKS\tALLOC\tMS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.1f%%\t%d\t%d\t%d\n",
			r.Strategy, r.NodeRecords, r.LeafBytes, r.ExactHits, r.OverlapHits, r.Contained,
			r.Saved, r.DedupRatio*100, r.Chunks, r.AllocBytes, r.Ms)
	}
	return w.Flush()
}

// statsFor builds src into a fresh DAG using strategy name.
func statsFor(ctx context.Context, name string, src dag.Source) (strategyStats, error) {
	d, _, err := statsScene.newDAG(name)
	if err != nil {
		return strategyStats{}, err
	}
	defer d.Close()

	start := time.Now()
	if _, err := d.Create(ctx, src); err != nil {
		return strategyStats{}, fmt.Errorf("build with %s: %w", name, err)
	}
	elapsed := time.Since(start)

	st := d.Stats()
	return strategyStats{
		Strategy:    name,
		NodeRecords: st.Nodes.Live,
		LeafBytes:   st.Leaves.Live,
		ExactHits:   st.Nodes.ExactHits + st.Leaves.ExactHits,
		OverlapHits: st.Nodes.OverlapHits + st.Leaves.OverlapHits,
		Contained:   st.Nodes.ContainedHits + st.Leaves.ContainedHits,
		Saved:       st.Nodes.Saved + st.Leaves.Saved,
		DedupRatio:  (st.Nodes.DedupRatio() + st.Leaves.DedupRatio()) / 2,
		Chunks:      st.Nodes.Chunks + st.Leaves.Chunks,
		AllocBytes:  st.Alloc.BytesInUse,
		Splits:      st.Alloc.Splits,
		Ms:          elapsed.Milliseconds(),
	}, nil
}
