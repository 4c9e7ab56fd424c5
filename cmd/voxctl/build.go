package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/voxkit/internal/logger"
	"github.com/joshuapare/voxkit/internal/writer"
	"github.com/joshuapare/voxkit/voxel/dag"
	"github.com/joshuapare/voxkit/voxel/region"
)

var (
	buildScene sceneFlags
	buildFlush bool
	buildOut   string
)

func init() {
	cmd := newBuildCmd()
	buildScene.register(cmd)
	cmd.Flags().BoolVar(&buildFlush, "flush", false, "Flush both stores into an mmap'd region after building")
	cmd.Flags().StringVarP(&buildOut, "out", "o", "", "Write the flushed store image to this file")
	rootCmd.AddCommand(cmd)
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a volume and report its storage",
		Long: `The build command builds one reference volume into a fresh DAG and
prints how many distinct nodes it needs and how many bytes the stores use.

Example:
  voxctl build --shape sphere --size 256
  voxctl build --shape terrain --size 512 --strategy substring --json
  voxctl build --shape checker --serial --flush
  voxctl build --shape sphere --size 128 --out sphere.vox`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context())
		},
	}
	return cmd
}

func runBuild(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	src, err := buildScene.source()
	if err != nil {
		return err
	}
	d, shared, err := buildScene.newDAG(buildScene.strategy)
	if err != nil {
		return err
	}
	defer d.Close()

	printVerbose("Building %s of size %d (strategy %s)\n", buildScene.shape, buildScene.size, buildScene.strategy)
	start := time.Now()
	k, err := d.Create(ctx, src)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	elapsed := time.Since(start)
	logger.Debug("build done", "key", k.String(), "elapsed", elapsed)

	r, err := makeReport(d, k)
	if err != nil {
		return err
	}
	r.Milliseconds = elapsed.Milliseconds()

	if buildFlush {
		dst, err := region.New(int(shared.Size()))
		if err != nil {
			return err
		}
		defer dst.Close()
		n, err := d.Flush(dst)
		if err != nil {
			return fmt.Errorf("flush: %w", err)
		}
		printVerbose("Flushed %d bytes\n", n)
	}

	if buildOut != "" {
		n, err := writeImage(d, k, &writer.FileWriter{Path: buildOut})
		if err != nil {
			return err
		}
		printVerbose("Wrote %d byte image to %s\n", n, buildOut)
	}

	if jsonOut {
		return printJSON(r)
	}
	printReport(r)
	return nil
}

// writeImage flushes both stores into memory, checks that entry k decodes
// from the image and hands the image, trimmed to the highest written byte,
// to sink.
func writeImage(d *dag.DAG, k dag.Key, sink writer.Sink) (int, error) {
	var mem writer.MemWriter
	if _, err := d.FlushAll(&mem); err != nil {
		return 0, fmt.Errorf("flush: %w", err)
	}
	if err := d.VerifyImage(k, mem.Bytes()); err != nil {
		return 0, fmt.Errorf("verify image: %w", err)
	}
	if err := sink.WriteImage(mem.Bytes()); err != nil {
		return 0, fmt.Errorf("write image: %w", err)
	}
	return mem.Len(), nil
}
