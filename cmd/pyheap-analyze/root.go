package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivanyu/pyheap-go/internal/config"
)

func newRootCmd() *cobra.Command {
	cfg := config.Default()
	var verbose bool

	root := &cobra.Command{
		Use:           "pyheap-analyze",
		Short:         "Inspect PyHeap binary heap snapshots",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVar(&cfg.CacheDir, "cache-dir", cfg.CacheDir, "override directory for the retained-heap cache (default: $PYHEAP_CACHE_DIR, else beside the snapshot)")
	root.PersistentFlags().BoolVar(&cfg.Parallel, "parallel", cfg.Parallel, "use the parallel retained-heap engine")
	root.PersistentFlags().IntVar(&cfg.ChunkSize, "chunk-size", cfg.ChunkSize, "address-chunk size for the parallel engine and progress logging")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRetainedHeapCmd(&cfg))
	root.AddCommand(newExportCmd(&cfg))
	root.AddCommand(newShellCmd(&cfg))

	return root
}
