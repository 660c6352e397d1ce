package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ivanyu/pyheap-go/internal/aggregate"
	"github.com/ivanyu/pyheap-go/internal/config"
)

func newRetainedHeapCmd(cfg *config.Config) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "retained-heap",
		Short: "Print the top objects and threads by retained heap size",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			a, err := openAnalysis(cmd.Context(), file, *cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			printRetainedHeapReport(os.Stdout, a, cfg.TopN)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the heap snapshot (required)")
	cmd.Flags().IntVar(&cfg.TopN, "top-n", cfg.TopN, "number of top objects to print")
	return cmd
}

func printRetainedHeapReport(w *os.File, a *analysis, topN int) {
	objects := aggregate.ObjectsByRetained(a.heap, a.result)
	if topN > 0 && topN < len(objects) {
		objects = objects[:topN]
	}

	t := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(t, "address\ttype\tshallow\tretained\n")
	for _, e := range objects {
		typeName := a.heap.Types[e.Object.Type]
		fmt.Fprintf(t, "%s\t%s\t%d\t%d\n", e.Address, typeName, e.Object.Size, e.Retained)
	}
	t.Flush()

	fmt.Fprintln(w)
	threads := aggregate.ThreadsByRetained(a.heap, a.result)
	t = tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(t, "thread\tretained\n")
	for _, e := range threads {
		fmt.Fprintf(t, "%s\t%d\n", e.Name, e.Retained)
	}
	t.Flush()

	fmt.Fprintf(w, "\ntotal heap size: %d\n", aggregate.TotalHeapSize(a.heap))
}
