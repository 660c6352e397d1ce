package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivanyu/pyheap-go/internal/aggregate"
	"github.com/ivanyu/pyheap-go/internal/config"
)

// exportedObject is the per-object shape of the UI's JSON data contract:
// enough to render a paginated object table without re-running the
// snapshot decoder.
type exportedObject struct {
	Address  string `json:"address"`
	Type     string `json:"type"`
	Size     uint32 `json:"size"`
	Retained int64  `json:"retained"`
}

type exportedThread struct {
	Name     string `json:"name"`
	Retained int64  `json:"retained"`
}

type exportedPage struct {
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	Layout     []*int `json:"layout"`
}

type exportedDoc struct {
	TotalHeapSize int64            `json:"total_heap_size"`
	Objects       []exportedObject `json:"objects"`
	Threads       []exportedThread `json:"threads"`
	Pagination    exportedPage     `json:"pagination"`
}

func newExportCmd(cfg *config.Config) *cobra.Command {
	var file string
	var out string
	var page int
	var pageSize int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Emit the retained-heap report as the JSON data contract consumed by the web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}

			a, err := openAnalysis(cmd.Context(), file, *cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			objects := aggregate.ObjectsByRetained(a.heap, a.result)
			totalPages := (len(objects) + pageSize - 1) / pageSize
			if totalPages == 0 {
				totalPages = 1
			}
			if page < 1 {
				page = 1
			}
			if page > totalPages {
				page = totalPages
			}

			start := (page - 1) * pageSize
			end := start + pageSize
			if end > len(objects) {
				end = len(objects)
			}
			if start > end {
				start = end
			}

			doc := exportedDoc{
				TotalHeapSize: aggregate.TotalHeapSize(a.heap),
				Pagination: exportedPage{
					Page:       page,
					TotalPages: totalPages,
					Layout:     aggregate.NewPagination(totalPages, page).Layout(),
				},
			}
			for _, t := range aggregate.ThreadsByRetained(a.heap, a.result) {
				doc.Threads = append(doc.Threads, exportedThread{Name: t.Name, Retained: t.Retained})
			}
			for _, e := range objects[start:end] {
				doc.Objects = append(doc.Objects, exportedObject{
					Address:  e.Address.String(),
					Type:     a.heap.Types[e.Object.Type],
					Size:     e.Object.Size,
					Retained: e.Retained,
				})
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "path to the heap snapshot (required)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: stdout)")
	cmd.Flags().IntVar(&page, "page", 1, "object table page to export")
	cmd.Flags().IntVar(&pageSize, "page-size", 100, "objects per page")
	return cmd
}
