package main

import (
	"context"
	"log/slog"

	"github.com/ivanyu/pyheap-go/internal/config"
	"github.com/ivanyu/pyheap-go/internal/heap"
	"github.com/ivanyu/pyheap-go/internal/heap/reader"
	"github.com/ivanyu/pyheap-go/internal/inbound"
	"github.com/ivanyu/pyheap-go/internal/retained"
	"github.com/ivanyu/pyheap-go/internal/retainedcache"
)

// analysis bundles everything the reporting commands need: the decoded
// heap, its reader (for lazy attribute/str_repr resolution), and the
// computed retained sizes, loading the latter from cache when possible.
type analysis struct {
	reader *reader.Reader
	heap   *heap.Heap
	result *retained.RetainedHeap
}

func openAnalysis(ctx context.Context, path string, cfg config.Config) (*analysis, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, err
	}

	cache := retainedcache.New(path, cfg.CacheDir, slog.Default())
	if cached, ok, err := cache.Load(); err == nil && ok {
		return &analysis{reader: r, heap: r.Heap(), result: cached}, nil
	}

	idx := inbound.Build(r.Heap())
	engine := retained.NewEngine(r.Heap(), idx, slog.Default())
	result, err := engine.Calculate(ctx, cfg)
	if err != nil {
		r.Close()
		return nil, err
	}

	if err := cache.Store(result); err != nil {
		slog.Default().Warn("failed to persist retained-heap cache", "error", err)
	}

	return &analysis{reader: r, heap: r.Heap(), result: result}, nil
}

func (a *analysis) Close() error {
	return a.reader.Close()
}
