// Package retained implements the three-phase retained-heap algorithm:
// strict-subtree collapse, per-object simulated deletion, and per-thread
// simulated deletion, each grounded directly on
// original_source/pyheap-ui/src/pyheap_ui/heap.py's
// RetainedHeapCalculator/RetainedHeapSequentialCalculator/
// RetainedHeapParallelCalculator, re-expressed over the flat
// address-keyed graph described in spec.md §9 instead of Python's
// reference-cycle object graph.
package retained

import (
	"context"
	"log/slog"
	"sort"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/config"
	"github.com/ivanyu/pyheap-go/internal/heap"
	"github.com/ivanyu/pyheap-go/internal/inbound"
)

// RetainedHeap is the computed result: retained byte counts per object and
// per thread.
type RetainedHeap struct {
	Objects map[address.Address]int64
	Threads map[string]int64
}

// Equal reports whether two RetainedHeap values carry the same object and
// thread retained sizes, ignoring map iteration order. Used by tests to
// assert sequential/parallel equivalence and cache-hit/cache-miss parity.
func (r *RetainedHeap) Equal(o *RetainedHeap) bool {
	if r == nil || o == nil {
		return r == o
	}
	if len(r.Objects) != len(o.Objects) || len(r.Threads) != len(o.Threads) {
		return false
	}
	for a, v := range r.Objects {
		if ov, ok := o.Objects[a]; !ok || ov != v {
			return false
		}
	}
	for t, v := range r.Threads {
		if ov, ok := o.Threads[t]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Engine computes retained sizes over one immutable Heap and its
// precomputed inbound index. After Phase 1 runs, neither the heap nor the
// subtree table is mutated, so Phase 2 and Phase 3 read it concurrently
// without locks.
type Engine struct {
	heap *heap.Heap
	idx  *inbound.Index
	log  *slog.Logger

	subtreeRoots    map[address.Address]bool
	subtreeRetained map[address.Address]int64

	// threadLocalCount records, for every address appearing as a thread
	// local anywhere, how many distinct threads hold it.
	threadLocalCount map[address.Address]int
}

// NewEngine builds an Engine over h, using idx as its precomputed
// reverse-edge index. log receives progress and ETA lines; a nil logger
// falls back to slog.Default().
func NewEngine(h *heap.Heap, idx *inbound.Index, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		heap:             h,
		idx:              idx,
		log:              log,
		subtreeRoots:     make(map[address.Address]bool),
		subtreeRetained:  make(map[address.Address]int64),
		threadLocalCount: make(map[address.Address]int),
	}
	for i := range h.Threads {
		for a := range h.Threads[i].Locals() {
			e.threadLocalCount[a]++
		}
	}
	return e
}

// Calculate runs all three phases and returns the complete result. The
// sequential or parallel Phase 2 variant is chosen by cfg.Parallel; both
// are required to produce byte-identical results (spec.md §5).
func (e *Engine) Calculate(ctx context.Context, cfg config.Config) (*RetainedHeap, error) {
	e.findStrictSubtrees()

	var objects map[address.Address]int64
	var err error
	if cfg.Parallel {
		objects, err = e.calculateObjectsParallel(ctx, cfg)
	} else {
		objects = e.calculateObjectsSequential(cfg)
	}
	if err != nil {
		return nil, err
	}
	threads := e.calculateThreads()

	return &RetainedHeap{Objects: objects, Threads: threads}, nil
}

// findStrictSubtrees is Phase 1: collapses the forest of objects whose
// entire forward-reachable set is solely owned by them, so Phase 2/3 can
// shortcut over the whole subtree instead of re-simulating its interior.
func (e *Engine) findStrictSubtrees() {
	front := make(map[address.Address]bool)
	for addr, obj := range e.heap.Objects {
		if len(obj.Referents) == 0 && e.idx.Count(addr) < 2 {
			e.subtreeRoots[addr] = true
			e.subtreeRetained[addr] = int64(obj.Size)
			for _, p := range e.idx.Inbound(addr) {
				front[p] = true
			}
		}
	}

	for {
		next := make(map[address.Address]bool)
		changed := false
		for addr := range front {
			obj, ok := e.heap.Objects[addr]
			if !ok {
				continue
			}
			if e.idx.Count(addr) > 1 {
				continue
			}
			allRoots := true
			for r := range obj.Referents {
				if !e.subtreeRoots[r] {
					allRoots = false
					break
				}
			}
			if !allRoots {
				next[addr] = true
				continue
			}
			if !e.subtreeRoots[addr] {
				sum := int64(obj.Size)
				for r := range obj.Referents {
					sum += e.subtreeRetained[r]
				}
				e.subtreeRoots[addr] = true
				e.subtreeRetained[addr] = sum
				changed = true
			}
			for _, p := range e.idx.Inbound(addr) {
				next[p] = true
			}
		}
		if !changed && setsEqual(front, next) {
			break
		}
		front = next
	}
}

func setsEqual(a, b map[address.Address]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// calculateThreads is Phase 3: per thread, the multi-root simulated
// deletion of its local set. Subtree shortcuts are disabled because their
// pre-sums assume a single-root deletion.
func (e *Engine) calculateThreads() map[string]int64 {
	result := make(map[string]int64, len(e.heap.Threads))
	for i := range e.heap.Threads {
		t := &e.heap.Threads[i]
		locals := t.Locals()

		seeds := make([]address.Address, 0, len(locals))
		initial := make(map[address.Address]int, len(locals))
		for a := range locals {
			if _, ok := e.heap.Objects[a]; !ok {
				// Unresolved address: tolerated data skew, treated as
				// already absent (spec.md §9 open question: skip).
				continue
			}
			seeds = append(seeds, a)
			initial[a] = e.idx.Count(a) + (e.threadLocalCount[a] - 1)
		}

		result[t.Name] = e.simulate(seeds, initial, false)
	}
	return result
}

// simulate runs the shared Phase 2/Phase 3 deletion sweep: seeds start in
// front with view counts given by initial (defaulting to 0 for any seed
// absent from initial, e.g. Phase 2's single-object case, which is always
// force-deleted regardless of its real inbound count).
func (e *Engine) simulate(seeds []address.Address, initial map[address.Address]int, useSubtrees bool) int64 {
	view := make(map[address.Address]int, len(seeds))
	deleted := make(map[address.Address]bool, len(seeds))
	front := make([]address.Address, len(seeds))
	copy(front, seeds)
	for _, a := range seeds {
		view[a] = initial[a]
	}

	var result int64
	for {
		sortByViewDesc(front, view)
		retained, any := e.sweep(&front, view, deleted, useSubtrees)
		if !any {
			break
		}
		result += retained
	}
	return result
}

func (e *Engine) sweep(front *[]address.Address, view map[address.Address]int, deleted map[address.Address]bool, useSubtrees bool) (int64, bool) {
	f := *front
	var retained int64
	var any bool

	for i := len(f) - 1; i >= 0; i-- {
		current := f[i]
		if view[current] > 0 {
			break
		}
		if deleted[current] {
			continue
		}

		f = append(f[:i], f[i+1:]...)
		deleted[current] = true
		any = true

		obj, ok := e.heap.Objects[current]
		if !ok {
			continue
		}

		if useSubtrees && e.subtreeRoots[current] {
			retained += e.subtreeRetained[current]
			continue
		}

		retained += int64(obj.Size)
		for r := range obj.Referents {
			if deleted[r] {
				continue
			}
			if _, touched := view[r]; !touched {
				view[r] = e.idx.Count(r)
				for _, p := range e.idx.Inbound(r) {
					if deleted[p] {
						view[r]--
					}
				}
			} else {
				view[r]--
			}
			f = append(f, r)
		}
	}

	*front = f
	return retained, any
}

func sortByViewDesc(addrs []address.Address, view map[address.Address]int) {
	sort.Slice(addrs, func(i, j int) bool { return view[addrs[i]] > view[addrs[j]] })
}
