// Package aggregate builds the sorted views over a decoded Heap and its
// RetainedHeap: objects, types, and threads ordered by retained size,
// mirroring original_source/pyheap-ui/src/pyheap_ui/heap.py's
// objects_sorted_by_retained_heap/threads_sorted_by_retained_heap/
// total_heap_size.
package aggregate

import (
	"sort"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/heap"
	"github.com/ivanyu/pyheap-go/internal/retained"
)

// ObjectEntry pairs an object's address with its retained size.
type ObjectEntry struct {
	Address  address.Address
	Object   *heap.Object
	Retained int64
}

// ObjectsByRetained returns every object sorted by descending retained
// size, tie-broken by ascending address.
func ObjectsByRetained(h *heap.Heap, rh *retained.RetainedHeap) []ObjectEntry {
	result := make([]ObjectEntry, 0, len(h.Objects))
	for a, o := range h.Objects {
		result = append(result, ObjectEntry{Address: a, Object: o, Retained: rh.Objects[a]})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Retained != result[j].Retained {
			return result[i].Retained > result[j].Retained
		}
		return result[i].Address < result[j].Address
	})
	return result
}

// TypeEntry pairs a type with the summed retained size of its instances.
type TypeEntry struct {
	Type     address.TypeID
	Name     string
	Retained int64
}

// TypesByRetained sums retained size per type and sorts descending.
func TypesByRetained(h *heap.Heap, rh *retained.RetainedHeap) []TypeEntry {
	sums := make(map[address.TypeID]int64)
	for a, o := range h.Objects {
		sums[o.Type] += rh.Objects[a]
	}
	result := make([]TypeEntry, 0, len(sums))
	for t, sum := range sums {
		result = append(result, TypeEntry{Type: t, Name: h.Types[t], Retained: sum})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Retained != result[j].Retained {
			return result[i].Retained > result[j].Retained
		}
		return result[i].Type < result[j].Type
	})
	return result
}

// ThreadEntry pairs a thread's name with its retained size.
type ThreadEntry struct {
	Name     string
	Retained int64
}

// ThreadsByRetained sorts threads descending by retained size, tie-broken
// by ascending name.
func ThreadsByRetained(h *heap.Heap, rh *retained.RetainedHeap) []ThreadEntry {
	result := make([]ThreadEntry, 0, len(h.Threads))
	for i := range h.Threads {
		name := h.Threads[i].Name
		result = append(result, ThreadEntry{Name: name, Retained: rh.Threads[name]})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Retained != result[j].Retained {
			return result[i].Retained > result[j].Retained
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// TotalHeapSize sums the shallow size of every object in the heap.
func TotalHeapSize(h *heap.Heap) int64 {
	var total int64
	for _, o := range h.Objects {
		total += int64(o.Size)
	}
	return total
}
