// Package inbound builds the reverse-edge index used by the retained-heap
// engine: for any object address, which other objects hold a reference to
// it. The index is a single packed array with a cumulative-count offset
// table, the same CSR-style layout golang-debug's
// internal/gocore/reverse.go builds over its object/root graph — adapted
// here to a map-keyed object graph (addresses, not process offsets).
//
// Thread roots are deliberately excluded: per the design, the inbound
// index answers "which objects reference a", built purely from
// objects' referents; thread ownership is folded in separately, only
// where the retained-heap engine's per-thread phase needs it.
package inbound

import (
	"sort"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/heap"
)

// Index answers "what points at y" in O(in-degree) time, built once over
// an immutable Heap. Every address that appears as a key of Heap.Objects
// is present in the index, with at least the empty set.
type Index struct {
	addrs []address.Address
	pos   map[address.Address]int
	// cum[i] is the start offset in edges of addrs[i]'s inbound list;
	// cum[len(addrs)] is len(edges).
	cum   []int32
	edges []address.Address
}

// Build computes the reverse-edge index for h in two passes over every
// object's Referents (one to count, one to fill).
func Build(h *heap.Heap) *Index {
	addrs := make([]address.Address, 0, len(h.Objects))
	for a := range h.Objects {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	pos := make(map[address.Address]int, len(addrs))
	for i, a := range addrs {
		pos[a] = i
	}

	cnt := make([]int32, len(addrs)+1)
	for _, obj := range h.Objects {
		for to := range obj.Referents {
			if i, ok := pos[to]; ok {
				cnt[i]++
			}
		}
	}

	var n int32
	for i, c := range cnt {
		n += c
		cnt[i] = n
	}

	edges := make([]address.Address, n)
	for from, obj := range h.Objects {
		for to := range obj.Referents {
			i, ok := pos[to]
			if !ok {
				continue
			}
			cnt[i]--
			edges[cnt[i]] = from
		}
	}

	return &Index{addrs: addrs, pos: pos, cum: cnt, edges: edges}
}

// Inbound returns every address referencing y. The returned slice is a
// view into the index's storage and must not be mutated.
func (idx *Index) Inbound(y address.Address) []address.Address {
	i, ok := idx.pos[y]
	if !ok {
		return nil
	}
	return idx.edges[idx.cum[i]:idx.cum[i+1]]
}

// Count reports len(Inbound(y)) without slicing.
func (idx *Index) Count(y address.Address) int {
	i, ok := idx.pos[y]
	if !ok {
		return 0
	}
	return int(idx.cum[i+1] - idx.cum[i])
}
