package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/aggregate"
	"github.com/ivanyu/pyheap-go/internal/heap"
	"github.com/ivanyu/pyheap-go/internal/retained"
)

func sampleHeap() *heap.Heap {
	return &heap.Heap{
		Objects: map[address.Address]*heap.Object{
			1: {Address: 1, Type: 100, Size: 10},
			2: {Address: 2, Type: 100, Size: 20},
			3: {Address: 3, Type: 200, Size: 5},
		},
		Threads: []heap.Thread{{Name: "a"}, {Name: "b"}},
		Types:   map[address.TypeID]string{100: "Foo", 200: "Bar"},
	}
}

func sampleRetained() *retained.RetainedHeap {
	return &retained.RetainedHeap{
		Objects: map[address.Address]int64{1: 30, 2: 10, 3: 5},
		Threads: map[string]int64{"a": 7, "b": 7},
	}
}

func TestObjectsByRetainedSortsDescending(t *testing.T) {
	h := sampleHeap()
	rh := sampleRetained()

	entries := aggregate.ObjectsByRetained(h, rh)
	require.Len(t, entries, 3)
	require.Equal(t, address.Address(1), entries[0].Address)
	require.Equal(t, address.Address(2), entries[1].Address)
	require.Equal(t, address.Address(3), entries[2].Address)
}

func TestTypesByRetainedSumsPerType(t *testing.T) {
	h := sampleHeap()
	rh := sampleRetained()

	entries := aggregate.TypesByRetained(h, rh)
	require.Len(t, entries, 2)
	require.Equal(t, "Foo", entries[0].Name)
	require.EqualValues(t, 40, entries[0].Retained) // 30 + 10
	require.Equal(t, "Bar", entries[1].Name)
	require.EqualValues(t, 5, entries[1].Retained)
}

func TestThreadsByRetainedTieBreaksByName(t *testing.T) {
	h := sampleHeap()
	rh := sampleRetained()

	entries := aggregate.ThreadsByRetained(h, rh)
	require.Len(t, entries, 2)
	require.Equal(t, "a", entries[0].Name)
	require.Equal(t, "b", entries[1].Name)
}

func TestTotalHeapSize(t *testing.T) {
	h := sampleHeap()
	require.EqualValues(t, 35, aggregate.TotalHeapSize(h))
}

func deref(ptrs []*int) []interface{} {
	out := make([]interface{}, len(ptrs))
	for i, p := range ptrs {
		if p == nil {
			out[i] = nil
		} else {
			out[i] = *p
		}
	}
	return out
}

func TestPaginationLayoutCollapsesBothSides(t *testing.T) {
	p := aggregate.NewPagination(20, 10)
	got := deref(p.Layout())

	want := []interface{}{1, 2, 3, nil, 8, 9, 10, 11, 12, nil, 18, 19, 20}
	require.Equal(t, want, got)
}

func TestPaginationLayoutBelowCollapseThresholdListsEveryPage(t *testing.T) {
	p := aggregate.NewPagination(10, 5)
	got := deref(p.Layout())
	require.Len(t, got, 10)
	for i, v := range got {
		require.Equal(t, i+1, v)
	}
}

func TestPaginationEnabledFlags(t *testing.T) {
	first := aggregate.NewPagination(20, 1)
	require.False(t, first.PrevEnabled())
	require.True(t, first.NextEnabled())

	last := aggregate.NewPagination(20, 20)
	require.True(t, last.PrevEnabled())
	require.False(t, last.NextEnabled())
}
