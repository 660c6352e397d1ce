package inbound_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/heap"
	"github.com/ivanyu/pyheap-go/internal/inbound"
)

func referents(addrs ...address.Address) map[address.Address]struct{} {
	m := make(map[address.Address]struct{}, len(addrs))
	for _, a := range addrs {
		m[a] = struct{}{}
	}
	return m
}

func TestBuildReverseEdges(t *testing.T) {
	h := &heap.Heap{
		Objects: map[address.Address]*heap.Object{
			1: {Address: 1, Referents: referents(2, 3)},
			2: {Address: 2, Referents: referents(3)},
			3: {Address: 3, Referents: referents()},
			4: {Address: 4, Referents: referents(3)},
		},
	}

	idx := inbound.Build(h)

	require.Equal(t, 0, idx.Count(1))
	require.Empty(t, idx.Inbound(1))

	require.Equal(t, 1, idx.Count(2))
	require.ElementsMatch(t, []address.Address{1}, idx.Inbound(2))

	require.Equal(t, 3, idx.Count(3))
	require.ElementsMatch(t, []address.Address{1, 2, 4}, idx.Inbound(3))

	// An address never appearing in Objects has no inbound edges.
	require.Equal(t, 0, idx.Count(999))
	require.Nil(t, idx.Inbound(999))
}

func TestBuildExcludesThreadRoots(t *testing.T) {
	// Thread locals are deliberately invisible to the index: only
	// object-to-object referent edges are counted, even though object 1
	// here also happens to be a thread-local target.
	h := &heap.Heap{
		Objects: map[address.Address]*heap.Object{
			1: {Address: 1, Referents: referents()},
		},
		Threads: []heap.Thread{
			{
				Name: "t",
				StackTrace: []heap.ThreadFrame{
					{Locals: map[string]address.Address{"x": 1}},
				},
			},
		},
	}

	idx := inbound.Build(h)
	require.Equal(t, 0, idx.Count(1))
	require.Empty(t, idx.Inbound(1))
}
