package reader_test

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/heap"
	"github.com/ivanyu/pyheap-go/internal/heap/reader"
	"github.com/ivanyu/pyheap-go/internal/heap/writer"
)

// writeSample builds a small, self-consistent snapshot to path via
// writer.WriteSnapshot: one plain object with an attribute and a string
// representation, a dict referencing two leaf objects, and a list
// referencing a third leaf.
func writeSample(t *testing.T, path string, withStrRepr bool) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	obj1StrRepr := "<MyObj>"
	_, err = writer.WriteSnapshot(f, writer.Snapshot{
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		WithStrRepr: withStrRepr,
		WellKnownTypes: map[string]address.TypeID{
			"dict": 100,
			"list": 101,
		},
		Threads: []heap.Thread{
			{
				Name:   "MainThread",
				Alive:  true,
				Daemon: false,
				StackTrace: []heap.ThreadFrame{
					{
						Filename:     "main.py",
						Line:         10,
						FunctionName: "run",
						Locals:       map[string]address.Address{"obj": 1},
					},
				},
			},
		},
		FrequentAttributes: []string{"name"},
		Objects: []writer.ObjectInput{
			{
				Address:        1,
				Type:           200,
				Size:           16,
				ExtraReferents: []address.Address{2, 3},
				Attributes:     []writer.AttrEntry{{Name: "name", Value: 999}},
				StrRepr:        &obj1StrRepr,
			},
			{
				Address: 2,
				Type:    100,
				Size:    48,
				Content: &heap.Content{
					Kind:      heap.ContentDict,
					DictPairs: []heap.DictPair{{Key: 4, Value: 5}},
				},
			},
			{
				Address: 3,
				Type:    101,
				Size:    24,
				Content: &heap.Content{
					Kind:  heap.ContentList,
					Elems: []address.Address{6},
				},
			},
			{Address: 4, Type: 200, Size: 8},
			{Address: 5, Type: 200, Size: 8},
			{Address: 6, Type: 200, Size: 8},
		},
		TypeNames: map[address.TypeID]string{
			200: "MyObj",
			100: "dict",
			101: "list",
		},
	})
	require.NoError(t, err)
}

func TestRoundTripBasic(t *testing.T) {
	path := t.TempDir() + "/snapshot.bin"
	writeSample(t, path, true)

	r, err := reader.Open(path)
	require.NoError(t, err)
	defer r.Close()

	h := r.Heap()
	require.Equal(t, uint32(1), h.Header.FormatVersion)
	require.True(t, h.Header.WithStrRepr)
	require.Len(t, h.Objects, 6)
	require.Len(t, h.Threads, 1)
	require.Equal(t, "MainThread", h.Threads[0].Name)
	require.Equal(t, map[address.Address]struct{}{1: {}}, h.Threads[0].Locals())

	obj1 := h.Objects[1]
	require.NotNil(t, obj1)
	require.Equal(t, address.TypeID(200), obj1.Type)
	require.Equal(t, uint32(16), obj1.Size)
	require.Equal(t, map[address.Address]struct{}{2: {}, 3: {}}, obj1.Referents)

	attrs, err := r.Attributes(obj1)
	require.NoError(t, err)
	require.Equal(t, address.Address(999), attrs["name"])

	s, ok, err := r.StrRepr(obj1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "<MyObj>", s)

	dict := h.Objects[2]
	require.Equal(t, heap.ContentDict, dict.Content.Kind)
	require.Equal(t, map[address.Address]struct{}{4: {}, 5: {}}, dict.Referents)

	list := h.Objects[3]
	require.Equal(t, heap.ContentList, list.Content.Kind)
	require.Equal(t, map[address.Address]struct{}{6: {}}, list.Referents)

	// A non-container written with a nil StrRepr still carries an (empty)
	// inline representation when the header flag is set.
	leaf := h.Objects[4]
	require.Empty(t, leaf.Referents)
	s, ok, err = r.StrRepr(leaf)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "", s)
}

func TestRoundTripWithoutStrRepr(t *testing.T) {
	path := t.TempDir() + "/snapshot.bin"
	writeSample(t, path, false)

	r, err := reader.Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.False(t, r.Heap().Header.WithStrRepr)
	obj1 := r.Heap().Objects[1]
	_, ok, err := r.StrRepr(obj1)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestCommonTypeAttributesAreSharedAcrossInstances exercises spec.md
// §4.2 item 6/7's "common-type instances omit the inline attribute
// block" rule and §9's tagged-variant design note: two instances of the
// same common type must resolve to the same shared attribute map
// instead of each carrying their own.
func TestCommonTypeAttributesAreSharedAcrossInstances(t *testing.T) {
	path := t.TempDir() + "/snapshot.bin"

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = writer.WriteSnapshot(f, writer.Snapshot{
		CreatedAt:          time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		WellKnownTypes:     map[string]address.TypeID{"int": 300},
		FrequentAttributes: []string{"__class__"},
		CommonTypes: []writer.CommonTypeInput{
			{
				Type:       300,
				Attributes: []writer.AttrEntry{{Name: "__class__", Value: 300}},
			},
		},
		Objects: []writer.ObjectInput{
			{Address: 1, Type: 300, Size: 8},
			{Address: 2, Type: 300, Size: 8},
		},
		TypeNames: map[address.TypeID]string{300: "int"},
	})
	require.NoError(t, err)

	r, err := reader.Open(path)
	require.NoError(t, err)
	defer r.Close()

	obj1 := r.Heap().Objects[1]
	obj2 := r.Heap().Objects[2]
	require.True(t, obj1.AttributesShared)
	require.True(t, obj2.AttributesShared)

	attrs1, err := r.Attributes(obj1)
	require.NoError(t, err)
	attrs2, err := r.Attributes(obj2)
	require.NoError(t, err)

	require.Equal(t, address.Address(300), attrs1["__class__"])
	require.Equal(t, map[string]address.Address{"__class__": 300}, attrs1)
	require.Equal(t, map[string]address.Address{"__class__": 300}, attrs2)
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := t.TempDir() + "/snapshot.bin"
	writeSample(t, path, true)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Flip a byte in the opening magic.
	data[0] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = reader.Open(path)
	require.Error(t, err)
}

// TestRoundTripStructurallyDeterministic writes the same heap twice and
// decodes both copies, asserting the header, thread table, and object map
// are structurally identical byte-for-byte decode results (spec.md §8's
// round-trip property: "equal headers, equal thread tables, equal
// objects"). cmp.Diff is used instead of require.Equal here because a
// mismatch reports exactly which field/path diverged, which matters once
// any one of the dozen decoded fields could be the culprit.
func TestRoundTripStructurallyDeterministic(t *testing.T) {
	pathA := t.TempDir() + "/a.bin"
	pathB := t.TempDir() + "/b.bin"
	writeSample(t, pathA, true)
	writeSample(t, pathB, true)

	ra, err := reader.Open(pathA)
	require.NoError(t, err)
	defer ra.Close()
	rb, err := reader.Open(pathB)
	require.NoError(t, err)
	defer rb.Close()

	ha, hb := ra.Heap(), rb.Heap()
	if diff := cmp.Diff(ha.Header, hb.Header); diff != "" {
		t.Errorf("header mismatch (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(ha.Threads, hb.Threads); diff != "" {
		t.Errorf("thread table mismatch (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(ha.Objects, hb.Objects); diff != "" {
		t.Errorf("object map mismatch (-a +b):\n%s", diff)
	}
}

func TestOpenRejectsBadFooterMagic(t *testing.T) {
	path := t.TempDir() + "/snapshot.bin"
	writeSample(t, path, true)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Flip a byte in the closing magic (last 8 bytes).
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = reader.Open(path)
	require.Error(t, err)
}
