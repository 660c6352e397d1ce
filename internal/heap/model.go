// Package heap holds the data model shared by the Writer and the Reader:
// the header, thread/frame/object records, and the inline content shapes
// for the four well-known containers. Nothing in this package performs
// I/O — it mirrors the split in golang-debug between internal/gocore's
// value types (object.go, root.go) and the process that produces them
// (process.go).
package heap

import (
	"time"

	"github.com/ivanyu/pyheap-go/internal/address"
)

// Header carries the snapshot-wide metadata written once, right after the
// opening magic.
type Header struct {
	FormatVersion  uint32
	CreatedAt      time.Time
	WithStrRepr    bool
	WellKnownTypes map[string]address.TypeID
}

// ThreadFrame is one stack frame of a captured thread.
type ThreadFrame struct {
	Filename     string
	Line         uint32
	FunctionName string
	Locals       map[string]address.Address
}

// Thread is one OS/interpreter thread captured at snapshot time.
type Thread struct {
	Name       string
	Alive      bool
	Daemon     bool
	StackTrace []ThreadFrame
}

// Locals returns the union of every Address appearing as a local value in
// any of the thread's frames. Order is irrelevant, hence a set.
func (t *Thread) Locals() map[address.Address]struct{} {
	result := make(map[address.Address]struct{})
	for _, f := range t.StackTrace {
		for _, a := range f.Locals {
			result[a] = struct{}{}
		}
	}
	return result
}

// ContentKind identifies which of the four well-known container shapes an
// object's Content describes.
type ContentKind int

const (
	// ContentNone marks a non-container object: Content is nil.
	ContentNone ContentKind = iota
	ContentDict
	ContentList
	ContentSet
	ContentTuple
)

// DictPair is one key/value pair of a dict's content, in insertion order.
type DictPair struct {
	Key, Value address.Address
}

// Content is the structured, inline-decoded payload carried by instances
// of the four well-known container types. Exactly one of DictPairs/Elems
// is meaningful, selected by Kind.
type Content struct {
	Kind ContentKind
	// DictPairs holds mapping pairs, in insertion order. Only meaningful
	// when Kind == ContentDict.
	DictPairs []DictPair
	// Elems holds list/tuple elements in sequence order, or set elements
	// in iteration order. Meaningful when Kind is ContentList, ContentSet,
	// or ContentTuple.
	Elems []address.Address
}

// Elements returns, regardless of container kind, the addresses the
// content directly references: keys and values for a dict, elements for
// list/set/tuple. Used to fold container content into the referent set.
func (c *Content) Elements() []address.Address {
	if c == nil {
		return nil
	}
	if c.Kind == ContentDict {
		out := make([]address.Address, 0, 2*len(c.DictPairs))
		for _, p := range c.DictPairs {
			out = append(out, p.Key, p.Value)
		}
		return out
	}
	return c.Elems
}

// Object is the central entity of a heap snapshot.
type Object struct {
	Address   address.Address
	Type      address.TypeID
	Size      uint32
	Referents map[address.Address]struct{}
	// Content is non-nil only for the four well-known container shapes.
	Content *Content

	// AttributesShared is true when this object's type is a common type:
	// its attribute map must be looked up by Type in Heap.CommonTypeAttrs
	// instead of decoded from AttributesOffset.
	AttributesShared bool
	// AttributesOffset is the file offset of this object's attribute
	// block, used for on-demand resolution. Meaningless when
	// AttributesShared is true.
	AttributesOffset int64

	// HasStrRepr is true when a string representation is stored inline
	// for this object (only possible when the header's WithStrRepr flag is
	// set and the object isn't a well-known container).
	HasStrRepr bool
	// StrReprOffset is the file offset of the inline string
	// representation, meaningful only when HasStrRepr is true.
	StrReprOffset int64
}

// Heap is the fully decoded snapshot: everything the Writer produced,
// available for random-access querying.
type Heap struct {
	Header  Header
	Threads []Thread
	Objects map[address.Address]*Object
	// Types maps every TypeID appearing as an object's Type to its name.
	Types map[address.TypeID]string

	// FrequentAttributes is the interned table of recurring attribute
	// names, indexed by the negative encoding described in the format.
	FrequentAttributes []string

	// CommonTypeAttrs holds, for each common type's TypeID, the shared
	// attribute map substituted for every instance of that type.
	CommonTypeAttrs map[address.TypeID]map[string]address.Address
}
