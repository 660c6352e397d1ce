// Package writer implements the Writer half of the snapshot codec: it
// streams the header, thread table, frequent-attribute dictionary,
// common-type dictionary, object stream, and type-name table in the fixed
// order spec.md §4.2 requires, using a single reserved-and-backpatched
// mark for the object count. It is pure byte plumbing — deciding which
// objects are visible, how to size them, and how to format a string
// representation is the walker collaborator's job (out of scope here);
// this package only has to encode whatever the collaborator hands it,
// faithfully and in order.
package writer

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/bincodec"
	"github.com/ivanyu/pyheap-go/internal/heap"
	"github.com/ivanyu/pyheap-go/internal/schema"
)

// AttrEntry is one name/value pair of an object's attribute block.
type AttrEntry struct {
	Name  string
	Value address.Address
}

// ObjectInput is everything the Writer needs to encode one object record.
// Content and ExtraReferents together determine the on-wire referents:
// container elements are written first (if Content != nil), then
// ExtraReferents. Attributes is ignored (and must be empty) when the
// object's type is one of the common types passed to WriteCommonTypes.
type ObjectInput struct {
	Address        address.Address
	Type           address.TypeID
	Size           uint32
	Content        *heap.Content
	ExtraReferents []address.Address
	Attributes     []AttrEntry
	StrRepr        *string
}

// CommonTypeInput is one entry of the common-type table: the type's own
// address and the attribute map every instance of it shares.
type CommonTypeInput struct {
	Type       address.TypeID
	Attributes []AttrEntry
}

// Writer streams a snapshot's sections in order to an io.WriteSeeker.
type Writer struct {
	bw            *bincodec.Writer
	frequentIndex map[string]int
	commonTypes   map[address.TypeID]bool
	withStrRepr   bool
	objectsMark   bincodec.Mark
	objectCount   uint32
	inObjects     bool
}

// New wraps w. w must support Seek (needed for the object-count mark).
func New(w io.WriteSeeker) *Writer {
	return &Writer{bw: bincodec.NewWriter(w)}
}

// Warnings returns the non-fatal messages accumulated while writing (see
// SPEC_FULL.md §6: a walker collaborator uses this the same way the
// original dumper accumulates per-object "messages").
func (w *Writer) Warnings() []string { return w.bw.Warnings() }

// Warn records a non-fatal message.
func (w *Writer) Warn(format string, args ...any) { w.bw.Warn(format, args...) }

// WriteHeader writes the opening magic and the header section: version,
// created-at timestamp, and flags.
func (w *Writer) WriteHeader(createdAt time.Time, withStrRepr bool) error {
	if err := w.bw.U64(schema.Magic); err != nil {
		return err
	}
	if err := w.bw.U32(schema.Version); err != nil {
		return err
	}
	if err := w.bw.LongString(createdAt.Format(time.RFC3339)); err != nil {
		return err
	}
	var flags uint64
	if withStrRepr {
		flags |= schema.FlagWithStrRepr
	}
	w.withStrRepr = withStrRepr
	return w.bw.U64(flags)
}

// WriteWellKnownTypes writes the well-known-types table.
func (w *Writer) WriteWellKnownTypes(types map[string]address.TypeID) error {
	if err := w.bw.U32(uint32(len(types))); err != nil {
		return err
	}
	for _, name := range schema.WellKnownTypeNames {
		id, ok := types[name]
		if !ok {
			continue
		}
		if err := w.bw.LongString(name); err != nil {
			return err
		}
		if err := w.bw.U64(uint64(id)); err != nil {
			return err
		}
	}
	return nil
}

// WriteThreads writes the thread table.
func (w *Writer) WriteThreads(threads []heap.Thread) error {
	if err := w.bw.U32(uint32(len(threads))); err != nil {
		return err
	}
	for _, t := range threads {
		if err := w.bw.LongString(t.Name); err != nil {
			return err
		}
		if err := w.bw.Bool(t.Alive); err != nil {
			return err
		}
		if err := w.bw.Bool(t.Daemon); err != nil {
			return err
		}
		if err := w.bw.U32(uint32(len(t.StackTrace))); err != nil {
			return err
		}
		for _, f := range t.StackTrace {
			if err := w.bw.LongString(f.Filename); err != nil {
				return err
			}
			if err := w.bw.U32(f.Line); err != nil {
				return err
			}
			if err := w.bw.LongString(f.FunctionName); err != nil {
				return err
			}
			if err := w.bw.U32(uint32(len(f.Locals))); err != nil {
				return err
			}
			for name, addr := range f.Locals {
				if err := w.bw.LongString(name); err != nil {
					return err
				}
				if err := w.bw.U64(uint64(addr)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// WriteFrequentAttributes writes the frequent-attribute table in the
// given order (the order determines each name's on-wire index) and
// returns the name -> index mapping to use for WriteCommonTypes and
// object attribute blocks.
func (w *Writer) WriteFrequentAttributes(names []string) (map[string]int, error) {
	if len(names) > schema.MaxFrequentAttrCount {
		return nil, errors.Errorf("%d frequent attributes exceeds limit of %d", len(names), schema.MaxFrequentAttrCount)
	}
	if err := w.bw.U32(uint32(len(names))); err != nil {
		return nil, err
	}
	index := make(map[string]int, len(names))
	for i, name := range names {
		if err := w.bw.ShortStringInline(name); err != nil {
			return nil, err
		}
		index[name] = i
	}
	w.frequentIndex = index
	return index, nil
}

func (w *Writer) writeAttrName(name string) error {
	if idx, ok := w.frequentIndex[name]; ok {
		return w.bw.ShortStringIndexed(idx)
	}
	return w.bw.ShortStringInline(name)
}

// WriteCommonTypes writes the common-type table and records which
// TypeIDs are common, so later WriteObject calls know to omit their
// inline attribute block.
func (w *Writer) WriteCommonTypes(types []CommonTypeInput) error {
	if err := w.bw.U32(uint32(len(types))); err != nil {
		return err
	}
	w.commonTypes = make(map[address.TypeID]bool, len(types))
	for _, t := range types {
		w.commonTypes[t.Type] = true
		if err := w.bw.U64(uint64(t.Type)); err != nil {
			return err
		}
		if err := w.bw.U32(uint32(len(t.Attributes))); err != nil {
			return err
		}
		for _, a := range t.Attributes {
			if err := w.writeAttrName(a.Name); err != nil {
				return err
			}
			if err := w.bw.U64(uint64(a.Value)); err != nil {
				return err
			}
		}
	}
	return nil
}

// BeginObjects reserves the object-count mark and must be called before
// any WriteObject call.
func (w *Writer) BeginObjects() error {
	m, err := w.bw.ReserveU32()
	if err != nil {
		return err
	}
	w.objectsMark = m
	w.inObjects = true
	return nil
}

// WriteObject encodes one object record. BeginObjects must have been
// called first.
func (w *Writer) WriteObject(o ObjectInput) error {
	if !w.inObjects {
		return errors.New("WriteObject called before BeginObjects")
	}
	if err := w.bw.U64(uint64(o.Address)); err != nil {
		return err
	}
	if err := w.bw.U64(uint64(o.Type)); err != nil {
		return err
	}
	if err := w.bw.U32(o.Size); err != nil {
		return err
	}

	if o.Content != nil {
		if err := w.writeContent(o.Content); err != nil {
			return err
		}
	}

	if err := w.bw.U32(uint32(len(o.ExtraReferents))); err != nil {
		return err
	}
	for _, r := range o.ExtraReferents {
		if err := w.bw.U64(uint64(r)); err != nil {
			return err
		}
	}

	if !w.commonTypes[o.Type] {
		if err := w.bw.U32(uint32(len(o.Attributes))); err != nil {
			return err
		}
		for _, a := range o.Attributes {
			if err := w.writeAttrName(a.Name); err != nil {
				return err
			}
			if err := w.bw.U64(uint64(a.Value)); err != nil {
				return err
			}
		}
	}

	isContainer := o.Content != nil
	if w.withStrRepr && !isContainer {
		s := ""
		if o.StrRepr != nil {
			s = *o.StrRepr
		}
		if err := w.bw.LongString(s); err != nil {
			return err
		}
	}

	w.objectCount++
	return nil
}

func (w *Writer) writeContent(c *heap.Content) error {
	switch c.Kind {
	case heap.ContentDict:
		if err := w.bw.U32(uint32(len(c.DictPairs))); err != nil {
			return err
		}
		for _, p := range c.DictPairs {
			if err := w.bw.U64(uint64(p.Key)); err != nil {
				return err
			}
			if err := w.bw.U64(uint64(p.Value)); err != nil {
				return err
			}
		}
	case heap.ContentList, heap.ContentSet, heap.ContentTuple:
		if err := w.bw.U32(uint32(len(c.Elems))); err != nil {
			return err
		}
		for _, e := range c.Elems {
			if err := w.bw.U64(uint64(e)); err != nil {
				return err
			}
		}
	default:
		return errors.Errorf("unknown content kind %v", c.Kind)
	}
	return nil
}

// EndObjects backpatches the object count recorded by BeginObjects.
func (w *Writer) EndObjects() error {
	if !w.inObjects {
		return errors.New("EndObjects called before BeginObjects")
	}
	w.inObjects = false
	return w.bw.CloseU32(w.objectsMark, w.objectCount)
}

// WriteTypeNames writes the type-name table.
func (w *Writer) WriteTypeNames(types map[address.TypeID]string) error {
	if err := w.bw.U32(uint32(len(types))); err != nil {
		return err
	}
	for id, name := range types {
		if err := w.bw.U64(uint64(id)); err != nil {
			return err
		}
		if err := w.bw.LongString(name); err != nil {
			return err
		}
	}
	return nil
}

// WriteFooter writes the closing magic.
func (w *Writer) WriteFooter() error {
	return w.bw.U64(schema.Magic)
}
