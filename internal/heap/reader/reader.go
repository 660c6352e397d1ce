// Package reader implements the Reader half of the snapshot codec: it
// validates the magic framing and version, eagerly materializes the
// header, threads, well-known types, frequent attributes, and common
// types, and builds the object index — recording the file offset of each
// object's attribute block and string-representation block instead of
// decoding them, so those can be resolved on demand with O(1) seek plus
// O(attr_count) work. This mirrors golang-debug's internal/gocore/process.go,
// which eagerly builds the object index but defers type/attribute detail
// to on-demand accessors.
package reader

import (
	"time"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/bincodec"
	"github.com/ivanyu/pyheap-go/internal/heap"
	"github.com/ivanyu/pyheap-go/internal/heapfile"
	"github.com/ivanyu/pyheap-go/internal/pherr"
	"github.com/ivanyu/pyheap-go/internal/schema"
)

// Reader is an immutable, read-only view over a memory-mapped snapshot
// file. All public methods are safe to call concurrently: each call works
// off its own bincodec.Cursor over the same shared, read-only buffer.
type Reader struct {
	mf  *heapfile.File
	buf []byte

	heap *heap.Heap
	// containerKind maps a well-known container TypeID to its content kind.
	containerKind map[address.TypeID]heap.ContentKind

	// lookup resolves a frequent-attribute index into its name; retained
	// for attribute blocks resolved lazily after decode() returns.
	lookup bincodec.FrequentLookup
}

// Open memory-maps path and decodes everything eager: header, threads,
// well-known types, frequent attributes, common types, and the object
// index (attribute/str_repr blocks stay unresolved).
func Open(path string) (*Reader, error) {
	mf, err := heapfile.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{mf: mf, buf: mf.Bytes()}
	h, err := r.decode()
	if err != nil {
		mf.Close()
		return nil, err
	}
	r.heap = h
	return r, nil
}

// Close unmaps the underlying file.
func (r *Reader) Close() error { return r.mf.Close() }

// Heap returns the decoded snapshot. Attribute maps and string
// representations of individual objects are resolved lazily via
// Attributes and StrRepr.
func (r *Reader) Heap() *heap.Heap { return r.heap }

func (r *Reader) decode() (*heap.Heap, error) {
	c := bincodec.NewCursor(r.buf, 0)

	magic, err := c.U64()
	if err != nil {
		return nil, err
	}
	if magic != schema.Magic {
		return nil, pherr.NewFormatError("bad opening magic %#x", magic)
	}

	version, err := c.U32()
	if err != nil {
		return nil, err
	}
	if version != schema.Version {
		return nil, pherr.NewFormatError("unsupported format version %d", version)
	}

	createdAtStr, err := c.LongString()
	if err != nil {
		return nil, err
	}
	createdAt, perr := time.Parse(time.RFC3339, createdAtStr)
	if perr != nil {
		return nil, pherr.WrapFormatError(perr, "parsing created_at")
	}

	flags, err := c.U64()
	if err != nil {
		return nil, err
	}
	withStrRepr := flags&schema.FlagWithStrRepr != 0

	wkt, err := decodeWellKnownTypes(c)
	if err != nil {
		return nil, err
	}

	threads, err := decodeThreads(c)
	if err != nil {
		return nil, err
	}

	frequentAttrs, err := decodeFrequentAttributes(c)
	if err != nil {
		return nil, err
	}
	lookup := func(idx int) (string, error) {
		if idx < 0 || idx >= len(frequentAttrs) {
			return "", pherr.NewFormatError("frequent attribute index %d out of range [0,%d)", idx, len(frequentAttrs))
		}
		return frequentAttrs[idx], nil
	}

	commonTypeAttrs, err := decodeCommonTypes(c, lookup)
	if err != nil {
		return nil, err
	}
	r.lookup = lookup

	r.containerKind = make(map[address.TypeID]heap.ContentKind, 4)
	if id, ok := wkt["dict"]; ok {
		r.containerKind[id] = heap.ContentDict
	}
	if id, ok := wkt["list"]; ok {
		r.containerKind[id] = heap.ContentList
	}
	if id, ok := wkt["set"]; ok {
		r.containerKind[id] = heap.ContentSet
	}
	if id, ok := wkt["tuple"]; ok {
		r.containerKind[id] = heap.ContentTuple
	}

	objects, err := r.decodeObjects(c, commonTypeAttrs, withStrRepr)
	if err != nil {
		return nil, err
	}

	types, err := decodeTypeNames(c)
	if err != nil {
		return nil, err
	}

	magic, err = c.U64()
	if err != nil {
		return nil, err
	}
	if magic != schema.Magic {
		return nil, pherr.NewFormatError("bad closing magic %#x", magic)
	}

	return &heap.Heap{
		Header: heap.Header{
			FormatVersion:  version,
			CreatedAt:      createdAt,
			WithStrRepr:    withStrRepr,
			WellKnownTypes: wkt,
		},
		Threads:            threads,
		Objects:            objects,
		Types:              types,
		FrequentAttributes: frequentAttrs,
		CommonTypeAttrs:    commonTypeAttrs,
	}, nil
}

func decodeWellKnownTypes(c *bincodec.Cursor) (map[string]address.TypeID, error) {
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	result := make(map[string]address.TypeID, n)
	for i := uint32(0); i < n; i++ {
		name, err := c.LongString()
		if err != nil {
			return nil, err
		}
		id, err := c.U64()
		if err != nil {
			return nil, err
		}
		result[name] = address.TypeID(id)
	}
	return result, nil
}

func decodeThreads(c *bincodec.Cursor) ([]heap.Thread, error) {
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	threads := make([]heap.Thread, n)
	for i := uint32(0); i < n; i++ {
		name, err := c.LongString()
		if err != nil {
			return nil, err
		}
		alive, err := c.Bool()
		if err != nil {
			return nil, err
		}
		daemon, err := c.Bool()
		if err != nil {
			return nil, err
		}
		nf, err := c.U32()
		if err != nil {
			return nil, err
		}
		frames := make([]heap.ThreadFrame, nf)
		for j := uint32(0); j < nf; j++ {
			filename, err := c.LongString()
			if err != nil {
				return nil, err
			}
			line, err := c.U32()
			if err != nil {
				return nil, err
			}
			fn, err := c.LongString()
			if err != nil {
				return nil, err
			}
			nl, err := c.U32()
			if err != nil {
				return nil, err
			}
			locals := make(map[string]address.Address, nl)
			for k := uint32(0); k < nl; k++ {
				lname, err := c.LongString()
				if err != nil {
					return nil, err
				}
				laddr, err := c.U64()
				if err != nil {
					return nil, err
				}
				locals[lname] = address.Address(laddr)
			}
			frames[j] = heap.ThreadFrame{Filename: filename, Line: line, FunctionName: fn, Locals: locals}
		}
		threads[i] = heap.Thread{Name: name, Alive: alive, Daemon: daemon, StackTrace: frames}
	}
	return threads, nil
}

func decodeFrequentAttributes(c *bincodec.Cursor) ([]string, error) {
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	if n > schema.MaxFrequentAttrCount {
		return nil, pherr.NewFormatError("frequent attribute count %d exceeds limit", n)
	}
	names := make([]string, n)
	for i := uint32(0); i < n; i++ {
		// Entries in this table are always stored inline; a lookup
		// function is never needed at this point because no index into
		// the (still incomplete) table could be valid yet.
		k, err := c.I16()
		if err != nil {
			return nil, err
		}
		if k < 0 {
			return nil, pherr.NewFormatError("frequent attribute table entry %d has negative length", i)
		}
		raw, err := c.RawBytes(int(k))
		if err != nil {
			return nil, err
		}
		names[i] = string(raw)
	}
	return names, nil
}

func decodeCommonTypes(c *bincodec.Cursor, lookup bincodec.FrequentLookup) (map[address.TypeID]map[string]address.Address, error) {
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	result := make(map[address.TypeID]map[string]address.Address, n)
	for i := uint32(0); i < n; i++ {
		id, err := c.U64()
		if err != nil {
			return nil, err
		}
		na, err := c.U32()
		if err != nil {
			return nil, err
		}
		attrs := make(map[string]address.Address, na)
		for j := uint32(0); j < na; j++ {
			name, err := c.ShortOrIndexedString(lookup)
			if err != nil {
				return nil, err
			}
			val, err := c.U64()
			if err != nil {
				return nil, err
			}
			attrs[name] = address.Address(val)
		}
		result[address.TypeID(id)] = attrs
	}
	return result, nil
}

func decodeTypeNames(c *bincodec.Cursor) (map[address.TypeID]string, error) {
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	result := make(map[address.TypeID]string, n)
	for i := uint32(0); i < n; i++ {
		id, err := c.U64()
		if err != nil {
			return nil, err
		}
		name, err := c.LongString()
		if err != nil {
			return nil, err
		}
		result[address.TypeID(id)] = name
	}
	return result, nil
}
