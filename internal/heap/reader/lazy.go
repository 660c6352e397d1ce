package reader

import (
	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/bincodec"
	"github.com/ivanyu/pyheap-go/internal/heap"
	"github.com/ivanyu/pyheap-go/internal/pherr"
)

// Attributes resolves o's attribute map. Common-type instances share one
// map per type, looked up in Heap.CommonTypeAttrs; everything else is
// decoded on demand from AttributesOffset. The returned map must not be
// mutated: callers sharing a common type's map would see each other's
// changes.
func (r *Reader) Attributes(o *heap.Object) (map[string]address.Address, error) {
	if o.AttributesShared {
		attrs, ok := r.heap.CommonTypeAttrs[o.Type]
		if !ok {
			return nil, pherr.NewFormatError("no shared attribute map recorded for common type %s", o.Type)
		}
		return attrs, nil
	}

	c := bincodec.NewCursor(r.buf, int(o.AttributesOffset))
	n, err := c.U32()
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]address.Address, n)
	for i := uint32(0); i < n; i++ {
		name, err := c.ShortOrIndexedString(r.lookup)
		if err != nil {
			return nil, err
		}
		val, err := c.U64()
		if err != nil {
			return nil, err
		}
		attrs[name] = address.Address(val)
	}
	return attrs, nil
}

// StrRepr resolves o's stored string representation. It returns ok=false
// when the snapshot was captured without string representations, or when
// o is a well-known container (those never carry one; build a
// representation for them via the strrepr package instead).
func (r *Reader) StrRepr(o *heap.Object) (s string, ok bool, err error) {
	if !o.HasStrRepr {
		return "", false, nil
	}
	c := bincodec.NewCursor(r.buf, int(o.StrReprOffset))
	s, err = c.LongString()
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}
