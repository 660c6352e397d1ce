package reader

import (
	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/bincodec"
	"github.com/ivanyu/pyheap-go/internal/heap"
)

// decodeObjects reads the object stream: the reserved count, then each
// object's address/type/size, container content (merged into Referents
// along with the "extra referents" set), and the offsets of its
// attribute block and string-representation block. Attribute and
// str_repr bytes themselves are skipped, not decoded, per §4.3.
func (r *Reader) decodeObjects(
	c *bincodec.Cursor,
	commonTypeAttrs map[address.TypeID]map[string]address.Address,
	withStrRepr bool,
) (map[address.Address]*heap.Object, error) {
	n, err := c.U32()
	if err != nil {
		return nil, err
	}

	objects := make(map[address.Address]*heap.Object, n)

	for i := uint32(0); i < n; i++ {
		addr, err := c.U64()
		if err != nil {
			return nil, err
		}
		typ, err := c.U64()
		if err != nil {
			return nil, err
		}
		size, err := c.U32()
		if err != nil {
			return nil, err
		}

		obj := &heap.Object{
			Address: address.Address(addr),
			Type:    address.TypeID(typ),
			Size:    size,
		}

		if kind, ok := r.containerKind[obj.Type]; ok {
			content, err := decodeContent(c, kind)
			if err != nil {
				return nil, err
			}
			obj.Content = content
		}

		referents := make(map[address.Address]struct{})
		for _, a := range obj.Content.Elements() {
			referents[a] = struct{}{}
		}

		nref, err := c.U32()
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < nref; j++ {
			a, err := c.U64()
			if err != nil {
				return nil, err
			}
			referents[address.Address(a)] = struct{}{}
		}
		obj.Referents = referents

		if _, isCommon := commonTypeAttrs[obj.Type]; isCommon {
			obj.AttributesShared = true
		} else {
			obj.AttributesOffset = int64(c.Offset())
			if err := skipAttributeBlock(c); err != nil {
				return nil, err
			}
		}

		isContainer := obj.Content != nil
		if withStrRepr && !isContainer {
			obj.HasStrRepr = true
			obj.StrReprOffset = int64(c.Offset())
			if err := c.SkipLongString(); err != nil {
				return nil, err
			}
		}

		objects[obj.Address] = obj
	}

	return objects, nil
}

func decodeContent(c *bincodec.Cursor, kind heap.ContentKind) (*heap.Content, error) {
	switch kind {
	case heap.ContentDict:
		n, err := c.U32()
		if err != nil {
			return nil, err
		}
		pairs := make([]heap.DictPair, n)
		for i := uint32(0); i < n; i++ {
			k, err := c.U64()
			if err != nil {
				return nil, err
			}
			v, err := c.U64()
			if err != nil {
				return nil, err
			}
			pairs[i] = heap.DictPair{Key: address.Address(k), Value: address.Address(v)}
		}
		return &heap.Content{Kind: heap.ContentDict, DictPairs: pairs}, nil
	case heap.ContentList, heap.ContentSet, heap.ContentTuple:
		n, err := c.U32()
		if err != nil {
			return nil, err
		}
		elems := make([]address.Address, n)
		for i := uint32(0); i < n; i++ {
			v, err := c.U64()
			if err != nil {
				return nil, err
			}
			elems[i] = address.Address(v)
		}
		return &heap.Content{Kind: kind, Elems: elems}, nil
	default:
		return nil, nil
	}
}

// skipAttributeBlock advances past an object's attribute block without
// decoding it: u32 count, then count × (attr-name, u64).
func skipAttributeBlock(c *bincodec.Cursor) error {
	n, err := c.U32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		if err := c.SkipShortOrIndexedString(); err != nil {
			return err
		}
		if err := c.SkipU64(); err != nil {
			return err
		}
	}
	return nil
}
