package bincodec

import (
	"encoding/binary"

	"github.com/ivanyu/pyheap-go/internal/pherr"
)

// Cursor decodes big-endian primitives out of a byte slice at an explicit
// offset. It carries no other state, so any number of Cursors can be used
// concurrently over the same underlying (read-only) buffer — this is the
// "no hidden state, no shared mutable cursor" shape called for when a
// Reader's per-object lazy fields must be safe to resolve from parallel
// workers.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a Cursor reading buf starting at off.
func NewCursor(buf []byte, off int) *Cursor {
	return &Cursor{buf: buf, off: off}
}

// Offset returns the cursor's current position.
func (c *Cursor) Offset() int { return c.off }

// Seek repositions the cursor.
func (c *Cursor) Seek(off int) { c.off = off }

func (c *Cursor) need(n int) error {
	if n < 0 || c.off < 0 || c.off+n > len(c.buf) {
		return pherr.NewFormatError("need %d bytes at offset %d, buffer has %d", n, c.off, len(c.buf))
	}
	return nil
}

// U8 reads a single byte.
func (c *Cursor) U8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.off]
	c.off++
	return v, nil
}

// Bool reads one byte: zero is false, non-zero is true.
func (c *Cursor) Bool() (bool, error) {
	v, err := c.U8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// I16 reads a signed 16-bit big-endian integer.
func (c *Cursor) I16() (int16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := int16(binary.BigEndian.Uint16(c.buf[c.off:]))
	c.off += 2
	return v, nil
}

// U16 reads an unsigned 16-bit big-endian integer.
func (c *Cursor) U16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(c.buf[c.off:])
	c.off += 2
	return v, nil
}

// U32 reads an unsigned 32-bit big-endian integer.
func (c *Cursor) U32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(c.buf[c.off:])
	c.off += 4
	return v, nil
}

// U64 reads an unsigned 64-bit big-endian integer.
func (c *Cursor) U64() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(c.buf[c.off:])
	c.off += 8
	return v, nil
}

// RawBytes reads n raw bytes and advances the cursor past them.
func (c *Cursor) RawBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, c.buf[c.off:c.off+n])
	c.off += n
	return b, nil
}

// LongString reads a u16 byte length followed by that many UTF-8 bytes.
func (c *Cursor) LongString() (string, error) {
	n, err := c.U16()
	if err != nil {
		return "", err
	}
	if err := c.need(int(n)); err != nil {
		return "", err
	}
	s := string(c.buf[c.off : c.off+int(n)])
	c.off += int(n)
	return s, nil
}

// SkipLongString advances past a long string without allocating it.
func (c *Cursor) SkipLongString() error {
	n, err := c.U16()
	if err != nil {
		return err
	}
	if err := c.need(int(n)); err != nil {
		return err
	}
	c.off += int(n)
	return nil
}

// FrequentLookup resolves a frequent-attribute index into its name.
type FrequentLookup func(idx int) (string, error)

// ShortOrIndexedString reads an i16 K. If K >= 0, K UTF-8 bytes follow
// inline. If K < 0, no bytes follow and the name is resolved via lookup
// at index -K-1.
func (c *Cursor) ShortOrIndexedString(lookup FrequentLookup) (string, error) {
	k, err := c.I16()
	if err != nil {
		return "", err
	}
	if k >= 0 {
		if err := c.need(int(k)); err != nil {
			return "", err
		}
		s := string(c.buf[c.off : c.off+int(k)])
		c.off += int(k)
		return s, nil
	}
	idx := int(-k) - 1
	return lookup(idx)
}

// SkipShortOrIndexedString advances past a short-or-indexed string
// without resolving a frequent-attribute index.
func (c *Cursor) SkipShortOrIndexedString() error {
	k, err := c.I16()
	if err != nil {
		return err
	}
	if k >= 0 {
		if err := c.need(int(k)); err != nil {
			return err
		}
		c.off += int(k)
	}
	return nil
}

// SkipU64 advances past one u64.
func (c *Cursor) SkipU64() error {
	return c.need8skip(8)
}

func (c *Cursor) need8skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	c.off += n
	return nil
}
