package bincodec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ivanyu/pyheap-go/internal/pherr"
)

// seekBuf is the smallest io.WriteSeeker a test needs: a growable byte
// buffer addressable by absolute offset.
type seekBuf struct {
	data []byte
	pos  int64
}

func (b *seekBuf) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	n := copy(b.data[b.pos:end], p)
	b.pos = end
	return n, nil
}

func (b *seekBuf) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		b.pos = offset
	case 1:
		b.pos += offset
	case 2:
		b.pos = int64(len(b.data)) + offset
	}
	return b.pos, nil
}

func TestPrimitivesRoundTrip(t *testing.T) {
	var buf seekBuf
	w := NewWriter(&buf)

	require.NoError(t, w.U8(0xAB))
	require.NoError(t, w.Bool(true))
	require.NoError(t, w.Bool(false))
	require.NoError(t, w.I16(-5))
	require.NoError(t, w.U16(40000))
	require.NoError(t, w.U32(1234567))
	require.NoError(t, w.U64(9876543210))
	require.NoError(t, w.LongString("hello, pyheap"))

	c := NewCursor(buf.data, 0)
	u8, err := c.U8()
	require.NoError(t, err)
	require.EqualValues(t, 0xAB, u8)

	b1, err := c.Bool()
	require.NoError(t, err)
	require.True(t, b1)
	b2, err := c.Bool()
	require.NoError(t, err)
	require.False(t, b2)

	i16, err := c.I16()
	require.NoError(t, err)
	require.EqualValues(t, -5, i16)

	u16, err := c.U16()
	require.NoError(t, err)
	require.EqualValues(t, 40000, u16)

	u32, err := c.U32()
	require.NoError(t, err)
	require.EqualValues(t, 1234567, u32)

	u64, err := c.U64()
	require.NoError(t, err)
	require.EqualValues(t, 9876543210, u64)

	s, err := c.LongString()
	require.NoError(t, err)
	require.Equal(t, "hello, pyheap", s)
}

func TestShortOrIndexedString(t *testing.T) {
	var buf seekBuf
	w := NewWriter(&buf)

	require.NoError(t, w.ShortStringInline("inline"))
	require.NoError(t, w.ShortStringIndexed(3))

	names := []string{"a", "b", "c", "frequent"}
	lookup := func(idx int) (string, error) { return names[idx], nil }

	c := NewCursor(buf.data, 0)
	s1, err := c.ShortOrIndexedString(lookup)
	require.NoError(t, err)
	require.Equal(t, "inline", s1)

	s2, err := c.ShortOrIndexedString(lookup)
	require.NoError(t, err)
	require.Equal(t, "frequent", s2)
}

func TestMarkBackpatch(t *testing.T) {
	var buf seekBuf
	w := NewWriter(&buf)

	m, err := w.ReserveU32()
	require.NoError(t, err)
	require.NoError(t, w.U32(111))
	require.NoError(t, w.U32(222))
	require.NoError(t, w.CloseU32(m, 2))
	require.NoError(t, w.U32(333))

	c := NewCursor(buf.data, 0)
	count, err := c.U32()
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	v1, err := c.U32()
	require.NoError(t, err)
	require.EqualValues(t, 111, v1)
	v2, err := c.U32()
	require.NoError(t, err)
	require.EqualValues(t, 222, v2)
	v3, err := c.U32()
	require.NoError(t, err)
	require.EqualValues(t, 333, v3)
}

func TestTruncatedBufferIsFormatError(t *testing.T) {
	c := NewCursor([]byte{0x01, 0x02}, 0)
	_, err := c.U64()
	require.Error(t, err)
	require.True(t, pherr.IsFormatError(err))
}

func TestCursorOffsetAndSeek(t *testing.T) {
	c := NewCursor(bytes.Repeat([]byte{0}, 16), 4)
	require.Equal(t, 4, c.Offset())
	c.Seek(10)
	require.Equal(t, 10, c.Offset())
}
