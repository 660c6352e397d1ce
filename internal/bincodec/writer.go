// Package bincodec implements BinaryCodec: fixed-width big-endian
// primitive encode/decode, length-prefixed strings, and the "mark"
// mechanism the Writer uses to backpatch a count that isn't known until
// the stream has been fully written. This mirrors the role
// core/mapping.go plays for golang-debug — a small leaf package that
// everything else in the codec builds on.
package bincodec

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/ivanyu/pyheap-go/internal/pherr"
	"github.com/ivanyu/pyheap-go/internal/schema"
)

// Writer streams primitives to an underlying io.WriteSeeker in big-endian
// order and supports reserving a 4-byte slot to be filled in later.
type Writer struct {
	w    io.WriteSeeker
	pos  int64
	warn []string
}

// NewWriter wraps w. w must support Seek, since marks require seeking
// backwards to patch in a value discovered later in the stream.
func NewWriter(w io.WriteSeeker) *Writer {
	return &Writer{w: w}
}

// Warn records a non-fatal message produced while encoding (e.g. a size
// computation failure for one object). Warnings never abort the write.
func (w *Writer) Warn(format string, args ...any) {
	w.warn = append(w.warn, errors.Errorf(format, args...).Error())
}

// Warnings returns every warning recorded so far.
func (w *Writer) Warnings() []string {
	return w.warn
}

// Pos returns the current absolute write offset.
func (w *Writer) Pos() int64 { return w.pos }

func (w *Writer) write(b []byte) error {
	n, err := w.w.Write(b)
	w.pos += int64(n)
	if err != nil {
		return pherr.WrapResourceError(err, "write")
	}
	return nil
}

// U8 writes a single byte.
func (w *Writer) U8(v uint8) error { return w.write([]byte{v}) }

// Bool writes one byte: 0 for false, 1 for true.
func (w *Writer) Bool(v bool) error {
	if v {
		return w.U8(1)
	}
	return w.U8(0)
}

// I16 writes a signed 16-bit big-endian integer.
func (w *Writer) I16(v int16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	return w.write(b[:])
}

// U16 writes an unsigned 16-bit big-endian integer.
func (w *Writer) U16(v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return w.write(b[:])
}

// U32 writes an unsigned 32-bit big-endian integer.
func (w *Writer) U32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return w.write(b[:])
}

// U64 writes an unsigned 64-bit big-endian integer.
func (w *Writer) U64(v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return w.write(b[:])
}

// LongString writes a u16 byte length followed by the UTF-8 bytes. The
// value must encode to at most schema.MaxLongStringLen bytes.
func (w *Writer) LongString(s string) error {
	b := []byte(s)
	if len(b) > schema.MaxLongStringLen {
		return errors.Errorf("string of %d bytes exceeds long-string limit", len(b))
	}
	if err := w.U16(uint16(len(b))); err != nil {
		return err
	}
	return w.write(b)
}

// ShortStringInline writes an i16 byte length (always >= 0) followed by
// the UTF-8 bytes. Used for short-or-indexed strings when no frequent-
// attribute index applies.
func (w *Writer) ShortStringInline(s string) error {
	b := []byte(s)
	if len(b) > schema.MaxShortStringLen {
		return errors.Errorf("string of %d bytes exceeds short-string limit", len(b))
	}
	if err := w.I16(int16(len(b))); err != nil {
		return err
	}
	return w.write(b)
}

// ShortStringIndexed writes a negative i16 encoding the frequent-attribute
// index idx (idx must be >= 0): the wire value is -idx-1, with no bytes
// following.
func (w *Writer) ShortStringIndexed(idx int) error {
	if idx < 0 || idx >= schema.MaxFrequentAttrCount {
		return errors.Errorf("frequent attribute index %d out of range", idx)
	}
	return w.I16(int16(-idx - 1))
}

// Mark is a token returned by ReserveU32, to be passed to CloseU32 once
// the real value is known.
type Mark struct {
	offset int64
}

// ReserveU32 writes four zero bytes and returns a token identifying that
// offset, so the caller can come back later with CloseU32 once the real
// value (typically an object count) is known.
func (w *Writer) ReserveU32() (Mark, error) {
	m := Mark{offset: w.pos}
	if err := w.U32(0); err != nil {
		return Mark{}, err
	}
	return m, nil
}

// CloseU32 seeks back to the offset reserved by m, writes value, and
// returns the stream to the position it was at before the call.
func (w *Writer) CloseU32(m Mark, value uint32) error {
	cur := w.pos
	if _, err := w.w.Seek(m.offset, io.SeekStart); err != nil {
		return pherr.WrapResourceError(err, "seek to mark")
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], value)
	if _, err := w.w.Write(b[:]); err != nil {
		return pherr.WrapResourceError(err, "write mark value")
	}
	if _, err := w.w.Seek(cur, io.SeekStart); err != nil {
		return pherr.WrapResourceError(err, "seek back from mark")
	}
	return nil
}
