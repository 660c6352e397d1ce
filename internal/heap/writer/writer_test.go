package writer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ivanyu/pyheap-go/internal/heap/writer"
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

// TestWarnAccumulatesWarnings exercises the non-fatal message
// accumulator SPEC_FULL.md §6 grounds on dumper_inferior.py's "messages"
// list: a walker collaborator calls Warn per object it couldn't size or
// find a stack for, and reads them all back via Warnings after the
// write completes.
func TestWarnAccumulatesWarnings(t *testing.T) {
	var buf seekBuf
	w := writer.New(&buf)

	require.Empty(t, w.Warnings())

	w.Warn("stack for thread %s not found", "Worker-1")
	w.Warn("error getting size of %#x", uint64(0xDEAD))

	got := w.Warnings()
	require.Len(t, got, 2)
	require.Contains(t, got[0], "Worker-1")
	require.Contains(t, got[1], "0xdead")
}
