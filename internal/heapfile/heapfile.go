// Package heapfile memory-maps a snapshot file for random-access reading.
// This is the Go analogue of golang-debug's core/mapping.go: an immutable
// byte region backed by a file, handed to the decoder as a plain []byte so
// every lazy per-object resolution is just an index into shared,
// read-only memory — safe to call from any number of goroutines at once.
package heapfile

import (
	"os"

	"github.com/ivanyu/pyheap-go/internal/pherr"
)

// File is a read-only, memory-mapped view of a snapshot on disk.
type File struct {
	f    *os.File
	data []byte
}

// Open maps path for reading.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pherr.WrapResourceError(err, "open snapshot file")
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, pherr.WrapResourceError(err, "stat snapshot file")
	}
	if st.Size() == 0 {
		f.Close()
		return nil, pherr.NewFormatError("snapshot file %s is empty", path)
	}
	data, err := mapFile(f, st.Size())
	if err != nil {
		f.Close()
		return nil, pherr.WrapResourceError(err, "map snapshot file")
	}
	return &File{f: f, data: data}, nil
}

// Bytes returns the mapped content. The returned slice is valid until
// Close is called and must not be modified.
func (m *File) Bytes() []byte { return m.data }

// Close unmaps the file and closes the underlying descriptor.
func (m *File) Close() error {
	var err error
	if m.data != nil {
		err = unmapFile(m.data)
		m.data = nil
	}
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return pherr.WrapResourceError(err, "close snapshot file")
	}
	return nil
}
