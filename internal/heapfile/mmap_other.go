//go:build !unix

package heapfile

import "os"

// Non-unix platforms (notably Windows) don't get the unix mmap syscall
// path; fall back to reading the whole snapshot into memory. Snapshots
// are read-only and bounded by available heap size at capture time, so
// this is a correct (if less memory-efficient) substitute.
func mapFile(f *os.File, size int64) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

func unmapFile(data []byte) error {
	return nil
}
