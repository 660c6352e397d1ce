package writer

import (
	"io"
	"time"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/heap"
)

// Snapshot is a full, in-memory description of everything a walker
// collaborator would stream to a Writer. WriteSnapshot drives the section
// calls in the required order; it exists for tests (such as
// internal/heap/reader's round-trip tests) and tools that need to produce
// a complete, valid snapshot file without a real interpreter to walk.
type Snapshot struct {
	CreatedAt          time.Time
	WithStrRepr        bool
	WellKnownTypes     map[string]address.TypeID
	Threads            []heap.Thread
	FrequentAttributes []string
	CommonTypes        []CommonTypeInput
	Objects            []ObjectInput
	TypeNames          map[address.TypeID]string
}

// WriteSnapshot encodes s to w in full, returning any accumulated
// warnings alongside a write error.
func WriteSnapshot(w io.WriteSeeker, s Snapshot) ([]string, error) {
	wr := New(w)

	if err := wr.WriteHeader(s.CreatedAt, s.WithStrRepr); err != nil {
		return wr.Warnings(), err
	}
	if err := wr.WriteWellKnownTypes(s.WellKnownTypes); err != nil {
		return wr.Warnings(), err
	}
	if err := wr.WriteThreads(s.Threads); err != nil {
		return wr.Warnings(), err
	}
	if _, err := wr.WriteFrequentAttributes(s.FrequentAttributes); err != nil {
		return wr.Warnings(), err
	}
	if err := wr.WriteCommonTypes(s.CommonTypes); err != nil {
		return wr.Warnings(), err
	}

	if err := wr.BeginObjects(); err != nil {
		return wr.Warnings(), err
	}
	for _, o := range s.Objects {
		if err := wr.WriteObject(o); err != nil {
			return wr.Warnings(), err
		}
	}
	if err := wr.EndObjects(); err != nil {
		return wr.Warnings(), err
	}

	if err := wr.WriteTypeNames(s.TypeNames); err != nil {
		return wr.Warnings(), err
	}
	if err := wr.WriteFooter(); err != nil {
		return wr.Warnings(), err
	}

	return wr.Warnings(), nil
}
