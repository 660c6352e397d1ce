// Package strrepr synthesizes string representations for the four
// well-known container shapes when a snapshot doesn't carry one inline.
// Non-container objects read their stored representation straight from
// the file; containers recurse into their elements with a cycle guard,
// the same shape as mabhi256-jdiag's internal/heap/analyzer/resolver.go
// lazy, cycle-guarded value stringification.
package strrepr

import (
	"strings"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/heap"
)

const unknownPlaceholder = "(unknown)"

// ObjectSource resolves an object by address and its inline string
// representation, if any. *reader.Reader satisfies this interface.
type ObjectSource interface {
	Heap() *heap.Heap
	StrRepr(o *heap.Object) (s string, ok bool, err error)
}

// Resolver synthesizes container representations on demand, guarding
// against cycles introduced by self-referential containers.
type Resolver struct {
	src ObjectSource
}

// New returns a Resolver reading objects and inline representations from
// src.
func New(src ObjectSource) *Resolver {
	return &Resolver{src: src}
}

// Resolve returns addr's string representation. If the snapshot was
// captured without string representations (header flag unset), every
// call returns ok=false.
func (r *Resolver) Resolve(addr address.Address) (s string, ok bool, err error) {
	if !r.src.Heap().Header.WithStrRepr {
		return "", false, nil
	}
	return r.resolve(addr, make(map[address.Address]bool))
}

func (r *Resolver) resolve(addr address.Address, onStack map[address.Address]bool) (string, bool, error) {
	obj, present := r.src.Heap().Objects[addr]
	if !present {
		return unknownPlaceholder, true, nil
	}

	if obj.Content == nil {
		s, ok, err := r.src.StrRepr(obj)
		if err != nil {
			return "", false, err
		}
		if !ok {
			return "", false, nil
		}
		return s, true, nil
	}

	open, shut := brackets(obj.Content.Kind)
	if onStack[addr] {
		return open + shut, true, nil
	}
	onStack[addr] = true
	defer delete(onStack, addr)

	var body string
	var err error
	if obj.Content.Kind == heap.ContentDict {
		body, err = r.resolveDict(obj.Content.DictPairs, onStack)
	} else {
		body, err = r.resolveElems(obj.Content.Elems, onStack)
	}
	if err != nil {
		return "", false, err
	}
	return open + body + shut, true, nil
}

func (r *Resolver) resolveDict(pairs []heap.DictPair, onStack map[address.Address]bool) (string, error) {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		k, _, err := r.resolve(p.Key, onStack)
		if err != nil {
			return "", err
		}
		v, _, err := r.resolve(p.Value, onStack)
		if err != nil {
			return "", err
		}
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, ", "), nil
}

func (r *Resolver) resolveElems(elems []address.Address, onStack map[address.Address]bool) (string, error) {
	parts := make([]string, 0, len(elems))
	for _, a := range elems {
		s, _, err := r.resolve(a, onStack)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", "), nil
}

func brackets(kind heap.ContentKind) (open, shut string) {
	switch kind {
	case heap.ContentDict, heap.ContentSet:
		return "{", "}"
	case heap.ContentList:
		return "[", "]"
	case heap.ContentTuple:
		return "(", ")"
	default:
		return "", ""
	}
}
