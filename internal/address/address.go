// Package address defines the opaque identifiers used throughout a heap
// snapshot. They are 64-bit keys with no cross-process pointer meaning —
// equality is the only operation defined on them.
package address

import "fmt"

// Address identifies a single heap object within one snapshot. It is not
// a pointer in any cross-process sense: the only operation defined on it
// is equality.
type Address uint64

// String renders the address the way the rest of the tooling prints
// addresses: lower-case hex, no leading zeros.
func (a Address) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}

// TypeID is an Address that happens to name a type object. Type objects
// also appear as ordinary objects in the object map, so a TypeID can be
// used anywhere an Address is expected.
type TypeID = Address
