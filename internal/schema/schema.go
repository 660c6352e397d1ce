// Package schema holds the entity definitions and tag values shared by the
// Writer and the Reader: the magic marker, the format version, the flag
// bits, and the fixed sets of well-known and common type names. Keeping
// these in one leaf package (grounded on the teacher's own split of
// low-level schema constants away from the codec that uses them, e.g.
// internal/gocore/type.go's Kind enum living apart from process.go) means
// the Writer and Reader can never disagree about a tag value.
package schema

// Magic brackets the payload: the opening magic must match the closing
// magic exactly, or the file is rejected outright.
const Magic uint64 = 123_000_321

// Version is the only format version this module understands.
const Version uint32 = 1

// Flag bits within HeapHeader.Flags.
const (
	FlagWithStrRepr uint64 = 1 << 0
)

// MaxFrequentAttrCount bounds the frequent-attribute table: indices are
// encoded as the negative range of a signed 16-bit integer via "-1 - idx"
// (index 0 is wire value -1, index 2^15-1 is wire value -2^15), so the
// usable range is [0, 2^15).
const MaxFrequentAttrCount = 1 << 15

// MaxShortStringLen bounds any string encoded as a signed 16-bit length
// (short strings and frequent-attribute names): the length must fit in
// the non-negative range of an int16.
const MaxShortStringLen = 1<<15 - 1

// MaxLongStringLen bounds any string encoded as an unsigned 16-bit length.
const MaxLongStringLen = 1<<16 - 1

// CommonType is one of the canonical scalar/container types whose
// instances share a single, type-level attribute map instead of each
// carrying their own.
type CommonType string

const (
	CommonInt   CommonType = "int"
	CommonFloat CommonType = "float"
	CommonBool  CommonType = "bool"
	CommonStr   CommonType = "str"
	CommonBytes CommonType = "bytes"
	CommonList  CommonType = "list"
	CommonSet   CommonType = "set"
	CommonDict  CommonType = "dict"
)

// CommonTypeNames lists the common types in their canonical order. The
// Writer does not consult it: WriteCommonTypes emits the common-type table
// in the order its caller passes.
var CommonTypeNames = [...]CommonType{
	CommonInt, CommonFloat, CommonBool, CommonStr, CommonBytes,
	CommonList, CommonSet, CommonDict,
}

// WellKnownContainer is one of the four built-in container shapes that
// carry structured, inline-decoded content instead of an opaque attribute
// map.
type WellKnownContainer string

const (
	ContainerDict  WellKnownContainer = "dict"
	ContainerList  WellKnownContainer = "list"
	ContainerSet   WellKnownContainer = "set"
	ContainerTuple WellKnownContainer = "tuple"
)

// WellKnownTypeNames lists the 13 names every HeapHeader.WellKnownTypes
// map must carry.
var WellKnownTypeNames = [...]string{
	"dict", "list", "set", "tuple",
	"str", "bytes", "bytearray",
	"int", "bool", "float",
	"object", "type", "NoneType",
}

// IsWellKnownContainer reports whether name is one of the four container
// shapes that get inline content encoding in the object stream.
func IsWellKnownContainer(name string) (WellKnownContainer, bool) {
	switch WellKnownContainer(name) {
	case ContainerDict, ContainerList, ContainerSet, ContainerTuple:
		return WellKnownContainer(name), true
	default:
		return "", false
	}
}
