package types

import (
	"encoding/binary"
	"fmt"
)

// General Types
// ReFS addresses clusters with 64-bit logical cluster numbers. Metadata pages are addressed with a tuple of four
// of them, and most metadata objects are identified by a 128-bit object identifier.

// LCNTuple is the four-cluster address carried by every metadata page reference.
// Whether the entries are virtual or physical depends on where the tuple was read from.
// Unused entries are zero.
type LCNTuple [4]uint64

// LCNTupleSize is the encoded size of an LCNTuple.
const LCNTupleSize = 32

// ParseLCNTuple decodes four little-endian cluster numbers.
func ParseLCNTuple(data []byte) LCNTuple {
	var t LCNTuple
	for i := range t {
		t[i] = binary.LittleEndian.Uint64(data[i*8 : i*8+8])
	}
	return t
}

// First returns the first non-zero entry of the tuple
func (t LCNTuple) First() (uint64, bool) {
	for _, lcn := range t {
		if lcn != 0 {
			return lcn, true
		}
	}
	return 0, false
}

// IsZero reports whether no entry of the tuple is in use
func (t LCNTuple) IsZero() bool {
	_, ok := t.First()
	return !ok
}

// Count returns the number of entries in use
func (t LCNTuple) Count() int {
	n := 0
	for _, lcn := range t {
		if lcn != 0 {
			n++
		}
	}
	return n
}

// Consecutive builds the tuple lcn, lcn+1, lcn+2, lcn+3
func Consecutive(lcn uint64) LCNTuple {
	return LCNTuple{lcn, lcn + 1, lcn + 2, lcn + 3}
}

func (t LCNTuple) String() string {
	return fmt.Sprintf("[%#x %#x %#x %#x]", t[0], t[1], t[2], t[3])
}

// ObjectID is the 128-bit identifier of a metadata object.
// The significant part of well-known identifiers is stored in the high quadword (bytes 8..16).
type ObjectID [16]byte

// ObjectIDSize is the encoded size of an ObjectID.
const ObjectIDSize = 16

// NewObjectID builds an identifier from its two quadwords.
func NewObjectID(high, low uint64) ObjectID {
	var id ObjectID
	binary.LittleEndian.PutUint64(id[0:8], low)
	binary.LittleEndian.PutUint64(id[8:16], high)
	return id
}

// ParseObjectID copies the first 16 bytes of data into an ObjectID.
func ParseObjectID(data []byte) ObjectID {
	var id ObjectID
	copy(id[:], data)
	return id
}

// Low returns the quadword at bytes 0..8
func (id ObjectID) Low() uint64 { return binary.LittleEndian.Uint64(id[0:8]) }

// High returns the quadword at bytes 8..16
func (id ObjectID) High() uint64 { return binary.LittleEndian.Uint64(id[8:16]) }

// Compare orders identifiers by high quadword, then low quadword.
func (id ObjectID) Compare(other ObjectID) int {
	switch a, b := id.High(), other.High(); {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	switch a, b := id.Low(), other.Low(); {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// IsZero reports whether every byte of the identifier is zero
func (id ObjectID) IsZero() bool {
	return id == ObjectID{}
}

func (id ObjectID) String() string {
	if id.Low() == 0 {
		return fmt.Sprintf("%#x", id.High())
	}
	return fmt.Sprintf("%#x:%#x", id.High(), id.Low())
}

// Well-known object identifiers
var (
	// ObjectIDUpcaseTable is the upcase table
	ObjectIDUpcaseTable = NewObjectID(0x7, 0)
	// ObjectIDUpcaseTableDup is the duplicate upcase table
	ObjectIDUpcaseTableDup = NewObjectID(0x8, 0)
	// ObjectIDLogfileInformation is the logfile information table
	ObjectIDLogfileInformation = NewObjectID(0x9, 0)
	// ObjectIDLogfileInformationDup is the duplicate logfile information table
	ObjectIDLogfileInformationDup = NewObjectID(0xA, 0)
	// ObjectIDFileSystemMetadata is the directory holding file system metadata files (change journal, ...)
	ObjectIDFileSystemMetadata = NewObjectID(0x520, 0)
	// ObjectIDRootDirectory is the root directory of the volume
	ObjectIDRootDirectory = NewObjectID(0x600, 0)
)

// WellKnownObjectName returns a display name for well-known identifiers.
func WellKnownObjectName(id ObjectID) string {
	switch id {
	case ObjectIDUpcaseTable:
		return "Upcase Table"
	case ObjectIDUpcaseTableDup:
		return "Upcase Table (dup)"
	case ObjectIDLogfileInformation:
		return "Logfile Information Table"
	case ObjectIDLogfileInformationDup:
		return "Logfile Information Table (dup)"
	case ObjectIDFileSystemMetadata:
		return "File System Metadata"
	case ObjectIDRootDirectory:
		return "Root Directory"
	}
	return ""
}

// FileReference is a 128-bit file reference number as stored in change journal records.
type FileReference struct {
	Low  uint64 `json:"low" yaml:"low"`
	High uint64 `json:"high" yaml:"high"`
}

// ParseFileReference decodes a 16-byte file reference.
func ParseFileReference(data []byte) FileReference {
	return FileReference{
		Low:  binary.LittleEndian.Uint64(data[0:8]),
		High: binary.LittleEndian.Uint64(data[8:16]),
	}
}

func (r FileReference) String() string {
	return fmt.Sprintf("%016x%016x", r.High, r.Low)
}
