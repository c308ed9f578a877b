package types

// Metadata Pages
// Every metadata structure of a version 3 volume lives in a page made of the clusters named by an LCNTuple.
// A page starts with a fixed header followed, for MSB+ pages, by a row table.

// Page signatures
const (
	// SignatureMetadataPage marks a B+ tree page
	SignatureMetadataPage = "MSB+"
	// SignatureSuperblock marks the superblock page
	SignatureSuperblock = "SUPB"
	// SignatureCheckpoint marks a checkpoint page
	SignatureCheckpoint = "CHKP"
	// SignatureLogEntry marks a transaction log page
	SignatureLogEntry = "MLog"
)

// MetadataPageSize is the number of bytes read for the superblock and checkpoint pages
const MetadataPageSize = 0x1000

// PageHeaderSize is the size of the common page header. Page content (the datum) starts right after it.
const PageHeaderSize = 0x50

// PageHeader is the common header of SUPB, CHKP and MSB+ pages.
type PageHeader struct {
	// Four-byte ASCII signature
	Signature [4]byte

	Unknown1 uint32
	Unknown2 uint64
	Unknown3 [16]byte

	// The clusters the page claims to occupy (offset 0x20)
	SelfLCNs LCNTuple

	// Identifier of the table the page belongs to (offset 0x40)
	ObjectID ObjectID
}

// Row table layout
const (
	// TableHeaderSize is the size of the header that precedes the row directory (ten 32-bit words)
	TableHeaderSize = 0x28
	// RowHeaderSize is the size of the header at the start of each row
	RowHeaderSize = 0x10
	// RowDirectoryEntrySize is the size of a row directory element (u16 offset, u16 unused)
	RowDirectoryEntrySize = 4
	// TableDescriptorSize is the size of the decoded part of a table descriptor
	TableDescriptorSize = 0x28
	// TableDescriptorEmpty is the descriptor length that carries no information
	TableDescriptorEmpty = 0x8
)

// Table type flags
const (
	// TableFlagInternal marks a table whose rows reference child pages
	TableFlagInternal uint32 = 0x100
)

// TableDescriptor precedes the table header when present.
type TableDescriptor struct {
	Size       uint32
	Unknown1   uint32
	Unknown2   uint32
	MetaType   uint32
	MetaHost   uint32
	Unknown3   uint32
	ChildCount uint64
	RowCount   uint64

	// Bytes of the descriptor past the decoded fields
	Extra []byte
}

// TableHeader describes the row directory of a table.
type TableHeader struct {
	// Offset of the header relative to the buffer the table was decoded from
	Offset int

	HeaderLength  uint32
	TotalLength   uint32
	PaddingLength uint32

	// Table type. TableFlagInternal marks an internal node.
	Type uint32

	// Start of the row directory, relative to the table header
	ArrayStart uint32
	Fanout     uint32
	Unknown1   uint32
	Unknown2   uint32

	// End of the row directory, relative to the table header
	ArrayEnd uint32
	Padding  uint32
}

// IsInternal reports whether the table's rows reference child pages
func (h TableHeader) IsInternal() bool {
	return h.Type&TableFlagInternal != 0
}

// RowCount returns the number of row directory entries
func (h TableHeader) RowCount() int {
	if h.ArrayEnd <= h.ArrayStart {
		return 0
	}
	return int(h.ArrayEnd-h.ArrayStart) / RowDirectoryEntrySize
}

// RowHeader is the header at the start of each row. Key and value offsets are relative to the row start.
type RowHeader struct {
	Length      uint32
	KeyOffset   uint16
	KeyLength   uint16
	Flags       uint16
	ValueOffset uint16
	ValueLength uint16
	Padding     uint16
}

// ChildReferenceSize is the size of the LCNTuple + checksum value stored in internal rows
const ChildReferenceSize = 0x30

// ChildReference is the value of an internal row: the child page address and its checksum.
type ChildReference struct {
	LCNs     LCNTuple
	Unknown1 uint32
	Unknown2 uint32
	Checksum [8]byte
}

// ObjectRecordFixedSize is the size of the fixed part of an object table leaf value
const ObjectRecordFixedSize = 0x50

// ObjectRecord is an object table leaf: the root page of a metadata object.
type ObjectRecord struct {
	ID ObjectID

	// Virtual address of the object's root page (offset 0x20)
	LCNs LCNTuple

	// Checksum of the root page (offset 0x48)
	Checksum [8]byte

	// Bytes past the fixed part, not decoded
	Trailing []byte
}
