package types

// Directory and File Records
// Directory pages are row tables keyed by (flag, file type, UTF-16LE name). Live rows carry file records,
// index rows carry a nested table with the directory's index root.

// Directory entry flags (first u16 of the row key)
const (
	DirectoryFlagIndex   uint16 = 0x10
	DirectoryFlagDeleted uint16 = 0x20
	DirectoryFlagLive    uint16 = 0x30
)

// DirectoryKeyHeaderSize is the size of (flag, file type) before the entry name.
const DirectoryKeyHeaderSize = 4

// File types (second u16 of the row key)
const (
	FileTypeRegular   uint16 = 0x1
	FileTypeDirectory uint16 = 0x2
)

// FileTypeName returns REG, DIR or UNKNOWN
func FileTypeName(fileType uint16) string {
	switch fileType {
	case FileTypeRegular:
		return "REG"
	case FileTypeDirectory:
		return "DIR"
	}
	return "UNKNOWN"
}

// Directory record value (file type DIR)
const (
	DirectoryRecordSize = 0x48
)

// Regular file record value (file type REG)
const (
	// RegularRecordObjectIDOffset is the offset of the object identifier
	RegularRecordObjectIDOffset = 0x18
	// RegularRecordTimestampsOffset is the offset of the four timestamps
	RegularRecordTimestampsOffset = 0x28
	// RegularRecordFileSizeOffset is the offset of the 32-bit file size
	RegularRecordFileSizeOffset = 0x58
	// RegularRecordFixedSize is the size of the fixed part before the embedded attribute table
	RegularRecordFixedSize = 0x60
)

// Attribute tags
const (
	AttributeTypeData      uint32 = 0x80
	AttributeTypeIndexRoot uint32 = 0x90
	AttributeTypeADS       uint32 = 0xB0
)

// AttributeKeyHeaderSize is the size of (value length, unknown, tag) before the attribute name.
const AttributeKeyHeaderSize = 12

// AttributeTypeName returns the conventional name of an attribute tag
func AttributeTypeName(tag uint32) string {
	switch tag {
	case AttributeTypeData:
		return "$DATA"
	case AttributeTypeIndexRoot:
		return "$INDEX_ROOT"
	case AttributeTypeADS:
		return "$ADS"
	}
	return "UNKNOWN"
}

// $DATA extent tables
const (
	// DataAttributeFileSizeOffset is the offset of the file size within a $DATA value
	DataAttributeFileSizeOffset = 0x3C
	// DataExtentSize is the size of one extent row (six 32-bit words, LCN first)
	DataExtentSize = 0x18
)

// FileRecord is the decoded value of a live directory entry.
type FileRecord struct {
	Name       string
	FileType   uint16
	ObjectID   ObjectID
	Timestamps Timestamps

	// Directory flags (DIR records only)
	Flags  uint16
	Flags2 uint16

	// File size in bytes (REG records only)
	FileSize uint64
}

// IsDirectory reports whether the record describes a directory
func (r *FileRecord) IsDirectory() bool { return r.FileType == FileTypeDirectory }

// IsRegular reports whether the record describes a regular file
func (r *FileRecord) IsRegular() bool { return r.FileType == FileTypeRegular }
