package types

// Transaction Log
// The log is a sequence of 4 KiB MLog pages. The first two pages of the log area are the control entry and
// its duplicate, the rest are data entries carrying redo records.

// Log page layout
const (
	// LogPageSize is the size of one log entry page
	LogPageSize = 0x1000
	// LogEntryHeaderSize is the size of the entry header
	LogEntryHeaderSize = 0x78
	// LogHeaderSize is the size of the log header that follows the entry header
	LogHeaderSize = 0x38
	// LogPayloadOffset is the offset of the payload within a page
	LogPayloadOffset = LogEntryHeaderSize + LogHeaderSize
	// LogControlInfoSize is the size of the control information in a control page
	LogControlInfoSize = 0x50
	// LogControlPages is the number of control pages at the start of the log area
	LogControlPages = 2
	// RedoRecordPrefixSize is the (size, flag) prefix of each redo record
	RedoRecordPrefixSize = 8
)

// LogEntryHeader is the header at the start of every MLog page.
type LogEntryHeader struct {
	Signature   [4]byte
	ID          uint32
	Fixed       uint32
	Size        uint32
	UUID        [16]byte
	Control     uint32
	CurrentLSN  uint64
	PreviousLSN uint64
	HeaderSize  uint32
}

// LogHeader follows the entry header.
type LogHeader struct {
	CurrentLSN  uint64
	Checksum    uint64
	PreviousLSN uint64
	DataSize    uint32
	HeaderSize  uint32
	LogSize     uint32
	Type        uint64
}

// LogControlInfo is the payload of a control page.
type LogControlInfo struct {
	SequenceNumber uint64
	// First cluster of the data area
	StartCluster uint64
	// Cluster past the end of the data area
	EndCluster uint64
	NextLSN    uint64
	NextLSNDup uint64
	UUID       [16]byte
	Control    uint32
}

// Logfile information table
const (
	// LogfileInfoControlKey is the row key holding the control entry location
	LogfileInfoControlKey = 1
	// LogfileInfoRowSize is the size of a logfile information row value (six u64)
	LogfileInfoRowSize = 0x30
	// LogfileInfoControlOffset is the offset of the control entry LCN
	LogfileInfoControlOffset = 0x18
	// LogfileInfoControlDupOffset is the offset of the duplicate control entry LCN
	LogfileInfoControlDupOffset = 0x20
)

// Transaction context layout
const (
	// TransactionContextHeaderSize is the fixed header size
	TransactionContextHeaderSize = 0x38
	// TransactionFieldDescriptorSize is the size of an (offset, size) pair
	TransactionFieldDescriptorSize = 8
)

// TransactionContextHeader is the fixed header of a transaction context.
type TransactionContextHeader struct {
	Size        uint32
	Opcode      RedoOpcode
	KeyCount    uint32
	KeyOffset   uint32
	ValueCount  uint32
	ValueOffset uint32
	Unknown1    uint64
	Unknown2    uint64
	Unknown3    uint32
	RecMark     uint32
	SeqNo       uint32
	EndMark     uint32
}

// rec_mark bits
const (
	RecMarkStart    uint32 = 0x1
	RecMarkEnd      uint32 = 0x2
	RecMarkContinue uint32 = 0x4
)

// RedoOpcode identifies the redo operation of a transaction context.
type RedoOpcode uint32

// Redo opcodes
const (
	OpOpenTable                    RedoOpcode = 0x0
	OpInsertRow                    RedoOpcode = 0x1
	OpDeleteRow                    RedoOpcode = 0x2
	OpUpdateRow                    RedoOpcode = 0x3
	OpUpdateDataWithRoot           RedoOpcode = 0x4
	OpReparentTable                RedoOpcode = 0x5
	OpAllocate                     RedoOpcode = 0x6
	OpFree                         RedoOpcode = 0x7
	OpSetRangeState                RedoOpcode = 0x8
	OpSetRangeState9               RedoOpcode = 0x9
	OpDuplicateExtents             RedoOpcode = 0xA
	OpModifyStreamExtent           RedoOpcode = 0xB
	OpStripMetadataStreamExtent    RedoOpcode = 0xC
	OpSetIntegrity                 RedoOpcode = 0xD
	OpSetParentID                  RedoOpcode = 0xE
	OpDeleteTable                  RedoOpcode = 0xF
	OpValueAsKey                   RedoOpcode = 0x10
	OpAddSchema                    RedoOpcode = 0x11
	OpCopyKeyHelper12              RedoOpcode = 0x12
	OpAddContainer                 RedoOpcode = 0x13
	OpMoveContainer                RedoOpcode = 0x14
	OpCopyKeyHelper15              RedoOpcode = 0x15
	OpCacheInvalidation            RedoOpcode = 0x16
	OpGenerateChecksum             RedoOpcode = 0x17
	OpContainerCompression         RedoOpcode = 0x18
	OpDeleteCompressionUnitOffsets RedoOpcode = 0x19
	OpAddCompressUnitOffsets       RedoOpcode = 0x1A
	OpGhostExtents                 RedoOpcode = 0x1B
	OpCompactionUnreserve          RedoOpcode = 0x1C
)

// RedoOpcodeNames maps every known opcode to its name.
var RedoOpcodeNames = map[RedoOpcode]string{
	OpOpenTable:                    "Open Table",
	OpInsertRow:                    "Redo Insert Row",
	OpDeleteRow:                    "Redo Delete Row",
	OpUpdateRow:                    "Redo Update Row",
	OpUpdateDataWithRoot:           "Redo Update Data with Root",
	OpReparentTable:                "Redo Reparent Table",
	OpAllocate:                     "Redo Allocate",
	OpFree:                         "Redo Free",
	OpSetRangeState:                "Redo Set Range State (0x8)",
	OpSetRangeState9:               "Redo Set Range State (0x9)",
	OpDuplicateExtents:             "Redo Duplicate Extents",
	OpModifyStreamExtent:           "Redo Modify Stream Extent",
	OpStripMetadataStreamExtent:    "Redo Strip Metadata Stream Extent",
	OpSetIntegrity:                 "Redo Set Integrity",
	OpSetParentID:                  "Redo Set Parent Id",
	OpDeleteTable:                  "Redo Delete Table",
	OpValueAsKey:                   "Redo Value as Key",
	OpAddSchema:                    "Redo Add Schema",
	OpCopyKeyHelper12:              "Copy Key Helper (0x12)",
	OpAddContainer:                 "Redo Add Container",
	OpMoveContainer:                "Redo Move Container",
	OpCopyKeyHelper15:              "Copy Key Helper (0x15)",
	OpCacheInvalidation:            "Redo Cache Invalidation",
	OpGenerateChecksum:             "Redo Generate Checksum",
	OpContainerCompression:         "Redo Container Compression",
	OpDeleteCompressionUnitOffsets: "Redo Delete Compression Unit Offsets",
	OpAddCompressUnitOffsets:       "Redo Add Compress Unit Offsets",
	OpGhostExtents:                 "Redo Ghost Extents",
	OpCompactionUnreserve:          "Redo Compaction Unreserve",
}

func (op RedoOpcode) String() string {
	if name, ok := RedoOpcodeNames[op]; ok {
		return name
	}
	return "Unknown Opcode"
}

// Transaction key and value layouts
const (
	// TargetObjectKeySize is the size of the target object descriptor (unk, obj type, unk, parent id, obj id)
	TargetObjectKeySize = 28
	// CurrentDirectoryIndexKeySize is the length of a name key that denotes the directory's own index
	CurrentDirectoryIndexKeySize = 0x10
	// FileRecordKeyHeaderSize is the (unk, obj type, unk, type) prefix of a name key
	FileRecordKeyHeaderSize = 16
	// FileIndexKeySize is the size of a file index value (type, unk, file sequence number, unk)
	FileIndexKeySize = 24
)
