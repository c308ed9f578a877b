package types

// Volume Structures
// The volume header sits at byte 0 of the volume. The superblock sits at a fixed cluster and names the
// checkpoints, which in turn hold the roots of the reserved metadata tables.

// Volume header
const (
	// VolumeHeaderSize is the number of bytes read for the volume header
	VolumeHeaderSize = 0x200
	// VolumeHeaderFileSystemName is the file system name stored at offset 3
	VolumeHeaderFileSystemName = "ReFS"
	// VolumeHeaderSignature is the signature stored at offset 0x10
	VolumeHeaderSignature = "FSRS"
)

// VolumeHeader is the boot sector of a ReFS volume.
type VolumeHeader struct {
	// File system name at offset 3
	FileSystemName [4]byte

	// Signature at offset 0x10
	Signature [4]byte

	// Number of sectors in the volume (offset 0x18)
	Sectors uint64

	// Bytes per sector (offset 0x20)
	BytesPerSector uint32

	// Sectors per cluster (offset 0x24)
	SectorsPerCluster uint32

	// On-disk format version (offsets 0x28, 0x29)
	MajorVersion uint8
	MinorVersion uint8
}

// ClusterSize returns the cluster size in bytes
func (h VolumeHeader) ClusterSize() uint32 {
	return h.BytesPerSector * h.SectorsPerCluster
}

// VolumeSize returns the size of the volume in bytes
func (h VolumeHeader) VolumeSize() uint64 {
	return h.Sectors * uint64(h.BytesPerSector)
}

// Supported format versions
const (
	VersionMajor1 = 1
	VersionMajor3 = 3
)

// SuperblockCluster is the cluster holding the superblock.
const SuperblockCluster = 0x1E

// Superblock names the two checkpoints.
type Superblock struct {
	Header PageHeader

	// Volume GUID (offset 0x50)
	GUID [16]byte

	// Cluster of the primary checkpoint (offset 0xC0)
	PrimaryCheckpoint uint64

	// Cluster of the secondary checkpoint (offset 0xC8)
	SecondaryCheckpoint uint64
}

// Checkpoint layout
const (
	// CheckpointEntryCountOffset is the offset of the reserved entry count
	CheckpointEntryCountOffset = 0x90
	// CheckpointEntrySize is the size of a reserved entry
	CheckpointEntrySize = 0x68
	// CheckpointEntryPaddingSize is the size of the trailing padding of a reserved entry
	CheckpointEntryPaddingSize = 56
)

// Reserved table names, in checkpoint order.
const (
	ReservedObjectTable       = "Object Table"
	ReservedAttributeList     = "Attribute List"
	ReservedDirectoryTree     = "Directory Tree"
	ReservedContainerTable    = "Container Table"
	ReservedContainerTableDup = "Container Table (dup)"
	ReservedAllocatorLarge    = "Allocator Large"
)

// CheckpointReservedNames is the fixed catalog of reserved checkpoint entries.
var CheckpointReservedNames = []string{
	ReservedObjectTable,
	"Unknown(0x21)",
	"Unknown(0x20)",
	ReservedAttributeList,
	ReservedDirectoryTree,
	"Unknown(0x04)",
	"Unknown(0x05)",
	ReservedContainerTable,
	ReservedContainerTableDup,
	"Unknown(0x06)",
	ReservedAllocatorLarge,
	"Unknown(0x0F)",
	"Unknown(0x22)",
}

// CheckpointEntry is the root reference of one reserved table.
type CheckpointEntry struct {
	Name     string
	LCNs     LCNTuple
	Unknown1 uint32
	Unknown2 uint32
	Checksum uint64

	// ZeroPadding reports whether the 56 trailing bytes are all zero
	ZeroPadding bool
}

// Checkpoint is the decoded checkpoint page.
type Checkpoint struct {
	Header       PageHeader
	MajorVersion uint16
	MinorVersion uint16
	Entries      []CheckpointEntry
}

// Entry returns the reserved entry with the given name
func (c *Checkpoint) Entry(name string) (CheckpointEntry, bool) {
	for _, e := range c.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return CheckpointEntry{}, false
}
