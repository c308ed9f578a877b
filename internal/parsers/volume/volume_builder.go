package volume

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/google/uuid"
)

// EncodeVolumeHeader lays out a volume boot sector carrying the ReFS name and FSRS signature
func EncodeVolumeHeader(h types.VolumeHeader) []byte {
	data := make([]byte, types.VolumeHeaderSize)
	copy(data[3:7], types.VolumeHeaderFileSystemName)
	copy(data[0x10:0x14], types.VolumeHeaderSignature)
	binary.LittleEndian.PutUint64(data[0x18:0x20], h.Sectors)
	binary.LittleEndian.PutUint32(data[0x20:0x24], h.BytesPerSector)
	binary.LittleEndian.PutUint32(data[0x24:0x28], h.SectorsPerCluster)
	data[0x28] = h.MajorVersion
	data[0x29] = h.MinorVersion
	return data
}

// EncodeSuperblock lays out a SUPB page naming both checkpoints
func EncodeSuperblock(guid uuid.UUID, primary, secondary uint64) []byte {
	data := make([]byte, types.MetadataPageSize)
	copy(data[0:4], types.SignatureSuperblock)
	copy(data[0x50:0x60], guid[:])
	binary.LittleEndian.PutUint64(data[0xC0:0xC8], primary)
	binary.LittleEndian.PutUint64(data[0xC8:0xD0], secondary)
	return data
}

// EncodeCheckpoint lays out a CHKP page with one reserved entry per element of entries, in order. Names are
// ignored; an entry with ZeroPadding unset gets non-zero padding.
func EncodeCheckpoint(major, minor uint16, entries []types.CheckpointEntry) []byte {
	data := make([]byte, types.MetadataPageSize)
	copy(data[0:4], types.SignatureCheckpoint)
	binary.LittleEndian.PutUint16(data[0x54:0x56], major)
	binary.LittleEndian.PutUint16(data[0x56:0x58], minor)
	binary.LittleEndian.PutUint32(data[types.CheckpointEntryCountOffset:], uint32(len(entries)))

	first := (types.CheckpointEntryCountOffset + 4 + 4*len(entries) + 7) &^ 7
	for i, entry := range entries {
		offset := first + i*types.CheckpointEntrySize
		binary.LittleEndian.PutUint32(data[types.CheckpointEntryCountOffset+4+i*4:], uint32(offset))

		e := data[offset : offset+types.CheckpointEntrySize]
		for j, lcn := range entry.LCNs {
			binary.LittleEndian.PutUint64(e[j*8:], lcn)
		}
		binary.LittleEndian.PutUint32(e[0x20:0x24], entry.Unknown1)
		binary.LittleEndian.PutUint32(e[0x24:0x28], entry.Unknown2)
		binary.LittleEndian.PutUint64(e[0x28:0x30], entry.Checksum)
		if !entry.ZeroPadding {
			e[0x30] = 0xFF
		}
	}
	return data
}
