package changejournal

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-refs/internal/helpers"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// EncodeRecord lays out a USN_RECORD_V3 with the name right after the fixed part, padded to 8 bytes.
// RecordLength, name length and name offset are computed; the remaining fields are taken from r.
func EncodeRecord(r *types.USNRecord) []byte {
	name := helpers.EncodeUTF16LE(r.Name)
	length := (types.USNRecordV3Size + len(name) + 7) &^ 7

	out := make([]byte, length)
	binary.LittleEndian.PutUint32(out[0x00:], uint32(length))
	binary.LittleEndian.PutUint16(out[0x04:], r.MajorVersion)
	binary.LittleEndian.PutUint16(out[0x06:], r.MinorVersion)
	binary.LittleEndian.PutUint64(out[0x08:], r.FileReference.Low)
	binary.LittleEndian.PutUint64(out[0x10:], r.FileReference.High)
	binary.LittleEndian.PutUint64(out[0x18:], r.ParentFileReference.Low)
	binary.LittleEndian.PutUint64(out[0x20:], r.ParentFileReference.High)
	binary.LittleEndian.PutUint64(out[0x28:], r.USN)
	binary.LittleEndian.PutUint64(out[0x30:], types.TimeToFiletime(r.Timestamp))
	binary.LittleEndian.PutUint32(out[0x38:], uint32(r.Reason))
	binary.LittleEndian.PutUint32(out[0x3C:], r.SourceInfo)
	binary.LittleEndian.PutUint32(out[0x40:], r.SecurityID)
	binary.LittleEndian.PutUint32(out[0x44:], r.FileAttributes)
	binary.LittleEndian.PutUint16(out[0x48:], uint16(len(name)))
	binary.LittleEndian.PutUint16(out[0x4A:], types.USNRecordV3Size)
	copy(out[types.USNRecordV3Size:], name)
	return out
}
