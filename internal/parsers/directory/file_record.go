package directory

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/types"
)

// Directory record value layout
const (
	dirTimestampsOffset = 0x10
	dirFlagsOffset      = 0x40
	dirFlags2Offset     = 0x42
)

// DecodeFileRecord decodes the value of a live directory entry. Directory records carry the object
// identifier and timestamps; regular file records add the file size. The attribute table embedded in a
// regular file record is decoded separately by the attributes package.
func DecodeFileRecord(name string, fileType uint16, value []byte) (*types.FileRecord, error) {
	record := &types.FileRecord{Name: name, FileType: fileType}

	switch fileType {
	case types.FileTypeDirectory:
		if len(value) < types.DirectoryRecordSize {
			return nil, fmt.Errorf("directory record %q needs %d bytes, got %d: %w", name, types.DirectoryRecordSize, len(value), types.ErrTruncatedPage)
		}
		record.ObjectID = types.ParseObjectID(value[0:16])
		record.Timestamps = types.ParseTimestamps(value[dirTimestampsOffset:])
		record.Flags = binary.LittleEndian.Uint16(value[dirFlagsOffset:])
		record.Flags2 = binary.LittleEndian.Uint16(value[dirFlags2Offset:])

	case types.FileTypeRegular:
		if len(value) < types.RegularRecordFixedSize {
			return nil, fmt.Errorf("file record %q needs %d bytes, got %d: %w", name, types.RegularRecordFixedSize, len(value), types.ErrTruncatedPage)
		}
		record.ObjectID = types.ParseObjectID(value[types.RegularRecordObjectIDOffset:])
		record.Timestamps = types.ParseTimestamps(value[types.RegularRecordTimestampsOffset:])
		record.FileSize = uint64(binary.LittleEndian.Uint32(value[types.RegularRecordFileSizeOffset:]))

	default:
		return nil, fmt.Errorf("unknown file type %#x for %q", fileType, name)
	}

	return record, nil
}

// EncodeDirectoryRecord serializes a directory record value
func EncodeDirectoryRecord(id types.ObjectID, ts types.Timestamps) []byte {
	out := make([]byte, types.DirectoryRecordSize)
	copy(out[0:16], id[:])
	copy(out[dirTimestampsOffset:], types.EncodeTimestamps(ts))
	return out
}

// EncodeRegularRecord serializes the fixed part of a regular file record. The attribute table is appended
// by the caller.
func EncodeRegularRecord(id types.ObjectID, ts types.Timestamps, fileSize uint32) []byte {
	out := make([]byte, types.RegularRecordFixedSize)
	copy(out[types.RegularRecordObjectIDOffset:], id[:])
	copy(out[types.RegularRecordTimestampsOffset:], types.EncodeTimestamps(ts))
	binary.LittleEndian.PutUint32(out[types.RegularRecordFileSizeOffset:], fileSize)
	return out
}
