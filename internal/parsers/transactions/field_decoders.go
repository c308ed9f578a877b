package transactions

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/helpers"
	"github.com/deploymenttheory/go-refs/internal/types"
)

var errShortField = errors.New("field too short")

// TargetObject is the key field naming the table a context modifies
type TargetObject struct {
	ObjectType uint32 `json:"object_type" yaml:"object_type"`
	ParentID   uint64 `json:"parent_id" yaml:"parent_id"`
	ObjectID   uint64 `json:"object_id" yaml:"object_id"`
}

// NameKey is a file record key: either a UTF-16 name or the directory's own index
type NameKey struct {
	CurrentDirectoryIndex bool   `json:"current_directory_index,omitempty" yaml:"current_directory_index,omitempty"`
	ObjectType            uint32 `json:"object_type" yaml:"object_type"`
	Type                  uint32 `json:"type" yaml:"type"`
	Name                  string `json:"name,omitempty" yaml:"name,omitempty"`
}

// FileIndex is a file index value
type FileIndex struct {
	Type               uint32 `json:"type" yaml:"type"`
	FileSequenceNumber uint64 `json:"file_sequence_number" yaml:"file_sequence_number"`
}

// DecodeTargetObject decodes (unknown, object type, unknown, parent id, object id)
func DecodeTargetObject(b []byte) (TargetObject, error) {
	if len(b) < types.TargetObjectKeySize {
		return TargetObject{}, fmt.Errorf("target object of %d bytes: %w", len(b), errShortField)
	}
	return TargetObject{
		ObjectType: binary.LittleEndian.Uint32(b[0x04:0x08]),
		ParentID:   binary.LittleEndian.Uint64(b[0x0C:0x14]),
		ObjectID:   binary.LittleEndian.Uint64(b[0x14:0x1C]),
	}, nil
}

// DecodeNameKey decodes a file record key. A key of exactly the prefix size names the current directory index.
func DecodeNameKey(b []byte) (NameKey, error) {
	if len(b) < types.FileRecordKeyHeaderSize {
		return NameKey{}, fmt.Errorf("name key of %d bytes: %w", len(b), errShortField)
	}
	key := NameKey{
		ObjectType: binary.LittleEndian.Uint32(b[0x04:0x08]),
		Type:       binary.LittleEndian.Uint32(b[0x0C:0x10]),
	}
	if len(b) == types.CurrentDirectoryIndexKeySize {
		key.CurrentDirectoryIndex = true
		return key, nil
	}

	name, err := helpers.DecodeUTF16LE(b[types.FileRecordKeyHeaderSize:])
	if err != nil {
		return NameKey{}, err
	}
	key.Name = name
	return key, nil
}

// DecodeTimestamps decodes four 1601-epoch tick counts
func DecodeTimestamps(b []byte) (types.Timestamps, error) {
	if len(b) < types.TimestampsSize {
		return types.Timestamps{}, fmt.Errorf("timestamps of %d bytes: %w", len(b), errShortField)
	}
	return types.ParseTimestamps(b), nil
}

// DecodeFileIndex decodes (type, unknown, file sequence number, unknown)
func DecodeFileIndex(b []byte) (FileIndex, error) {
	if len(b) < types.FileIndexKeySize {
		return FileIndex{}, fmt.Errorf("file index of %d bytes: %w", len(b), errShortField)
	}
	return FileIndex{
		Type:               binary.LittleEndian.Uint32(b[0x00:0x04]),
		FileSequenceNumber: binary.LittleEndian.Uint64(b[0x08:0x10]),
	}, nil
}

// DecodeLCN decodes a 32-bit cluster number
func DecodeLCN(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("lcn of %d bytes: %w", len(b), errShortField)
	}
	return binary.LittleEndian.Uint32(b[0:4]), nil
}
