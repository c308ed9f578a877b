package volume

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/google/uuid"
)

const superblockSize = 0xD0

// ParseSuperblock parses the SUPB page
func ParseSuperblock(data []byte) (*types.Superblock, error) {
	header, err := pages.DecodePageHeader(data)
	if err != nil {
		return nil, err
	}
	if err := pages.ExpectSignature(header, types.SignatureSuperblock); err != nil {
		return nil, fmt.Errorf("superblock: %w", err)
	}
	if len(data) < superblockSize {
		return nil, fmt.Errorf("superblock needs %d bytes, got %d: %w", superblockSize, len(data), types.ErrTruncatedPage)
	}

	sb := &types.Superblock{
		Header:              header,
		PrimaryCheckpoint:   binary.LittleEndian.Uint64(data[0xC0:0xC8]),
		SecondaryCheckpoint: binary.LittleEndian.Uint64(data[0xC8:0xD0]),
	}
	copy(sb.GUID[:], data[0x50:0x60])
	return sb, nil
}

// VolumeGUID returns the superblock GUID
func VolumeGUID(sb *types.Superblock) uuid.UUID {
	return uuid.UUID(sb.GUID)
}
