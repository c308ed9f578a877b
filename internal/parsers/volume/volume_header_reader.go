package volume

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/types"
)

// ParseVolumeHeader parses the boot sector at offset 0 of the volume
func ParseVolumeHeader(data []byte) (*types.VolumeHeader, error) {
	if len(data) < 0x2A {
		return nil, fmt.Errorf("volume header needs %d bytes, got %d: %w", 0x2A, len(data), types.ErrTruncatedPage)
	}

	h := &types.VolumeHeader{
		Sectors:           binary.LittleEndian.Uint64(data[0x18:0x20]),
		BytesPerSector:    binary.LittleEndian.Uint32(data[0x20:0x24]),
		SectorsPerCluster: binary.LittleEndian.Uint32(data[0x24:0x28]),
		MajorVersion:      data[0x28],
		MinorVersion:      data[0x29],
	}
	copy(h.FileSystemName[:], data[3:7])
	copy(h.Signature[:], data[0x10:0x14])

	if string(h.Signature[:]) != types.VolumeHeaderSignature {
		return nil, fmt.Errorf("volume header signature %q: %w", h.Signature[:], types.ErrBadSignature)
	}
	if h.ClusterSize() == 0 {
		return nil, fmt.Errorf("volume header declares a zero cluster size")
	}

	return h, nil
}

// IsSupported reports whether the volume format is decoded. Version 1 volumes are recognized but not decoded.
// Other major versions fail with ErrUnsupportedVersion.
func IsSupported(h *types.VolumeHeader) (bool, error) {
	switch h.MajorVersion {
	case types.VersionMajor3:
		return true, nil
	case types.VersionMajor1:
		return false, nil
	}
	return false, fmt.Errorf("major version %d.%d: %w", h.MajorVersion, h.MinorVersion, types.ErrUnsupportedVersion)
}
