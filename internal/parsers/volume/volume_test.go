package volume

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildVolumeHeader(major, minor uint8) []byte {
	data := make([]byte, types.VolumeHeaderSize)
	copy(data[3:7], types.VolumeHeaderFileSystemName)
	copy(data[0x10:0x14], types.VolumeHeaderSignature)
	binary.LittleEndian.PutUint64(data[0x18:0x20], 0x200000)
	binary.LittleEndian.PutUint32(data[0x20:0x24], 0x200)
	binary.LittleEndian.PutUint32(data[0x24:0x28], 8)
	data[0x28] = major
	data[0x29] = minor
	return data
}

func TestParseVolumeHeader(t *testing.T) {
	h, err := ParseVolumeHeader(buildVolumeHeader(3, 4))
	require.NoError(t, err)

	assert.Equal(t, "ReFS", string(h.FileSystemName[:]))
	assert.Equal(t, uint32(0x1000), h.ClusterSize())
	assert.Equal(t, uint64(0x200000*0x200), h.VolumeSize())
	assert.Equal(t, uint8(3), h.MajorVersion)
	assert.Equal(t, uint8(4), h.MinorVersion)
}

func TestParseVolumeHeaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte) []byte
		target error
	}{
		{
			name:   "short buffer",
			mutate: func(b []byte) []byte { return b[:0x20] },
			target: types.ErrTruncatedPage,
		},
		{
			name: "bad signature",
			mutate: func(b []byte) []byte {
				copy(b[0x10:0x14], "NTFS")
				return b
			},
			target: types.ErrBadSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVolumeHeader(tt.mutate(buildVolumeHeader(3, 4)))
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		major     uint8
		supported bool
		wantErr   bool
	}{
		{major: 3, supported: true},
		{major: 1, supported: false},
		{major: 2, wantErr: true},
	}

	for _, tt := range tests {
		h := &types.VolumeHeader{MajorVersion: tt.major}
		supported, err := IsSupported(h)
		if tt.wantErr {
			assert.ErrorIs(t, err, types.ErrUnsupportedVersion)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.supported, supported, "major %d", tt.major)
	}
}

func TestParseSuperblock(t *testing.T) {
	data := make([]byte, 0x1000)
	copy(data[0:4], types.SignatureSuperblock)
	for i := 0; i < 16; i++ {
		data[0x50+i] = byte(i + 1)
	}
	binary.LittleEndian.PutUint64(data[0xC0:0xC8], 0x2A)
	binary.LittleEndian.PutUint64(data[0xC8:0xD0], 0x2B)

	sb, err := ParseSuperblock(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2A), sb.PrimaryCheckpoint)
	assert.Equal(t, uint64(0x2B), sb.SecondaryCheckpoint)
	assert.Equal(t, "01020304-0506-0708-090a-0b0c0d0e0f10", VolumeGUID(sb).String())

	copy(data[0:4], "CHKP")
	_, err = ParseSuperblock(data)
	assert.ErrorIs(t, err, types.ErrBadSignature)
}

func buildCheckpoint(count int) []byte {
	data := make([]byte, 0x2000)
	copy(data[0:4], types.SignatureCheckpoint)
	binary.LittleEndian.PutUint16(data[0x54:0x56], 3)
	binary.LittleEndian.PutUint16(data[0x56:0x58], 4)
	binary.LittleEndian.PutUint32(data[0x90:0x94], uint32(count))

	first := 0x100
	for i := 0; i < count; i++ {
		offset := first + i*types.CheckpointEntrySize
		binary.LittleEndian.PutUint32(data[0x94+i*4:], uint32(offset))
		for j := 0; j < 4; j++ {
			binary.LittleEndian.PutUint64(data[offset+j*8:], uint64(0x1000*(i+1)+j))
		}
		binary.LittleEndian.PutUint64(data[offset+0x28:], uint64(i))
	}
	return data
}

func TestParseCheckpoint(t *testing.T) {
	data := buildCheckpoint(14)
	data[0x100+types.CheckpointEntrySize+0x40] = 0xFF

	cp, err := ParseCheckpoint(data)
	require.NoError(t, err)
	assert.Equal(t, uint16(3), cp.MajorVersion)
	assert.Equal(t, uint16(4), cp.MinorVersion)
	require.Len(t, cp.Entries, 14)

	for i, name := range types.CheckpointReservedNames {
		assert.Equal(t, name, cp.Entries[i].Name)
	}
	assert.Equal(t, "Unknown(#13)", cp.Entries[13].Name)

	objects, ok := cp.Entry(types.ReservedObjectTable)
	require.True(t, ok)
	assert.Equal(t, types.LCNTuple{0x1000, 0x1001, 0x1002, 0x1003}, objects.LCNs)
	assert.True(t, objects.ZeroPadding)
	assert.False(t, cp.Entries[1].ZeroPadding)

	containers, err := RequireEntry(cp, types.ReservedContainerTable)
	require.NoError(t, err)
	first, ok := containers.LCNs.First()
	require.True(t, ok)
	assert.Equal(t, uint64(0x8000), first)
	assert.Equal(t, uint64(7), containers.Checksum)
}

func TestParseCheckpointMissingEntry(t *testing.T) {
	zeroObjectTable := buildCheckpoint(8)
	copy(zeroObjectTable[0x100:0x120], make([]byte, 0x20))

	tests := []struct {
		name  string
		data  []byte
		entry string
	}{
		{name: "container table slot absent", data: buildCheckpoint(4), entry: types.ReservedContainerTable},
		{name: "object table slot absent", data: buildCheckpoint(0), entry: types.ReservedObjectTable},
		{name: "object table slot zeroed", data: zeroObjectTable, entry: types.ReservedObjectTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp, err := ParseCheckpoint(tt.data)
			require.NoError(t, err)

			_, err = RequireEntry(cp, tt.entry)
			var missing *types.MissingReservedEntryError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.entry, missing.Name)
		})
	}

	cp, err := ParseCheckpoint(buildCheckpoint(8))
	require.NoError(t, err)
	_, err = RequireEntry(cp, types.ReservedObjectTable)
	assert.NoError(t, err)
}

func TestParseCheckpointTruncated(t *testing.T) {
	data := buildCheckpoint(2)
	binary.LittleEndian.PutUint32(data[0x94:], 0x1FF0)

	_, err := ParseCheckpoint(data)
	assert.ErrorIs(t, err, types.ErrTruncatedPage)
}

func TestEncodedVolumeStructures(t *testing.T) {
	header, err := ParseVolumeHeader(EncodeVolumeHeader(types.VolumeHeader{
		Sectors: 0x4000, BytesPerSector: 0x200, SectorsPerCluster: 0x80, MajorVersion: 3, MinorVersion: 4,
	}))
	require.NoError(t, err)
	assert.Equal(t, uint32(0x10000), header.ClusterSize())

	guid := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	sb, err := ParseSuperblock(EncodeSuperblock(guid, 0x30, 0x31))
	require.NoError(t, err)
	assert.Equal(t, guid, VolumeGUID(sb))
	assert.Equal(t, uint64(0x31), sb.SecondaryCheckpoint)

	entries := make([]types.CheckpointEntry, len(types.CheckpointReservedNames))
	for i := range entries {
		entries[i] = types.CheckpointEntry{LCNs: types.Consecutive(uint64(0x100 * (i + 1))), Checksum: uint64(i), ZeroPadding: i != 2}
	}
	cp, err := ParseCheckpoint(EncodeCheckpoint(3, 4, entries))
	require.NoError(t, err)
	require.Len(t, cp.Entries, len(entries))
	for i, e := range cp.Entries {
		assert.Equal(t, types.CheckpointReservedNames[i], e.Name)
		assert.Equal(t, entries[i].LCNs, e.LCNs)
		assert.Equal(t, entries[i].ZeroPadding, e.ZeroPadding)
	}
}
