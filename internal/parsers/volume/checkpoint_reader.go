package volume

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
)

var zeroPadding = make([]byte, types.CheckpointEntryPaddingSize)

// ParseCheckpoint parses the CHKP page and its reserved entries. Entry offsets are relative to the page start.
// Entries past the fixed catalog are kept under the name Unknown(#n).
func ParseCheckpoint(data []byte) (*types.Checkpoint, error) {
	header, err := pages.DecodePageHeader(data)
	if err != nil {
		return nil, err
	}
	if err := pages.ExpectSignature(header, types.SignatureCheckpoint); err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}

	countEnd := types.CheckpointEntryCountOffset + 4
	if len(data) < countEnd {
		return nil, fmt.Errorf("checkpoint needs %d bytes, got %d: %w", countEnd, len(data), types.ErrTruncatedPage)
	}

	cp := &types.Checkpoint{
		Header:       header,
		MajorVersion: binary.LittleEndian.Uint16(data[0x54:0x56]),
		MinorVersion: binary.LittleEndian.Uint16(data[0x56:0x58]),
	}

	count := int(binary.LittleEndian.Uint32(data[types.CheckpointEntryCountOffset:countEnd]))
	if countEnd+count*4 > len(data) {
		return nil, fmt.Errorf("checkpoint offset array of %d entries: %w", count, types.ErrTruncatedPage)
	}

	cp.Entries = make([]types.CheckpointEntry, 0, count)
	for i := 0; i < count; i++ {
		at := countEnd + i*4
		offset := int(binary.LittleEndian.Uint32(data[at : at+4]))
		if offset+types.CheckpointEntrySize > len(data) {
			return nil, fmt.Errorf("checkpoint entry %d at %#x: %w", i, offset, types.ErrTruncatedPage)
		}

		e := data[offset : offset+types.CheckpointEntrySize]
		entry := types.CheckpointEntry{
			Name:        reservedName(i),
			LCNs:        types.ParseLCNTuple(e[0:0x20]),
			Unknown1:    binary.LittleEndian.Uint32(e[0x20:0x24]),
			Unknown2:    binary.LittleEndian.Uint32(e[0x24:0x28]),
			Checksum:    binary.LittleEndian.Uint64(e[0x28:0x30]),
			ZeroPadding: bytes.Equal(e[0x30:0x68], zeroPadding),
		}
		cp.Entries = append(cp.Entries, entry)
	}

	return cp, nil
}

func reservedName(i int) string {
	if i < len(types.CheckpointReservedNames) {
		return types.CheckpointReservedNames[i]
	}
	return fmt.Sprintf("Unknown(#%d)", i)
}

// RequireEntry returns the named reserved entry or a MissingReservedEntryError
func RequireEntry(cp *types.Checkpoint, name string) (types.CheckpointEntry, error) {
	entry, ok := cp.Entry(name)
	if !ok || entry.LCNs.IsZero() {
		return types.CheckpointEntry{}, &types.MissingReservedEntryError{Name: name}
	}
	return entry, nil
}
