package logfile

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Entry is a decoded MLog data page
type Entry struct {
	// Offset of the page within the log byte range
	Offset int64

	Header  types.LogEntryHeader
	Log     types.LogHeader
	Records []RedoRecord
}

// UUID returns the log UUID carried by the entry header
func (e *Entry) UUID() uuid.UUID {
	return uuid.UUID(e.Header.UUID)
}

// LSN returns the entry's current LSN
func (e *Entry) LSN() uint64 {
	return e.Header.CurrentLSN
}

// DecodeEntryHeader parses the 0x78-byte entry header and checks the MLog signature
func DecodeEntryHeader(page []byte) (types.LogEntryHeader, error) {
	var h types.LogEntryHeader
	if len(page) < types.LogEntryHeaderSize {
		return h, fmt.Errorf("log entry header needs %d bytes, got %d: %w", types.LogEntryHeaderSize, len(page), types.ErrCorruptLogEntry)
	}

	copy(h.Signature[:], page[0:4])
	if string(h.Signature[:]) != types.SignatureLogEntry {
		return h, fmt.Errorf("log entry signature %q: %w", h.Signature[:], types.ErrBadSignature)
	}

	h.ID = binary.LittleEndian.Uint32(page[0x04:0x08])
	h.Fixed = binary.LittleEndian.Uint32(page[0x08:0x0C])
	h.Size = binary.LittleEndian.Uint32(page[0x0C:0x10])
	copy(h.UUID[:], page[0x10:0x20])
	h.Control = binary.LittleEndian.Uint32(page[0x20:0x24])
	h.CurrentLSN = binary.LittleEndian.Uint64(page[0x28:0x30])
	h.PreviousLSN = binary.LittleEndian.Uint64(page[0x30:0x38])
	h.HeaderSize = binary.LittleEndian.Uint32(page[0x54:0x58])
	return h, nil
}

// DecodeLogHeader parses the log header that follows the entry header
func DecodeLogHeader(page []byte) (types.LogHeader, error) {
	var h types.LogHeader
	if len(page) < types.LogPayloadOffset {
		return h, fmt.Errorf("log header needs %d bytes, got %d: %w", types.LogPayloadOffset, len(page), types.ErrCorruptLogEntry)
	}

	b := page[types.LogEntryHeaderSize:types.LogPayloadOffset]
	h.CurrentLSN = binary.LittleEndian.Uint64(b[0x00:0x08])
	h.Checksum = binary.LittleEndian.Uint64(b[0x08:0x10])
	h.PreviousLSN = binary.LittleEndian.Uint64(b[0x18:0x20])
	h.DataSize = binary.LittleEndian.Uint32(b[0x20:0x24])
	h.HeaderSize = binary.LittleEndian.Uint32(b[0x28:0x2C])
	h.LogSize = binary.LittleEndian.Uint32(b[0x2C:0x30])
	h.Type = binary.LittleEndian.Uint64(b[0x30:0x38])
	return h, nil
}

// DecodeEntry decodes a data page: headers, redo records and their transaction contexts
func DecodeEntry(page []byte) (*Entry, error) {
	header, err := DecodeEntryHeader(page)
	if err != nil {
		return nil, err
	}
	logHeader, err := DecodeLogHeader(page)
	if err != nil {
		return nil, err
	}

	end := types.LogPayloadOffset + int(logHeader.DataSize)
	if end > len(page) {
		return nil, fmt.Errorf("log payload of %d bytes exceeds page: %w", logHeader.DataSize, types.ErrCorruptLogEntry)
	}

	records, err := DecodeRedoRecords(page[types.LogPayloadOffset:end])
	if err != nil {
		return nil, fmt.Errorf("entry %d: %w", header.ID, err)
	}

	entry := &Entry{Header: header, Log: logHeader, Records: records}
	for _, record := range entry.Records {
		for _, c := range record.Contexts {
			c.LSN = header.CurrentLSN
			c.EntryID = header.ID
		}
	}
	return entry, nil
}

// Control is a decoded control page
type Control struct {
	Header types.LogEntryHeader
	Log    types.LogHeader
	Info   types.LogControlInfo
}

// UUID returns the log UUID recorded in the control information
func (c *Control) UUID() uuid.UUID {
	return uuid.UUID(c.Info.UUID)
}

// DecodeControl decodes a control page and its control information at the payload offset
func DecodeControl(page []byte) (*Control, error) {
	header, err := DecodeEntryHeader(page)
	if err != nil {
		return nil, fmt.Errorf("control entry: %w", err)
	}
	logHeader, err := DecodeLogHeader(page)
	if err != nil {
		return nil, fmt.Errorf("control entry: %w", err)
	}

	end := types.LogPayloadOffset + types.LogControlInfoSize
	if len(page) < end {
		return nil, fmt.Errorf("control information needs %d bytes, got %d: %w", end, len(page), types.ErrCorruptLogEntry)
	}

	b := page[types.LogPayloadOffset:end]
	info := types.LogControlInfo{
		SequenceNumber: binary.LittleEndian.Uint64(b[0x00:0x08]),
		StartCluster:   binary.LittleEndian.Uint64(b[0x08:0x10]),
		EndCluster:     binary.LittleEndian.Uint64(b[0x10:0x18]),
		NextLSN:        binary.LittleEndian.Uint64(b[0x18:0x20]),
		NextLSNDup:     binary.LittleEndian.Uint64(b[0x20:0x28]),
		Control:        binary.LittleEndian.Uint32(b[0x38:0x3C]),
	}
	copy(info.UUID[:], b[0x28:0x38])

	return &Control{Header: header, Log: logHeader, Info: info}, nil
}

// decodeControlPair decodes both control pages. The duplicate stands in for an undecodable primary; dup is
// nil when the duplicate does not decode.
func decodeControlPair(primary, duplicate []byte, log logrus.FieldLogger) (control, dup *Control, err error) {
	dup, dupErr := DecodeControl(duplicate)
	if dupErr != nil {
		dup = nil
	}

	control, err = DecodeControl(primary)
	if err == nil {
		if dupErr != nil {
			log.WithError(dupErr).Warn("duplicate control entry not decoded")
		}
		return control, dup, nil
	}
	if dupErr != nil {
		return nil, nil, fmt.Errorf("control entry: %w", err)
	}

	log.WithError(err).Warn("control entry not decoded, using its duplicate")
	return dup, dup, nil
}
