package changejournal

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/deploymenttheory/go-refs/internal/helpers"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/sirupsen/logrus"
)

// usnMajorVersion is the only record layout decoded
const usnMajorVersion = 3

// ParseRecord decodes the USN_RECORD_V3 at the start of data. data may extend past the record.
func ParseRecord(data []byte) (*types.USNRecord, error) {
	if len(data) < types.USNRecordV3Size {
		return nil, fmt.Errorf("%d bytes left for a record: %w", len(data), types.ErrTruncatedRecord)
	}

	length := binary.LittleEndian.Uint32(data[0x00:0x04])
	if length < types.USNRecordV3Size || uint64(length) > uint64(len(data)) {
		return nil, fmt.Errorf("record length %#x with %d bytes left: %w", length, len(data), types.ErrTruncatedRecord)
	}

	reason := types.USNReason(binary.LittleEndian.Uint32(data[0x38:0x3C]))
	record := &types.USNRecord{
		RecordLength:        length,
		MajorVersion:        binary.LittleEndian.Uint16(data[0x04:0x06]),
		MinorVersion:        binary.LittleEndian.Uint16(data[0x06:0x08]),
		FileReference:       types.ParseFileReference(data[0x08:0x18]),
		ParentFileReference: types.ParseFileReference(data[0x18:0x28]),
		USN:                 binary.LittleEndian.Uint64(data[0x28:0x30]),
		Timestamp:           types.FiletimeToTime(binary.LittleEndian.Uint64(data[0x30:0x38])),
		Reason:              reason,
		Reasons:             reason.Names(),
		SourceInfo:          binary.LittleEndian.Uint32(data[0x3C:0x40]),
		SecurityID:          binary.LittleEndian.Uint32(data[0x40:0x44]),
		FileAttributes:      binary.LittleEndian.Uint32(data[0x44:0x48]),
	}

	nameLength := uint32(binary.LittleEndian.Uint16(data[0x48:0x4A]))
	nameOffset := uint32(binary.LittleEndian.Uint16(data[0x4A:0x4C]))
	if nameOffset+nameLength > length {
		return nil, fmt.Errorf("name at %#x+%#x outside record of %#x bytes: %w", nameOffset, nameLength, length, types.ErrTruncatedRecord)
	}

	name, err := helpers.DecodeUTF16LE(data[nameOffset : nameOffset+nameLength])
	if err != nil {
		return nil, fmt.Errorf("record name: %w", err)
	}
	record.Name = name

	return record, nil
}

// Parse yields the records of a change journal stream in order. A zero record length ends the stream.
// Records of another major version are decoded with the version 3 layout and reported to log.
func Parse(data []byte, log logrus.FieldLogger) iter.Seq2[*types.USNRecord, error] {
	log = diagnostics.OrDiscard(log).WithField("component", "changejournal")

	return func(yield func(*types.USNRecord, error) bool) {
		offset := 0
		for offset+4 <= len(data) {
			if binary.LittleEndian.Uint32(data[offset:offset+4]) == 0 {
				return
			}

			record, err := ParseRecord(data[offset:])
			if err != nil {
				yield(nil, fmt.Errorf("record at %#x: %w", offset, err))
				return
			}
			record.Offset = int64(offset)

			if record.MajorVersion != usnMajorVersion {
				log.WithFields(logrus.Fields{
					"offset":  fmt.Sprintf("%#x", offset),
					"version": fmt.Sprintf("%d.%d", record.MajorVersion, record.MinorVersion),
				}).Warn("unexpected record version")
			}

			if !yield(record, nil) {
				return
			}
			offset += int(record.RecordLength)
		}
	}
}

// Records collects every record of a stream, stopping at the first error
func Records(data []byte, log logrus.FieldLogger) ([]*types.USNRecord, error) {
	var records []*types.USNRecord
	for record, err := range Parse(data, log) {
		if err != nil {
			return records, err
		}
		records = append(records, record)
	}
	return records, nil
}
