package logfile

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-refs/internal/types"
)

// EncodeContext serializes a transaction context. fields[0] is the tail field; the remaining fields get
// forward descriptors. h.Size is filled in.
func EncodeContext(h types.TransactionContextHeader, fields [][]byte) []byte {
	forward := 0
	if len(fields) > 1 {
		forward = len(fields) - 1
	}
	dataStart := types.TransactionContextHeaderSize + types.TransactionFieldDescriptorSize*(1+forward)

	size := dataStart
	for _, f := range fields {
		size += len(f)
	}
	out := make([]byte, size)

	put := func(at, offset int, f []byte) {
		binary.LittleEndian.PutUint32(out[at:], uint32(offset))
		binary.LittleEndian.PutUint32(out[at+4:], uint32(len(f)))
		copy(out[offset:], f)
	}

	offset := dataStart
	for i, f := range fields {
		at := types.TransactionContextHeaderSize
		if i > 0 {
			at += types.TransactionFieldDescriptorSize * i
		}
		put(at, offset, f)
		offset += len(f)
	}
	if len(fields) == 0 {
		binary.LittleEndian.PutUint32(out[types.TransactionContextHeaderSize:], uint32(dataStart))
	}

	h.Size = uint32(size)
	words := []uint32{h.Size, uint32(h.Opcode), h.KeyCount, h.KeyOffset, h.ValueCount, h.ValueOffset}
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	binary.LittleEndian.PutUint64(out[0x18:], h.Unknown1)
	binary.LittleEndian.PutUint64(out[0x20:], h.Unknown2)
	binary.LittleEndian.PutUint32(out[0x28:], h.Unknown3)
	binary.LittleEndian.PutUint32(out[0x2C:], h.RecMark)
	binary.LittleEndian.PutUint32(out[0x30:], h.SeqNo)
	binary.LittleEndian.PutUint32(out[0x34:], h.EndMark)
	return out
}

// EncodeEntry serializes a data page holding one redo record per element of records. Each record is the
// concatenation of its encoded contexts.
func EncodeEntry(id uint32, lsn uint64, records ...[]byte) []byte {
	var payload []byte
	for _, r := range records {
		prefix := make([]byte, types.RedoRecordPrefixSize)
		binary.LittleEndian.PutUint32(prefix[0:4], uint32(len(r)))
		payload = append(payload, prefix...)
		payload = append(payload, r...)
	}
	payload = append(payload, make([]byte, types.RedoRecordPrefixSize)...)

	page := encodeHeaders(id, lsn, uint32(len(payload)))
	copy(page[types.LogPayloadOffset:], payload)
	return page
}

// EncodeControl serializes a control page carrying info
func EncodeControl(info types.LogControlInfo) []byte {
	page := encodeHeaders(0, 0, types.LogControlInfoSize)
	b := page[types.LogPayloadOffset:]
	binary.LittleEndian.PutUint64(b[0x00:], info.SequenceNumber)
	binary.LittleEndian.PutUint64(b[0x08:], info.StartCluster)
	binary.LittleEndian.PutUint64(b[0x10:], info.EndCluster)
	binary.LittleEndian.PutUint64(b[0x18:], info.NextLSN)
	binary.LittleEndian.PutUint64(b[0x20:], info.NextLSNDup)
	copy(b[0x28:0x38], info.UUID[:])
	binary.LittleEndian.PutUint32(b[0x38:], info.Control)
	return page
}

func encodeHeaders(id uint32, lsn uint64, dataSize uint32) []byte {
	page := make([]byte, types.LogPageSize)
	copy(page[0:4], types.SignatureLogEntry)
	binary.LittleEndian.PutUint32(page[0x04:], id)
	binary.LittleEndian.PutUint32(page[0x08:], 1)
	binary.LittleEndian.PutUint32(page[0x0C:], types.LogPageSize)
	binary.LittleEndian.PutUint64(page[0x28:], lsn)
	binary.LittleEndian.PutUint32(page[0x54:], types.LogEntryHeaderSize)

	log := page[types.LogEntryHeaderSize:]
	binary.LittleEndian.PutUint64(log[0x00:], lsn)
	binary.LittleEndian.PutUint32(log[0x20:], dataSize)
	binary.LittleEndian.PutUint32(log[0x28:], types.LogHeaderSize)
	return page
}
