package logfile

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/types"
)

// RedoRecord is one redo record of a log entry payload
type RedoRecord struct {
	Flag     uint32
	Contexts []*Context
}

// Context is a decoded transaction context. Fields holds the tail field first, followed by the fields named
// by the forward descriptors; keys come first, values after them.
type Context struct {
	Header types.TransactionContextHeader
	Fields [][]byte

	// LSN and EntryID of the log entry the context was read from
	LSN     uint64
	EntryID uint32
}

// Opcode returns the context's redo opcode
func (c *Context) Opcode() types.RedoOpcode {
	return c.Header.Opcode
}

// RecMark returns the grouping marker
func (c *Context) RecMark() uint32 {
	return c.Header.RecMark
}

// Field returns field i, or false when the context has fewer fields
func (c *Context) Field(i int) ([]byte, bool) {
	if i < 0 || i >= len(c.Fields) {
		return nil, false
	}
	return c.Fields[i], true
}

// Keys returns the key fields
func (c *Context) Keys() [][]byte {
	n := min(int(c.Header.KeyCount), len(c.Fields))
	return c.Fields[:n]
}

// Values returns the value fields
func (c *Context) Values() [][]byte {
	start := min(int(c.Header.KeyCount), len(c.Fields))
	end := min(start+int(c.Header.ValueCount), len(c.Fields))
	return c.Fields[start:end]
}

// DecodeRedoRecords splits a payload into redo records. Each record is prefixed by (size, flag); a zero size
// or an exhausted payload ends the list.
func DecodeRedoRecords(payload []byte) ([]RedoRecord, error) {
	var records []RedoRecord
	pos := 0
	for pos+types.RedoRecordPrefixSize <= len(payload) {
		size := int(binary.LittleEndian.Uint32(payload[pos : pos+4]))
		flag := binary.LittleEndian.Uint32(payload[pos+4 : pos+8])
		if size == 0 {
			break
		}

		start := pos + types.RedoRecordPrefixSize
		if start+size > len(payload) {
			return nil, fmt.Errorf("redo record of %d bytes at %#x exceeds payload: %w", size, pos, types.ErrCorruptLogEntry)
		}

		contexts, err := DecodeContexts(payload[start : start+size])
		if err != nil {
			return nil, fmt.Errorf("redo record at %#x: %w", pos, err)
		}
		records = append(records, RedoRecord{Flag: flag, Contexts: contexts})
		pos = start + size
	}
	return records, nil
}

// DecodeContexts splits a redo record into transaction contexts by their leading size
func DecodeContexts(record []byte) ([]*Context, error) {
	var contexts []*Context
	pos := 0
	for pos < len(record) {
		if pos+4 > len(record) {
			return nil, fmt.Errorf("context size at %#x: %w", pos, types.ErrCorruptLogEntry)
		}
		size := int(binary.LittleEndian.Uint32(record[pos : pos+4]))
		if size < types.TransactionContextHeaderSize+types.TransactionFieldDescriptorSize || pos+size > len(record) {
			return nil, fmt.Errorf("context of %d bytes at %#x: %w", size, pos, types.ErrCorruptLogEntry)
		}

		c, err := DecodeContext(record[pos : pos+size])
		if err != nil {
			return nil, fmt.Errorf("context at %#x: %w", pos, err)
		}
		contexts = append(contexts, c)
		pos += size
	}
	return contexts, nil
}

// DecodeContext decodes one transaction context. Field offsets are relative to the context start; the
// forward descriptors run from 0x40 up to the tail field's offset.
func DecodeContext(buf []byte) (*Context, error) {
	cursor := types.TransactionContextHeaderSize + types.TransactionFieldDescriptorSize
	if len(buf) < cursor {
		return nil, fmt.Errorf("context needs %d bytes, got %d: %w", cursor, len(buf), types.ErrCorruptLogEntry)
	}

	h := types.TransactionContextHeader{
		Size:        binary.LittleEndian.Uint32(buf[0x00:0x04]),
		Opcode:      types.RedoOpcode(binary.LittleEndian.Uint32(buf[0x04:0x08])),
		KeyCount:    binary.LittleEndian.Uint32(buf[0x08:0x0C]),
		KeyOffset:   binary.LittleEndian.Uint32(buf[0x0C:0x10]),
		ValueCount:  binary.LittleEndian.Uint32(buf[0x10:0x14]),
		ValueOffset: binary.LittleEndian.Uint32(buf[0x14:0x18]),
		Unknown1:    binary.LittleEndian.Uint64(buf[0x18:0x20]),
		Unknown2:    binary.LittleEndian.Uint64(buf[0x20:0x28]),
		Unknown3:    binary.LittleEndian.Uint32(buf[0x28:0x2C]),
		RecMark:     binary.LittleEndian.Uint32(buf[0x2C:0x30]),
		SeqNo:       binary.LittleEndian.Uint32(buf[0x30:0x34]),
		EndMark:     binary.LittleEndian.Uint32(buf[0x34:0x38]),
	}

	tail, tailOffset, err := field(buf, types.TransactionContextHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("tail field: %w", err)
	}

	fields := [][]byte{tail}
	for cursor != tailOffset {
		if cursor > tailOffset || cursor+types.TransactionFieldDescriptorSize > len(buf) {
			return nil, fmt.Errorf("field descriptor at %#x runs past tail at %#x: %w", cursor, tailOffset, types.ErrCorruptLogEntry)
		}
		data, _, err := field(buf, cursor)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", len(fields), err)
		}
		fields = append(fields, data)
		cursor += types.TransactionFieldDescriptorSize
	}

	return &Context{Header: h, Fields: fields}, nil
}

// field reads the (offset, size) descriptor at at and returns the bytes it names
func field(buf []byte, at int) ([]byte, int, error) {
	offset := int(binary.LittleEndian.Uint32(buf[at : at+4]))
	size := int(binary.LittleEndian.Uint32(buf[at+4 : at+8]))
	if offset+size > len(buf) {
		return nil, 0, fmt.Errorf("range %#x+%d outside context of %d bytes: %w", offset, size, len(buf), types.ErrCorruptLogEntry)
	}
	return buf[offset : offset+size], offset, nil
}
