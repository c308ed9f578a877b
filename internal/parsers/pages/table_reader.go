package pages

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/types"
)

// Table is a decoded row table
type Table struct {
	Header types.TableHeader
	Rows   []Row
}

// Row is one row of a table. Key and Value alias the decoded buffer.
type Row struct {
	// Offset of the row within the decoded buffer
	Offset int
	Header types.RowHeader
	Key    []byte
	Value  []byte
}

// HasKey reports whether the row carries a key
func (r Row) HasKey() bool { return len(r.Key) > 0 }

// DecodeDescriptor parses the table descriptor found at datum. A descriptor of TableDescriptorEmpty bytes,
// or any descriptor too short to hold the decoded fields, yields nil.
func DecodeDescriptor(buf []byte, datum int) (*types.TableDescriptor, error) {
	if datum < 0 || datum+4 > len(buf) {
		return nil, fmt.Errorf("descriptor length at %#x beyond %d bytes: %w", datum, len(buf), types.ErrTruncatedPage)
	}

	size := int(binary.LittleEndian.Uint32(buf[datum : datum+4]))
	if size < types.TableDescriptorSize {
		return nil, nil
	}
	if datum+size > len(buf) {
		return nil, fmt.Errorf("descriptor of %d bytes at %#x beyond %d bytes: %w", size, datum, len(buf), types.ErrTruncatedPage)
	}

	d := buf[datum : datum+size]
	return &types.TableDescriptor{
		Size:       uint32(size),
		Unknown1:   binary.LittleEndian.Uint32(d[4:8]),
		Unknown2:   binary.LittleEndian.Uint32(d[8:12]),
		MetaType:   binary.LittleEndian.Uint32(d[12:16]),
		MetaHost:   binary.LittleEndian.Uint32(d[16:20]),
		Unknown3:   binary.LittleEndian.Uint32(d[20:24]),
		ChildCount: binary.LittleEndian.Uint64(d[24:32]),
		RowCount:   binary.LittleEndian.Uint64(d[32:40]),
		Extra:      d[types.TableDescriptorSize:],
	}, nil
}

// DecodeTableHeader parses the table header located at datum plus the 32-bit length stored at datum
func DecodeTableHeader(buf []byte, datum int) (types.TableHeader, error) {
	var h types.TableHeader
	if datum < 0 || datum+4 > len(buf) {
		return h, fmt.Errorf("table header offset at %#x beyond %d bytes: %w", datum, len(buf), types.ErrTruncatedPage)
	}

	offset := datum + int(binary.LittleEndian.Uint32(buf[datum:datum+4]))
	if offset+types.TableHeaderSize > len(buf) {
		return h, fmt.Errorf("table header at %#x beyond %d bytes: %w", offset, len(buf), types.ErrTruncatedPage)
	}

	words := make([]uint32, 10)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(buf[offset+i*4 : offset+i*4+4])
	}

	h = types.TableHeader{
		Offset:        offset,
		HeaderLength:  words[0],
		TotalLength:   words[1],
		PaddingLength: words[2],
		Type:          words[3],
		ArrayStart:    words[4],
		Fanout:        words[5],
		Unknown1:      words[6],
		Unknown2:      words[7],
		ArrayEnd:      words[8],
		Padding:       words[9],
	}
	return h, nil
}

// RowOffsets returns the buffer offset of every row named by the row directory
func RowOffsets(buf []byte, h types.TableHeader) ([]int, error) {
	count := h.RowCount()
	array := h.Offset + int(h.ArrayStart)
	if array+count*types.RowDirectoryEntrySize > len(buf) {
		return nil, fmt.Errorf("row directory of %d entries at %#x beyond %d bytes: %w", count, array, len(buf), types.ErrTruncatedPage)
	}

	offsets := make([]int, count)
	for i := range offsets {
		entry := array + i*types.RowDirectoryEntrySize
		offsets[i] = h.Offset + int(binary.LittleEndian.Uint16(buf[entry:entry+2]))
	}
	return offsets, nil
}

// DecodeRow parses the row at offset
func DecodeRow(buf []byte, offset int) (Row, error) {
	row := Row{Offset: offset}
	if offset+types.RowHeaderSize > len(buf) {
		return row, fmt.Errorf("row header at %#x beyond %d bytes: %w", offset, len(buf), types.ErrTruncatedPage)
	}

	b := buf[offset:]
	row.Header = types.RowHeader{
		Length:      binary.LittleEndian.Uint32(b[0:4]),
		KeyOffset:   binary.LittleEndian.Uint16(b[4:6]),
		KeyLength:   binary.LittleEndian.Uint16(b[6:8]),
		Flags:       binary.LittleEndian.Uint16(b[8:10]),
		ValueOffset: binary.LittleEndian.Uint16(b[10:12]),
		ValueLength: binary.LittleEndian.Uint16(b[12:14]),
		Padding:     binary.LittleEndian.Uint16(b[14:16]),
	}

	if n := int(row.Header.KeyLength); n > 0 {
		start := offset + int(row.Header.KeyOffset)
		if start+n > len(buf) {
			return row, fmt.Errorf("row key at %#x+%d beyond %d bytes: %w", start, n, len(buf), types.ErrTruncatedPage)
		}
		row.Key = buf[start : start+n]
	}

	if n := int(row.Header.ValueLength); n > 0 {
		start := offset + int(row.Header.ValueOffset)
		if start+n > len(buf) {
			return row, fmt.Errorf("row value at %#x+%d beyond %d bytes: %w", start, n, len(buf), types.ErrTruncatedPage)
		}
		row.Value = buf[start : start+n]
	}

	return row, nil
}

// DecodeTable decodes the table header and every row of the table anchored at datum.
// Pages anchor their table at the end of the page header; embedded tables anchor at offset 0 of their value.
func DecodeTable(buf []byte, datum int) (*Table, error) {
	header, err := DecodeTableHeader(buf, datum)
	if err != nil {
		return nil, err
	}

	offsets, err := RowOffsets(buf, header)
	if err != nil {
		return nil, err
	}

	table := &Table{Header: header, Rows: make([]Row, 0, len(offsets))}
	for i, offset := range offsets {
		row, err := DecodeRow(buf, offset)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// DecodeChildReference parses the LCNTuple + checksum value of an internal row
func DecodeChildReference(value []byte) (types.ChildReference, error) {
	var ref types.ChildReference
	if len(value) < types.ChildReferenceSize {
		return ref, fmt.Errorf("child reference needs %d bytes, got %d: %w", types.ChildReferenceSize, len(value), types.ErrTruncatedPage)
	}

	ref.LCNs = types.ParseLCNTuple(value[0:0x20])
	ref.Unknown1 = binary.LittleEndian.Uint32(value[0x20:0x24])
	ref.Unknown2 = binary.LittleEndian.Uint32(value[0x24:0x28])
	copy(ref.Checksum[:], value[0x28:0x30])
	return ref, nil
}
