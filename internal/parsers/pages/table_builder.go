package pages

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-refs/internal/types"
)

// RowSpec is a row to be serialized by TableBuilder
type RowSpec struct {
	Key   []byte
	Value []byte
	Flags uint16
}

// TableBuilder serializes a row table in the on-disk layout read by DecodeTable
type TableBuilder struct {
	Type uint32
	Rows []RowSpec
}

func align8(n int) int {
	return (n + 7) &^ 7
}

// Build returns the table bytes starting at the table header
func (b *TableBuilder) Build() []byte {
	arrayStart := types.TableHeaderSize
	arrayEnd := arrayStart + len(b.Rows)*types.RowDirectoryEntrySize

	out := make([]byte, align8(arrayEnd))
	for i, rs := range b.Rows {
		rowOffset := len(out)
		valueOffset := align8(types.RowHeaderSize + len(rs.Key))
		length := align8(valueOffset + len(rs.Value))

		row := make([]byte, length)
		binary.LittleEndian.PutUint32(row[0:4], uint32(length))
		binary.LittleEndian.PutUint16(row[4:6], types.RowHeaderSize)
		binary.LittleEndian.PutUint16(row[6:8], uint16(len(rs.Key)))
		binary.LittleEndian.PutUint16(row[8:10], rs.Flags)
		binary.LittleEndian.PutUint16(row[10:12], uint16(valueOffset))
		binary.LittleEndian.PutUint16(row[12:14], uint16(len(rs.Value)))
		copy(row[types.RowHeaderSize:], rs.Key)
		copy(row[valueOffset:], rs.Value)

		entry := arrayStart + i*types.RowDirectoryEntrySize
		binary.LittleEndian.PutUint16(out[entry:entry+2], uint16(rowOffset))
		out = append(out, row...)
	}

	words := []uint32{
		types.TableHeaderSize,
		uint32(len(out)),
		0,
		b.Type,
		uint32(arrayStart),
		uint32(len(b.Rows)),
		0,
		0,
		uint32(arrayEnd),
		0,
	}
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], w)
	}
	return out
}

// BuildEmbedded lays out a table embedded in a row value: prefix first, with its first four bytes
// overwritten by the offset of the table header, then the table.
func BuildEmbedded(prefix []byte, table *TableBuilder) []byte {
	size := align8(len(prefix))
	if size < 4 {
		size = 8
	}
	out := make([]byte, size)
	copy(out, prefix)
	binary.LittleEndian.PutUint32(out[0:4], uint32(size))
	return append(out, table.Build()...)
}

// PageBuilder serializes a complete page: header, descriptor and table
type PageBuilder struct {
	// Signature defaults to MSB+
	Signature  string
	SelfLCNs   types.LCNTuple
	ObjectID   types.ObjectID
	Descriptor *types.TableDescriptor
	Table      *TableBuilder

	// Size pads the page with zeros when larger than its content
	Size int
}

// Build returns the page bytes
func (b *PageBuilder) Build() []byte {
	signature := b.Signature
	if signature == "" {
		signature = types.SignatureMetadataPage
	}

	out := make([]byte, types.PageHeaderSize)
	copy(out[0:4], signature)
	for i, lcn := range b.SelfLCNs {
		binary.LittleEndian.PutUint64(out[0x20+i*8:0x28+i*8], lcn)
	}
	copy(out[0x40:0x50], b.ObjectID[:])

	out = append(out, EncodeDescriptor(b.Descriptor)...)
	if b.Table != nil {
		out = append(out, b.Table.Build()...)
	}

	if len(out) < b.Size {
		out = append(out, make([]byte, b.Size-len(out))...)
	}
	return out
}

// EncodeDescriptor serializes a table descriptor. nil encodes the empty eight-byte descriptor.
func EncodeDescriptor(d *types.TableDescriptor) []byte {
	if d == nil {
		out := make([]byte, types.TableDescriptorEmpty)
		binary.LittleEndian.PutUint32(out[0:4], types.TableDescriptorEmpty)
		return out
	}

	out := make([]byte, types.TableDescriptorSize+len(d.Extra))
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(out)))
	binary.LittleEndian.PutUint32(out[4:8], d.Unknown1)
	binary.LittleEndian.PutUint32(out[8:12], d.Unknown2)
	binary.LittleEndian.PutUint32(out[12:16], d.MetaType)
	binary.LittleEndian.PutUint32(out[16:20], d.MetaHost)
	binary.LittleEndian.PutUint32(out[20:24], d.Unknown3)
	binary.LittleEndian.PutUint64(out[24:32], d.ChildCount)
	binary.LittleEndian.PutUint64(out[32:40], d.RowCount)
	copy(out[types.TableDescriptorSize:], d.Extra)
	return out
}

// EncodeTable writes a decoded table back into buf at the offsets it was decoded from.
// Bytes outside the header, row directory and rows are left untouched.
func EncodeTable(buf []byte, t *Table) {
	h := t.Header
	words := []uint32{
		h.HeaderLength, h.TotalLength, h.PaddingLength, h.Type, h.ArrayStart,
		h.Fanout, h.Unknown1, h.Unknown2, h.ArrayEnd, h.Padding,
	}
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[h.Offset+i*4:h.Offset+i*4+4], w)
	}

	array := h.Offset + int(h.ArrayStart)
	for i, row := range t.Rows {
		entry := array + i*types.RowDirectoryEntrySize
		binary.LittleEndian.PutUint16(buf[entry:entry+2], uint16(row.Offset-h.Offset))

		r := buf[row.Offset:]
		binary.LittleEndian.PutUint32(r[0:4], row.Header.Length)
		binary.LittleEndian.PutUint16(r[4:6], row.Header.KeyOffset)
		binary.LittleEndian.PutUint16(r[6:8], row.Header.KeyLength)
		binary.LittleEndian.PutUint16(r[8:10], row.Header.Flags)
		binary.LittleEndian.PutUint16(r[10:12], row.Header.ValueOffset)
		binary.LittleEndian.PutUint16(r[12:14], row.Header.ValueLength)
		binary.LittleEndian.PutUint16(r[14:16], row.Header.Padding)
		copy(r[row.Header.KeyOffset:], row.Key)
		copy(r[row.Header.ValueOffset:], row.Value)
	}
}

// EncodeChildReference serializes the value of an internal row
func EncodeChildReference(ref types.ChildReference) []byte {
	out := make([]byte, types.ChildReferenceSize)
	for i, lcn := range ref.LCNs {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], lcn)
	}
	binary.LittleEndian.PutUint32(out[0x20:0x24], ref.Unknown1)
	binary.LittleEndian.PutUint32(out[0x24:0x28], ref.Unknown2)
	copy(out[0x28:0x30], ref.Checksum[:])
	return out
}
