package attributes

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-refs/internal/helpers"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// dataTableOffset is where BuildDataValue places the extent table header, just past the file size word
const dataTableOffset = 0x40

// BuildDataValue serializes a $DATA value with one extent per LCN, in the layout read by DecodeDataValue
func BuildDataValue(fileSize uint32, lcns ...uint32) []byte {
	arrayStart := types.TableHeaderSize
	arrayEnd := arrayStart + len(lcns)*types.RowDirectoryEntrySize
	firstRow := (arrayEnd + 7) &^ 7

	out := make([]byte, dataTableOffset+firstRow+len(lcns)*types.DataExtentSize)
	binary.LittleEndian.PutUint32(out[0:4], dataTableOffset)
	binary.LittleEndian.PutUint32(out[types.DataAttributeFileSizeOffset:], fileSize)

	header := out[dataTableOffset:]
	binary.LittleEndian.PutUint32(header[0:4], types.TableHeaderSize)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(header)))
	binary.LittleEndian.PutUint32(header[16:20], uint32(arrayStart))
	binary.LittleEndian.PutUint32(header[20:24], uint32(len(lcns)))
	binary.LittleEndian.PutUint32(header[32:36], uint32(arrayEnd))

	for i, lcn := range lcns {
		row := firstRow + i*types.DataExtentSize
		binary.LittleEndian.PutUint16(header[arrayStart+i*4:], uint16(row))
		binary.LittleEndian.PutUint32(header[row:], lcn)
	}
	return out
}

// BuildKey serializes an attribute row key: value length, unknown word, tag, UTF-16LE name
func BuildKey(tag uint32, valueLength uint32, name string) []byte {
	key := make([]byte, types.AttributeKeyHeaderSize)
	binary.LittleEndian.PutUint32(key[0:4], valueLength)
	binary.LittleEndian.PutUint32(key[8:12], tag)
	return append(key, helpers.EncodeUTF16LE(name)...)
}
