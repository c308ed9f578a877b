package directory

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-refs/internal/helpers"
	"github.com/deploymenttheory/go-refs/internal/parsers/attributes"
	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// EntryKey serializes a directory row key: flag, file type, UTF-16LE name
func EntryKey(flag, fileType uint16, name string) []byte {
	key := make([]byte, types.DirectoryKeyHeaderSize)
	binary.LittleEndian.PutUint16(key[0:2], flag)
	binary.LittleEndian.PutUint16(key[2:4], fileType)
	return append(key, helpers.EncodeUTF16LE(name)...)
}

// DirectoryRow builds a live directory entry pointing at id
func DirectoryRow(name string, id types.ObjectID, ts types.Timestamps) pages.RowSpec {
	return pages.RowSpec{
		Key:   EntryKey(types.DirectoryFlagLive, types.FileTypeDirectory, name),
		Value: EncodeDirectoryRecord(id, ts),
	}
}

// FileRow builds a live regular file entry whose embedded attribute table holds a single $DATA value
// with one extent per LCN
func FileRow(name string, id types.ObjectID, ts types.Timestamps, size uint32, lcns ...uint32) pages.RowSpec {
	embedded := &pages.TableBuilder{Rows: []pages.RowSpec{
		{Value: attributes.BuildDataValue(size, lcns...)},
	}}
	return pages.RowSpec{
		Key:   EntryKey(types.DirectoryFlagLive, types.FileTypeRegular, name),
		Value: pages.BuildEmbedded(EncodeRegularRecord(id, ts, size), embedded),
	}
}
