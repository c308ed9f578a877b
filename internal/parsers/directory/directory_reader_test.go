package directory

import (
	"errors"
	"testing"
	"time"

	"github.com/deploymenttheory/go-refs/internal/parsers/attributes"
	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTimes = types.Timestamps{
	Created:  time.Date(2016, 10, 15, 10, 26, 14, 28159100, time.UTC),
	Accessed: time.Date(2016, 10, 16, 8, 0, 0, 0, time.UTC),
	Modified: time.Date(2016, 10, 17, 9, 30, 0, 0, time.UTC),
	Changed:  time.Date(2016, 10, 18, 23, 59, 59, 0, time.UTC),
}

func dirRow(name string, id types.ObjectID) pages.RowSpec {
	return DirectoryRow(name, id, testTimes)
}

func fileRow(name string, id types.ObjectID, size uint32, lcn uint32) pages.RowSpec {
	return FileRow(name, id, testTimes, size, lcn)
}

func indexRow() pages.RowSpec {
	nested := &pages.TableBuilder{Rows: []pages.RowSpec{
		{Key: attributes.BuildKey(types.AttributeTypeIndexRoot, 8, "$I30"), Value: make([]byte, 8)},
		{Key: attributes.BuildKey(0x70, 8, "$ODD"), Value: make([]byte, 8)},
	}}
	return pages.RowSpec{
		Key:   EntryKey(types.DirectoryFlagIndex, 0, ""),
		Value: pages.BuildEmbedded(make([]byte, types.TableDescriptorEmpty), nested),
	}
}

func writeDirectory(vol *pages.MemoryVolume, tuple types.LCNTuple, id types.ObjectID, internal bool, rows ...pages.RowSpec) {
	table := &pages.TableBuilder{Rows: rows}
	if internal {
		table.Type = types.TableFlagInternal
	}
	vol.WritePage(tuple, (&pages.PageBuilder{ObjectID: id, Table: table}).Build())
}

func collect(t *testing.T, tree *Tree) []*Entry {
	t.Helper()
	var entries []*Entry
	for entry, err := range tree.List() {
		require.NoError(t, err)
		entries = append(entries, entry)
	}
	return entries
}

func TestDecodeFileRecord(t *testing.T) {
	id := types.NewObjectID(0, 0x701)

	tests := []struct {
		name     string
		fileType uint16
		value    []byte
		size     uint64
		wantErr  error
	}{
		{name: "directory", fileType: types.FileTypeDirectory, value: EncodeDirectoryRecord(id, testTimes)},
		{name: "regular", fileType: types.FileTypeRegular, value: EncodeRegularRecord(id, testTimes, 4096), size: 4096},
		{name: "short directory", fileType: types.FileTypeDirectory, value: make([]byte, 0x20), wantErr: types.ErrTruncatedPage},
		{name: "short regular", fileType: types.FileTypeRegular, value: make([]byte, 0x50), wantErr: types.ErrTruncatedPage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := DecodeFileRecord("x", tt.fileType, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, record.ObjectID)
			assert.Equal(t, testTimes, record.Timestamps)
			assert.Equal(t, tt.size, record.FileSize)
		})
	}

	_, err := DecodeFileRecord("x", 0x8000, make([]byte, 0x100))
	assert.Error(t, err)
}

func TestListLeafDirectory(t *testing.T) {
	vol := pages.NewMemoryVolume(0x1000)
	deleted := pages.RowSpec{Key: EntryKey(types.DirectoryFlagDeleted, types.FileTypeRegular, "gone.txt"), Value: []byte{1, 2, 3, 4}}
	writeDirectory(vol, types.LCNTuple{0x30}, types.ObjectIDRootDirectory, false,
		indexRow(),
		dirRow("docs", types.NewObjectID(0, 0x701)),
		fileRow("a.txt", types.NewObjectID(0, 0x600), 12, 0x90),
		deleted,
	)

	tree, err := Open(vol, pages.OffsetTranslator{}, types.LCNTuple{0x30}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.ObjectIDRootDirectory, tree.ObjectID())

	entries := collect(t, tree)
	require.Len(t, entries, 4)

	assert.Equal(t, EntryIndex, entries[0].Kind)
	require.Len(t, entries[0].Index, 2)
	assert.True(t, entries[0].Index[0].Recognized)
	assert.Equal(t, "$I30", entries[0].Index[0].Name)
	assert.False(t, entries[0].Index[1].Recognized)

	assert.Equal(t, EntryDirectory, entries[1].Kind)
	assert.Equal(t, "docs", entries[1].Name)
	assert.True(t, entries[1].Record.IsDirectory())

	assert.Equal(t, EntryFile, entries[2].Kind)
	assert.Equal(t, uint64(12), entries[2].Record.FileSize)
	require.NotNil(t, entries[2].Attributes)
	assert.Equal(t, uint32(0x90), entries[2].Attributes.Data().Extents[0].LCN)

	assert.Equal(t, EntryUnrecognized, entries[3].Kind)
	assert.Equal(t, types.DirectoryFlagDeleted, entries[3].Flag)
	assert.Equal(t, "gone.txt", entries[3].Name)
	assert.Nil(t, entries[3].Record)
}

func TestListFollowsTranslatedChildren(t *testing.T) {
	vol := pages.NewMemoryVolume(0x1000)
	translator := pages.OffsetTranslator{Delta: 0x1000}
	id := types.ObjectIDRootDirectory

	writeDirectory(vol, types.LCNTuple{0x40}, id, true,
		pages.RowSpec{Key: EntryKey(types.DirectoryFlagLive, 1, "m"), Value: pages.EncodeChildReference(types.ChildReference{LCNs: types.LCNTuple{0x41}})},
		pages.RowSpec{Key: EntryKey(types.DirectoryFlagLive, 1, "z"), Value: pages.EncodeChildReference(types.ChildReference{LCNs: types.LCNTuple{0x42}})},
	)
	writeDirectory(vol, types.LCNTuple{0x1041}, id, false, fileRow("b", types.NewObjectID(0, 1), 1, 1), fileRow("c", types.NewObjectID(0, 2), 1, 1))
	writeDirectory(vol, types.LCNTuple{0x1042}, id, false, dirRow("y", types.NewObjectID(0, 0x702)))

	tree, err := Open(vol, translator, types.LCNTuple{0x40}, nil)
	require.NoError(t, err)

	var names []string
	for _, entry := range collect(t, tree) {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{"b", "c", "y"}, names)

	entry, err := tree.Resolve("y")
	require.NoError(t, err)
	assert.Equal(t, types.NewObjectID(0, 0x702), entry.Record.ObjectID)

	_, err = tree.Resolve("Y")
	assert.ErrorIs(t, err, types.ErrEntryNotFound)
}

func TestListStopsEarly(t *testing.T) {
	vol := pages.NewMemoryVolume(0x1000)
	writeDirectory(vol, types.LCNTuple{0x30}, types.ObjectIDRootDirectory, false,
		dirRow("one", types.NewObjectID(0, 1)),
		dirRow("two", types.NewObjectID(0, 2)),
	)
	tree, err := Open(vol, pages.OffsetTranslator{}, types.LCNTuple{0x30}, nil)
	require.NoError(t, err)

	count := 0
	for range tree.List() {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestListReportsUnreadableChild(t *testing.T) {
	vol := pages.NewMemoryVolume(0x1000)
	writeDirectory(vol, types.LCNTuple{0x40}, types.ObjectIDRootDirectory, true,
		pages.RowSpec{Key: EntryKey(0, 0, ""), Value: pages.EncodeChildReference(types.ChildReference{LCNs: types.LCNTuple{0x41}})},
	)
	vol.WriteClusters(0x41, make([]byte, 0x1000))

	tree, err := Open(vol, pages.OffsetTranslator{}, types.LCNTuple{0x40}, nil)
	require.NoError(t, err)

	var listErr error
	for _, err := range tree.List() {
		listErr = err
	}
	assert.True(t, errors.Is(listErr, types.ErrBadSignature))

	_, err = tree.Resolve("anything")
	assert.ErrorIs(t, err, types.ErrBadSignature)
}
