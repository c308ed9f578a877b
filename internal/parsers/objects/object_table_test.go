package objects

import (
	"testing"

	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func objectRow(id types.ObjectID, root types.LCNTuple, trailing []byte) pages.RowSpec {
	record := &types.ObjectRecord{ID: id, LCNs: root, Trailing: trailing}
	copy(record.Checksum[:], "checksum")
	return RecordRow(record)
}

func writeTable(vol *pages.MemoryVolume, tuple types.LCNTuple, internal bool, rows ...pages.RowSpec) {
	table := &pages.TableBuilder{Rows: rows}
	if internal {
		table.Type = types.TableFlagInternal
	}
	vol.WritePage(tuple, (&pages.PageBuilder{Table: table}).Build())
}

func TestLookupSingleLevel(t *testing.T) {
	vol := pages.NewMemoryVolume(0x1000)
	writeTable(vol, types.LCNTuple{0x10}, false,
		objectRow(types.ObjectIDRootDirectory, types.LCNTuple{0x50, 0x51}, []byte{1, 2, 3}),
		objectRow(types.ObjectIDFileSystemMetadata, types.LCNTuple{0x60}, nil),
	)

	table, err := Load(vol, pages.OffsetTranslator{}, types.LCNTuple{0x10}, nil)
	require.NoError(t, err)

	record, err := table.Lookup(types.ObjectIDRootDirectory)
	require.NoError(t, err)
	assert.Equal(t, types.ObjectIDRootDirectory, record.ID)
	assert.Equal(t, types.LCNTuple{0x50, 0x51}, record.LCNs)
	assert.Equal(t, []byte("checksum"), record.Checksum[:])
	assert.Equal(t, []byte{1, 2, 3}, record.Trailing)

	_, err = table.Lookup(types.NewObjectID(0x601, 0))
	assert.ErrorIs(t, err, types.ErrObjectNotFound)
}

func TestLookupTranslatesChildren(t *testing.T) {
	vol := pages.NewMemoryVolume(0x1000)
	translator := pages.OffsetTranslator{Delta: 0x100}

	writeTable(vol, types.LCNTuple{0x10}, true,
		ChildRow(types.NewObjectID(0x600, 0), types.LCNTuple{0x20}),
		ChildRow(types.ObjectID{}, types.LCNTuple{0x30}),
	)
	writeTable(vol, types.LCNTuple{0x120}, false,
		objectRow(types.ObjectIDLogfileInformation, types.LCNTuple{0x70}, nil),
		objectRow(types.ObjectIDRootDirectory, types.LCNTuple{0x71}, nil),
	)
	writeTable(vol, types.LCNTuple{0x130}, false,
		objectRow(types.NewObjectID(0x701, 0), types.LCNTuple{0x72}, nil),
	)

	table, err := Load(vol, translator, types.LCNTuple{0x10}, nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       types.ObjectID
		expected types.LCNTuple
	}{
		{"below first key", types.ObjectIDLogfileInformation, types.LCNTuple{0x70}},
		{"equal to first key", types.ObjectIDRootDirectory, types.LCNTuple{0x71}},
		{"beyond last key uses zero child", types.NewObjectID(0x701, 0), types.LCNTuple{0x72}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := table.Lookup(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, record.LCNs)
		})
	}

	_, err = table.Lookup(types.NewObjectID(0x9, 1))
	assert.ErrorIs(t, err, types.ErrObjectNotFound)
}

func TestWalk(t *testing.T) {
	vol := pages.NewMemoryVolume(0x1000)
	writeTable(vol, types.LCNTuple{0x10}, true,
		ChildRow(types.NewObjectID(0x600, 0), types.LCNTuple{0x20}),
		ChildRow(types.ObjectID{}, types.LCNTuple{0x21}),
	)
	writeTable(vol, types.LCNTuple{0x20}, false, objectRow(types.ObjectIDUpcaseTable, types.LCNTuple{1}, nil))
	writeTable(vol, types.LCNTuple{0x21}, false, objectRow(types.NewObjectID(0x700, 0), types.LCNTuple{2}, nil))

	table, err := Load(vol, pages.OffsetTranslator{}, types.LCNTuple{0x10}, nil)
	require.NoError(t, err)

	var ids []types.ObjectID
	for record, err := range table.Walk() {
		require.NoError(t, err)
		ids = append(ids, record.ID)
	}
	assert.Equal(t, []types.ObjectID{types.ObjectIDUpcaseTable, types.NewObjectID(0x700, 0)}, ids)
}

func TestDecodeRecordTruncated(t *testing.T) {
	_, err := DecodeRecord(make([]byte, 16), make([]byte, 0x40))
	assert.ErrorIs(t, err, types.ErrTruncatedPage)
}

func TestObjectIDOrdering(t *testing.T) {
	assert.Equal(t, -1, types.NewObjectID(0x9, 0).Compare(types.NewObjectID(0x600, 0)))
	assert.Equal(t, 1, types.NewObjectID(0x600, 1).Compare(types.NewObjectID(0x600, 0)))
	assert.Equal(t, 0, types.ObjectIDRootDirectory.Compare(types.NewObjectID(0x600, 0)))
}
