package logfile

import (
	"encoding/binary"
	"testing"

	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func txContext(op types.RedoOpcode, recMark uint32, fields ...[]byte) []byte {
	return EncodeContext(types.TransactionContextHeader{
		Opcode:     op,
		KeyCount:   1,
		ValueCount: uint32(max(0, len(fields)-1)),
		RecMark:    recMark,
		SeqNo:      7,
		EndMark:    9,
	}, fields)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func controlArea(start, end uint64) []byte {
	info := types.LogControlInfo{SequenceNumber: 3, StartCluster: start, EndCluster: end, NextLSN: 0x99}
	info.UUID[0] = 0xAB
	return concat(EncodeControl(info), EncodeControl(info))
}

func TestDecodeContext(t *testing.T) {
	raw := txContext(types.OpInsertRow, types.RecMarkStart, []byte("tail"), []byte("first"), []byte("second"))

	c, err := DecodeContext(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(raw)), c.Header.Size)
	assert.Equal(t, types.OpInsertRow, c.Opcode())
	assert.Equal(t, types.RecMarkStart, c.RecMark())
	assert.Equal(t, uint32(7), c.Header.SeqNo)
	assert.Equal(t, uint32(9), c.Header.EndMark)
	assert.Equal(t, [][]byte{[]byte("tail"), []byte("first"), []byte("second")}, c.Fields)
	assert.Equal(t, [][]byte{[]byte("tail")}, c.Keys())
	assert.Equal(t, [][]byte{[]byte("first"), []byte("second")}, c.Values())

	_, ok := c.Field(3)
	assert.False(t, ok)
}

func TestDecodeContextCorrupt(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]byte)
	}{
		{
			name:   "field past end",
			mutate: func(b []byte) { binary.LittleEndian.PutUint32(b[0x44:], 0x1000) },
		},
		{
			name:   "tail before descriptors",
			mutate: func(b []byte) { binary.LittleEndian.PutUint32(b[0x38:], 0x10) },
		},
		{
			name:   "tail misaligned",
			mutate: func(b []byte) { binary.LittleEndian.PutUint32(b[0x38:], 0x4C) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := txContext(types.OpInsertRow, 0, []byte("tail"), []byte("a"), []byte("b"))
			tt.mutate(raw)
			_, err := DecodeContext(raw)
			assert.ErrorIs(t, err, types.ErrCorruptLogEntry)
		})
	}
}

func TestDecodeRedoRecords(t *testing.T) {
	first := concat(
		txContext(types.OpDeleteRow, types.RecMarkStart, []byte("k")),
		txContext(types.OpReparentTable, types.RecMarkContinue, []byte("k")),
	)
	second := txContext(types.OpInsertRow, types.RecMarkEnd, []byte("k"))

	page := EncodeEntry(5, 0x1234, first, second)
	entry, err := DecodeEntry(page)
	require.NoError(t, err)

	assert.Equal(t, uint32(5), entry.Header.ID)
	assert.Equal(t, uint64(0x1234), entry.LSN())
	require.Len(t, entry.Records, 2)
	require.Len(t, entry.Records[0].Contexts, 2)
	require.Len(t, entry.Records[1].Contexts, 1)
	assert.Equal(t, types.OpReparentTable, entry.Records[0].Contexts[1].Opcode())
	assert.Equal(t, uint64(0x1234), entry.Records[1].Contexts[0].LSN)
	assert.Equal(t, uint32(5), entry.Records[1].Contexts[0].EntryID)
}

func TestDecodeEntryCorrupt(t *testing.T) {
	page := EncodeEntry(1, 1, txContext(types.OpInsertRow, 0, []byte("k")))
	binary.LittleEndian.PutUint32(page[types.LogPayloadOffset:], 0x2000)
	_, err := DecodeEntry(page)
	assert.ErrorIs(t, err, types.ErrCorruptLogEntry)

	page = EncodeEntry(1, 1)
	binary.LittleEndian.PutUint32(page[types.LogEntryHeaderSize+0x20:], 0x2000)
	_, err = DecodeEntry(page)
	assert.ErrorIs(t, err, types.ErrCorruptLogEntry)

	_, err = DecodeEntry(make([]byte, types.LogPageSize))
	assert.ErrorIs(t, err, types.ErrBadSignature)
}

func TestDecodeControl(t *testing.T) {
	control, err := DecodeControl(controlArea(0x100, 0x180)[:types.LogPageSize])
	require.NoError(t, err)
	assert.Equal(t, uint64(3), control.Info.SequenceNumber)
	assert.Equal(t, uint64(0x100), control.Info.StartCluster)
	assert.Equal(t, uint64(0x180), control.Info.EndCluster)
	assert.Equal(t, uint64(0x99), control.Info.NextLSN)
	assert.Equal(t, byte(0xAB), control.UUID()[0])
}

func TestScanOverwrittenLog(t *testing.T) {
	data := concat(
		controlArea(0, 0),
		EncodeEntry(1, 10, txContext(types.OpInsertRow, types.RecMarkStart, []byte("a"))),
		EncodeEntry(2, 11, txContext(types.OpUpdateRow, types.RecMarkEnd, []byte("b"))),
	)

	l, err := Open(data, nil)
	require.NoError(t, err)
	assert.True(t, l.Overwritten())
	require.NotNil(t, l.ControlDup())

	var lsns []uint64
	for c, err := range l.Contexts() {
		require.NoError(t, err)
		lsns = append(lsns, c.LSN)
	}
	assert.Equal(t, []uint64{10, 11}, lsns)

	// restartable
	count := 0
	for _, err := range l.Entries() {
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestScanSkipsPageWhenNotOverwritten(t *testing.T) {
	data := concat(
		controlArea(0, 0),
		make([]byte, types.LogPageSize),
		EncodeEntry(1, 10, txContext(types.OpInsertRow, 0, []byte("a"))),
		make([]byte, types.LogPageSize),
		EncodeEntry(2, 11, txContext(types.OpInsertRow, 0, []byte("b"))),
	)

	l, err := Open(data, nil)
	require.NoError(t, err)
	assert.False(t, l.Overwritten())

	var ids []uint32
	for entry, err := range l.Entries() {
		require.NoError(t, err)
		ids = append(ids, entry.Header.ID)
	}
	assert.Equal(t, []uint32{1}, ids)
}

func TestScanOverwrittenBadPage(t *testing.T) {
	data := concat(
		controlArea(0, 0),
		EncodeEntry(1, 10, txContext(types.OpInsertRow, 0, []byte("a"))),
		make([]byte, types.LogPageSize),
	)

	l, err := Open(data, nil)
	require.NoError(t, err)

	var scanErr error
	entries := 0
	for entry, err := range l.Entries() {
		if err != nil {
			scanErr = err
			break
		}
		require.NotNil(t, entry)
		entries++
	}
	assert.Equal(t, 1, entries)
	assert.ErrorIs(t, scanErr, types.ErrCorruptLogEntry)
}

func TestOpenRejectsShortLog(t *testing.T) {
	_, err := Open(make([]byte, types.LogPageSize), nil)
	assert.ErrorIs(t, err, types.ErrCorruptLogEntry)

	_, err = Open(make([]byte, 3*types.LogPageSize), nil)
	assert.ErrorIs(t, err, types.ErrBadSignature)
}

func TestOpenFallsBackToDuplicateControl(t *testing.T) {
	data := concat(
		make([]byte, types.LogPageSize),
		controlArea(0, 0)[types.LogPageSize:],
		EncodeEntry(1, 10, txContext(types.OpInsertRow, 0, []byte("a"))),
	)

	l, err := Open(data, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x99), l.Control().Info.NextLSN)
	assert.Same(t, l.Control(), l.ControlDup())
	assert.True(t, l.Overwritten())
}

func infoRow(key uint32, control, dup uint64) pages.RowSpec {
	k := make([]byte, 4)
	binary.LittleEndian.PutUint32(k, key)
	v := make([]byte, types.LogfileInfoRowSize)
	binary.LittleEndian.PutUint64(v[types.LogfileInfoControlOffset:], control)
	binary.LittleEndian.PutUint64(v[types.LogfileInfoControlDupOffset:], dup)
	return pages.RowSpec{Key: k, Value: v}
}

func TestReadLocationAndAssemble(t *testing.T) {
	vol := pages.NewMemoryVolume(0x1000)
	translator := pages.OffsetTranslator{Delta: 0x10}

	root := &pages.TableBuilder{
		Type: types.TableFlagInternal,
		Rows: []pages.RowSpec{
			{Key: make([]byte, 4), Value: pages.EncodeChildReference(types.ChildReference{LCNs: types.LCNTuple{0x11}})},
		},
	}
	vol.WritePage(types.LCNTuple{0x20}, (&pages.PageBuilder{Table: root}).Build())
	leaf := &pages.TableBuilder{Rows: []pages.RowSpec{infoRow(0, 0, 0), infoRow(1, 0x40, 0x41)}}
	vol.WritePage(types.LCNTuple{0x21}, (&pages.PageBuilder{Table: leaf}).Build())

	loc, err := ReadLocation(vol, translator, types.LCNTuple{0x20}, nil)
	require.NoError(t, err)
	assert.Equal(t, Location{Control: 0x40, ControlDup: 0x41}, loc)

	control := controlArea(0x50, 0x52)
	vol.WriteClusters(0x40, control)
	vol.WriteClusters(0x50, EncodeEntry(1, 10, txContext(types.OpInsertRow, 0, []byte("a"))))
	vol.WriteClusters(0x51, make([]byte, types.LogPageSize))

	data, decoded, err := Assemble(vol, loc, nil)
	require.NoError(t, err)
	assert.Len(t, data, 4*types.LogPageSize)
	assert.Equal(t, uint64(0x50), decoded.Info.StartCluster)

	l, err := Open(data, nil)
	require.NoError(t, err)
	assert.True(t, l.Overwritten())
}

func TestReadLocationMissingRow(t *testing.T) {
	vol := pages.NewMemoryVolume(0x1000)
	leaf := &pages.TableBuilder{Rows: []pages.RowSpec{infoRow(2, 1, 2)}}
	vol.WritePage(types.LCNTuple{0x21}, (&pages.PageBuilder{Table: leaf}).Build())

	_, err := ReadLocation(vol, pages.OffsetTranslator{}, types.LCNTuple{0x21}, nil)
	assert.ErrorIs(t, err, types.ErrKeyNotFound)
}
