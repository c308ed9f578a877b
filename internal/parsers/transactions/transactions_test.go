package transactions

import (
	"encoding/binary"
	"math/rand"
	"testing"
	"time"

	"github.com/deploymenttheory/go-refs/internal/helpers"
	"github.com/deploymenttheory/go-refs/internal/parsers/logfile"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targetKey(parent, object uint64) []byte {
	b := make([]byte, types.TargetObjectKeySize)
	binary.LittleEndian.PutUint32(b[0x04:], 2)
	binary.LittleEndian.PutUint64(b[0x0C:], parent)
	binary.LittleEndian.PutUint64(b[0x14:], object)
	return b
}

func nameKey(name string) []byte {
	b := make([]byte, types.FileRecordKeyHeaderSize)
	binary.LittleEndian.PutUint32(b[0x0C:], 1)
	return append(b, helpers.EncodeUTF16LE(name)...)
}

func lcnValue(lcn uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, lcn)
	return b
}

func fileIndexValue(seq uint64) []byte {
	b := make([]byte, types.FileIndexKeySize)
	binary.LittleEndian.PutUint64(b[0x08:], seq)
	return b
}

func ctx(op types.RedoOpcode, mark uint32, kc, vc int, fields ...[]byte) *logfile.Context {
	return &logfile.Context{
		Header: types.TransactionContextHeader{
			Opcode:     op,
			KeyCount:   uint32(kc),
			ValueCount: uint32(vc),
			RecMark:    mark,
		},
		Fields: fields,
		LSN:    0x500,
	}
}

func bare(op types.RedoOpcode, mark uint32) *logfile.Context {
	return ctx(op, mark, 0, 0)
}

var sampleTimes = types.Timestamps{
	Created:  time.Date(2016, 10, 15, 10, 26, 14, 0, time.UTC),
	Accessed: time.Date(2016, 10, 15, 10, 26, 15, 0, time.UTC),
	Modified: time.Date(2016, 10, 15, 10, 26, 16, 0, time.UTC),
	Changed:  time.Date(2016, 10, 15, 10, 26, 17, 0, time.UTC),
}

func feedAll(g *Grouper, contexts []*logfile.Context) []*Group {
	var groups []*Group
	for _, c := range contexts {
		groups = append(groups, g.Feed(c)...)
	}
	if pending := g.Flush(); pending != nil {
		groups = append(groups, pending)
	}
	return groups
}

func TestGrouperRules(t *testing.T) {
	tests := []struct {
		name       string
		marks      []uint32
		sizes      []int
		incomplete []bool
	}{
		{name: "singletons", marks: []uint32{0, 0, 0}, sizes: []int{1, 1, 1}, incomplete: []bool{false, false, false}},
		{name: "start continue end", marks: []uint32{1, 4, 4, 2}, sizes: []int{4}, incomplete: []bool{false}},
		{name: "start and end together", marks: []uint32{3, 0}, sizes: []int{1, 1}, incomplete: []bool{false, false}},
		{name: "end without start", marks: []uint32{4, 2}, sizes: []int{2}, incomplete: []bool{false}},
		{name: "zero while accumulating", marks: []uint32{1, 4, 0, 2}, sizes: []int{2, 1, 1}, incomplete: []bool{true, false, false}},
		{name: "pending at end of input", marks: []uint32{1, 4}, sizes: []int{2}, incomplete: []bool{true}},
		{name: "unknown bits continue", marks: []uint32{1, 0x10, 6}, sizes: []int{3}, incomplete: []bool{false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var contexts []*logfile.Context
			for _, mark := range tt.marks {
				contexts = append(contexts, bare(types.OpInsertRow, mark))
			}

			groups := feedAll(NewGrouper(nil), contexts)
			require.Len(t, groups, len(tt.sizes))
			for i, g := range groups {
				assert.Len(t, g.Contexts, tt.sizes[i], "group %d", i)
				assert.Equal(t, tt.incomplete[i], g.Incomplete, "group %d", i)
			}
		})
	}
}

func TestGrouperPreservesConcatenation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	marks := []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8}

	for round := 0; round < 200; round++ {
		n := rng.Intn(40)
		var contexts []*logfile.Context
		for i := 0; i < n; i++ {
			contexts = append(contexts, bare(types.RedoOpcode(i), marks[rng.Intn(len(marks))]))
		}

		var flattened []*logfile.Context
		for _, g := range feedAll(NewGrouper(nil), contexts) {
			require.NotEmpty(t, g.Contexts)
			if g.Contexts[0].RecMark() == 0 {
				assert.Len(t, g.Contexts, 1)
			}
			flattened = append(flattened, g.Contexts...)
		}
		require.Len(t, flattened, len(contexts))
		for i := range contexts {
			assert.Same(t, contexts[i], flattened[i])
		}
	}
}

func TestDecodeContext(t *testing.T) {
	tsValue := types.EncodeTimestamps(sampleTimes)

	tests := []struct {
		name    string
		context *logfile.Context
		outcome Outcome
		check   func(t *testing.T, f *Fields)
	}{
		{
			name:    "insert row with target and name",
			context: ctx(types.OpInsertRow, 0, 2, 1, targetKey(0x600, 0x701), nameKey("a.txt"), []byte{1}),
			outcome: OutcomeDecoded,
			check: func(t *testing.T, f *Fields) {
				assert.Equal(t, uint64(0x701), f.Target.ObjectID)
				assert.Equal(t, uint64(0x600), f.Target.ParentID)
				assert.Equal(t, "a.txt", f.Name.Name)
			},
		},
		{
			name:    "insert row without keys",
			context: ctx(types.OpInsertRow, 0, 0, 0),
			outcome: OutcomeDecoded,
		},
		{
			name:    "current directory index",
			context: ctx(types.OpUpdateRow, 0, 2, 0, targetKey(1, 2), make([]byte, types.CurrentDirectoryIndexKeySize)),
			outcome: OutcomeDecoded,
			check: func(t *testing.T, f *Fields) {
				assert.True(t, f.Name.CurrentDirectoryIndex)
			},
		},
		{
			name:    "update data with root timestamps",
			context: ctx(types.OpUpdateDataWithRoot, 0, 1, 1, targetKey(1, 2), tsValue),
			outcome: OutcomeDecoded,
			check: func(t *testing.T, f *Fields) {
				assert.Equal(t, sampleTimes, *f.Timestamps)
			},
		},
		{
			name:    "update data with root file index and lcn",
			context: ctx(types.OpUpdateDataWithRoot, 0, 1, 2, targetKey(1, 2), fileIndexValue(9), lcnValue(0x4242)),
			outcome: OutcomeDecoded,
			check: func(t *testing.T, f *Fields) {
				assert.Equal(t, uint64(9), f.FileIndex.FileSequenceNumber)
				assert.Equal(t, uint32(0x4242), *f.LCN)
			},
		},
		{
			name:    "update data with root timestamps only",
			context: ctx(types.OpUpdateDataWithRoot, 0, 0, 1, tsValue),
			outcome: OutcomeDecoded,
		},
		{
			name:    "update data with root without keys or known values",
			context: ctx(types.OpUpdateDataWithRoot, 0, 0, 3),
			outcome: OutcomeUnimplemented,
		},
		{
			name:    "open table without keys",
			context: ctx(types.OpOpenTable, 0, 0, 0),
			outcome: OutcomeUnimplemented,
		},
		{name: "allocate", context: ctx(types.OpAllocate, 0, 1, 1, targetKey(1, 2), []byte{}), outcome: OutcomeUnimplemented},
		{name: "free", context: ctx(types.OpFree, 0, 0, 0), outcome: OutcomeUnimplemented},
		{name: "set range state", context: ctx(types.OpSetRangeState, 0, 1, 1, targetKey(1, 2), []byte{}), outcome: OutcomeDecoded},
		{name: "set range state without value", context: ctx(types.OpSetRangeState, 0, 1, 0, targetKey(1, 2)), outcome: OutcomeUnimplemented},
		{name: "delete row", context: ctx(types.OpDeleteRow, 0, 0, 0), outcome: OutcomeDecoded},
		{name: "no decoder", context: ctx(types.OpGhostExtents, 0, 0, 0), outcome: OutcomeUnrecognized},
		{name: "unknown opcode", context: ctx(types.RedoOpcode(0x40), 0, 0, 0), outcome: OutcomeUnrecognized},
		{name: "too many keys", context: ctx(types.OpInsertRow, 0, 4, 0), outcome: OutcomeUnrecognized},
		{name: "missing key field", context: ctx(types.OpInsertRow, 0, 2, 0, targetKey(1, 2)), outcome: OutcomeUnrecognized},
		{name: "short target", context: ctx(types.OpOpenTable, 0, 1, 0, []byte{1, 2}), outcome: OutcomeUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, outcome, err := DecodeContext(tt.context)
			assert.Equal(t, tt.outcome, outcome)
			if tt.outcome != OutcomeDecoded {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, fields)
			if tt.check != nil {
				tt.check(t, fields)
			}
		})
	}
}

func TestRecognizeRename(t *testing.T) {
	group := &Group{Contexts: []*logfile.Context{
		ctx(types.OpDeleteRow, types.RecMarkStart, 2, 0, targetKey(0x600, 0x700), nameKey("old.txt")),
		ctx(types.OpReparentTable, types.RecMarkContinue, 0, 0),
		ctx(types.OpInsertRow, types.RecMarkEnd, 2, 1, targetKey(0x600, 0x700), nameKey("new.txt"), []byte{0}),
	}}

	result := NewRecognizer(nil).Recognize(group)
	assert.Equal(t, OutcomeDecoded, result.Outcome)
	assert.Equal(t, "FILE_RENAME", result.Signature)
	require.NotNil(t, result.Operation)

	op := result.Operation
	assert.Equal(t, KindFileRename, op.Kind)
	assert.Equal(t, "new.txt", op.Filename)
	assert.Equal(t, "old.txt", op.PreviousFilename)
	require.NotNil(t, op.ParentID)
	assert.Equal(t, uint64(0x700), *op.ParentID)
	assert.Equal(t, 3, op.Members)
	assert.Equal(t, uint64(0x500), op.LSN)
	assert.Nil(t, op.Timestamps)
	assert.Nil(t, op.LCN)
}

func TestRecognizeCreateWithTimestamps(t *testing.T) {
	group := &Group{Contexts: []*logfile.Context{
		ctx(types.OpInsertRow, 1, 2, 1, targetKey(0x600, 0x600), nameKey("report.docx"), []byte{0}),
		bare(types.OpUpdateDataWithRoot, 4),
		bare(types.OpValueAsKey, 4),
		bare(types.OpOpenTable, 4),
		ctx(types.OpUpdateDataWithRoot, 4, 1, 1, targetKey(0x600, 0x701), types.EncodeTimestamps(sampleTimes)),
		bare(types.OpInsertRow, 4),
		bare(types.OpOpenTable, 2),
	}}

	result := NewRecognizer(nil).Recognize(group)
	require.NotNil(t, result.Operation)
	assert.Equal(t, KindFileCreate, result.Operation.Kind)
	assert.Equal(t, "report.docx", result.Operation.Filename)
	require.NotNil(t, result.Operation.Timestamps)
	assert.Equal(t, sampleTimes, *result.Operation.Timestamps)
}

func TestRecognizeAllocateLCN(t *testing.T) {
	group := &Group{Contexts: []*logfile.Context{
		bare(types.OpAllocate, 1),
		ctx(types.OpUpdateDataWithRoot, 2, 1, 2, targetKey(0x600, 0x701), fileIndexValue(3), lcnValue(0x880)),
	}}

	result := NewRecognizer(nil).Recognize(group)
	require.NotNil(t, result.Operation)
	assert.Equal(t, KindFileAllocate, result.Operation.Kind)
	require.NotNil(t, result.Operation.LCN)
	assert.Equal(t, uint32(0x880), *result.Operation.LCN)
	assert.Empty(t, result.Operation.Filename)
}

func TestRecognizeUnmatched(t *testing.T) {
	group := &Group{Contexts: []*logfile.Context{bare(types.OpInsertRow, 1), bare(types.OpInsertRow, 2)}}

	result := NewRecognizer(nil).Recognize(group)
	assert.Equal(t, OutcomeUnrecognized, result.Outcome)
	assert.Nil(t, result.Operation)
	assert.Contains(t, result.Reason, "[0x1, 0x1]")
}

func TestCatalogSignaturesAreDistinct(t *testing.T) {
	for i, a := range Catalog {
		for _, b := range Catalog[i+1:] {
			assert.NotEqual(t, a.Opcodes, b.Opcodes, "%s and %s", a.Name, b.Name)
		}
		found, ok := Match(a.Opcodes)
		require.True(t, ok)
		assert.Equal(t, a.Name, found.Name)
	}
}

func TestAnalyzeLogSequence(t *testing.T) {
	contexts := []*logfile.Context{
		ctx(types.OpDeleteRow, types.RecMarkStart, 2, 0, targetKey(0x600, 0x700), nameKey("a")),
		ctx(types.OpReparentTable, types.RecMarkContinue, 0, 0),
		ctx(types.OpInsertRow, types.RecMarkEnd, 2, 0, targetKey(0x600, 0x700), nameKey("b")),
		ctx(types.OpDeleteRow, 0, 0, 0),
	}
	seq := func(yield func(*logfile.Context, error) bool) {
		for _, c := range contexts {
			if !yield(c, nil) {
				return
			}
		}
	}

	var results []*Result
	for result, err := range Analyze(seq, nil) {
		require.NoError(t, err)
		results = append(results, result)
	}
	require.Len(t, results, 2)
	assert.Equal(t, "FILE_RENAME", results[0].Signature)
	assert.Equal(t, OutcomeDecoded, results[1].Outcome)

	var kinds []OperationKind
	for op, err := range Operations(Analyze(seq, nil)) {
		require.NoError(t, err)
		kinds = append(kinds, op.Kind)
	}
	assert.Equal(t, []OperationKind{KindFileRename}, kinds)
}
