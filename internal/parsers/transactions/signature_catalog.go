package transactions

import (
	"slices"

	"github.com/deploymenttheory/go-refs/internal/parsers/logfile"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// Signature is a named opcode sequence and the extractor that reads its members
type Signature struct {
	Name    string
	Kind    OperationKind
	Opcodes []types.RedoOpcode
	extract func(op *Operation, members []*logfile.Context)
}

// Catalog is checked in order; the first exact match wins.
var Catalog = []Signature{
	{
		Name:    "FILE_CREATE",
		Kind:    KindFileCreate,
		Opcodes: []types.RedoOpcode{types.OpInsertRow, types.OpUpdateDataWithRoot, types.OpValueAsKey, types.OpOpenTable, types.OpUpdateDataWithRoot, types.OpInsertRow, types.OpOpenTable},
		extract: func(op *Operation, m []*logfile.Context) {
			withName(op, m[0])
			withTimestamps(op, m[4])
		},
	},
	{
		Name:    "FILE_DELETE",
		Kind:    KindFileDelete,
		Opcodes: []types.RedoOpcode{types.OpDeleteTable, types.OpDeleteRow, types.OpDeleteTable, types.OpDeleteRow},
		extract: func(op *Operation, m []*logfile.Context) {
			withName(op, m[1])
		},
	},
	{
		Name:    "FILE_RENAME",
		Kind:    KindFileRename,
		Opcodes: []types.RedoOpcode{types.OpDeleteRow, types.OpReparentTable, types.OpInsertRow},
		extract: func(op *Operation, m []*logfile.Context) {
			withPrevious(op, m[0])
			withName(op, m[2])
		},
	},
	{
		Name:    "FILE_MOVE_1",
		Kind:    KindFileMove,
		Opcodes: []types.RedoOpcode{types.OpDeleteRow, types.OpReparentTable, types.OpInsertRow, types.OpUpdateDataWithRoot, types.OpValueAsKey, types.OpUpdateDataWithRoot, types.OpInsertRow},
		extract: func(op *Operation, m []*logfile.Context) {
			withPrevious(op, m[0])
			withName(op, m[2])
			withTimestamps(op, m[3])
		},
	},
	{
		Name:    "FILE_MOVE_2",
		Kind:    KindFileMove,
		Opcodes: []types.RedoOpcode{types.OpDeleteRow, types.OpReparentTable, types.OpDeleteRow, types.OpUpdateDataWithRoot, types.OpInsertRow},
		extract: func(op *Operation, m []*logfile.Context) {
			withPrevious(op, m[0])
			withName(op, m[4])
			withTimestamps(op, m[3])
		},
	},
	{
		Name:    "FILE_MOVE_3",
		Kind:    KindFileMove,
		Opcodes: []types.RedoOpcode{types.OpDeleteRow, types.OpReparentTable, types.OpDeleteRow, types.OpInsertRow, types.OpUpdateDataWithRoot, types.OpValueAsKey, types.OpUpdateDataWithRoot, types.OpInsertRow, types.OpUpdateDataWithRoot},
		extract: func(op *Operation, m []*logfile.Context) {
			withPrevious(op, m[0])
			withName(op, m[3])
			withTimestamps(op, m[4])
		},
	},
	{
		Name:    "FILE_ALLOCATE",
		Kind:    KindFileAllocate,
		Opcodes: []types.RedoOpcode{types.OpAllocate, types.OpUpdateDataWithRoot},
		extract: func(op *Operation, m []*logfile.Context) {
			withName(op, m[1])
			withTimestamps(op, m[1])
			withLCN(op, m[1])
		},
	},
	{
		Name:    "FILE_FREE",
		Kind:    KindFileFree,
		Opcodes: []types.RedoOpcode{types.OpFree, types.OpUpdateDataWithRoot},
		extract: func(op *Operation, m []*logfile.Context) {
			withName(op, m[1])
			withTimestamps(op, m[1])
			withLCN(op, m[1])
		},
	},
	{
		Name:    "DIR_CREATE",
		Kind:    KindDirCreate,
		Opcodes: []types.RedoOpcode{types.OpOpenTable, types.OpOpenTable, types.OpUpdateDataWithRoot, types.OpValueAsKey, types.OpInsertRow, types.OpInsertRow, types.OpInsertRow, types.OpSetParentID},
		extract: func(op *Operation, m []*logfile.Context) {
			withName(op, m[4])
			withTimestamps(op, m[2])
		},
	},
	{
		Name:    "DIR_DELETE",
		Kind:    KindDirDelete,
		Opcodes: []types.RedoOpcode{types.OpDeleteRow, types.OpDeleteTable, types.OpDeleteRow, types.OpDeleteTable},
		extract: func(op *Operation, m []*logfile.Context) {
			withName(op, m[0])
		},
	},
	{
		Name:    "META_UPDATE",
		Kind:    KindMetadataUpdate,
		Opcodes: []types.RedoOpcode{types.OpUpdateRow, types.OpUpdateRow},
		extract: func(op *Operation, m []*logfile.Context) {
			withName(op, m[0])
		},
	},
}

// Match returns the first catalog entry whose opcodes equal ops
func Match(ops []types.RedoOpcode) (*Signature, bool) {
	for i := range Catalog {
		if slices.Equal(Catalog[i].Opcodes, ops) {
			return &Catalog[i], true
		}
	}
	return nil, false
}

// keyFields decodes the key fields of c up to the first one that does not decode
func keyFields(c *logfile.Context) *Fields {
	fields := &Fields{}
	_ = decodeKeys(c, min(int(c.Header.KeyCount), maxKeyFields), fields)
	return fields
}

func withName(op *Operation, c *logfile.Context) {
	fields := keyFields(c)
	if fields.Target != nil {
		op.ParentID = &fields.Target.ObjectID
	}
	if fields.Name != nil && !fields.Name.CurrentDirectoryIndex {
		op.Filename = fields.Name.Name
	}
}

func withPrevious(op *Operation, c *logfile.Context) {
	fields := keyFields(c)
	if fields.Target != nil {
		op.PreviousParentID = &fields.Target.ObjectID
	}
	if fields.Name != nil && !fields.Name.CurrentDirectoryIndex {
		op.PreviousFilename = fields.Name.Name
	}
}

func withTimestamps(op *Operation, c *logfile.Context) {
	fields := &Fields{}
	if c.Header.ValueCount == 1 && decodeTimestampsAt(c, int(c.Header.KeyCount), fields) == nil {
		op.Timestamps = fields.Timestamps
	}
}

func withLCN(op *Operation, c *logfile.Context) {
	fields := &Fields{}
	if c.Header.ValueCount == 2 && decodeFileIndexAt(c, int(c.Header.KeyCount), fields) == nil {
		op.LCN = fields.LCN
	}
}
