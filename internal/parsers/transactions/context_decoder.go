package transactions

import (
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/parsers/logfile"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// Outcome classifies what the recognizer could make of a group
type Outcome int

const (
	// OutcomeDecoded means the fields or the signature were understood
	OutcomeDecoded Outcome = iota
	// OutcomeUnimplemented means the opcode is known but this field layout has no decoding
	OutcomeUnimplemented
	// OutcomeUnrecognized means no decoder or signature applies
	OutcomeUnrecognized
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDecoded:
		return "decoded"
	case OutcomeUnimplemented:
		return "unimplemented"
	}
	return "unrecognized"
}

// maxKeyFields is the number of key decoders: target object, name, attribute
const maxKeyFields = 3

// Fields holds the decoded fields of a single context. Absent fields are nil.
type Fields struct {
	Target     *TargetObject     `json:"target,omitempty" yaml:"target,omitempty"`
	Name       *NameKey          `json:"name,omitempty" yaml:"name,omitempty"`
	Attribute  []byte            `json:"attribute,omitempty" yaml:"attribute,omitempty"`
	Timestamps *types.Timestamps `json:"timestamps,omitempty" yaml:"timestamps,omitempty"`
	FileIndex  *FileIndex        `json:"file_index,omitempty" yaml:"file_index,omitempty"`
	LCN        *uint32           `json:"lcn,omitempty" yaml:"lcn,omitempty"`
}

// DecodeContext decodes the fields of a single context by opcode. Layouts the decoders do not cover are
// returned as unimplemented or unrecognized with a reason; malformed fields are unrecognized.
func DecodeContext(c *logfile.Context) (*Fields, Outcome, error) {
	kc := int(c.Header.KeyCount)
	vc := int(c.Header.ValueCount)
	if kc > maxKeyFields {
		return nil, OutcomeUnrecognized, fmt.Errorf("%d key fields", kc)
	}

	fields := &Fields{}
	var err error

	switch op := c.Opcode(); op {
	case types.OpOpenTable, types.OpUpdateRow:
		if kc == 0 {
			return nil, OutcomeUnimplemented, fmt.Errorf("%s without keys", op)
		}
		err = decodeKeys(c, kc, fields)

	case types.OpInsertRow:
		if kc > 0 {
			err = decodeKeys(c, kc, fields)
		}

	case types.OpUpdateDataWithRoot:
		if kc > 0 {
			if err = decodeKeys(c, kc, fields); err != nil {
				break
			}
		}
		switch {
		case vc == 1:
			err = decodeTimestampsAt(c, kc, fields)
		case vc == 2 && kc > 0:
			err = decodeFileIndexAt(c, kc, fields)
		case vc == 2:
		case kc == 0:
			return nil, OutcomeUnimplemented, fmt.Errorf("%s with %d values and no keys", op, vc)
		}

	case types.OpDeleteRow, types.OpReparentTable, types.OpSetIntegrity, types.OpSetParentID,
		types.OpDeleteTable, types.OpValueAsKey:

	case types.OpAllocate, types.OpFree:
		return nil, OutcomeUnimplemented, fmt.Errorf("%s is not decoded", op)

	case types.OpSetRangeState:
		if kc == 0 || vc != 1 {
			return nil, OutcomeUnimplemented, fmt.Errorf("%s with %d keys and %d values", op, kc, vc)
		}
		err = decodeKeys(c, kc, fields)

	case types.OpSetRangeState9, types.OpDuplicateExtents, types.OpModifyStreamExtent,
		types.OpStripMetadataStreamExtent, types.OpAddSchema, types.OpCopyKeyHelper12,
		types.OpAddContainer, types.OpMoveContainer, types.OpCopyKeyHelper15,
		types.OpCacheInvalidation, types.OpGenerateChecksum, types.OpContainerCompression,
		types.OpDeleteCompressionUnitOffsets, types.OpAddCompressUnitOffsets, types.OpGhostExtents,
		types.OpCompactionUnreserve:
		return nil, OutcomeUnrecognized, fmt.Errorf("no decoder for %s", op)

	default:
		return nil, OutcomeUnrecognized, fmt.Errorf("unknown opcode %#x", uint32(op))
	}

	if err != nil {
		return nil, OutcomeUnrecognized, err
	}
	return fields, OutcomeDecoded, nil
}

func decodeKeys(c *logfile.Context, kc int, fields *Fields) error {
	for i := 0; i < kc; i++ {
		b, ok := c.Field(i)
		if !ok {
			return fmt.Errorf("key field %d missing", i)
		}

		switch i {
		case 0:
			target, err := DecodeTargetObject(b)
			if err != nil {
				return err
			}
			fields.Target = &target
		case 1:
			name, err := DecodeNameKey(b)
			if err != nil {
				return err
			}
			fields.Name = &name
		case 2:
			fields.Attribute = b
		}
	}
	return nil
}

func decodeTimestampsAt(c *logfile.Context, i int, fields *Fields) error {
	b, ok := c.Field(i)
	if !ok {
		return fmt.Errorf("value field %d missing", i)
	}
	ts, err := DecodeTimestamps(b)
	if err != nil {
		return err
	}
	fields.Timestamps = &ts
	return nil
}

func decodeFileIndexAt(c *logfile.Context, i int, fields *Fields) error {
	b, ok := c.Field(i)
	if !ok {
		return fmt.Errorf("value field %d missing", i)
	}
	index, err := DecodeFileIndex(b)
	if err != nil {
		return err
	}
	fields.FileIndex = &index

	b, ok = c.Field(i + 1)
	if !ok {
		return fmt.Errorf("value field %d missing", i+1)
	}
	lcn, err := DecodeLCN(b)
	if err != nil {
		return err
	}
	fields.LCN = &lcn
	return nil
}
