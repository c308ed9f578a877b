package objects

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// RecordRow builds the leaf row of an object record
func RecordRow(r *types.ObjectRecord) pages.RowSpec {
	value := make([]byte, types.ObjectRecordFixedSize, types.ObjectRecordFixedSize+len(r.Trailing))
	for i, lcn := range r.LCNs {
		binary.LittleEndian.PutUint64(value[0x20+i*8:], lcn)
	}
	copy(value[0x48:0x50], r.Checksum[:])
	value = append(value, r.Trailing...)
	return pages.RowSpec{Key: r.ID[:], Value: value}
}

// ChildRow builds an internal row routing id to the child page at a virtual tuple
func ChildRow(id types.ObjectID, tuple types.LCNTuple) pages.RowSpec {
	return pages.RowSpec{Key: id[:], Value: pages.EncodeChildReference(types.ChildReference{LCNs: tuple})}
}
