package containers

import (
	"encoding/binary"

	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// KeyBytes encodes a container key as stored in row keys
func KeyBytes(key uint64) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[0:8], key)
	return b
}

// MappingRow builds the leaf row of a mapping
func MappingRow(m Mapping) pages.RowSpec {
	value := make([]byte, leafValueSize)
	binary.LittleEndian.PutUint64(value[0:8], m.Key)
	binary.LittleEndian.PutUint64(value[leafClusterBaseOffset:], m.ClusterBase)
	binary.LittleEndian.PutUint32(value[leafCPCOffset:], m.CPC)
	return pages.RowSpec{Key: KeyBytes(m.Key), Value: value}
}

// ChildRow builds an internal row routing key to the child page at a physical tuple
func ChildRow(key uint64, tuple types.LCNTuple) pages.RowSpec {
	return pages.RowSpec{
		Key:   KeyBytes(key),
		Value: pages.EncodeChildReference(types.ChildReference{LCNs: tuple}),
	}
}
