package pages

import (
	"fmt"
	"io"

	"github.com/deploymenttheory/go-refs/internal/types"
)

// MemoryVolume is a sparse in-memory cluster store. It satisfies interfaces.ClusterReader and is used to
// assemble synthetic volumes.
type MemoryVolume struct {
	clusterSize uint32
	clusters    map[uint64][]byte
	highest     uint64
}

// NewMemoryVolume creates an empty volume with the given cluster size
func NewMemoryVolume(clusterSize uint32) *MemoryVolume {
	return &MemoryVolume{
		clusterSize: clusterSize,
		clusters:    make(map[uint64][]byte),
	}
}

// ClusterSize returns the cluster size in bytes
func (m *MemoryVolume) ClusterSize() uint32 {
	return m.clusterSize
}

// WriteClusters stores data across consecutive clusters starting at lcn
func (m *MemoryVolume) WriteClusters(lcn uint64, data []byte) {
	size := int(m.clusterSize)
	for i := 0; i*size < len(data); i++ {
		cluster := make([]byte, size)
		copy(cluster, data[i*size:])
		m.store(lcn+uint64(i), cluster)
	}
}

// WritePage stores a page across the clusters of tuple, one cluster per non-zero entry
func (m *MemoryVolume) WritePage(tuple types.LCNTuple, data []byte) {
	size := int(m.clusterSize)
	chunk := 0
	for _, lcn := range tuple {
		if lcn == 0 {
			continue
		}
		cluster := make([]byte, size)
		if chunk*size < len(data) {
			copy(cluster, data[chunk*size:])
		}
		m.store(lcn, cluster)
		chunk++
	}
}

func (m *MemoryVolume) store(lcn uint64, cluster []byte) {
	m.clusters[lcn] = cluster
	if lcn > m.highest {
		m.highest = lcn
	}
}

// ReadClusters reads count consecutive clusters. Clusters never written read as zeros.
func (m *MemoryVolume) ReadClusters(lcn uint64, count uint32) ([]byte, error) {
	if lcn+uint64(count) > m.highest+1 {
		return nil, fmt.Errorf("clusters %#x+%d beyond volume end %#x: %w", lcn, count, m.highest+1, io.ErrUnexpectedEOF)
	}

	out := make([]byte, 0, int(count)*int(m.clusterSize))
	for i := uint64(0); i < uint64(count); i++ {
		if cluster, ok := m.clusters[lcn+i]; ok {
			out = append(out, cluster...)
		} else {
			out = append(out, make([]byte, m.clusterSize)...)
		}
	}
	return out, nil
}

// ReadTuple reads one cluster per non-zero entry of tuple
func (m *MemoryVolume) ReadTuple(tuple types.LCNTuple) ([]byte, error) {
	var out []byte
	for _, lcn := range tuple {
		if lcn == 0 {
			continue
		}
		cluster, err := m.ReadClusters(lcn, 1)
		if err != nil {
			return nil, err
		}
		out = append(out, cluster...)
	}
	return out, nil
}

// Bytes flattens the volume into a contiguous image
func (m *MemoryVolume) Bytes() []byte {
	out := make([]byte, (m.highest+1)*uint64(m.clusterSize))
	for lcn, cluster := range m.clusters {
		copy(out[lcn*uint64(m.clusterSize):], cluster)
	}
	return out
}

// OffsetTranslator maps virtual LCNs by adding a fixed delta. It pairs with MemoryVolume when a synthetic
// volume needs a translation layer without a container table.
type OffsetTranslator struct {
	Delta uint64
}

// Translate returns lcn + Delta
func (o OffsetTranslator) Translate(lcn uint64) (uint64, error) {
	return lcn + o.Delta, nil
}

// TranslateTuple translates each non-zero entry
func (o OffsetTranslator) TranslateTuple(tuple types.LCNTuple) (types.LCNTuple, error) {
	var out types.LCNTuple
	for i, lcn := range tuple {
		if lcn != 0 {
			out[i] = lcn + o.Delta
		}
	}
	return out, nil
}
