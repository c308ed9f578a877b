package services

import (
	"fmt"
	"io"
	"sync"

	"github.com/deploymenttheory/go-refs/internal/interfaces"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// defaultCacheSize bounds the bytes held by the single-cluster cache
const defaultCacheSize = 16 * 1024 * 1024

// VolumeReader provides cluster-granular access to a byte source. Single-cluster reads, which is how
// metadata pages are read, go through a bounded cache.
type VolumeReader struct {
	source      interfaces.ByteSource
	clusterSize uint32

	mu               sync.RWMutex
	cache            map[uint64][]byte
	maxCacheSize     int
	currentCacheSize int
}

// NewVolumeReader wraps source with the given cluster size
func NewVolumeReader(source interfaces.ByteSource, clusterSize uint32) (*VolumeReader, error) {
	if source == nil {
		return nil, fmt.Errorf("byte source cannot be nil")
	}
	if clusterSize == 0 {
		return nil, fmt.Errorf("invalid cluster size: 0")
	}
	return &VolumeReader{
		source:       source,
		clusterSize:  clusterSize,
		cache:        make(map[uint64][]byte),
		maxCacheSize: defaultCacheSize,
	}, nil
}

// ClusterSize returns the cluster size in bytes
func (r *VolumeReader) ClusterSize() uint32 {
	return r.clusterSize
}

// ReadClusters reads count consecutive physical clusters starting at lcn
func (r *VolumeReader) ReadClusters(lcn uint64, count uint32) ([]byte, error) {
	if count == 0 {
		return []byte{}, nil
	}
	if count == 1 {
		return r.readCluster(lcn)
	}
	return r.readRange(lcn, count)
}

// ReadTuple reads one cluster per non-zero entry of a physical tuple
func (r *VolumeReader) ReadTuple(tuple types.LCNTuple) ([]byte, error) {
	out := make([]byte, 0, tuple.Count()*int(r.clusterSize))
	for _, lcn := range tuple {
		if lcn == 0 {
			continue
		}
		cluster, err := r.readCluster(lcn)
		if err != nil {
			return nil, err
		}
		out = append(out, cluster...)
	}
	return out, nil
}

func (r *VolumeReader) readCluster(lcn uint64) ([]byte, error) {
	r.mu.RLock()
	if cached, ok := r.cache[lcn]; ok {
		r.mu.RUnlock()
		return append([]byte{}, cached...), nil
	}
	r.mu.RUnlock()

	data, err := r.readRange(lcn, 1)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cacheCluster(lcn, data)
	r.mu.Unlock()

	return data, nil
}

func (r *VolumeReader) readRange(lcn uint64, count uint32) ([]byte, error) {
	size := uint64(count) * uint64(r.clusterSize)
	offset := lcn * uint64(r.clusterSize)
	if offset+size > uint64(r.source.Size()) {
		return nil, fmt.Errorf("clusters %#x+%d beyond end of volume (%#x bytes): %w", lcn, count, r.source.Size(), io.ErrUnexpectedEOF)
	}

	data := make([]byte, size)
	n, err := r.source.ReadAt(data, int64(offset))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read clusters %#x+%d: %w", lcn, count, err)
	}
	if uint64(n) < size {
		return nil, fmt.Errorf("incomplete read of clusters %#x+%d: got %d bytes, expected %d: %w", lcn, count, n, size, io.ErrUnexpectedEOF)
	}
	return data, nil
}

// cacheCluster must be called with mu locked
func (r *VolumeReader) cacheCluster(lcn uint64, data []byte) {
	if r.currentCacheSize+len(data) > r.maxCacheSize {
		r.cache = make(map[uint64][]byte)
		r.currentCacheSize = 0
	}
	r.cache[lcn] = append([]byte{}, data...)
	r.currentCacheSize += len(data)
}

// ClearCache drops every cached cluster
func (r *VolumeReader) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = make(map[uint64][]byte)
	r.currentCacheSize = 0
}

// IsCached reports whether a cluster is in the cache
func (r *VolumeReader) IsCached(lcn uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.cache[lcn]
	return ok
}
