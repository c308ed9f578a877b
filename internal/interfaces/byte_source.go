// File: internal/interfaces/byte_source.go
package interfaces

import (
	"io"

	"github.com/deploymenttheory/go-refs/internal/types"
)

// ByteSource provides random access to the bytes of a volume
type ByteSource interface {
	io.ReaderAt

	// Size returns the number of addressable bytes
	Size() int64
}

// ClusterReader provides cluster-granular access to a volume
type ClusterReader interface {
	// ClusterSize returns the size of a single cluster in bytes
	ClusterSize() uint32

	// ReadClusters reads count consecutive physical clusters starting at lcn
	ReadClusters(lcn uint64, count uint32) ([]byte, error)

	// ReadTuple reads one cluster per non-zero entry of a physical LCNTuple and concatenates them in order
	ReadTuple(tuple types.LCNTuple) ([]byte, error)
}
