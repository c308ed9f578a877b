package transactions

import "github.com/deploymenttheory/go-refs/internal/types"

// OperationKind names a recognized file system event
type OperationKind string

const (
	KindFileCreate     OperationKind = "file-create"
	KindFileDelete     OperationKind = "file-delete"
	KindFileRename     OperationKind = "file-rename"
	KindFileMove       OperationKind = "file-move"
	KindFileAllocate   OperationKind = "file-allocate"
	KindFileFree       OperationKind = "file-free"
	KindDirCreate      OperationKind = "dir-create"
	KindDirDelete      OperationKind = "dir-delete"
	KindMetadataUpdate OperationKind = "meta-update"
)

// Operation is a recognized event. Fields the matched contexts do not carry are left empty.
type Operation struct {
	Kind      OperationKind `json:"kind" yaml:"kind"`
	Signature string        `json:"signature" yaml:"signature"`
	LSN       uint64        `json:"lsn" yaml:"lsn"`
	Members   int           `json:"members" yaml:"members"`

	ParentID         *uint64           `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Filename         string            `json:"filename,omitempty" yaml:"filename,omitempty"`
	PreviousParentID *uint64           `json:"previous_parent_id,omitempty" yaml:"previous_parent_id,omitempty"`
	PreviousFilename string            `json:"previous_filename,omitempty" yaml:"previous_filename,omitempty"`
	Timestamps       *types.Timestamps `json:"timestamps,omitempty" yaml:"timestamps,omitempty"`
	LCN              *uint32           `json:"lcn,omitempty" yaml:"lcn,omitempty"`
}
