package browse

import (
	"time"

	"github.com/deploymenttheory/go-refs/internal/services"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

// InfoRequest asks for the bootstrap structures of a volume
type InfoRequest struct {
	Source app.VolumeSource
}

// InfoResponse summarizes the volume header, superblock and checkpoint
type InfoResponse struct {
	Path                 string          `json:"path" yaml:"path"`
	Offset               int64           `json:"offset" yaml:"offset"`
	Version              string          `json:"version" yaml:"version"`
	Supported            bool            `json:"supported" yaml:"supported"`
	Sectors              uint64          `json:"sectors" yaml:"sectors"`
	BytesPerSector       uint32          `json:"bytes_per_sector" yaml:"bytes_per_sector"`
	ClusterSize          uint32          `json:"cluster_size" yaml:"cluster_size"`
	GUID                 string          `json:"guid,omitempty" yaml:"guid,omitempty"`
	CheckpointSlot       string          `json:"checkpoint_slot,omitempty" yaml:"checkpoint_slot,omitempty"`
	CheckpointVersion    string          `json:"checkpoint_version,omitempty" yaml:"checkpoint_version,omitempty"`
	ClustersPerContainer uint32          `json:"clusters_per_container,omitempty" yaml:"clusters_per_container,omitempty"`
	Containers           int             `json:"containers,omitempty" yaml:"containers,omitempty"`
	Reserved             []ReservedEntry `json:"reserved,omitempty" yaml:"reserved,omitempty"`
}

// ReservedEntry is one checkpoint catalog entry
type ReservedEntry struct {
	Name        string `json:"name" yaml:"name"`
	LCNs        string `json:"lcns" yaml:"lcns"`
	ZeroPadding bool   `json:"zero_padding" yaml:"zero_padding"`
}

// ListRequest asks for the entries of a directory
type ListRequest struct {
	Source app.VolumeSource
	Path   string

	// All includes index root rows and unrecognized rows such as deleted entries
	All bool
}

// ListResponse holds the entries of one directory
type ListResponse struct {
	Path      string        `json:"path" yaml:"path"`
	Directory string        `json:"directory" yaml:"directory"`
	Entries   []EntryResult `json:"entries" yaml:"entries"`
	Total     int           `json:"total" yaml:"total"`
}

// EntryResult is one directory row
type EntryResult struct {
	Name     string    `json:"name" yaml:"name"`
	Kind     string    `json:"kind" yaml:"kind"`
	Type     string    `json:"type" yaml:"type"`
	Flag     uint16    `json:"flag" yaml:"flag"`
	ObjectID string    `json:"object_id,omitempty" yaml:"object_id,omitempty"`
	Size     uint64    `json:"size" yaml:"size"`
	Created  time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Modified time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
	Accessed time.Time `json:"accessed,omitempty" yaml:"accessed,omitempty"`
	Changed  time.Time `json:"changed,omitempty" yaml:"changed,omitempty"`
	Index    []string  `json:"index,omitempty" yaml:"index,omitempty"`
}

// CatRequest asks for the content of a regular file
type CatRequest struct {
	Source app.VolumeSource
	Path   string
}

// CatResponse holds what was read for a file. Data is hex encoded in structured output.
type CatResponse struct {
	Path    string                `json:"path" yaml:"path"`
	Content *services.FileContent `json:"file" yaml:"file"`
	Data    string                `json:"data_hex" yaml:"data_hex"`
}

// TranslateRequest asks for the physical position of one LCN or of a tuple of up to four LCNs
type TranslateRequest struct {
	Source app.VolumeSource
	LCNs   []uint64
}

// TranslateResponse holds one translation per requested LCN
type TranslateResponse struct {
	ClustersPerContainer uint32            `json:"clusters_per_container" yaml:"clusters_per_container"`
	Results              []TranslateResult `json:"results" yaml:"results"`
}

// TranslateResult is a virtual LCN split into its container key and local offset and mapped to a
// physical LCN
type TranslateResult struct {
	Virtual  uint64 `json:"virtual" yaml:"virtual"`
	Key      uint64 `json:"key" yaml:"key"`
	Local    uint64 `json:"local" yaml:"local"`
	Physical uint64 `json:"physical" yaml:"physical"`
}

// ObjectsRequest asks for every object table record
type ObjectsRequest struct {
	Source app.VolumeSource
}

// ObjectsResponse lists the object table
type ObjectsResponse struct {
	Objects []ObjectResult `json:"objects" yaml:"objects"`
	Total   int            `json:"total" yaml:"total"`
}

// ObjectResult is one object table record
type ObjectResult struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	LCNs     string `json:"lcns" yaml:"lcns"`
	Physical string `json:"physical,omitempty" yaml:"physical,omitempty"`
}
