package usn

import (
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

// ParseRequest reads the change journal of a volume, or a journal previously saved with extract when File
// is set
type ParseRequest struct {
	Source app.VolumeSource
	File   string

	// Filters; a record must pass every one that is set
	NamePattern string
	Reasons     []string
	Parent      uint64

	// Limit stops after this many records; zero reports everything
	Limit int
}

// ParseResponse holds the matching records
type ParseResponse struct {
	Source    string             `json:"source" yaml:"source"`
	Records   []*types.USNRecord `json:"records" yaml:"records"`
	Scanned   int                `json:"scanned" yaml:"scanned"`
	Total     int                `json:"total" yaml:"total"`
	Truncated bool               `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// ExtractRequest saves the change journal of a volume to Output
type ExtractRequest struct {
	Source app.VolumeSource
	Output string
	Force  bool
}

// ExtractResponse describes the saved journal
type ExtractResponse struct {
	Output  string `json:"output" yaml:"output"`
	Bytes   int    `json:"bytes" yaml:"bytes"`
	Records int    `json:"records" yaml:"records"`
}
