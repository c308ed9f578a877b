package redo

import (
	"github.com/deploymenttheory/go-refs/internal/parsers/transactions"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

// Analysis modes
const (
	ModeOperations = "operations"
	ModeGroups     = "groups"
	ModeContexts   = "contexts"
	ModeControl    = "control"
)

// AnalyzeRequest reads the redo log of a volume, or a log previously saved with extract when File is set
type AnalyzeRequest struct {
	Source app.VolumeSource
	File   string
	Mode   string

	// Limit stops after this many reported items; zero reports everything
	Limit int
}

// AnalyzeResponse holds what the requested mode produced. Only the slice matching the mode is filled.
type AnalyzeResponse struct {
	Source      string                    `json:"source" yaml:"source"`
	Mode        string                    `json:"mode" yaml:"mode"`
	Overwritten bool                      `json:"overwritten" yaml:"overwritten"`
	Control     ControlResult             `json:"control" yaml:"control"`
	Operations  []*transactions.Operation `json:"operations,omitempty" yaml:"operations,omitempty"`
	Groups      []GroupResult             `json:"groups,omitempty" yaml:"groups,omitempty"`
	Contexts    []ContextResult           `json:"contexts,omitempty" yaml:"contexts,omitempty"`
	Summary     *Summary                  `json:"summary,omitempty" yaml:"summary,omitempty"`
	Total       int                       `json:"total" yaml:"total"`
	Truncated   bool                      `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// ControlResult is the control information of the primary control page
type ControlResult struct {
	SequenceNumber uint64 `json:"sequence_number" yaml:"sequence_number"`
	StartCluster   uint64 `json:"start_cluster" yaml:"start_cluster"`
	EndCluster     uint64 `json:"end_cluster" yaml:"end_cluster"`
	NextLSN        uint64 `json:"next_lsn" yaml:"next_lsn"`
	NextLSNDup     uint64 `json:"next_lsn_dup" yaml:"next_lsn_dup"`
	UUID           string `json:"uuid" yaml:"uuid"`
	DupDecoded     bool   `json:"dup_decoded" yaml:"dup_decoded"`
}

// GroupResult is one recognized, partially decoded or unrecognized group
type GroupResult struct {
	LSN        uint64                  `json:"lsn" yaml:"lsn"`
	Opcodes    string                  `json:"opcodes" yaml:"opcodes"`
	Members    int                     `json:"members" yaml:"members"`
	Incomplete bool                    `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
	Outcome    string                  `json:"outcome" yaml:"outcome"`
	Signature  string                  `json:"signature,omitempty" yaml:"signature,omitempty"`
	Operation  *transactions.Operation `json:"operation,omitempty" yaml:"operation,omitempty"`
	Fields     *transactions.Fields    `json:"fields,omitempty" yaml:"fields,omitempty"`
	Reason     string                  `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Summary counts groups by outcome
type Summary struct {
	Groups        int `json:"groups" yaml:"groups"`
	Decoded       int `json:"decoded" yaml:"decoded"`
	Unimplemented int `json:"unimplemented" yaml:"unimplemented"`
	Unrecognized  int `json:"unrecognized" yaml:"unrecognized"`
	Incomplete    int `json:"incomplete" yaml:"incomplete"`
}

// ContextResult is one raw transaction context with its fields hex encoded
type ContextResult struct {
	LSN        uint64   `json:"lsn" yaml:"lsn"`
	EntryID    uint32   `json:"entry_id" yaml:"entry_id"`
	Opcode     uint32   `json:"opcode" yaml:"opcode"`
	OpcodeName string   `json:"opcode_name" yaml:"opcode_name"`
	RecMark    uint32   `json:"rec_mark" yaml:"rec_mark"`
	KeyCount   uint32   `json:"key_count" yaml:"key_count"`
	ValueCount uint32   `json:"value_count" yaml:"value_count"`
	Fields     []string `json:"fields" yaml:"fields"`
}

// ExtractRequest saves the raw log byte range of a volume to Output
type ExtractRequest struct {
	Source app.VolumeSource
	Output string
	Force  bool
}

// ExtractResponse describes the saved log
type ExtractResponse struct {
	Output       string `json:"output" yaml:"output"`
	Bytes        int    `json:"bytes" yaml:"bytes"`
	Control      uint64 `json:"control_lcn" yaml:"control_lcn"`
	ControlDup   uint64 `json:"control_dup_lcn" yaml:"control_dup_lcn"`
	StartCluster uint64 `json:"start_cluster" yaml:"start_cluster"`
	EndCluster   uint64 `json:"end_cluster" yaml:"end_cluster"`
}
