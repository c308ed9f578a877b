package redo

import (
	"fmt"

	"github.com/deploymenttheory/go-refs/pkg/app"
)

// Validate validates an analyze request. Exactly one of Source and File names the input.
func (r *AnalyzeRequest) Validate() error {
	if r.Mode == "" {
		r.Mode = ModeOperations
	}
	switch r.Mode {
	case ModeOperations, ModeGroups, ModeContexts, ModeControl:
	default:
		return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("unknown mode %q", r.Mode), nil)
	}
	if r.Limit < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "limit cannot be negative", nil)
	}

	if r.File != "" {
		if r.Source.Path != "" {
			return app.NewError(app.ErrCodeInvalidInput, "specify either a volume or an extracted log file", nil)
		}
		return nil
	}
	if err := r.Source.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid volume source", err)
	}
	return nil
}

// Validate validates an extract request
func (r *ExtractRequest) Validate() error {
	if err := r.Source.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid volume source", err)
	}
	if r.Output == "" {
		return app.NewError(app.ErrCodeInvalidInput, "output path is required", nil)
	}
	return nil
}
