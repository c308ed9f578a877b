package usn

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

// Validate validates a parse request. Reason names are matched case-insensitively and normalized to the
// journal's spelling.
func (r *ParseRequest) Validate() error {
	if r.File != "" {
		if r.Source.Path != "" {
			return app.NewError(app.ErrCodeInvalidInput, "specify either a volume or an extracted journal file", nil)
		}
	} else if err := r.Source.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid volume source", err)
	}

	if r.NamePattern != "" {
		if _, err := filepath.Match(r.NamePattern, ""); err != nil {
			return app.NewError(app.ErrCodeInvalidInput, "invalid name pattern", err)
		}
	}
	if r.Limit < 0 {
		return app.NewError(app.ErrCodeInvalidInput, "limit cannot be negative", nil)
	}

	for i, reason := range r.Reasons {
		name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(reason), "_", " "))
		if _, ok := reasonBit(name); !ok {
			return app.NewError(app.ErrCodeInvalidInput, fmt.Sprintf("unknown reason %q", reason), nil)
		}
		r.Reasons[i] = name
	}
	return nil
}

func reasonBit(name string) (types.USNReason, bool) {
	for _, entry := range types.USNReasonTable {
		if entry.Name == name {
			return entry.Bit, true
		}
	}
	return 0, false
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
