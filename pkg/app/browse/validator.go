package browse

import (
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

func validateSource(src *app.VolumeSource) error {
	if err := src.Validate(); err != nil {
		return app.NewError(app.ErrCodeInvalidInput, "invalid volume source", err)
	}
	return nil
}

// Validate validates an info request
func (r *InfoRequest) Validate() error {
	return validateSource(&r.Source)
}

// Validate validates a list request
func (r *ListRequest) Validate() error {
	return validateSource(&r.Source)
}

// Validate validates a cat request
func (r *CatRequest) Validate() error {
	if err := validateSource(&r.Source); err != nil {
		return err
	}
	if r.Path == "" {
		return app.NewError(app.ErrCodeInvalidInput, "file path is required", nil)
	}
	return nil
}

// Validate validates a translate request. One LCN is translated on its own; up to four form a tuple.
func (r *TranslateRequest) Validate() error {
	if err := validateSource(&r.Source); err != nil {
		return err
	}
	if len(r.LCNs) == 0 || len(r.LCNs) > len(types.LCNTuple{}) {
		return app.NewError(app.ErrCodeInvalidInput, "between one and four LCNs are required", nil)
	}
	return nil
}

// Validate validates an objects request
func (r *ObjectsRequest) Validate() error {
	return validateSource(&r.Source)
}
