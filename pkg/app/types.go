package app

import (
	"errors"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/device"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// VolumeSource selects the volume a command works on: an image file or raw device, optionally narrowed to
// a partition or a byte offset
type VolumeSource struct {
	Path           string
	PartitionIndex int
	Offset         int64
	AutoDetect     bool
}

// Validate ensures the volume source is usable
func (vs *VolumeSource) Validate() error {
	if vs.Path == "" {
		return errors.New("image or device path is required")
	}
	if vs.PartitionIndex < 0 {
		return fmt.Errorf("invalid partition index %d", vs.PartitionIndex)
	}
	if vs.Offset < 0 {
		return fmt.Errorf("invalid volume offset %d", vs.Offset)
	}
	if vs.PartitionIndex != 0 && vs.Offset != 0 {
		return errors.New("cannot specify both partition and offset")
	}
	return nil
}

// DeviceConfig converts the source into the device layer's settings
func (vs *VolumeSource) DeviceConfig() *device.Config {
	config := device.DefaultConfig()
	config.PartitionIndex = vs.PartitionIndex
	config.VolumeOffset = vs.Offset
	config.AutoDetectPartition = vs.AutoDetect
	return config
}

// String returns a string representation of the volume source
func (vs *VolumeSource) String() string {
	switch {
	case vs.Offset != 0:
		return fmt.Sprintf("%s @ %#x", vs.Path, vs.Offset)
	case vs.PartitionIndex != 0:
		return fmt.Sprintf("%s (partition %d)", vs.Path, vs.PartitionIndex)
	}
	return vs.Path
}

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeVolumeAccess  = "VOLUME_ACCESS"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodePermission    = "PERMISSION_DENIED"
	ErrCodeUnsupported   = "UNSUPPORTED"
	ErrCodeCorrupt       = "CORRUPT"
	ErrCodeCanceled      = "CANCELED"
	ErrCodeOutputFailure = "OUTPUT_FAILURE"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Classify wraps a decoding error with the code matching its sentinel
func Classify(message string, err error) *CommonError {
	var missing *types.MissingReservedEntryError
	code := ErrCodeVolumeAccess
	switch {
	case errors.Is(err, types.ErrPermissionDenied):
		code = ErrCodePermission
	case errors.Is(err, types.ErrEmptySource):
		code = ErrCodeInvalidInput
	case errors.Is(err, types.ErrUnsupportedVersion):
		code = ErrCodeUnsupported
	case errors.Is(err, types.ErrEntryNotFound), errors.Is(err, types.ErrObjectNotFound), errors.Is(err, types.ErrKeyNotFound):
		code = ErrCodeNotFound
	case errors.Is(err, types.ErrBadSignature), errors.Is(err, types.ErrTruncatedPage), errors.Is(err, types.ErrCorruptLogEntry),
		errors.Is(err, types.ErrTruncatedRecord), errors.Is(err, types.ErrCPCMismatch), errors.Is(err, types.ErrCPCNotFound),
		errors.As(err, &missing):
		code = ErrCodeCorrupt
	}
	return NewError(code, message, err)
}
