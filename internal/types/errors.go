package types

import (
	"errors"
	"fmt"
)

// Decoding errors. Callers match them with errors.Is; decoders wrap them with context.
var (
	// ErrBadSignature is returned when a page or record does not carry the expected signature
	ErrBadSignature = errors.New("bad signature")

	// ErrTruncatedPage is returned when a declared offset or length falls outside the page buffer
	ErrTruncatedPage = errors.New("truncated page")

	// ErrCPCMismatch is returned when container table leaves disagree on clusters per container
	ErrCPCMismatch = errors.New("container table leaves disagree on clusters per container")

	// ErrCPCNotFound is returned when no container table leaf carries a clusters-per-container value
	ErrCPCNotFound = errors.New("clusters per container not found")

	// ErrKeyNotFound is returned when a container key has no row
	ErrKeyNotFound = errors.New("container key not found")

	// ErrObjectNotFound is returned when an object identifier has no row in the object table
	ErrObjectNotFound = errors.New("object not found")

	// ErrEntryNotFound is returned when a directory has no live entry with the requested name
	ErrEntryNotFound = errors.New("directory entry not found")

	// ErrUnsupportedVersion is returned for volume versions that are not decoded
	ErrUnsupportedVersion = errors.New("unsupported volume version")

	// ErrCorruptLogEntry is returned for malformed log pages and transaction contexts
	ErrCorruptLogEntry = errors.New("corrupt log entry")

	// ErrTruncatedRecord is returned when a change journal record is shorter than its fixed part
	ErrTruncatedRecord = errors.New("truncated change journal record")

	// ErrPermissionDenied is returned when a device cannot be opened for lack of privileges
	ErrPermissionDenied = errors.New("permission denied")

	// ErrEmptySource is returned when an image, device or log file holds no bytes
	ErrEmptySource = errors.New("source is empty")
)

// MissingReservedEntryError is returned when the checkpoint lacks a required reserved table.
type MissingReservedEntryError struct {
	Name string
}

func (e *MissingReservedEntryError) Error() string {
	return fmt.Sprintf("checkpoint is missing reserved entry %q", e.Name)
}
