package app

import (
	"fmt"
	"io"

	"github.com/deploymenttheory/go-refs/internal/device"
	"github.com/deploymenttheory/go-refs/internal/services"
	"github.com/sirupsen/logrus"
)

// OpenedVolume is a bootstrapped volume together with the device it was read from. Device is nil for
// volumes opened from memory.
type OpenedVolume struct {
	*services.Volume
	Device *device.Device
}

// Offset returns the byte offset of the volume within its device
func (v *OpenedVolume) Offset() int64 {
	if v.Device == nil {
		return 0
	}
	return v.Device.Offset()
}

// Close releases the underlying device
func (v *OpenedVolume) Close() error {
	if v.Device == nil {
		return nil
	}
	return v.Device.Close()
}

// OpenVolume opens the device named by src and bootstraps the ReFS volume on it
func OpenVolume(ctx *Context, src VolumeSource) (*OpenedVolume, error) {
	if err := src.Validate(); err != nil {
		return nil, NewError(ErrCodeInvalidInput, "invalid volume source", err)
	}
	if err := ctx.Canceled(); err != nil {
		return nil, err
	}

	dev, err := device.Open(src.Path, src.DeviceConfig())
	if err != nil {
		return nil, Classify(fmt.Sprintf("failed to open %s", src.String()), err)
	}

	ctx.Diagnostics().WithFields(logrus.Fields{
		"path":   dev.Path(),
		"offset": dev.Offset(),
		"size":   dev.Size(),
	}).Debug("device opened")

	vol, err := services.OpenVolume(dev, ctx.Diagnostics())
	if err != nil {
		dev.Close()
		return nil, Classify(fmt.Sprintf("failed to open ReFS volume on %s", src.String()), err)
	}
	return &OpenedVolume{Volume: vol, Device: dev}, nil
}

// ReadSource reads an already extracted file such as a saved log or change journal
func ReadSource(ctx *Context, path string) ([]byte, error) {
	if path == "" {
		return nil, NewError(ErrCodeInvalidInput, "input file path is required", nil)
	}
	dev, err := device.Open(path, &device.Config{})
	if err != nil {
		return nil, Classify(fmt.Sprintf("failed to open %s", path), err)
	}
	defer dev.Close()

	data := make([]byte, dev.Size())
	if _, err := dev.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, Classify(fmt.Sprintf("failed to read %s", path), err)
	}
	ctx.Diagnostics().WithField("bytes", len(data)).Debug("input file read")
	return data, nil
}
