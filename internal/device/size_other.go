//go:build !linux

package device

import (
	"io"
	"os"
)

// blockDeviceSize seeks to the end of the device
func blockDeviceSize(file *os.File) (int64, error) {
	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	_, err = file.Seek(0, io.SeekStart)
	return size, err
}
