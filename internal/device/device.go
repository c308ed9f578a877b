package device

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/deploymenttheory/go-refs/internal/types"
	diskfs "github.com/diskfs/go-diskfs"
)

// volumeSignatureOffset is where FSRS sits inside the volume boot sector
const volumeSignatureOffset = 0x10

// Device is a read-only byte source over an image file, a raw device, or a partition of either
type Device struct {
	path   string
	file   *os.File
	end    int64
	offset int64
}

// Open opens path read-only and positions the device at the ReFS volume. The volume is found at the
// configured offset, in the configured partition, or, with auto-detection, in the first partition carrying
// the FSRS signature.
func Open(path string, config *Config) (*Device, error) {
	if config == nil {
		config = DefaultConfig()
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("open %s: %w", path, types.ErrPermissionDenied)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	size, err := sourceSize(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to size %s: %w", path, err)
	}
	if size == 0 {
		file.Close()
		return nil, fmt.Errorf("%s: %w", path, types.ErrEmptySource)
	}

	d := &Device{path: path, file: file, end: size}

	switch {
	case config.VolumeOffset > 0:
		d.offset = config.VolumeOffset
	case config.PartitionIndex > 0:
		start, length, err := partitionBounds(path, config.PartitionIndex)
		if err != nil {
			file.Close()
			return nil, err
		}
		d.offset = start
		d.clampTo(length)
	case config.AutoDetectPartition && !d.hasVolumeAt(0):
		if start, length, ok := d.detectPartition(); ok {
			d.offset = start
			d.clampTo(length)
		}
	}

	if d.offset >= d.end {
		file.Close()
		return nil, fmt.Errorf("volume offset %#x beyond end of %s (%#x bytes)", d.offset, path, size)
	}

	return d, nil
}

func sourceSize(file *os.File) (int64, error) {
	stat, err := file.Stat()
	if err != nil {
		return 0, err
	}
	if stat.Mode()&os.ModeDevice != 0 {
		return blockDeviceSize(file)
	}
	return stat.Size(), nil
}

func (d *Device) hasVolumeAt(offset int64) bool {
	sig := make([]byte, len(types.VolumeHeaderSignature))
	if _, err := d.file.ReadAt(sig, offset+volumeSignatureOffset); err != nil {
		return false
	}
	return string(sig) == types.VolumeHeaderSignature
}

// clampTo ends the device at the end of a partition of the given length starting at the current offset
func (d *Device) clampTo(length int64) {
	if length > 0 && d.offset+length < d.end {
		d.end = d.offset + length
	}
}

// detectPartition returns the byte range of the first partition holding a ReFS volume
func (d *Device) detectPartition() (start, length int64, ok bool) {
	disk, err := diskfs.Open(d.path, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return 0, 0, false
	}
	defer disk.Close()

	table, err := disk.GetPartitionTable()
	if err != nil {
		return 0, 0, false
	}
	for _, p := range table.GetPartitions() {
		if p.GetSize() > 0 && d.hasVolumeAt(p.GetStart()) {
			return p.GetStart(), p.GetSize(), true
		}
	}
	return 0, 0, false
}

// partitionBounds returns the byte range of the 1-based partition index of the disk at path
func partitionBounds(path string, index int) (start, size int64, err error) {
	disk, err := diskfs.Open(path, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open partition table of %s: %w", path, err)
	}
	defer disk.Close()

	table, err := disk.GetPartitionTable()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read partition table of %s: %w", path, err)
	}

	partitions := table.GetPartitions()
	if index > len(partitions) {
		return 0, 0, fmt.Errorf("partition %d requested, %s has %d", index, path, len(partitions))
	}
	p := partitions[index-1]
	return p.GetStart(), p.GetSize(), nil
}

// ReadAt implements io.ReaderAt relative to the start of the volume. Reads stop at the end of the volume.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	size := d.Size()
	if off >= size {
		return 0, io.EOF
	}
	if remaining := size - off; int64(len(p)) > remaining {
		n, err := d.file.ReadAt(p[:remaining], d.offset+off)
		if err == nil {
			err = io.EOF
		}
		return n, err
	}
	return d.file.ReadAt(p, d.offset+off)
}

// Size returns the number of bytes from the start of the volume to the end of its partition, or of the
// source when no partition was selected
func (d *Device) Size() int64 {
	return d.end - d.offset
}

// Offset returns the byte offset of the volume within the source
func (d *Device) Offset() int64 {
	return d.offset
}

// Path returns the opened path
func (d *Device) Path() string {
	return d.path
}

// Close closes the underlying file
func (d *Device) Close() error {
	if d.file != nil {
		return d.file.Close()
	}
	return nil
}
