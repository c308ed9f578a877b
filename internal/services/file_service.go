package services

import (
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/parsers/directory"
	"github.com/sirupsen/logrus"
)

// FileExtent is a $DATA extent with its translated position
type FileExtent struct {
	VirtualLCN  uint64 `json:"virtual_lcn" yaml:"virtual_lcn"`
	PhysicalLCN uint64 `json:"physical_lcn" yaml:"physical_lcn"`
}

// FileContent is what ReadFile located and read for a regular file
type FileContent struct {
	Name    string       `json:"name" yaml:"name"`
	Size    uint64       `json:"size" yaml:"size"`
	Extents []FileExtent `json:"extents" yaml:"extents"`
	Streams []string     `json:"streams,omitempty" yaml:"streams,omitempty"`

	// Data joins the extents in order, truncated to Size
	Data []byte `json:"-" yaml:"-"`
}

// ReadFile locates the $DATA extents of a regular file entry and reads its content. Non-resident attribute
// tables are resolved first. Extent rows carry no decoded length, so every extent but the last supplies one
// cluster and the last supplies the rest of the file.
func (v *Volume) ReadFile(entry *directory.Entry) (*FileContent, error) {
	if err := v.ensureSupported(); err != nil {
		return nil, err
	}
	if entry == nil || entry.Record == nil {
		return nil, fmt.Errorf("not a live file entry")
	}
	if !entry.Record.IsRegular() {
		return nil, fmt.Errorf("%s: is a directory", entry.Name)
	}

	content := &FileContent{Name: entry.Name, Size: entry.Record.FileSize}
	log := v.log.WithField("file", entry.Name)

	attrs := entry.Attributes
	if attrs == nil {
		log.Debug("file has no attribute table")
		return content, nil
	}
	if err := attrs.Resolve(v.reader, v.containers, v.log); err != nil {
		return nil, fmt.Errorf("%s: %w", entry.Name, err)
	}

	for _, stream := range attrs.Streams() {
		content.Streams = append(content.Streams, stream.Name)
	}

	data := attrs.Data()
	if data == nil {
		log.Debug("file has no $DATA attribute")
		return content, nil
	}
	if data.FileSize > 0 {
		content.Size = data.FileSize
	}

	for _, extent := range data.Extents {
		physical, err := v.containers.Translate(uint64(extent.LCN))
		if err != nil {
			return nil, fmt.Errorf("%s: extent at LCN %#x: %w", entry.Name, extent.LCN, err)
		}
		content.Extents = append(content.Extents, FileExtent{VirtualLCN: uint64(extent.LCN), PhysicalLCN: physical})
	}

	if len(content.Extents) == 0 || content.Size == 0 {
		return content, nil
	}

	cs := uint64(v.reader.ClusterSize())
	remaining := (content.Size + cs - 1) / cs
	buf := make([]byte, 0, remaining*cs)
	for i, extent := range content.Extents {
		if remaining == 0 {
			log.WithFields(logrus.Fields{
				"extents": len(content.Extents),
				"used":    i,
			}).Debug("file size reached before the last extent")
			break
		}
		count := uint64(1)
		if i == len(content.Extents)-1 {
			count = remaining
		}
		raw, err := v.reader.ReadClusters(extent.PhysicalLCN, uint32(count))
		if err != nil {
			return nil, fmt.Errorf("%s: extent %d at LCN %#x: %w", entry.Name, i, extent.PhysicalLCN, err)
		}
		buf = append(buf, raw...)
		remaining -= count
	}
	content.Data = buf[:content.Size]

	return content, nil
}

// ReadPath resolves path from the root directory and reads the file there
func (v *Volume) ReadPath(p string) (*FileContent, error) {
	_, entry, err := v.ResolvePath(p)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%s: is a directory", p)
	}
	return v.ReadFile(entry)
}
