package device

import (
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/disk"
)

// MountedVolume is a mounted file system reported by the host
type MountedVolume struct {
	Device     string `json:"device" yaml:"device"`
	Mountpoint string `json:"mountpoint" yaml:"mountpoint"`
	Fstype     string `json:"fstype" yaml:"fstype"`
	Options    string `json:"options" yaml:"options"`
}

// IsReFS reports whether the host identifies the file system as ReFS
func (v MountedVolume) IsReFS() bool {
	return strings.EqualFold(v.Fstype, "refs")
}

// ListVolumes enumerates mounted file systems. With refsOnly, only ReFS volumes are returned.
func ListVolumes(refsOnly bool) ([]MountedVolume, error) {
	partitions, err := disk.Partitions(true)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate partitions: %w", err)
	}
	return filterVolumes(partitions, refsOnly), nil
}

func filterVolumes(partitions []disk.PartitionStat, refsOnly bool) []MountedVolume {
	volumes := make([]MountedVolume, 0, len(partitions))
	for _, p := range partitions {
		v := MountedVolume{Device: p.Device, Mountpoint: p.Mountpoint, Fstype: p.Fstype, Options: p.Opts}
		if refsOnly && !v.IsReFS() {
			continue
		}
		volumes = append(volumes, v)
	}
	return volumes
}
