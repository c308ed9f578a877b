package logfile

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/deploymenttheory/go-refs/internal/interfaces"
	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/sirupsen/logrus"
)

// maxDepth bounds the descent through the information table
const maxDepth = 16

// Location is the position of the control entry and its duplicate, in physical clusters
type Location struct {
	Control    uint64 `json:"control" yaml:"control"`
	ControlDup uint64 `json:"control_dup" yaml:"control_dup"`
}

// ReadLocation reads the logfile information table rooted at a physical tuple and returns the control entry
// location stored in the row keyed LogfileInfoControlKey. Child pages are translated.
func ReadLocation(reader interfaces.ClusterReader, translator interfaces.AddressTranslator, root types.LCNTuple, log logrus.FieldLogger) (Location, error) {
	log = diagnostics.OrDiscard(log).WithField("component", "logfile-information")

	loc, found, err := searchLocation(reader, translator, root, 0, log)
	if err != nil {
		return Location{}, err
	}
	if !found {
		return Location{}, fmt.Errorf("logfile information row %d: %w", types.LogfileInfoControlKey, types.ErrKeyNotFound)
	}
	return loc, nil
}

func searchLocation(reader interfaces.ClusterReader, translator interfaces.AddressTranslator, tuple types.LCNTuple, depth int, log logrus.FieldLogger) (Location, bool, error) {
	if depth > maxDepth {
		return Location{}, false, fmt.Errorf("logfile information table deeper than %d levels: %w", maxDepth, types.ErrTruncatedPage)
	}

	page, err := pages.ReadPage(reader, tuple)
	if err != nil {
		return Location{}, false, err
	}

	for _, row := range page.Rows() {
		if len(row.Value) == 0 {
			continue
		}

		if page.IsInternal() {
			ref, err := pages.DecodeChildReference(row.Value)
			if err != nil {
				return Location{}, false, err
			}
			child, err := translator.TranslateTuple(ref.LCNs)
			if err != nil {
				return Location{}, false, fmt.Errorf("failed to translate %s: %w", ref.LCNs, err)
			}
			log.WithField("child", child.String()).Debug("logfile information child page")

			loc, found, err := searchLocation(reader, translator, child, depth+1, log)
			if err != nil || found {
				return loc, found, err
			}
			continue
		}

		if len(row.Key) < 4 || binary.LittleEndian.Uint32(row.Key[0:4]) != types.LogfileInfoControlKey {
			continue
		}
		if len(row.Value) < types.LogfileInfoRowSize {
			return Location{}, false, fmt.Errorf("logfile information row of %d bytes: %w", len(row.Value), types.ErrTruncatedPage)
		}
		return Location{
			Control:    binary.LittleEndian.Uint64(row.Value[types.LogfileInfoControlOffset:]),
			ControlDup: binary.LittleEndian.Uint64(row.Value[types.LogfileInfoControlDupOffset:]),
		}, true, nil
	}

	return Location{}, false, nil
}

// Assemble reads the log byte range: the control page, the duplicate control page and the data area named
// by the control information. Control pages are one log page each; the data area spans
// [StartCluster, EndCluster).
func Assemble(reader interfaces.ClusterReader, loc Location, log logrus.FieldLogger) ([]byte, *Control, error) {
	log = diagnostics.OrDiscard(log).WithField("component", "logfile")

	control, err := readControlPage(reader, loc.Control)
	if err != nil {
		return nil, nil, fmt.Errorf("control entry: %w", err)
	}
	dup, err := readControlPage(reader, loc.ControlDup)
	if err != nil {
		return nil, nil, fmt.Errorf("duplicate control entry: %w", err)
	}

	decoded, _, err := decodeControlPair(control, dup, log)
	if err != nil {
		return nil, nil, err
	}

	info := decoded.Info
	if info.EndCluster < info.StartCluster {
		return nil, nil, fmt.Errorf("data area [%#x, %#x): %w", info.StartCluster, info.EndCluster, types.ErrCorruptLogEntry)
	}

	log.WithFields(logrus.Fields{
		"start": fmt.Sprintf("%#x", info.StartCluster),
		"end":   fmt.Sprintf("%#x", info.EndCluster),
	}).Debug("reading log data area")

	data := make([]byte, 0, 2*types.LogPageSize)
	data = append(data, control...)
	data = append(data, dup...)

	if count := info.EndCluster - info.StartCluster; count > 0 {
		area, err := reader.ReadClusters(info.StartCluster, uint32(count))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read log data area: %w", err)
		}
		data = append(data, area...)
	}

	return data, decoded, nil
}

func readControlPage(reader interfaces.ClusterReader, lcn uint64) ([]byte, error) {
	clusters := max(1, uint32(types.LogPageSize)/reader.ClusterSize())
	data, err := reader.ReadClusters(lcn, clusters)
	if err != nil {
		return nil, err
	}
	return data[:types.LogPageSize], nil
}
