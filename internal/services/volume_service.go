package services

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/deploymenttheory/go-refs/internal/interfaces"
	"github.com/deploymenttheory/go-refs/internal/parsers/containers"
	"github.com/deploymenttheory/go-refs/internal/parsers/objects"
	"github.com/deploymenttheory/go-refs/internal/parsers/volume"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Checkpoint slots named by the superblock
const (
	CheckpointPrimary   = "primary"
	CheckpointSecondary = "secondary"
)

// Volume is an opened ReFS volume: header, superblock, checkpoint and the two tables every other lookup
// goes through
type Volume struct {
	Header *types.VolumeHeader

	// Supported is false for recognized volumes whose format is not decoded (version 1). Only Header is set.
	Supported bool

	Superblock     *types.Superblock
	Checkpoint     *types.Checkpoint
	CheckpointSlot string

	reader     *VolumeReader
	containers *containers.Table
	objects    *objects.Table
	log        logrus.FieldLogger
}

// OpenVolume bootstraps a volume from its first byte: volume header, superblock, checkpoint, container
// table, object table. When the primary checkpoint does not decode, the secondary one is used.
func OpenVolume(source interfaces.ByteSource, log logrus.FieldLogger) (*Volume, error) {
	log = diagnostics.OrDiscard(log)

	buf := make([]byte, types.VolumeHeaderSize)
	n, err := source.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read volume header: %w", err)
	}

	header, err := volume.ParseVolumeHeader(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("volume header: %w", err)
	}

	supported, err := volume.IsSupported(header)
	if err != nil {
		return nil, fmt.Errorf("ReFS %d.%d: %w", header.MajorVersion, header.MinorVersion, err)
	}

	v := &Volume{Header: header, Supported: supported, log: log}
	if !supported {
		log.WithField("version", fmt.Sprintf("%d.%d", header.MajorVersion, header.MinorVersion)).Info("volume format recognized but not decoded")
		return v, nil
	}

	v.reader, err = NewVolumeReader(source, header.ClusterSize())
	if err != nil {
		return nil, err
	}

	superblock, err := v.readMetadataPage(types.SuperblockCluster)
	if err != nil {
		return nil, fmt.Errorf("superblock: %w", err)
	}
	v.Superblock, err = volume.ParseSuperblock(superblock)
	if err != nil {
		return nil, err
	}

	if err := v.loadCheckpoint(); err != nil {
		return nil, err
	}

	containerEntry, err := volume.RequireEntry(v.Checkpoint, types.ReservedContainerTable)
	if err != nil {
		return nil, err
	}
	v.containers, err = containers.Load(v.reader, containerEntry.LCNs, log)
	if err != nil {
		return nil, fmt.Errorf("container table: %w", err)
	}

	objectEntry, err := volume.RequireEntry(v.Checkpoint, types.ReservedObjectTable)
	if err != nil {
		return nil, err
	}
	objectRoot, err := v.containers.TranslateTuple(objectEntry.LCNs)
	if err != nil {
		return nil, fmt.Errorf("failed to translate object table root %s: %w", objectEntry.LCNs, err)
	}
	v.objects, err = objects.Load(v.reader, v.containers, objectRoot, log)
	if err != nil {
		return nil, fmt.Errorf("object table: %w", err)
	}

	log.WithFields(logrus.Fields{
		"cluster_size": header.ClusterSize(),
		"checkpoint":   v.CheckpointSlot,
		"cpc":          v.containers.ClustersPerContainer(),
	}).Debug("volume opened")

	return v, nil
}

func (v *Volume) loadCheckpoint() error {
	primary, err := v.parseCheckpoint(v.Superblock.PrimaryCheckpoint)
	if err == nil {
		v.Checkpoint, v.CheckpointSlot = primary, CheckpointPrimary
		return nil
	}
	v.log.WithError(err).Warn("primary checkpoint not decoded, using the secondary checkpoint")

	secondary, secondaryErr := v.parseCheckpoint(v.Superblock.SecondaryCheckpoint)
	if secondaryErr != nil {
		return errors.Join(
			fmt.Errorf("primary checkpoint: %w", err),
			fmt.Errorf("secondary checkpoint: %w", secondaryErr),
		)
	}
	v.Checkpoint, v.CheckpointSlot = secondary, CheckpointSecondary
	return nil
}

func (v *Volume) parseCheckpoint(lcn uint64) (*types.Checkpoint, error) {
	data, err := v.readMetadataPage(lcn)
	if err != nil {
		return nil, err
	}
	return volume.ParseCheckpoint(data)
}

// readMetadataPage reads MetadataPageSize bytes starting at a physical cluster
func (v *Volume) readMetadataPage(lcn uint64) ([]byte, error) {
	cs := v.reader.ClusterSize()
	clusters := (uint32(types.MetadataPageSize) + cs - 1) / cs
	data, err := v.reader.ReadClusters(lcn, clusters)
	if err != nil {
		return nil, err
	}
	return data[:types.MetadataPageSize], nil
}

func (v *Volume) ensureSupported() error {
	if !v.Supported {
		return fmt.Errorf("ReFS %d.%d: %w", v.Header.MajorVersion, v.Header.MinorVersion, types.ErrUnsupportedVersion)
	}
	return nil
}

// ClusterSize returns the cluster size in bytes
func (v *Volume) ClusterSize() uint32 {
	return v.Header.ClusterSize()
}

// GUID returns the volume GUID recorded in the superblock
func (v *Volume) GUID() uuid.UUID {
	if v.Superblock == nil {
		return uuid.Nil
	}
	return volume.VolumeGUID(v.Superblock)
}

// Reader returns the cluster reader over the volume
func (v *Volume) Reader() interfaces.ClusterReader {
	return v.reader
}

// Translator returns the container table as an address translator
func (v *Volume) Translator() interfaces.AddressTranslator {
	return v.containers
}

// Translate converts a virtual LCN to a physical LCN
func (v *Volume) Translate(lcn uint64) (uint64, error) {
	if err := v.ensureSupported(); err != nil {
		return 0, err
	}
	return v.containers.Translate(lcn)
}

// SplitLCN returns the container key and the offset within the container of a virtual LCN
func (v *Volume) SplitLCN(lcn uint64) (key uint64, local uint64, err error) {
	if err := v.ensureSupported(); err != nil {
		return 0, 0, err
	}
	key, local = v.containers.Split(lcn)
	return key, local, nil
}

// TranslateTuple converts every non-zero entry of a virtual tuple
func (v *Volume) TranslateTuple(tuple types.LCNTuple) (types.LCNTuple, error) {
	if err := v.ensureSupported(); err != nil {
		return types.LCNTuple{}, err
	}
	return v.containers.TranslateTuple(tuple)
}

// ContainerMappings returns every container table leaf mapping
func (v *Volume) ContainerMappings() ([]containers.Mapping, error) {
	if err := v.ensureSupported(); err != nil {
		return nil, err
	}
	return v.containers.Mappings(), nil
}

// ClustersPerContainer returns the container size in clusters
func (v *Volume) ClustersPerContainer() uint32 {
	if v.containers == nil {
		return 0
	}
	return v.containers.ClustersPerContainer()
}

// LookupObject returns the object table record of id
func (v *Volume) LookupObject(id types.ObjectID) (*types.ObjectRecord, error) {
	if err := v.ensureSupported(); err != nil {
		return nil, err
	}
	return v.objects.Lookup(id)
}

// ObjectRoot returns the physical root tuple of an object
func (v *Volume) ObjectRoot(id types.ObjectID) (types.LCNTuple, error) {
	record, err := v.LookupObject(id)
	if err != nil {
		return types.LCNTuple{}, err
	}
	physical, err := v.containers.TranslateTuple(record.LCNs)
	if err != nil {
		return types.LCNTuple{}, fmt.Errorf("failed to translate root of object %s: %w", id, err)
	}
	return physical, nil
}

// Objects yields every object table record in tree order
func (v *Volume) Objects() iter.Seq2[*types.ObjectRecord, error] {
	if err := v.ensureSupported(); err != nil {
		return func(yield func(*types.ObjectRecord, error) bool) {
			yield(nil, err)
		}
	}
	return v.objects.Walk()
}
