// Package testimage assembles small synthetic ReFS v3 volumes for tests
package testimage

import (
	"bytes"
	"encoding/binary"
	"slices"
	"time"

	"github.com/deploymenttheory/go-refs/internal/helpers"
	"github.com/deploymenttheory/go-refs/internal/parsers/changejournal"
	"github.com/deploymenttheory/go-refs/internal/parsers/containers"
	"github.com/deploymenttheory/go-refs/internal/parsers/directory"
	"github.com/deploymenttheory/go-refs/internal/parsers/logfile"
	"github.com/deploymenttheory/go-refs/internal/parsers/objects"
	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/parsers/volume"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/google/uuid"
)

// ClusterSize of every image built here
const ClusterSize = 0x1000

// Physical layout. Virtual LCNs below 0x100 map to ContainerBase + v.
const (
	ContainerBase          = 0x100
	ContainerTable         = 0x30
	PrimaryCheckpointLCN   = 0x20
	SecondaryCheckpointLCN = 0x21
	ControlLCN             = 0x80
	ControlDupLCN          = 0x81
	LogDataLCN             = 0x90
	ObjectTableVLCN        = 0x10
	MetadataDirVLCN        = 0x11
	RootDirVLCN            = 0x12
	LogInfoVLCN            = 0x13
	DocumentsDirVLCN       = 0x14
	HelloVLCN              = 0x20
	NotesVLCN              = 0x21
	JournalVLCN            = 0x30
)

// ChangeJournalName is the metadata directory entry holding the journal
const ChangeJournalName = "Change Journal"

var (
	GUID        = uuid.MustParse("5c1b9a3e-0f7d-4b8e-9a51-2f6c3d4e5a6b")
	DocumentsID = types.NewObjectID(0x701, 0)

	Hello = []byte("Hello ReFS!")
	Notes = bytes.Repeat([]byte{0xA5}, 0x1800)

	Times = types.Timestamps{
		Created:  time.Date(2016, 10, 15, 10, 26, 14, 28159100, time.UTC),
		Accessed: time.Date(2016, 10, 16, 8, 0, 0, 0, time.UTC),
		Modified: time.Date(2016, 10, 17, 9, 30, 0, 0, time.UTC),
		Changed:  time.Date(2016, 10, 18, 23, 59, 59, 0, time.UTC),
	}
)

// Options varies the image
type Options struct {
	// Major defaults to 3
	Major uint8

	CorruptPrimary bool
	CorruptBoth    bool
	NoContainers   bool
	NoObjectTable  bool

	// LogInfoDupOnly stores the logfile information table under its duplicate identifier only
	LogInfoDupOnly bool

	// Contexts replaces the single default transaction context of the log entry
	Contexts [][]byte
}

// SplitSize is the size of split.bin: its first extent's cluster and four bytes of its second
const SplitSize = ClusterSize + 4

// Split is the content of split.bin: the hello.txt cluster followed by the start of the journal cluster,
// which is not adjacent to it
func Split() []byte {
	out := make([]byte, ClusterSize, SplitSize)
	copy(out, Hello)
	return append(out, Journal()[:4]...)
}

// JournalRecords are the change journal records stored in the image
func JournalRecords() []*types.USNRecord {
	return []*types.USNRecord{
		{
			MajorVersion:        3,
			FileReference:       types.FileReference{Low: 0x701},
			ParentFileReference: types.FileReference{Low: 0x600},
			USN:                 0x100,
			Timestamp:           time.Date(2016, 10, 15, 10, 26, 14, 0, time.UTC),
			Reason:              types.USNReasonFileCreate,
			Name:                "Documents",
		},
		{
			MajorVersion:        3,
			FileReference:       types.FileReference{Low: 0x702},
			ParentFileReference: types.FileReference{Low: 0x701},
			USN:                 0x160,
			Timestamp:           time.Date(2016, 10, 15, 10, 27, 0, 0, time.UTC),
			Reason:              types.USNReasonFileCreate | types.USNReasonClose,
			Name:                "notes.bin",
		},
	}
}

// Journal is the encoded change journal stream
func Journal() []byte {
	var out []byte
	for _, r := range JournalRecords() {
		out = append(out, changejournal.EncodeRecord(r)...)
	}
	return out
}

// Context encodes a transaction context with one key field per element of keys. The first key is the tail.
func Context(op types.RedoOpcode, recMark uint32, keys ...[]byte) []byte {
	return logfile.EncodeContext(types.TransactionContextHeader{
		Opcode:   op,
		KeyCount: uint32(len(keys)),
		RecMark:  recMark,
	}, keys)
}

// TargetKey encodes a target object key field
func TargetKey(parent, object uint64) []byte {
	b := make([]byte, types.TargetObjectKeySize)
	binary.LittleEndian.PutUint32(b[0x04:], 2)
	binary.LittleEndian.PutUint64(b[0x0C:], parent)
	binary.LittleEndian.PutUint64(b[0x14:], object)
	return b
}

// NameKey encodes a file name key field
func NameKey(name string) []byte {
	b := make([]byte, types.FileRecordKeyHeaderSize)
	binary.LittleEndian.PutUint32(b[0x0C:], 1)
	return append(b, helpers.EncodeUTF16LE(name)...)
}

// RenameContexts is a FILE_RENAME group under parent followed by a lone delete
func RenameContexts(parent uint64, from, to string) [][]byte {
	return [][]byte{
		Context(types.OpDeleteRow, types.RecMarkStart, TargetKey(0x600, parent), NameKey(from)),
		Context(types.OpReparentTable, types.RecMarkContinue),
		Context(types.OpInsertRow, types.RecMarkEnd, TargetKey(0x600, parent), NameKey(to)),
		Context(types.OpDeleteRow, 0),
	}
}

func writeTable(vol *pages.MemoryVolume, lcn uint64, id types.ObjectID, rows ...pages.RowSpec) {
	page := &pages.PageBuilder{ObjectID: id, Table: &pages.TableBuilder{Rows: rows}}
	vol.WritePage(types.LCNTuple{lcn}, page.Build())
}

func logInfoRow(control, dup uint64) pages.RowSpec {
	key := make([]byte, 4)
	binary.LittleEndian.PutUint32(key, types.LogfileInfoControlKey)
	value := make([]byte, types.LogfileInfoRowSize)
	binary.LittleEndian.PutUint64(value[types.LogfileInfoControlOffset:], control)
	binary.LittleEndian.PutUint64(value[types.LogfileInfoControlDupOffset:], dup)
	return pages.RowSpec{Key: key, Value: value}
}

// Build lays out the image:
//
//	/hello.txt            Hello, one cluster
//	/Documents/notes.bin  Notes, two clusters
//	/Documents/split.bin  Split, two extents with notes.bin between them
//
// plus the change journal in the metadata directory and a one-entry log.
func Build(opts Options) []byte {
	vol := pages.NewMemoryVolume(ClusterSize)
	virtual := func(v uint64) uint64 { return ContainerBase + v }

	major := opts.Major
	if major == 0 {
		major = types.VersionMajor3
	}
	vol.WriteClusters(0, volume.EncodeVolumeHeader(types.VolumeHeader{
		Sectors:           0x131 * 8,
		BytesPerSector:    0x200,
		SectorsPerCluster: 8,
		MajorVersion:      major,
		MinorVersion:      4,
	}))
	vol.WriteClusters(types.SuperblockCluster, volume.EncodeSuperblock(GUID, PrimaryCheckpointLCN, SecondaryCheckpointLCN))

	entries := make([]types.CheckpointEntry, len(types.CheckpointReservedNames))
	for i := range entries {
		entries[i].ZeroPadding = true
	}
	if !opts.NoObjectTable {
		entries[slices.Index(types.CheckpointReservedNames, types.ReservedObjectTable)].LCNs = types.LCNTuple{ObjectTableVLCN}
	}
	if !opts.NoContainers {
		entries[slices.Index(types.CheckpointReservedNames, types.ReservedContainerTable)].LCNs = types.LCNTuple{ContainerTable}
	}
	checkpoint := volume.EncodeCheckpoint(3, 4, entries)
	vol.WriteClusters(PrimaryCheckpointLCN, checkpoint)
	vol.WriteClusters(SecondaryCheckpointLCN, checkpoint)
	if opts.CorruptPrimary || opts.CorruptBoth {
		vol.WriteClusters(PrimaryCheckpointLCN, make([]byte, ClusterSize))
	}
	if opts.CorruptBoth {
		vol.WriteClusters(SecondaryCheckpointLCN, make([]byte, ClusterSize))
	}

	writeTable(vol, ContainerTable, types.ObjectID{},
		containers.MappingRow(containers.Mapping{Key: 0, ClusterBase: ContainerBase, CPC: 0x100}),
	)

	logInfoID := types.ObjectIDLogfileInformation
	if opts.LogInfoDupOnly {
		logInfoID = types.ObjectIDLogfileInformationDup
	}
	writeTable(vol, virtual(ObjectTableVLCN), types.ObjectID{},
		objects.RecordRow(&types.ObjectRecord{ID: logInfoID, LCNs: types.LCNTuple{LogInfoVLCN}}),
		objects.RecordRow(&types.ObjectRecord{ID: types.ObjectIDFileSystemMetadata, LCNs: types.LCNTuple{MetadataDirVLCN}}),
		objects.RecordRow(&types.ObjectRecord{ID: types.ObjectIDRootDirectory, LCNs: types.LCNTuple{RootDirVLCN}}),
		objects.RecordRow(&types.ObjectRecord{ID: DocumentsID, LCNs: types.LCNTuple{DocumentsDirVLCN}}),
	)

	writeTable(vol, virtual(RootDirVLCN), types.ObjectIDRootDirectory,
		directory.DirectoryRow("Documents", DocumentsID, Times),
		directory.FileRow("hello.txt", types.NewObjectID(0x600, 1), Times, uint32(len(Hello)), HelloVLCN),
	)
	vol.WriteClusters(virtual(HelloVLCN), Hello)

	writeTable(vol, virtual(DocumentsDirVLCN), DocumentsID,
		directory.FileRow("notes.bin", types.NewObjectID(0x701, 1), Times, uint32(len(Notes)), NotesVLCN),
		directory.FileRow("split.bin", types.NewObjectID(0x701, 2), Times, SplitSize, HelloVLCN, JournalVLCN),
	)
	vol.WriteClusters(virtual(NotesVLCN), Notes)

	journal := Journal()
	writeTable(vol, virtual(MetadataDirVLCN), types.ObjectIDFileSystemMetadata,
		directory.FileRow(ChangeJournalName, types.NewObjectID(0x520, 1), Times, uint32(len(journal)), JournalVLCN),
	)
	vol.WriteClusters(virtual(JournalVLCN), journal)

	writeTable(vol, virtual(LogInfoVLCN), logInfoID, logInfoRow(ControlLCN, ControlDupLCN))
	control := logfile.EncodeControl(types.LogControlInfo{SequenceNumber: 1, StartCluster: LogDataLCN, EndCluster: LogDataLCN + 1, NextLSN: 0x501})
	vol.WriteClusters(ControlLCN, control)
	vol.WriteClusters(ControlDupLCN, control)

	contexts := opts.Contexts
	if len(contexts) == 0 {
		contexts = [][]byte{Context(types.OpInsertRow, types.RecMarkStart|types.RecMarkEnd, []byte("key"))}
	}
	var record []byte
	for _, c := range contexts {
		record = append(record, c...)
	}
	vol.WriteClusters(LogDataLCN, logfile.EncodeEntry(1, 0x500, record))

	return vol.Bytes()
}
