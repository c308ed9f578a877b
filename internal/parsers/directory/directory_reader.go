package directory

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/deploymenttheory/go-refs/internal/helpers"
	"github.com/deploymenttheory/go-refs/internal/interfaces"
	"github.com/deploymenttheory/go-refs/internal/parsers/attributes"
	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/sirupsen/logrus"
)

// EntryKind classifies a directory row
type EntryKind int

const (
	// EntryFile is a live regular file
	EntryFile EntryKind = iota
	// EntryDirectory is a live subdirectory
	EntryDirectory
	// EntryIndex is the directory's index root row
	EntryIndex
	// EntryUnrecognized is any other row, including deleted entries
	EntryUnrecognized
)

func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDirectory:
		return "directory"
	case EntryIndex:
		return "index"
	}
	return "unrecognized"
}

// maxDepth bounds the descent through child directory pages
const maxDepth = 16

// IndexAttribute is one row of an index root entry
type IndexAttribute struct {
	Type       uint32
	Name       string
	Recognized bool
}

// Entry is one row of a directory
type Entry struct {
	Kind     EntryKind
	Flag     uint16
	FileType uint16
	Name     string

	// Record is set for live files and directories
	Record *types.FileRecord

	// Attributes is set for live regular files
	Attributes *attributes.Set

	// Index is set for index root rows
	Index []IndexAttribute

	// Value holds the raw row value of unrecognized rows
	Value []byte
}

// Tree is an open directory. Child pages are read on demand while listing.
type Tree struct {
	reader     interfaces.ClusterReader
	translator interfaces.AddressTranslator
	root       *pages.Page
	log        logrus.FieldLogger
}

// Open reads the root page of a directory. root is a physical tuple.
func Open(reader interfaces.ClusterReader, translator interfaces.AddressTranslator, root types.LCNTuple, log logrus.FieldLogger) (*Tree, error) {
	log = diagnostics.OrDiscard(log).WithField("component", "directory")

	page, err := pages.ReadPage(reader, root)
	if err != nil {
		return nil, fmt.Errorf("directory root: %w", err)
	}

	return &Tree{
		reader:     reader,
		translator: translator,
		root:       page,
		log:        log.WithField("directory", page.Header.ObjectID.String()),
	}, nil
}

// ObjectID returns the object identifier recorded in the root page header
func (t *Tree) ObjectID() types.ObjectID {
	return t.root.Header.ObjectID
}

// List yields every entry of the directory in page order. Child pages are translated and read as the
// sequence reaches them; an error ends the sequence.
func (t *Tree) List() iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		t.walk(t.root, 0, yield)
	}
}

func (t *Tree) walk(page *pages.Page, depth int, yield func(*Entry, error) bool) bool {
	if depth > maxDepth {
		return yield(nil, fmt.Errorf("directory deeper than %d levels: %w", maxDepth, types.ErrTruncatedPage))
	}

	for i, row := range page.Rows() {
		if len(row.Value) == 0 {
			continue
		}

		if page.IsInternal() {
			child, err := t.readChild(row)
			if err != nil {
				yield(nil, fmt.Errorf("directory child %d: %w", i, err))
				return false
			}
			if !t.walk(child, depth+1, yield) {
				return false
			}
			continue
		}

		entry, err := t.decodeEntry(row)
		if err != nil {
			yield(nil, fmt.Errorf("directory row %d: %w", i, err))
			return false
		}
		if !yield(entry, nil) {
			return false
		}
	}
	return true
}

func (t *Tree) readChild(row pages.Row) (*pages.Page, error) {
	ref, err := pages.DecodeChildReference(row.Value)
	if err != nil {
		return nil, err
	}
	physical, err := t.translator.TranslateTuple(ref.LCNs)
	if err != nil {
		return nil, fmt.Errorf("failed to translate %s: %w", ref.LCNs, err)
	}
	return pages.ReadPage(t.reader, physical)
}

func (t *Tree) decodeEntry(row pages.Row) (*Entry, error) {
	entry := &Entry{Kind: EntryUnrecognized, Value: row.Value}
	if len(row.Key) >= types.DirectoryKeyHeaderSize {
		entry.Flag = binary.LittleEndian.Uint16(row.Key[0:2])
		entry.FileType = binary.LittleEndian.Uint16(row.Key[2:4])
		name, err := helpers.DecodeUTF16LE(row.Key[types.DirectoryKeyHeaderSize:])
		if err != nil {
			return nil, err
		}
		entry.Name = name
	}

	log := t.log.WithFields(logrus.Fields{
		"flag": fmt.Sprintf("%#x", entry.Flag),
		"type": fmt.Sprintf("%#x", entry.FileType),
		"name": entry.Name,
	})

	switch entry.Flag {
	case types.DirectoryFlagLive:
		record, err := DecodeFileRecord(entry.Name, entry.FileType, row.Value)
		if err != nil {
			log.WithError(err).Debug("live entry not decoded")
			return entry, nil
		}
		entry.Record = record
		entry.Value = nil

		if record.IsDirectory() {
			entry.Kind = EntryDirectory
			return entry, nil
		}

		entry.Kind = EntryFile
		set, err := attributes.DecodeEmbedded(row.Value, log)
		if err != nil {
			log.WithError(err).Warn("attribute table not decoded")
			return entry, nil
		}
		entry.Attributes = set

	case types.DirectoryFlagIndex:
		index, err := t.decodeIndex(row.Value, log)
		if err != nil {
			log.WithError(err).Debug("index root not decoded")
			return entry, nil
		}
		entry.Kind = EntryIndex
		entry.Index = index
		entry.Value = nil

	default:
		log.Debug("unrecognized directory entry")
	}

	return entry, nil
}

// decodeIndex inspects the nested table of an index root row
func (t *Tree) decodeIndex(value []byte, log logrus.FieldLogger) ([]IndexAttribute, error) {
	table, err := pages.DecodeTable(value, 0)
	if err != nil {
		return nil, err
	}

	var index []IndexAttribute
	for _, row := range table.Rows {
		if len(row.Key) < types.AttributeKeyHeaderSize || len(row.Value) == 0 {
			continue
		}
		name, err := helpers.DecodeUTF16LE(row.Key[types.AttributeKeyHeaderSize:])
		if err != nil {
			return nil, err
		}
		attr := IndexAttribute{
			Type: binary.LittleEndian.Uint32(row.Key[8:12]),
			Name: name,
		}
		attr.Recognized = attr.Type == types.AttributeTypeIndexRoot
		if !attr.Recognized {
			log.WithField("attribute", fmt.Sprintf("%#x", attr.Type)).Debug("unknown index attribute type")
		}
		index = append(index, attr)
	}
	return index, nil
}

// Resolve returns the live entry named name. Names match exactly.
func (t *Tree) Resolve(name string) (*Entry, error) {
	for entry, err := range t.List() {
		if err != nil {
			return nil, err
		}
		if entry.Record != nil && entry.Name == name {
			return entry, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, types.ErrEntryNotFound)
}
