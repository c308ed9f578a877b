package objects

import (
	"fmt"
	"iter"
	"slices"

	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/deploymenttheory/go-refs/internal/interfaces"
	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/sirupsen/logrus"
)

const maxDepth = 16

// Table is the object table. Only the root page is held; lookups descend through child pages on demand.
type Table struct {
	reader     interfaces.ClusterReader
	translator interfaces.AddressTranslator
	root       *pages.Page
	log        logrus.FieldLogger
}

// Load reads the root page of the object table. root must already be translated to physical clusters.
// Child page references are virtual and are translated with translator during lookups.
func Load(reader interfaces.ClusterReader, translator interfaces.AddressTranslator, root types.LCNTuple, log logrus.FieldLogger) (*Table, error) {
	page, err := pages.ReadPage(reader, root)
	if err != nil {
		return nil, fmt.Errorf("failed to read object table root: %w", err)
	}

	return &Table{
		reader:     reader,
		translator: translator,
		root:       page,
		log:        diagnostics.OrDiscard(log).WithField("component", "object-table"),
	}, nil
}

// Lookup returns the leaf record whose key equals id
func (t *Table) Lookup(id types.ObjectID) (*types.ObjectRecord, error) {
	page := t.root
	for depth := 0; page.IsInternal(); depth++ {
		if depth >= maxDepth {
			return nil, fmt.Errorf("object table deeper than %d levels", maxDepth)
		}

		rows := page.Rows()
		keys := make([]types.ObjectID, len(rows))
		for i, row := range rows {
			keys[i] = types.ParseObjectID(row.Key)
		}
		order := sortedOrder(keys)
		sorted := make([]types.ObjectID, len(order))
		for i, idx := range order {
			sorted[i] = keys[idx]
		}

		i, ok := pages.SelectChild(sorted, id, types.ObjectID.Compare, types.ObjectID.IsZero)
		if !ok {
			return nil, fmt.Errorf("no object table range covers %s: %w", id, types.ErrObjectNotFound)
		}

		child, err := t.readChild(rows[order[i]])
		if err != nil {
			return nil, err
		}
		page = child
	}

	for _, row := range page.Rows() {
		if types.ParseObjectID(row.Key) != id {
			continue
		}
		record, err := DecodeRecord(row.Key, row.Value)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", id, err)
		}
		return record, nil
	}

	return nil, fmt.Errorf("object %s: %w", id, types.ErrObjectNotFound)
}

// Walk yields every leaf record in tree order
func (t *Table) Walk() iter.Seq2[*types.ObjectRecord, error] {
	return func(yield func(*types.ObjectRecord, error) bool) {
		t.walk(t.root, 0, yield)
	}
}

func (t *Table) walk(page *pages.Page, depth int, yield func(*types.ObjectRecord, error) bool) bool {
	if depth >= maxDepth {
		return yield(nil, fmt.Errorf("object table deeper than %d levels", maxDepth))
	}

	for _, row := range page.Rows() {
		if page.IsInternal() {
			child, err := t.readChild(row)
			if err != nil {
				return yield(nil, err)
			}
			if !t.walk(child, depth+1, yield) {
				return false
			}
			continue
		}

		record, err := DecodeRecord(row.Key, row.Value)
		if err != nil {
			t.log.WithError(err).Warn("skipping undecodable object table row")
			continue
		}
		if !yield(record, nil) {
			return false
		}
	}
	return true
}

func (t *Table) readChild(row pages.Row) (*pages.Page, error) {
	ref, err := pages.DecodeChildReference(row.Value)
	if err != nil {
		return nil, fmt.Errorf("object table child: %w", err)
	}

	physical, err := t.translator.TranslateTuple(ref.LCNs)
	if err != nil {
		return nil, fmt.Errorf("failed to translate object table child %s: %w", ref.LCNs, err)
	}

	t.log.WithFields(logrus.Fields{
		"virtual":  ref.LCNs.String(),
		"physical": physical.String(),
	}).Trace("object table child page")

	return pages.ReadPage(t.reader, physical)
}

// DecodeRecord parses an object table leaf row
func DecodeRecord(key, value []byte) (*types.ObjectRecord, error) {
	if len(value) < types.ObjectRecordFixedSize {
		return nil, fmt.Errorf("object record needs %d bytes, got %d: %w", types.ObjectRecordFixedSize, len(value), types.ErrTruncatedPage)
	}

	record := &types.ObjectRecord{
		ID:       types.ParseObjectID(key),
		LCNs:     types.ParseLCNTuple(value[0x20:0x40]),
		Trailing: value[types.ObjectRecordFixedSize:],
	}
	copy(record.Checksum[:], value[0x48:0x50])
	return record, nil
}

// sortedOrder returns row indices ordered by ascending key
func sortedOrder(keys []types.ObjectID) []int {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return keys[a].Compare(keys[b])
	})
	return order
}
