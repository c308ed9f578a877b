package containers

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"sort"

	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/deploymenttheory/go-refs/internal/interfaces"
	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/sirupsen/logrus"
)

// Container table leaf row value layout
const (
	leafValueSize         = 0xA0
	leafClusterBaseOffset = 0x90
	leafCPCOffset         = 0x98
)

// maxDepth bounds the descent so that a page referencing itself cannot recurse forever
const maxDepth = 16

// Mapping is one leaf row: container key to physical cluster base
type Mapping struct {
	Key         uint64 `json:"key" yaml:"key"`
	ClusterBase uint64 `json:"cluster_base" yaml:"cluster_base"`
	CPC         uint32 `json:"cpc" yaml:"cpc"`
}

type node struct {
	internal bool

	// internal nodes: child keys ascending, children aligned with keys
	keys     []uint64
	children []*node

	// leaf nodes
	bases map[uint64]uint64
	cpc   uint32
}

// Table is a fully loaded container table. It translates virtual LCNs into physical LCNs.
type Table struct {
	root  *node
	cpc   uint32
	shift uint
}

// Load reads the container table rooted at a physical LCNTuple. Every page is read and the clusters per
// container value is validated across all leaves before the table is returned.
func Load(reader interfaces.ClusterReader, root types.LCNTuple, log logrus.FieldLogger) (*Table, error) {
	log = diagnostics.OrDiscard(log).WithField("component", "container-table")

	n, err := loadNode(reader, root, 0, log)
	if err != nil {
		return nil, err
	}

	cpc, err := resolveCPC(n)
	if err != nil {
		return nil, err
	}
	if bits.OnesCount32(cpc) != 1 {
		log.WithField("cpc", cpc).Warn("clusters per container is not a power of two")
	}

	return &Table{root: n, cpc: cpc, shift: uint(bits.Len32(cpc))}, nil
}

func loadNode(reader interfaces.ClusterReader, tuple types.LCNTuple, depth int, log logrus.FieldLogger) (*node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("container table deeper than %d levels at %s", maxDepth, tuple)
	}

	page, err := pages.ReadPage(reader, tuple)
	if err != nil {
		return nil, fmt.Errorf("failed to read container table page: %w", err)
	}

	log.WithFields(logrus.Fields{
		"lcns":     tuple.String(),
		"internal": page.IsInternal(),
		"rows":     len(page.Rows()),
	}).Trace("container table page")

	return buildNode(page, depth, func(child types.LCNTuple, depth int) (*node, error) {
		return loadNode(reader, child, depth, log)
	})
}

func buildNode(page *pages.Page, depth int, loadChild func(types.LCNTuple, int) (*node, error)) (*node, error) {
	n := &node{internal: page.IsInternal()}

	if n.internal {
		type child struct {
			key  uint64
			node *node
		}
		children := make([]child, 0, len(page.Rows()))
		for i, row := range page.Rows() {
			ref, err := pages.DecodeChildReference(row.Value)
			if err != nil {
				return nil, fmt.Errorf("container table row %d: %w", i, err)
			}
			if loadChild == nil {
				return nil, fmt.Errorf("container table child %s cannot be loaded", ref.LCNs)
			}
			c, err := loadChild(ref.LCNs, depth+1)
			if err != nil {
				return nil, err
			}
			children = append(children, child{key: containerKey(row.Key), node: c})
		}

		sort.SliceStable(children, func(i, j int) bool { return children[i].key < children[j].key })
		for _, c := range children {
			n.keys = append(n.keys, c.key)
			n.children = append(n.children, c.node)
		}
		return n, nil
	}

	n.bases = make(map[uint64]uint64, len(page.Rows()))
	for i, row := range page.Rows() {
		if len(row.Value) < leafValueSize {
			return nil, fmt.Errorf("container table row %d value needs %d bytes, got %d: %w", i, leafValueSize, len(row.Value), types.ErrTruncatedPage)
		}
		cpc := binary.LittleEndian.Uint32(row.Value[leafCPCOffset : leafCPCOffset+4])
		if n.cpc != 0 && cpc != 0 && cpc != n.cpc {
			return nil, fmt.Errorf("row %d has cpc %#x, leaf has %#x: %w", i, cpc, n.cpc, types.ErrCPCMismatch)
		}
		if cpc != 0 {
			n.cpc = cpc
		}
		n.bases[containerKey(row.Key)] = binary.LittleEndian.Uint64(row.Value[leafClusterBaseOffset : leafClusterBaseOffset+8])
	}
	return n, nil
}

// containerKey is the first quadword of the 16-byte row key. Rows without a key are keyed zero.
func containerKey(key []byte) uint64 {
	if len(key) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(key[0:8])
}

// resolveCPC requires every leaf carrying a cpc to agree on it
func resolveCPC(root *node) (uint32, error) {
	var cpc uint32
	var walk func(n *node) error
	walk = func(n *node) error {
		if !n.internal {
			if n.cpc == 0 {
				return nil
			}
			if cpc != 0 && n.cpc != cpc {
				return fmt.Errorf("leaf cpc %#x differs from %#x: %w", n.cpc, cpc, types.ErrCPCMismatch)
			}
			cpc = n.cpc
			return nil
		}
		for _, c := range n.children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root); err != nil {
		return 0, err
	}
	if cpc == 0 {
		return 0, types.ErrCPCNotFound
	}
	return cpc, nil
}

// ClustersPerContainer returns the cpc shared by every leaf
func (t *Table) ClustersPerContainer() uint32 {
	return t.cpc
}

// Split returns the container key and the offset within the container for a virtual LCN
func (t *Table) Split(lcn uint64) (key uint64, local uint64) {
	return lcn >> t.shift, lcn & uint64(t.cpc-1)
}

// Translate converts a virtual LCN into a physical LCN
func (t *Table) Translate(lcn uint64) (uint64, error) {
	key, local := t.Split(lcn)

	n := t.root
	for n.internal {
		i, ok := pages.SelectChild(n.keys, key, compareKeys, func(k uint64) bool { return k == 0 })
		if !ok {
			return 0, fmt.Errorf("no container range covers key %#x (lcn %#x): %w", key, lcn, types.ErrKeyNotFound)
		}
		n = n.children[i]
	}

	base, ok := n.bases[key]
	if !ok {
		return 0, fmt.Errorf("container key %#x (lcn %#x): %w", key, lcn, types.ErrKeyNotFound)
	}
	return base + local, nil
}

// TranslateTuple converts each non-zero entry of a tuple. Zero entries and entries with no
// container mapping stay zero. It fails only when the tuple has non-zero entries and none resolve.
func (t *Table) TranslateTuple(tuple types.LCNTuple) (types.LCNTuple, error) {
	var out types.LCNTuple
	var firstErr error
	for i, lcn := range tuple {
		if lcn == 0 {
			continue
		}
		physical, err := t.Translate(lcn)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("entry %d: %w", i, err)
			}
			continue
		}
		out[i] = physical
	}
	if firstErr != nil && out.IsZero() {
		return types.LCNTuple{}, fmt.Errorf("no entry of %s resolves: %w", tuple, firstErr)
	}
	return out, nil
}

// Mappings returns every leaf mapping in ascending key order
func (t *Table) Mappings() []Mapping {
	var out []Mapping
	var walk func(n *node)
	walk = func(n *node) {
		if n.internal {
			for _, c := range n.children {
				walk(c)
			}
			return
		}
		for key, base := range n.bases {
			out = append(out, Mapping{Key: key, ClusterBase: base, CPC: n.cpc})
		}
	}
	walk(t.root)

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func compareKeys(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
