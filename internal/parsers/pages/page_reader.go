package pages

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/interfaces"
	"github.com/deploymenttheory/go-refs/internal/types"
)

// Page is a decoded MSB+ page: its header, optional table descriptor and row table.
type Page struct {
	Header     types.PageHeader
	Descriptor *types.TableDescriptor
	Table      *Table

	// Concatenated cluster bytes the page was decoded from
	Data []byte
}

// IsInternal reports whether the page's rows reference child pages
func (p *Page) IsInternal() bool {
	return p.Table.Header.IsInternal()
}

// Rows returns the page's rows in directory order
func (p *Page) Rows() []Row {
	return p.Table.Rows
}

// DecodePageHeader parses the common 0x50-byte page header
func DecodePageHeader(data []byte) (types.PageHeader, error) {
	var h types.PageHeader
	if len(data) < types.PageHeaderSize {
		return h, fmt.Errorf("page header needs %d bytes, got %d: %w", types.PageHeaderSize, len(data), types.ErrTruncatedPage)
	}

	copy(h.Signature[:], data[0:4])
	h.Unknown1 = binary.LittleEndian.Uint32(data[4:8])
	h.Unknown2 = binary.LittleEndian.Uint64(data[8:16])
	copy(h.Unknown3[:], data[16:32])
	h.SelfLCNs = types.ParseLCNTuple(data[0x20:0x40])
	h.ObjectID = types.ParseObjectID(data[0x40:0x50])

	return h, nil
}

// ExpectSignature fails with ErrBadSignature unless the header carries signature
func ExpectSignature(h types.PageHeader, signature string) error {
	if string(h.Signature[:]) != signature {
		return fmt.Errorf("expected %q, found %q: %w", signature, h.Signature[:], types.ErrBadSignature)
	}
	return nil
}

// DecodePage decodes an MSB+ page from its concatenated cluster bytes
func DecodePage(data []byte) (*Page, error) {
	header, err := DecodePageHeader(data)
	if err != nil {
		return nil, err
	}
	if err := ExpectSignature(header, types.SignatureMetadataPage); err != nil {
		return nil, err
	}

	descriptor, err := DecodeDescriptor(data, types.PageHeaderSize)
	if err != nil {
		return nil, err
	}

	table, err := DecodeTable(data, types.PageHeaderSize)
	if err != nil {
		return nil, err
	}

	return &Page{
		Header:     header,
		Descriptor: descriptor,
		Table:      table,
		Data:       data,
	}, nil
}

// ReadPage reads the clusters of a physical LCNTuple and decodes them as one MSB+ page
func ReadPage(reader interfaces.ClusterReader, tuple types.LCNTuple) (*Page, error) {
	if tuple.IsZero() {
		return nil, fmt.Errorf("cannot read page from empty LCN tuple")
	}

	data, err := reader.ReadTuple(tuple)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", tuple, err)
	}

	page, err := DecodePage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page %s: %w", tuple, err)
	}

	return page, nil
}
