package attributes

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/deploymenttheory/go-refs/internal/helpers"
	"github.com/deploymenttheory/go-refs/internal/interfaces"
	"github.com/deploymenttheory/go-refs/internal/parsers/pages"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/sirupsen/logrus"
)

// Extent is one row of a $DATA extent table. The LCN is virtual.
type Extent struct {
	LCN     uint32    `json:"lcn" yaml:"lcn"`
	Unknown [5]uint32 `json:"-" yaml:"-"`
}

// DataAttribute is a decoded $DATA value
type DataAttribute struct {
	FileSize uint64   `json:"file_size" yaml:"file_size"`
	Extents  []Extent `json:"extents" yaml:"extents"`
}

// Attribute is one row of a file's attribute table
type Attribute struct {
	Type  uint32
	Name  string
	Value []byte

	// Data is set for $DATA attributes
	Data *DataAttribute
}

// TypeName returns $DATA, $INDEX_ROOT, $ADS or UNKNOWN
func (a *Attribute) TypeName() string {
	return types.AttributeTypeName(a.Type)
}

// Set is the attribute table embedded in a regular file record. A resident set carries its attributes
// directly, a non-resident set carries references to attribute pages until Resolve is called.
type Set struct {
	NonResident bool
	References  []types.ChildReference
	Attributes  []Attribute
}

// DecodeEmbedded decodes the attribute table embedded in a file record value. The 32-bit word at offset 0
// holds the offset of the table header.
func DecodeEmbedded(value []byte, log logrus.FieldLogger) (*Set, error) {
	log = diagnostics.OrDiscard(log)

	table, err := pages.DecodeTable(value, 0)
	if err != nil {
		return nil, fmt.Errorf("attribute table: %w", err)
	}

	set := &Set{NonResident: table.Header.IsInternal()}
	for i, row := range table.Rows {
		if len(row.Value) == 0 {
			continue
		}

		if set.NonResident {
			ref, err := pages.DecodeChildReference(row.Value)
			if err != nil {
				return nil, fmt.Errorf("attribute reference %d: %w", i, err)
			}
			set.References = append(set.References, ref)
			continue
		}

		attr, err := decodeResident(row, log)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, err)
		}
		set.Attributes = append(set.Attributes, attr)
	}

	return set, nil
}

// decodeResident decodes a row of an embedded resident table. Rows whose key is too short to carry a tag
// hold $DATA extent tables.
func decodeResident(row pages.Row, log logrus.FieldLogger) (Attribute, error) {
	if len(row.Key) < types.AttributeKeyHeaderSize {
		data, err := DecodeDataValue(row.Value)
		if err != nil {
			return Attribute{}, err
		}
		return Attribute{Type: types.AttributeTypeData, Value: row.Value, Data: data}, nil
	}
	return decodeKeyed(row, log)
}

// decodeKeyed dispatches a row keyed by (value length, unknown, tag, name)
func decodeKeyed(row pages.Row, log logrus.FieldLogger) (Attribute, error) {
	name, err := helpers.DecodeUTF16LE(row.Key[types.AttributeKeyHeaderSize:])
	if err != nil {
		return Attribute{}, err
	}
	attr := Attribute{
		Type:  binary.LittleEndian.Uint32(row.Key[8:12]),
		Name:  name,
		Value: row.Value,
	}

	switch attr.Type {
	case types.AttributeTypeData:
		data, err := DecodeDataValue(row.Value)
		if err != nil {
			return attr, err
		}
		attr.Data = data
	case types.AttributeTypeADS:
		log.WithField("name", attr.Name).Debug("alternate data stream kept as opaque bytes")
	default:
		log.WithFields(logrus.Fields{
			"tag":  fmt.Sprintf("%#x", attr.Type),
			"name": attr.Name,
		}).Debug("unknown attribute type")
	}

	return attr, nil
}

// Resolve reads the attribute pages of a non-resident set. References are virtual and translated first.
// Resolving a resident set is a no-op. Each call rebuilds Attributes from the pages.
func (s *Set) Resolve(reader interfaces.ClusterReader, translator interfaces.AddressTranslator, log logrus.FieldLogger) error {
	if !s.NonResident {
		return nil
	}
	log = diagnostics.OrDiscard(log)

	var attrs []Attribute
	for _, ref := range s.References {
		physical, err := translator.TranslateTuple(ref.LCNs)
		if err != nil {
			return fmt.Errorf("failed to translate attribute page %s: %w", ref.LCNs, err)
		}

		page, err := pages.ReadPage(reader, physical)
		if err != nil {
			return fmt.Errorf("attribute page: %w", err)
		}

		for i, row := range page.Rows() {
			if len(row.Value) == 0 || len(row.Key) < types.AttributeKeyHeaderSize {
				continue
			}
			attr, err := decodeKeyed(row, log)
			if err != nil {
				return fmt.Errorf("attribute page %s row %d: %w", physical, i, err)
			}
			attrs = append(attrs, attr)
		}
	}

	s.Attributes = attrs
	return nil
}

// Data returns the first $DATA attribute
func (s *Set) Data() *DataAttribute {
	for i := range s.Attributes {
		if s.Attributes[i].Data != nil {
			return s.Attributes[i].Data
		}
	}
	return nil
}

// Streams returns the $ADS attributes
func (s *Set) Streams() []Attribute {
	var streams []Attribute
	for _, attr := range s.Attributes {
		if attr.Type == types.AttributeTypeADS {
			streams = append(streams, attr)
		}
	}
	return streams
}

// DecodeDataValue decodes a $DATA extent table. Extent rows carry no row header; each row directory entry
// points directly at six 32-bit words.
func DecodeDataValue(value []byte) (*DataAttribute, error) {
	sizeEnd := types.DataAttributeFileSizeOffset + 4
	if len(value) < sizeEnd {
		return nil, fmt.Errorf("$DATA value needs %d bytes, got %d: %w", sizeEnd, len(value), types.ErrTruncatedPage)
	}

	header, err := pages.DecodeTableHeader(value, 0)
	if err != nil {
		return nil, fmt.Errorf("$DATA extent table: %w", err)
	}
	offsets, err := pages.RowOffsets(value, header)
	if err != nil {
		return nil, fmt.Errorf("$DATA extent table: %w", err)
	}

	data := &DataAttribute{
		FileSize: uint64(binary.LittleEndian.Uint32(value[types.DataAttributeFileSizeOffset:sizeEnd])),
		Extents:  make([]Extent, 0, len(offsets)),
	}
	for i, offset := range offsets {
		if offset+types.DataExtentSize > len(value) {
			return nil, fmt.Errorf("extent %d at %#x: %w", i, offset, types.ErrTruncatedPage)
		}
		row := value[offset : offset+types.DataExtentSize]

		extent := Extent{LCN: binary.LittleEndian.Uint32(row[0:4])}
		for j := range extent.Unknown {
			extent.Unknown[j] = binary.LittleEndian.Uint32(row[4+j*4 : 8+j*4])
		}
		data.Extents = append(data.Extents, extent)
	}

	return data, nil
}
