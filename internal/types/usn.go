package types

import "time"

// Change Journal
// The change journal is a stream of USN_RECORD_V3 records, each padded to its declared length.

// USNRecordV3Size is the size of the fixed part of a version 3 record.
const USNRecordV3Size = 0x4C

// USNReason is the reason bitmask of a change journal record.
type USNReason uint32

// USN reason bits
const (
	USNReasonDataOverwrite       USNReason = 0x00000001
	USNReasonDataExtend          USNReason = 0x00000002
	USNReasonDataTruncation      USNReason = 0x00000004
	USNReasonNamedDataOverwrite  USNReason = 0x00000010
	USNReasonNamedDataExtend     USNReason = 0x00000020
	USNReasonNamedDataTruncation USNReason = 0x00000040
	USNReasonFileCreate          USNReason = 0x00000100
	USNReasonFileDelete          USNReason = 0x00000200
	USNReasonEAChange            USNReason = 0x00000400
	USNReasonSecurityChange      USNReason = 0x00000800
	USNReasonRenameOldName       USNReason = 0x00001000
	USNReasonRenameNewName       USNReason = 0x00002000
	USNReasonIndexableChange     USNReason = 0x00004000
	USNReasonBasicInfoChange     USNReason = 0x00008000
	USNReasonHardLinkChange      USNReason = 0x00010000
	USNReasonCompressionChange   USNReason = 0x00020000
	USNReasonEncryptionChange    USNReason = 0x00040000
	USNReasonObjectIDChange      USNReason = 0x00080000
	USNReasonReparsePointChange  USNReason = 0x00100000
	USNReasonStreamChange        USNReason = 0x00200000
	USNReasonTransactedChange    USNReason = 0x00400000
	USNReasonIntegrityChange     USNReason = 0x00800000
	USNReasonClose               USNReason = 0x80000000
)

// USNReasonTable lists every known reason bit in ascending bit order.
var USNReasonTable = []struct {
	Bit  USNReason
	Name string
}{
	{USNReasonDataOverwrite, "DATA OVERWRITE"},
	{USNReasonDataExtend, "DATA EXTEND"},
	{USNReasonDataTruncation, "DATA TRUNCATION"},
	{USNReasonNamedDataOverwrite, "NAMED DATA OVERWRITE"},
	{USNReasonNamedDataExtend, "NAMED DATA EXTEND"},
	{USNReasonNamedDataTruncation, "NAMED DATA TRUNCATION"},
	{USNReasonFileCreate, "FILE CREATE"},
	{USNReasonFileDelete, "FILE DELETE"},
	{USNReasonEAChange, "EA CHANGE"},
	{USNReasonSecurityChange, "SECURITY CHANGE"},
	{USNReasonRenameOldName, "RENAME OLD NAME"},
	{USNReasonRenameNewName, "RENAME NEW NAME"},
	{USNReasonIndexableChange, "INDEXABLE CHANGE"},
	{USNReasonBasicInfoChange, "BASIC INFO CHANGE"},
	{USNReasonHardLinkChange, "HARD LINK CHANGE"},
	{USNReasonCompressionChange, "COMPRESSION CHANGE"},
	{USNReasonEncryptionChange, "ENCRYPTION CHANGE"},
	{USNReasonObjectIDChange, "OBJECT ID CHANGE"},
	{USNReasonReparsePointChange, "REPARSE POINT CHANGE"},
	{USNReasonStreamChange, "STREAM CHANGE"},
	{USNReasonTransactedChange, "TRANSACTED CHANGE"},
	{USNReasonIntegrityChange, "INTEGRITY CHANGE"},
	{USNReasonClose, "CLOSE"},
}

// Names returns the names of the set bits in ascending bit order. Unknown bits are ignored.
func (r USNReason) Names() []string {
	names := make([]string, 0, 4)
	for _, entry := range USNReasonTable {
		if r&entry.Bit != 0 {
			names = append(names, entry.Name)
		}
	}
	return names
}

// Has reports whether every bit of flag is set
func (r USNReason) Has(flag USNReason) bool {
	return r&flag == flag
}

// USNRecord is a decoded USN_RECORD_V3.
type USNRecord struct {
	RecordLength        uint32        `json:"record_length" yaml:"record_length"`
	MajorVersion        uint16        `json:"major_version" yaml:"major_version"`
	MinorVersion        uint16        `json:"minor_version" yaml:"minor_version"`
	FileReference       FileReference `json:"file_reference" yaml:"file_reference"`
	ParentFileReference FileReference `json:"parent_file_reference" yaml:"parent_file_reference"`
	USN                 uint64        `json:"usn" yaml:"usn"`
	Timestamp           time.Time     `json:"timestamp" yaml:"timestamp"`
	Reason              USNReason     `json:"reason_mask" yaml:"reason_mask"`
	Reasons             []string      `json:"reasons" yaml:"reasons"`
	SourceInfo          uint32        `json:"source_info" yaml:"source_info"`
	SecurityID          uint32        `json:"security_id" yaml:"security_id"`
	FileAttributes      uint32        `json:"file_attributes" yaml:"file_attributes"`
	Name                string        `json:"name" yaml:"name"`

	// Offset of the record within the journal stream
	Offset int64 `json:"offset" yaml:"offset"`
}
