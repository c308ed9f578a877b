package helpers

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// DecodeUTF16LE decodes a little-endian UTF-16 byte slice to a string.
// A trailing odd byte is dropped.
func DecodeUTF16LE(data []byte) (string, error) {
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	out, err := utf16le.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode UTF-16LE name: %w", err)
	}
	return string(out), nil
}

// EncodeUTF16LE encodes a string as little-endian UTF-16 without a BOM.
func EncodeUTF16LE(s string) []byte {
	out, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil
	}
	return out
}
