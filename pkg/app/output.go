package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by every formatter
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidateFormat rejects unknown output formats
func ValidateFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	}
	return NewError(ErrCodeInvalidInput, fmt.Sprintf("unsupported output format: %s", format), nil)
}

// EncodeStructured writes v as JSON or YAML. It reports false for the table format, which each formatter
// renders itself.
func EncodeStructured(w io.Writer, v any, format string) (bool, error) {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return true, encoder.Encode(v)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return true, encoder.Encode(v)
	case FormatTable:
		return false, nil
	}
	return true, ValidateFormat(format)
}

// Hexdump writes data sixteen bytes per line: offset, hex bytes, printable ASCII
func Hexdump(w io.Writer, data []byte, offset int64) error {
	var line strings.Builder
	for start := 0; start < len(data); start += 16 {
		chunk := data[start:min(start+16, len(data))]

		line.Reset()
		fmt.Fprintf(&line, "%08X : ", offset+int64(start))
		for _, b := range chunk {
			fmt.Fprintf(&line, "%02X ", b)
		}
		line.WriteString(strings.Repeat("   ", 16-len(chunk)))
		for _, b := range chunk {
			if b >= 0x20 && b <= 0x7E {
				line.WriteByte(b)
			} else {
				line.WriteByte('.')
			}
		}
		line.WriteByte('\n')

		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}

// FormatBytes formats byte count as human readable
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// WriteOutput saves extracted bytes to path. An existing file is only replaced when force is set.
func WriteOutput(path string, data []byte, force bool) error {
	if path == "" {
		return NewError(ErrCodeInvalidInput, "output path is required", nil)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return NewError(ErrCodeOutputFailure, fmt.Sprintf("%s already exists", path), err)
		}
		return NewError(ErrCodeOutputFailure, fmt.Sprintf("failed to create %s", path), err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return NewError(ErrCodeOutputFailure, fmt.Sprintf("failed to write %s", path), err)
	}
	if err := file.Close(); err != nil {
		return NewError(ErrCodeOutputFailure, fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}
