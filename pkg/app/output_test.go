package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexdump(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Hexdump(&out, []byte("Hello ReFS!\x00\x01\x02\x7f\x80xyz"), 0x1000))

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "00001000 : 48 65 6C 6C 6F 20 52 65 46 53 21 00 01 02 7F 80 Hello ReFS!.....", lines[0])
	assert.Equal(t, "00001010 : 78 79 7A "+strings.Repeat("   ", 13)+"xyz", lines[1])

	out.Reset()
	require.NoError(t, Hexdump(&out, nil, 0))
	assert.Empty(t, out.String())
}

func TestEncodeStructured(t *testing.T) {
	value := struct {
		Name string `json:"name" yaml:"name"`
		Size int    `json:"size" yaml:"size"`
	}{Name: "hello.txt", Size: 11}

	tests := []struct {
		name        string
		format      string
		wantHandled bool
		wantErr     bool
		validate    func(*testing.T, string)
	}{
		{
			name:        "json",
			format:      FormatJSON,
			wantHandled: true,
			validate: func(t *testing.T, output string) {
				var decoded map[string]any
				require.NoError(t, json.Unmarshal([]byte(output), &decoded))
				assert.Equal(t, "hello.txt", decoded["name"])
				assert.Contains(t, output, "\n  \"size\": 11")
			},
		},
		{
			name:        "yaml",
			format:      FormatYAML,
			wantHandled: true,
			validate: func(t *testing.T, output string) {
				assert.Equal(t, "name: hello.txt\nsize: 11\n", output)
			},
		},
		{
			name:   "table",
			format: FormatTable,
			validate: func(t *testing.T, output string) {
				assert.Empty(t, output)
			},
		},
		{
			name:        "unknown",
			format:      "xml",
			wantHandled: true,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			handled, err := EncodeStructured(&out, value, tt.format)
			assert.Equal(t, tt.wantHandled, handled)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, out.String())
		})
	}
}

func TestValidateFormat(t *testing.T) {
	for _, format := range []string{FormatTable, FormatJSON, FormatYAML} {
		assert.NoError(t, ValidateFormat(format))
	}

	err := ValidateFormat("csv")
	var appErr *CommonError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeInvalidInput, appErr.Code)
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes uint64
		want  string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{0x1800, "6.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 << 40, "3.0 TB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.bytes))
	}
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logfile.bin")

	require.NoError(t, WriteOutput(path, []byte("first"), false))

	err := WriteOutput(path, []byte("second"), false)
	var appErr *CommonError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeOutputFailure, appErr.Code)

	require.NoError(t, WriteOutput(path, []byte("second"), true))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	require.ErrorAs(t, WriteOutput("", nil, true), &appErr)
	assert.Equal(t, ErrCodeInvalidInput, appErr.Code)
}
