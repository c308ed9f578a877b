package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-refs/internal/testimage"
	"github.com/deploymenttheory/go-refs/internal/types"
)

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refs.img")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpenVolume(t *testing.T) {
	path := writeImage(t, testimage.Build(testimage.Options{}))

	vol, err := OpenVolume(NewContext(), VolumeSource{Path: path})
	require.NoError(t, err)
	defer vol.Close()

	assert.True(t, vol.Supported)
	assert.Equal(t, testimage.GUID, vol.GUID())
	assert.Zero(t, vol.Offset())
	assert.NotNil(t, vol.Device)
}

func TestOpenVolumeErrors(t *testing.T) {
	corrupt := writeImage(t, make([]byte, 4*testimage.ClusterSize))

	tests := []struct {
		name    string
		source  VolumeSource
		errCode string
	}{
		{name: "missing path", source: VolumeSource{}, errCode: ErrCodeInvalidInput},
		{name: "partition and offset", source: VolumeSource{Path: corrupt, PartitionIndex: 1, Offset: 512}, errCode: ErrCodeInvalidInput},
		{name: "missing file", source: VolumeSource{Path: filepath.Join(t.TempDir(), "absent.img")}, errCode: ErrCodeVolumeAccess},
		{name: "empty image", source: VolumeSource{Path: writeImage(t, nil)}, errCode: ErrCodeInvalidInput},
		{name: "no volume", source: VolumeSource{Path: corrupt}, errCode: ErrCodeCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenVolume(NewContext(), tt.source)
			require.Error(t, err)

			var appErr *CommonError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.errCode, appErr.Code)
		})
	}
}

func TestOpenVolumeCanceled(t *testing.T) {
	path := writeImage(t, testimage.Build(testimage.Options{}))

	ctx, cancel := NewContext().WithCancel()
	cancel()

	_, err := OpenVolume(ctx, VolumeSource{Path: path})
	var appErr *CommonError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrCodeCanceled, appErr.Code)
}

func TestContextOpenUsesOpener(t *testing.T) {
	ctx := NewContext()
	var seen VolumeSource
	ctx.Opener = func(_ *Context, src VolumeSource) (*OpenedVolume, error) {
		seen = src
		return nil, Classify("opener", types.ErrUnsupportedVersion)
	}

	_, err := ctx.Open(VolumeSource{Path: "image.bin", Offset: 0x100000})
	assert.ErrorIs(t, err, types.ErrUnsupportedVersion)
	assert.Equal(t, int64(0x100000), seen.Offset)
}

func TestOpenedVolumeWithoutDevice(t *testing.T) {
	vol := &OpenedVolume{}
	assert.Zero(t, vol.Offset())
	assert.NoError(t, vol.Close())
}

func TestReadSource(t *testing.T) {
	path := writeImage(t, testimage.Journal())

	data, err := ReadSource(NewContext(), path)
	require.NoError(t, err)
	assert.Equal(t, testimage.Journal(), data)

	tests := []struct {
		name string
		path string
	}{
		{name: "missing path", path: ""},
		{name: "empty file", path: writeImage(t, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSource(NewContext(), tt.path)
			var appErr *CommonError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, ErrCodeInvalidInput, appErr.Code)
		})
	}
}
