package redo

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-refs/internal/services"
	"github.com/deploymenttheory/go-refs/internal/testimage"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

var testSource = app.VolumeSource{Path: "refs.img"}

func testContext(opts testimage.Options) *app.Context {
	ctx := app.NewContext()
	ctx.Opener = func(_ *app.Context, _ app.VolumeSource) (*app.OpenedVolume, error) {
		vol, err := services.OpenVolume(bytes.NewReader(testimage.Build(opts)), nil)
		if err != nil {
			return nil, app.Classify("failed to open ReFS volume", err)
		}
		return &app.OpenedVolume{Volume: vol}, nil
	}
	return ctx
}

func renameImage() testimage.Options {
	return testimage.Options{Contexts: testimage.RenameContexts(0x701, "draft.txt", "final.txt")}
}

func TestHandleAnalyze(t *testing.T) {
	tests := []struct {
		name     string
		request  *AnalyzeRequest
		validate func(*testing.T, *AnalyzeResponse)
	}{
		{
			name:    "operations by default",
			request: &AnalyzeRequest{Source: testSource},
			validate: func(t *testing.T, resp *AnalyzeResponse) {
				assert.Equal(t, ModeOperations, resp.Mode)
				require.Len(t, resp.Operations, 1)
				op := resp.Operations[0]
				assert.Equal(t, "FILE_RENAME", op.Signature)
				assert.Equal(t, "final.txt", op.Filename)
				assert.Equal(t, "draft.txt", op.PreviousFilename)
				require.NotNil(t, op.ParentID)
				assert.Equal(t, uint64(0x701), *op.ParentID)
				assert.Equal(t, uint64(0x500), op.LSN)
			},
		},
		{
			name:    "groups",
			request: &AnalyzeRequest{Source: testSource, Mode: ModeGroups},
			validate: func(t *testing.T, resp *AnalyzeResponse) {
				require.Len(t, resp.Groups, 2)
				assert.Equal(t, "FILE_RENAME", resp.Groups[0].Signature)
				assert.Equal(t, "[0x2, 0x5, 0x1]", resp.Groups[0].Opcodes)
				assert.Equal(t, 3, resp.Groups[0].Members)
				assert.Equal(t, 1, resp.Groups[1].Members)
				require.NotNil(t, resp.Summary)
				assert.Equal(t, 2, resp.Summary.Groups)
				assert.Equal(t, 2, resp.Summary.Decoded)
				assert.Zero(t, resp.Summary.Incomplete)
			},
		},
		{
			name:    "contexts",
			request: &AnalyzeRequest{Source: testSource, Mode: ModeContexts},
			validate: func(t *testing.T, resp *AnalyzeResponse) {
				require.Len(t, resp.Contexts, 4)
				first := resp.Contexts[0]
				assert.Equal(t, uint32(types.OpDeleteRow), first.Opcode)
				assert.Equal(t, types.OpDeleteRow.String(), first.OpcodeName)
				assert.Equal(t, types.RecMarkStart, first.RecMark)
				assert.Equal(t, uint32(2), first.KeyCount)
				assert.Len(t, first.Fields, 2)
			},
		},
		{
			name:    "limited",
			request: &AnalyzeRequest{Source: testSource, Mode: ModeContexts, Limit: 2},
			validate: func(t *testing.T, resp *AnalyzeResponse) {
				assert.Len(t, resp.Contexts, 2)
				assert.True(t, resp.Truncated)
			},
		},
		{
			name:    "control",
			request: &AnalyzeRequest{Source: testSource, Mode: ModeControl},
			validate: func(t *testing.T, resp *AnalyzeResponse) {
				assert.Equal(t, uint64(testimage.LogDataLCN), resp.Control.StartCluster)
				assert.Equal(t, uint64(testimage.LogDataLCN+1), resp.Control.EndCluster)
				assert.Equal(t, uint64(0x501), resp.Control.NextLSN)
				assert.True(t, resp.Control.DupDecoded)
				assert.True(t, resp.Overwritten)
				assert.Empty(t, resp.Contexts)
				assert.Zero(t, resp.Total)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := HandleAnalyze(testContext(renameImage()), tt.request)
			require.NoError(t, err)
			assert.Equal(t, testSource.Path, resp.Source)
			tt.validate(t, resp)
		})
	}
}

func TestHandleAnalyzeFile(t *testing.T) {
	ctx := testContext(renameImage())
	out := filepath.Join(t.TempDir(), "logfile.bin")

	extracted, err := HandleExtract(ctx, &ExtractRequest{Source: testSource, Output: out})
	require.NoError(t, err)
	assert.Equal(t, 3*types.LogPageSize, extracted.Bytes)
	assert.Equal(t, uint64(testimage.ControlLCN), extracted.Control)
	assert.Equal(t, uint64(testimage.ControlDupLCN), extracted.ControlDup)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, data, extracted.Bytes)

	resp, err := HandleAnalyze(app.NewContext(), &AnalyzeRequest{File: out})
	require.NoError(t, err)
	assert.Equal(t, out, resp.Source)
	require.Len(t, resp.Operations, 1)
	assert.Equal(t, "final.txt", resp.Operations[0].Filename)

	_, err = HandleExtract(ctx, &ExtractRequest{Source: testSource, Output: out})
	requireCode(t, err, app.ErrCodeOutputFailure)
	_, err = HandleExtract(ctx, &ExtractRequest{Source: testSource, Output: out, Force: true})
	assert.NoError(t, err)
}

func TestHandleExtractInformationFallback(t *testing.T) {
	tests := []struct {
		name         string
		opts         testimage.Options
		wantWarnings int
	}{
		{name: "primary information table", opts: renameImage(), wantWarnings: 0},
		{name: "duplicate information table", opts: testimage.Options{LogInfoDupOnly: true}, wantWarnings: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			ctx := app.NewContext()
			ctx.Opener = func(_ *app.Context, _ app.VolumeSource) (*app.OpenedVolume, error) {
				vol, err := services.OpenVolume(bytes.NewReader(testimage.Build(tt.opts)), logger)
				require.NoError(t, err)
				return &app.OpenedVolume{Volume: vol}, nil
			}

			out := filepath.Join(t.TempDir(), "logfile.bin")
			extracted, err := HandleExtract(ctx, &ExtractRequest{Source: testSource, Output: out})
			require.NoError(t, err)
			assert.Equal(t, uint64(testimage.ControlLCN), extracted.Control)

			warnings := 0
			for _, entry := range hook.AllEntries() {
				if entry.Level == logrus.WarnLevel && entry.Message == "logfile information table not read, using its duplicate" {
					warnings++
				}
			}
			assert.Equal(t, tt.wantWarnings, warnings)
		})
	}
}

func TestHandleAnalyzeProgress(t *testing.T) {
	ctx := testContext(renameImage())
	var percents []int
	ctx.SetProgress(func(_ string, percent int) { percents = append(percents, percent) })

	_, err := HandleAnalyze(ctx, &AnalyzeRequest{Source: testSource})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 40, 100}, percents)
}

func TestHandleAnalyzeErrors(t *testing.T) {
	_, err := HandleAnalyze(testContext(testimage.Options{}), &AnalyzeRequest{File: filepath.Join(t.TempDir(), "absent.bin")})
	requireCode(t, err, app.ErrCodeVolumeAccess)

	short := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(short, make([]byte, types.LogPageSize), 0o600))
	_, err = HandleAnalyze(app.NewContext(), &AnalyzeRequest{File: short})
	requireCode(t, err, app.ErrCodeCorrupt)

	_, err = HandleAnalyze(testContext(testimage.Options{Major: types.VersionMajor1}), &AnalyzeRequest{Source: testSource})
	requireCode(t, err, app.ErrCodeUnsupported)

	ctx, cancel := testContext(renameImage()).WithCancel()
	cancel()
	_, err = HandleAnalyze(ctx, &AnalyzeRequest{Source: testSource, Mode: ModeGroups})
	requireCode(t, err, app.ErrCodeCanceled)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *app.CommonError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}
