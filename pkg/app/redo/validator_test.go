package redo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-refs/pkg/app"
)

func TestAnalyzeRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		request  AnalyzeRequest
		wantErr  bool
		wantMode string
	}{
		{name: "volume", request: AnalyzeRequest{Source: testSource}, wantMode: ModeOperations},
		{name: "file", request: AnalyzeRequest{File: "logfile.bin", Mode: ModeContexts}, wantMode: ModeContexts},
		{name: "neither", request: AnalyzeRequest{}, wantErr: true},
		{name: "both", request: AnalyzeRequest{Source: testSource, File: "logfile.bin"}, wantErr: true},
		{name: "unknown mode", request: AnalyzeRequest{Source: testSource, Mode: "records"}, wantErr: true},
		{name: "negative limit", request: AnalyzeRequest{Source: testSource, Limit: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				var appErr *app.CommonError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, app.ErrCodeInvalidInput, appErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, tt.request.Mode)
		})
	}
}

func TestExtractRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ExtractRequest{Source: testSource, Output: "log.bin"}).Validate())
	assert.Error(t, (&ExtractRequest{Source: testSource}).Validate())
	assert.Error(t, (&ExtractRequest{Output: "log.bin"}).Validate())
}
