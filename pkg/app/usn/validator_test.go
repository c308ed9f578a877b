package usn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-refs/pkg/app"
)

func TestParseRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		request     ParseRequest
		wantErr     bool
		wantReasons []string
	}{
		{name: "volume", request: ParseRequest{Source: testSource}},
		{name: "file", request: ParseRequest{File: "usn.bin"}},
		{name: "both", request: ParseRequest{Source: testSource, File: "usn.bin"}, wantErr: true},
		{name: "neither", request: ParseRequest{}, wantErr: true},
		{name: "bad pattern", request: ParseRequest{Source: testSource, NamePattern: "[a-"}, wantErr: true},
		{name: "negative limit", request: ParseRequest{Source: testSource, Limit: -3}, wantErr: true},
		{
			name:        "reasons normalized",
			request:     ParseRequest{Source: testSource, Reasons: []string{"rename_new_name", " Close "}},
			wantReasons: []string{"RENAME NEW NAME", "CLOSE"},
		},
		{name: "unknown reason", request: ParseRequest{Source: testSource, Reasons: []string{"FILE MOVE"}}, wantErr: true},
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
			if tt.wantReasons != nil {
				assert.Equal(t, tt.wantReasons, tt.request.Reasons)
			}
		})
	}
}

func TestExtractRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ExtractRequest{Source: testSource, Output: "usn.bin"}).Validate())
	assert.Error(t, (&ExtractRequest{Source: testSource}).Validate())
	assert.Error(t, (&ExtractRequest{Output: "usn.bin"}).Validate())
}
