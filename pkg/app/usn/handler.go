package usn

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/deploymenttheory/go-refs/internal/parsers/changejournal"
	"github.com/deploymenttheory/go-refs/internal/types"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

// HandleParse decodes a change journal and returns the records passing the request's filters
func HandleParse(ctx *app.Context, req *ParseRequest) (*ParseResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Progress("Loading change journal...", 10)
	data, source, err := loadJournal(ctx, req)
	if err != nil {
		return nil, err
	}
	ctx.Progress("Decoding records...", 40)

	var mask types.USNReason
	for _, name := range req.Reasons {
		bit, _ := reasonBit(name)
		mask |= bit
	}

	resp := &ParseResponse{Source: source}
	for record, err := range changejournal.Parse(data, ctx.Diagnostics()) {
		if err != nil {
			return nil, app.Classify(fmt.Sprintf("failed to parse the change journal of %s", source), err)
		}
		if err := ctx.Canceled(); err != nil {
			return nil, err
		}
		resp.Scanned++

		if !matches(req, mask, record) {
			continue
		}
		if req.Limit > 0 && len(resp.Records) >= req.Limit {
			resp.Truncated = true
			break
		}
		resp.Records = append(resp.Records, record)
	}
	resp.Total = len(resp.Records)

	ctx.Progress("Complete", 100)
	ctx.Log(fmt.Sprintf("%s: %d of %d records", source, resp.Total, resp.Scanned))
	return resp, nil
}

func matches(req *ParseRequest, mask types.USNReason, record *types.USNRecord) bool {
	if mask != 0 && record.Reason&mask == 0 {
		return false
	}
	if req.Parent != 0 && record.ParentFileReference.Low != req.Parent {
		return false
	}
	if req.NamePattern != "" {
		matched, _ := filepath.Match(strings.ToLower(req.NamePattern), strings.ToLower(record.Name))
		return matched
	}
	return true
}

func loadJournal(ctx *app.Context, req *ParseRequest) ([]byte, string, error) {
	if req.File != "" {
		data, err := app.ReadSource(ctx, req.File)
		return data, req.File, err
	}

	vol, err := ctx.Open(req.Source)
	if err != nil {
		return nil, "", err
	}
	defer vol.Close()

	data, err := vol.ExtractChangeJournal()
	if err != nil {
		return nil, "", app.Classify(fmt.Sprintf("failed to read the change journal of %s", req.Source.String()), err)
	}
	return data, req.Source.String(), nil
}

// HandleExtract saves the change journal of a volume
func HandleExtract(ctx *app.Context, req *ExtractRequest) (*ExtractResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	vol, err := ctx.Open(req.Source)
	if err != nil {
		return nil, err
	}
	defer vol.Close()

	data, err := vol.ExtractChangeJournal()
	if err != nil {
		return nil, app.Classify("failed to read the change journal", err)
	}

	// A journal that does not parse is still saved; the count covers the records before the damage.
	records, err := changejournal.Records(data, ctx.Diagnostics())
	if err != nil {
		ctx.Diagnostics().WithError(err).Warn("change journal has undecodable records")
	}

	ctx.Progress("Writing output...", 80)
	if err := app.WriteOutput(req.Output, data, req.Force); err != nil {
		return nil, err
	}
	ctx.Progress("Complete", 100)
	ctx.Log(fmt.Sprintf("saved %d bytes of change journal to %s", len(data), req.Output))
	return &ExtractResponse{Output: req.Output, Bytes: len(data), Records: len(records)}, nil
}
