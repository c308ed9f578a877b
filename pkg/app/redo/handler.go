package redo

import (
	"encoding/hex"
	"fmt"

	"github.com/deploymenttheory/go-refs/internal/parsers/logfile"
	"github.com/deploymenttheory/go-refs/internal/parsers/transactions"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

// HandleAnalyze scans a redo log and reports it in the requested mode
func HandleAnalyze(ctx *app.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx.Progress("Loading log...", 10)
	data, source, err := loadLog(ctx, req)
	if err != nil {
		return nil, err
	}
	ctx.Progress("Scanning log...", 40)

	log, err := logfile.Open(data, ctx.Diagnostics())
	if err != nil {
		return nil, app.Classify(fmt.Sprintf("failed to open the log of %s", source), err)
	}

	resp := &AnalyzeResponse{
		Source:      source,
		Mode:        req.Mode,
		Overwritten: log.Overwritten(),
		Control:     controlResult(log),
	}
	if !resp.Overwritten {
		ctx.Log("no entry follows the control area; one page was skipped")
	}

	switch req.Mode {
	case ModeOperations:
		err = collectOperations(ctx, req, log, resp)
	case ModeGroups:
		err = collectGroups(ctx, req, log, resp)
	case ModeContexts:
		err = collectContexts(ctx, req, log, resp)
	}
	if err != nil {
		return nil, err
	}

	ctx.Progress("Complete", 100)
	ctx.Log(fmt.Sprintf("%s: %d %s", source, resp.Total, req.Mode))
	return resp, nil
}

func loadLog(ctx *app.Context, req *AnalyzeRequest) ([]byte, string, error) {
	if req.File != "" {
		data, err := app.ReadSource(ctx, req.File)
		return data, req.File, err
	}

	vol, err := ctx.Open(req.Source)
	if err != nil {
		return nil, "", err
	}
	defer vol.Close()

	data, _, err := vol.ExtractLogfile()
	if err != nil {
		return nil, "", app.Classify(fmt.Sprintf("failed to extract the log of %s", req.Source.String()), err)
	}
	return data, req.Source.String(), nil
}

func controlResult(log *logfile.Log) ControlResult {
	info := log.Control().Info
	return ControlResult{
		SequenceNumber: info.SequenceNumber,
		StartCluster:   info.StartCluster,
		EndCluster:     info.EndCluster,
		NextLSN:        info.NextLSN,
		NextLSNDup:     info.NextLSNDup,
		UUID:           log.Control().UUID().String(),
		DupDecoded:     log.ControlDup() != nil,
	}
}

// full reports whether the limit has been reached, marking the response truncated
func full(req *AnalyzeRequest, resp *AnalyzeResponse, n int) bool {
	if req.Limit > 0 && n >= req.Limit {
		resp.Truncated = true
		return true
	}
	return false
}

func collectOperations(ctx *app.Context, req *AnalyzeRequest, log *logfile.Log, resp *AnalyzeResponse) error {
	results := transactions.Analyze(log.Contexts(), ctx.Diagnostics())
	for op, err := range transactions.Operations(results) {
		if err != nil {
			return app.Classify("failed to scan the log", err)
		}
		if err := ctx.Canceled(); err != nil {
			return err
		}
		if full(req, resp, len(resp.Operations)) {
			break
		}
		resp.Operations = append(resp.Operations, op)
	}
	resp.Total = len(resp.Operations)
	return nil
}

func collectGroups(ctx *app.Context, req *AnalyzeRequest, log *logfile.Log, resp *AnalyzeResponse) error {
	summary := &Summary{}
	for result, err := range transactions.Analyze(log.Contexts(), ctx.Diagnostics()) {
		if err != nil {
			return app.Classify("failed to scan the log", err)
		}
		if err := ctx.Canceled(); err != nil {
			return err
		}
		if full(req, resp, len(resp.Groups)) {
			break
		}

		summary.Groups++
		switch result.Outcome {
		case transactions.OutcomeDecoded:
			summary.Decoded++
		case transactions.OutcomeUnimplemented:
			summary.Unimplemented++
		default:
			summary.Unrecognized++
		}
		if result.Group.Incomplete {
			summary.Incomplete++
		}

		resp.Groups = append(resp.Groups, GroupResult{
			LSN:        result.Group.LSN(),
			Opcodes:    transactions.FormatOpcodes(result.Group.Opcodes()),
			Members:    len(result.Group.Contexts),
			Incomplete: result.Group.Incomplete,
			Outcome:    result.Outcome.String(),
			Signature:  result.Signature,
			Operation:  result.Operation,
			Fields:     result.Fields,
			Reason:     result.Reason,
		})
	}
	resp.Summary = summary
	resp.Total = len(resp.Groups)
	return nil
}

func collectContexts(ctx *app.Context, req *AnalyzeRequest, log *logfile.Log, resp *AnalyzeResponse) error {
	for c, err := range log.Contexts() {
		if err != nil {
			return app.Classify("failed to scan the log", err)
		}
		if err := ctx.Canceled(); err != nil {
			return err
		}
		if full(req, resp, len(resp.Contexts)) {
			break
		}

		fields := make([]string, len(c.Fields))
		for i, f := range c.Fields {
			fields[i] = hex.EncodeToString(f)
		}
		resp.Contexts = append(resp.Contexts, ContextResult{
			LSN:        c.LSN,
			EntryID:    c.EntryID,
			Opcode:     uint32(c.Opcode()),
			OpcodeName: c.Opcode().String(),
			RecMark:    c.RecMark(),
			KeyCount:   c.Header.KeyCount,
			ValueCount: c.Header.ValueCount,
			Fields:     fields,
		})
	}
	resp.Total = len(resp.Contexts)
	return nil
}

// HandleExtract saves the raw log byte range of a volume
func HandleExtract(ctx *app.Context, req *ExtractRequest) (*ExtractResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	vol, err := ctx.Open(req.Source)
	if err != nil {
		return nil, err
	}
	defer vol.Close()

	loc, err := vol.LogfileLocation()
	if err != nil {
		return nil, app.Classify("failed to locate the log", err)
	}
	ctx.Progress("Reading log...", 30)
	data, control, err := vol.ExtractLogfileAt(loc)
	if err != nil {
		return nil, app.Classify("failed to extract the log", err)
	}
	ctx.Progress("Writing output...", 80)
	if err := app.WriteOutput(req.Output, data, req.Force); err != nil {
		return nil, err
	}

	ctx.Progress("Complete", 100)
	ctx.Log(fmt.Sprintf("saved %d bytes of log to %s", len(data), req.Output))
	return &ExtractResponse{
		Output:       req.Output,
		Bytes:        len(data),
		Control:      loc.Control,
		ControlDup:   loc.ControlDup,
		StartCluster: control.Info.StartCluster,
		EndCluster:   control.Info.EndCluster,
	}, nil
}
