package redo

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/deploymenttheory/go-refs/internal/parsers/transactions"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

// FormatAnalyze writes an analysis in the requested format
func FormatAnalyze(w io.Writer, resp *AnalyzeResponse, format string) error {
	if handled, err := app.EncodeStructured(w, resp, format); handled {
		return err
	}

	c := resp.Control
	fmt.Fprintf(w, "Log of %s\n", resp.Source)
	fmt.Fprintf(w, "  Data area: %#x - %#x  Next LSN: %#x  Sequence: %d\n", c.StartCluster, c.EndCluster, c.NextLSN, c.SequenceNumber)
	fmt.Fprintf(w, "  UUID: %s  Overwritten: %t\n\n", c.UUID, resp.Overwritten)

	var err error
	switch resp.Mode {
	case ModeOperations:
		err = formatOperations(w, resp.Operations)
	case ModeGroups:
		err = formatGroups(w, resp.Groups, resp.Summary)
	case ModeContexts:
		err = formatContexts(w, resp.Contexts)
	}
	if err != nil {
		return err
	}
	if resp.Truncated {
		_, err = fmt.Fprintf(w, "\nOutput limited to %d %s\n", resp.Total, resp.Mode)
	}
	return err
}

func formatOperations(w io.Writer, ops []*transactions.Operation) error {
	if len(ops) == 0 {
		_, err := fmt.Fprintln(w, "No operations recognized")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "LSN\tOPERATION\tPARENT\tNAME\tDETAILS\n")
	fmt.Fprintf(tw, "---\t---------\t------\t----\t-------\n")
	for _, op := range ops {
		parent := "-"
		if op.ParentID != nil {
			parent = fmt.Sprintf("%#x", *op.ParentID)
		}
		name := op.Filename
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%#x\t%s\t%s\t%s\t%s\n", op.LSN, op.Kind, parent, name, operationDetails(op))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d operations\n", len(ops))
	return err
}

func operationDetails(op *transactions.Operation) string {
	var details []string
	if op.PreviousParentID != nil {
		details = append(details, fmt.Sprintf("from parent %#x", *op.PreviousParentID))
	}
	if op.PreviousFilename != "" {
		details = append(details, fmt.Sprintf("was %q", op.PreviousFilename))
	}
	if op.LCN != nil {
		details = append(details, fmt.Sprintf("lcn %#x", *op.LCN))
	}
	if op.Timestamps != nil && !op.Timestamps.Modified.IsZero() {
		details = append(details, "modified "+op.Timestamps.Modified.Format("2006-01-02 15:04:05"))
	}
	details = append(details, fmt.Sprintf("%d contexts", op.Members))
	return strings.Join(details, ", ")
}

func formatGroups(w io.Writer, groups []GroupResult, summary *Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "LSN\tOPCODES\tOUTCOME\tDETAIL\n")
	fmt.Fprintf(tw, "---\t-------\t-------\t------\n")
	for _, g := range groups {
		detail := g.Reason
		switch {
		case g.Signature != "":
			detail = g.Signature
		case g.Fields != nil && g.Fields.Name != nil:
			detail = fmt.Sprintf("name %q", g.Fields.Name.Name)
		}
		if g.Incomplete {
			detail += " (incomplete)"
		}
		fmt.Fprintf(tw, "%#x\t%s\t%s\t%s\n", g.LSN, g.Opcodes, g.Outcome, detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if summary == nil {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n%d groups: %d decoded, %d unimplemented, %d unrecognized, %d incomplete\n",
		summary.Groups, summary.Decoded, summary.Unimplemented, summary.Unrecognized, summary.Incomplete)
	return err
}

func formatContexts(w io.Writer, contexts []ContextResult) error {
	for _, c := range contexts {
		fmt.Fprintf(w, "LSN %#x entry %d: %s (%#x) rec_mark %#x keys %d values %d\n",
			c.LSN, c.EntryID, c.OpcodeName, c.Opcode, c.RecMark, c.KeyCount, c.ValueCount)
		for i, f := range c.Fields {
			label := "tail"
			if i > 0 {
				label = fmt.Sprintf("field %d", i)
			}
			if _, err := fmt.Fprintf(w, "  %-8s %s\n", label, f); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "\n%d contexts\n", len(contexts))
	return err
}

// FormatExtract writes the result of an extraction
func FormatExtract(w io.Writer, resp *ExtractResponse, format string) error {
	if handled, err := app.EncodeStructured(w, resp, format); handled {
		return err
	}
	_, err := fmt.Fprintf(w, "Saved %s of log to %s (control %#x/%#x, data %#x - %#x)\n",
		app.FormatBytes(uint64(resp.Bytes)), resp.Output, resp.Control, resp.ControlDup, resp.StartCluster, resp.EndCluster)
	return err
}
