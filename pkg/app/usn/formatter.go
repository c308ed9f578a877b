package usn

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/deploymenttheory/go-refs/pkg/app"
)

// FormatParse writes journal records in the requested format
func FormatParse(w io.Writer, resp *ParseResponse, format string) error {
	if handled, err := app.EncodeStructured(w, resp, format); handled {
		return err
	}

	if len(resp.Records) == 0 {
		_, err := fmt.Fprintf(w, "No matching records in %s (%d scanned)\n", resp.Source, resp.Scanned)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "USN\tTIMESTAMP\tFILE\tPARENT\tNAME\tREASONS\n")
	fmt.Fprintf(tw, "---\t---------\t----\t------\t----\t-------\n")
	for _, r := range resp.Records {
		fmt.Fprintf(tw, "%#x\t%s\t%#x\t%#x\t%s\t%s\n",
			r.USN, r.Timestamp.Format("2006-01-02 15:04:05"), r.FileReference.Low, r.ParentFileReference.Low, r.Name, strings.Join(r.Reasons, " | "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	summary := fmt.Sprintf("\n%d of %d records", resp.Total, resp.Scanned)
	if resp.Truncated {
		summary += " (limited)"
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

// FormatExtract writes the result of an extraction
func FormatExtract(w io.Writer, resp *ExtractResponse, format string) error {
	if handled, err := app.EncodeStructured(w, resp, format); handled {
		return err
	}
	_, err := fmt.Fprintf(w, "Saved %s of change journal (%d records) to %s\n", app.FormatBytes(uint64(resp.Bytes)), resp.Records, resp.Output)
	return err
}
