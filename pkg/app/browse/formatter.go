package browse

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/deploymenttheory/go-refs/pkg/app"
)

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

// FormatInfo writes an info response in the requested format
func FormatInfo(w io.Writer, resp *InfoResponse, format string) error {
	if handled, err := app.EncodeStructured(w, resp, format); handled {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Path:\t%s\n", resp.Path)
	fmt.Fprintf(tw, "Offset:\t%#x\n", resp.Offset)
	fmt.Fprintf(tw, "Version:\t%s\n", resp.Version)
	fmt.Fprintf(tw, "Cluster size:\t%d (%d bytes per sector)\n", resp.ClusterSize, resp.BytesPerSector)
	fmt.Fprintf(tw, "Sectors:\t%d\n", resp.Sectors)
	if !resp.Supported {
		fmt.Fprintf(tw, "Status:\tformat recognized but not decoded\n")
		return tw.Flush()
	}
	fmt.Fprintf(tw, "GUID:\t%s\n", resp.GUID)
	fmt.Fprintf(tw, "Checkpoint:\t%s (%s)\n", resp.CheckpointSlot, resp.CheckpointVersion)
	fmt.Fprintf(tw, "Clusters per container:\t%#x\n", resp.ClustersPerContainer)
	fmt.Fprintf(tw, "Containers:\t%d\n", resp.Containers)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "RESERVED\tLCNS\tPADDING\n")
	fmt.Fprintf(tw, "--------\t----\t-------\n")
	for _, entry := range resp.Reserved {
		padding := "zero"
		if !entry.ZeroPadding {
			padding = "non-zero"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", entry.Name, entry.LCNs, padding)
	}
	return tw.Flush()
}

// FormatList writes a directory listing in the requested format
func FormatList(w io.Writer, resp *ListResponse, format string) error {
	if handled, err := app.EncodeStructured(w, resp, format); handled {
		return err
	}

	if len(resp.Entries) == 0 {
		_, err := fmt.Fprintf(w, "%s is empty\n", resp.Path)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "TYPE\tNAME\tSIZE\tOBJECT\tMODIFIED\n")
	fmt.Fprintf(tw, "----\t----\t----\t------\t--------\n")
	for _, entry := range resp.Entries {
		name := entry.Name
		if entry.Kind != "file" && entry.Kind != "directory" {
			name = fmt.Sprintf("%s (%s, flag %#x)", name, entry.Kind, entry.Flag)
		}
		size := "-"
		if entry.Type == "REG" {
			size = app.FormatBytes(entry.Size)
		}
		object := entry.ObjectID
		if object == "" {
			object = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", entry.Type, name, size, object, formatTime(entry.Modified))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s (directory %s): %d entries\n", resp.Path, resp.Directory, resp.Total)
	return err
}

// FormatCat writes file content: a hexdump for tables, hex encoded data otherwise
func FormatCat(w io.Writer, resp *CatResponse, format string) error {
	if handled, err := app.EncodeStructured(w, resp, format); handled {
		return err
	}
	return app.Hexdump(w, resp.Content.Data, 0)
}

// FormatTranslate writes LCN translations in the requested format
func FormatTranslate(w io.Writer, resp *TranslateResponse, format string) error {
	if handled, err := app.EncodeStructured(w, resp, format); handled {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "VIRTUAL\tKEY\tLOCAL\tPHYSICAL\n")
	fmt.Fprintf(tw, "-------\t---\t-----\t--------\n")
	for _, r := range resp.Results {
		fmt.Fprintf(tw, "%#x\t%#x\t%#x\t%#x\n", r.Virtual, r.Key, r.Local, r.Physical)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nClusters per container: %#x\n", resp.ClustersPerContainer)
	return err
}

// FormatObjects writes the object table in the requested format
func FormatObjects(w io.Writer, resp *ObjectsResponse, format string) error {
	if handled, err := app.EncodeStructured(w, resp, format); handled {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNAME\tLCNS\tPHYSICAL\n")
	fmt.Fprintf(tw, "--\t----\t----\t--------\n")
	for _, o := range resp.Objects {
		name, physical := o.Name, o.Physical
		if name == "" {
			name = "-"
		}
		if physical == "" {
			physical = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.ID, name, o.LCNs, physical)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d objects\n", resp.Total)
	return err
}
