package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-refs/pkg/app/redo"
)

var (
	logfileInput string
	logfileMode  string
	logfileLimit int
)

var logfileCmd = &cobra.Command{
	Use:   "logfile [image-or-device]",
	Short: "Reconstruct file system operations from the redo log",
	Long: `Scan the redo log of a volume, group its transaction contexts and match the
groups against the known operation signatures.

Modes:
  operations  recognized operations only (default)
  groups      every group with its outcome and a summary
  contexts    raw transaction contexts with hex encoded fields
  control     control information only

Examples:
  # Operations recorded in the log of a volume
  go-refs logfile refs.img

  # Every group, including unrecognized ones, from a saved log
  go-refs logfile --file logfile.bin --mode groups

  # First 50 raw contexts as JSON
  go-refs logfile refs.img --mode contexts --limit 50 -o json`,

	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image := ""
		if len(args) == 1 {
			image = args[0]
		}
		return runLogfile(cmd, cmd.OutOrStdout(), image)
	},
}

func init() {
	rootCmd.AddCommand(logfileCmd)

	logfileCmd.Flags().StringVarP(&logfileInput, "file", "f", "", "read a log saved with 'extract logfile' instead of a volume")
	logfileCmd.Flags().StringVarP(&logfileMode, "mode", "m", redo.ModeOperations, "operations, groups, contexts or control")
	logfileCmd.Flags().IntVarP(&logfileLimit, "limit", "n", 0, "stop after this many items (0 = all)")
}

func runLogfile(cmd *cobra.Command, w io.Writer, image string) error {
	ctx := newContext(cmd)

	req := &redo.AnalyzeRequest{File: logfileInput, Mode: logfileMode, Limit: logfileLimit}
	if image != "" {
		req.Source = volumeSource(image)
	}

	resp, err := redo.HandleAnalyze(ctx, req)
	if err != nil {
		return err
	}
	return redo.FormatAnalyze(w, resp, ctx.OutputFormat)
}
