package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-refs/pkg/app/redo"
	"github.com/deploymenttheory/go-refs/pkg/app/usn"
)

var (
	extractDest       string
	overwriteExisting bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Save the raw redo log or change journal of a volume",
	Long: `Copy the raw bytes of the redo log or the change journal out of a volume so they
can be analyzed later with 'logfile --file' or 'usn --file'.

Examples:
  # Save the redo log
  go-refs extract logfile refs.img --dest logfile.bin

  # Save the change journal, replacing an earlier copy
  go-refs extract usn disk.img --partition 2 --dest usn.bin --overwrite`,
}

var extractLogfileCmd = &cobra.Command{
	Use:   "logfile [image-or-device]",
	Short: "Save both control pages and the data area of the redo log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtractLogfile(cmd, cmd.OutOrStdout(), args[0])
	},
}

var extractUSNCmd = &cobra.Command{
	Use:   "usn [image-or-device]",
	Short: "Save the change journal file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtractUSN(cmd, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.AddCommand(extractLogfileCmd, extractUSNCmd)

	extractCmd.PersistentFlags().StringVarP(&extractDest, "dest", "d", "", "destination file (required)")
	extractCmd.MarkPersistentFlagRequired("dest")
	extractCmd.PersistentFlags().BoolVar(&overwriteExisting, "overwrite", false, "overwrite an existing destination")
}

func runExtractLogfile(cmd *cobra.Command, w io.Writer, image string) error {
	ctx := newContext(cmd)

	resp, err := redo.HandleExtract(ctx, &redo.ExtractRequest{Source: volumeSource(image), Output: extractDest, Force: overwriteExisting})
	if err != nil {
		return err
	}
	return redo.FormatExtract(w, resp, ctx.OutputFormat)
}

func runExtractUSN(cmd *cobra.Command, w io.Writer, image string) error {
	ctx := newContext(cmd)

	resp, err := usn.HandleExtract(ctx, &usn.ExtractRequest{Source: volumeSource(image), Output: extractDest, Force: overwriteExisting})
	if err != nil {
		return err
	}
	return usn.FormatExtract(w, resp, ctx.OutputFormat)
}
