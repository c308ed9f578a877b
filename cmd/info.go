package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-refs/pkg/app/browse"
)

var infoCmd = &cobra.Command{
	Use:   "info [image-or-device]",
	Short: "Show the bootstrap structures of a ReFS volume",
	Long: `Decode the volume header, superblock and checkpoint of a ReFS volume and
summarize the checkpoint catalog and container table.

Examples:
  # Inspect a volume image
  go-refs info refs.img

  # Inspect the second partition of a full-disk image
  go-refs info disk.img --partition 2

  # Inspect a volume at a known byte offset, as JSON
  go-refs info disk.img --offset 0x100000 -o json`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(cmd, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, w io.Writer, path string) error {
	ctx := newContext(cmd)

	resp, err := browse.HandleInfo(ctx, &browse.InfoRequest{Source: volumeSource(path)})
	if err != nil {
		return err
	}
	return browse.FormatInfo(w, resp, ctx.OutputFormat)
}
