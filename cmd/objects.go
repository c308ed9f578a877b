package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-refs/pkg/app/browse"
)

var objectsCmd = &cobra.Command{
	Use:   "objects [image-or-device]",
	Short: "List the object table",
	Long: `List every object table record with its virtual and physical root LCNs.

Examples:
  go-refs objects refs.img
  go-refs objects disk.img --partition 2 -o yaml`,

	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runObjects(cmd, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(objectsCmd)
}

func runObjects(cmd *cobra.Command, w io.Writer, image string) error {
	ctx := newContext(cmd)

	resp, err := browse.HandleObjects(ctx, &browse.ObjectsRequest{Source: volumeSource(image)})
	if err != nil {
		return err
	}
	return browse.FormatObjects(w, resp, ctx.OutputFormat)
}
