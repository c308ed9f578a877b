package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-refs/pkg/app/browse"
)

var listAll bool

var lsCmd = &cobra.Command{
	Use:   "ls [image-or-device] [path]",
	Short: "List a directory of a ReFS volume",
	Long: `List the entries of a directory, starting from the root directory when no
path is given. Paths use / or \ as separator.

Examples:
  # List the root directory
  go-refs ls refs.img

  # List a subdirectory including index and unrecognized rows
  go-refs ls refs.img /Users/Public --all`,

	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 2 {
			path = args[1]
		}
		return runList(cmd, cmd.OutOrStdout(), args[0], path)
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVarP(&listAll, "all", "a", false, "include index root and unrecognized rows")
}

func runList(cmd *cobra.Command, w io.Writer, image, path string) error {
	ctx := newContext(cmd)

	resp, err := browse.HandleList(ctx, &browse.ListRequest{Source: volumeSource(image), Path: path, All: listAll})
	if err != nil {
		return err
	}
	return browse.FormatList(w, resp, ctx.OutputFormat)
}
