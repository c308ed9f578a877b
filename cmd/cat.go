package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-refs/pkg/app/browse"
)

var catRaw bool

var catCmd = &cobra.Command{
	Use:   "cat [image-or-device] [path]",
	Short: "Dump the content of a file",
	Long: `Read a regular file and print it as a hexdump. Extents are read in order at
their own locations and the result is cut to the file size.

Examples:
  # Hexdump a file
  go-refs cat refs.img /Documents/notes.txt

  # Write the raw content to a local file
  go-refs cat refs.img /Documents/notes.txt --raw > notes.txt`,

	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCat(cmd, cmd.OutOrStdout(), args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
	catCmd.Flags().BoolVar(&catRaw, "raw", false, "write the file content unformatted")
}

func runCat(cmd *cobra.Command, w io.Writer, image, path string) error {
	ctx := newContext(cmd)

	resp, err := browse.HandleCat(ctx, &browse.CatRequest{Source: volumeSource(image), Path: path})
	if err != nil {
		return err
	}
	if catRaw {
		_, err := w.Write(resp.Content.Data)
		return err
	}
	return browse.FormatCat(w, resp, ctx.OutputFormat)
}
