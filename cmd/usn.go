package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-refs/pkg/app/usn"
)

var (
	usnInput   string
	usnName    string
	usnReasons []string
	usnParent  uint64
	usnLimit   int
)

var usnCmd = &cobra.Command{
	Use:   "usn [image-or-device]",
	Short: "Decode the change journal",
	Long: `Decode the USN change journal of a volume, or a journal saved with
'extract usn', and filter its records.

Examples:
  # Every record of the journal
  go-refs usn refs.img

  # Files created or deleted under object 0x701
  go-refs usn refs.img --reason "FILE CREATE" --reason file_delete --parent 0x701

  # Records naming .docx files in a saved journal
  go-refs usn --file usn.bin --name "*.docx"`,

	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image := ""
		if len(args) == 1 {
			image = args[0]
		}
		return runUSN(cmd, cmd.OutOrStdout(), image)
	},
}

func init() {
	rootCmd.AddCommand(usnCmd)

	usnCmd.Flags().StringVarP(&usnInput, "file", "f", "", "read a journal saved with 'extract usn' instead of a volume")
	usnCmd.Flags().StringVar(&usnName, "name", "", "file name pattern, case-insensitive (e.g. *.docx)")
	usnCmd.Flags().StringSliceVar(&usnReasons, "reason", nil, "keep records with any of these reasons")
	usnCmd.Flags().Uint64Var(&usnParent, "parent", 0, "keep records whose parent object is this identifier")
	usnCmd.Flags().IntVarP(&usnLimit, "limit", "n", 0, "stop after this many records (0 = all)")
}

func runUSN(cmd *cobra.Command, w io.Writer, image string) error {
	ctx := newContext(cmd)

	req := &usn.ParseRequest{
		File:        usnInput,
		NamePattern: usnName,
		Reasons:     usnReasons,
		Parent:      usnParent,
		Limit:       usnLimit,
	}
	if image != "" {
		req.Source = volumeSource(image)
	}

	resp, err := usn.HandleParse(ctx, req)
	if err != nil {
		return err
	}
	return usn.FormatParse(w, resp, ctx.OutputFormat)
}
