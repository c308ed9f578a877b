package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-refs/pkg/app/browse"
)

var translateCmd = &cobra.Command{
	Use:   "translate [image-or-device] [lcn...]",
	Short: "Map virtual LCNs to physical LCNs",
	Long: `Translate a virtual LCN, or a tuple of up to four LCNs, through the container
table. LCNs are decimal or 0x hex.

Examples:
  # Translate one LCN
  go-refs translate refs.img 0x1e0021

  # Translate a tuple as it appears in a page reference
  go-refs translate refs.img 0x1e0021 0x1e0022`,

	Args: cobra.RangeArgs(2, 5),
	RunE: func(cmd *cobra.Command, args []string) error {
		lcns, err := parseLCNs(args[1:])
		if err != nil {
			return err
		}
		return runTranslate(cmd, cmd.OutOrStdout(), args[0], lcns)
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)
}

func parseLCNs(args []string) ([]uint64, error) {
	lcns := make([]uint64, len(args))
	for i, arg := range args {
		lcn, err := strconv.ParseUint(arg, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid LCN %q: %w", arg, err)
		}
		lcns[i] = lcn
	}
	return lcns, nil
}

func runTranslate(cmd *cobra.Command, w io.Writer, image string, lcns []uint64) error {
	ctx := newContext(cmd)

	resp, err := browse.HandleTranslate(ctx, &browse.TranslateRequest{Source: volumeSource(image), LCNs: lcns})
	if err != nil {
		return err
	}
	return browse.FormatTranslate(w, resp, ctx.OutputFormat)
}
