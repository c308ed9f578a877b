package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-refs/internal/device"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

var allDevices bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List mounted ReFS volumes",
	Long: `List the file systems mounted on this host that report ReFS as their type.
The device paths can be passed to the other commands; reading a raw device
usually needs elevated privileges.

Examples:
  go-refs devices
  go-refs devices --all -o json`,

	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDevices(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.Flags().BoolVar(&allDevices, "all", false, "include mounted file systems of every type")
}

func runDevices(w io.Writer) error {
	volumes, err := device.ListVolumes(!allDevices)
	if err != nil {
		return app.NewError(app.ErrCodeVolumeAccess, "failed to list mounted volumes", err)
	}
	return formatDevices(w, volumes, GetOutputFormat())
}

func formatDevices(w io.Writer, volumes []device.MountedVolume, format string) error {
	if handled, err := app.EncodeStructured(w, volumes, format); handled {
		return err
	}

	if len(volumes) == 0 {
		_, err := fmt.Fprintln(w, "No mounted ReFS volumes found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "DEVICE\tMOUNTPOINT\tFSTYPE\tOPTIONS\n")
	fmt.Fprintf(tw, "------\t----------\t------\t-------\n")
	for _, v := range volumes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.Device, v.Mountpoint, v.Fstype, v.Options)
	}
	return tw.Flush()
}
