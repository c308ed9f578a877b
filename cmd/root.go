package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-refs/internal/device"
	"github.com/deploymenttheory/go-refs/internal/diagnostics"
	"github.com/deploymenttheory/go-refs/pkg/app"
)

var (
	// Global output flags
	verbose      bool
	quiet        bool
	outputFormat string
	logFormat    string

	// Volume location and configuration
	configFile     string
	partitionIndex int
	volumeOffset   int64

	settings *device.Config
	logger   *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "go-refs",
	Short: "Forensic reader for ReFS v3 volumes",
	Long: `go-refs is a cross-platform, read-only command-line tool for examining
ReFS version 3 volumes in disk images and raw devices.

It walks the bootstrap structures, directory tree and files of a volume and
reconstructs file system activity from the redo log and the change journal.
Version 1 volumes are recognized but not decoded.

Commands:
  info        Show volume header, checkpoint and container table details
  ls          List a directory
  cat         Dump the content of a file
  translate   Map virtual LCNs to physical LCNs
  objects     List the object table
  logfile     Reconstruct operations from the redo log
  usn         Decode the change journal
  extract     Save the raw redo log or change journal to a file
  devices     List mounted ReFS volumes`,
	Version:           "0.1.0-dev",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress output except errors")
	flags.StringVarP(&outputFormat, "output", "o", "table", "output format (table, json, yaml)")
	flags.StringVar(&logFormat, "log-format", "text", "diagnostics log format (text, json)")
	flags.StringVar(&configFile, "config", "", "config file (default refs-config.yaml)")
	flags.IntVarP(&partitionIndex, "partition", "p", 0, "partition of a full-disk image holding the volume (1-based)")
	flags.Int64Var(&volumeOffset, "offset", 0, "byte offset of the volume, decimal or 0x hex")

	viper.BindPFlag("output", flags.Lookup("output"))
	viper.BindPFlag("log_format", flags.Lookup("log-format"))
	viper.BindPFlag("partition", flags.Lookup("partition"))
	viper.BindPFlag("offset", flags.Lookup("offset"))
}

// loadSettings merges the config file, REFS_* environment and flags, then builds the diagnostics logger
func loadSettings(cmd *cobra.Command, args []string) error {
	config, err := device.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if err := app.ValidateFormat(config.OutputFormat); err != nil {
		return err
	}

	log, err := diagnostics.New(diagnostics.Options{
		Verbose: verbose,
		Quiet:   quiet,
		Format:  config.LogFormat,
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	settings, logger = config, log
	return nil
}

// newContext builds the application context of a command run
func newContext(cmd *cobra.Command) *app.Context {
	ctx := app.NewContext()
	if parent := cmd.Context(); parent != nil {
		ctx.Context = parent
	}
	ctx.OutputFormat = GetOutputFormat()
	ctx.Verbose = verbose
	ctx.Quiet = quiet
	if logger != nil {
		ctx.Logger = logger
		if verbose && !quiet {
			ctx.SetProgress(func(message string, percent int) {
				logger.WithField("percent", percent).Debug(message)
			})
		}
	}
	return ctx
}

// volumeSource names the volume at path using the configured partition or offset
func volumeSource(path string) app.VolumeSource {
	config := settings
	if config == nil {
		config = device.DefaultConfig()
	}
	return app.VolumeSource{
		Path:           path,
		PartitionIndex: config.PartitionIndex,
		Offset:         config.VolumeOffset,
		AutoDetect:     config.AutoDetectPartition,
	}
}

// GetOutputFormat returns the output format, taking the config file and environment into account
func GetOutputFormat() string {
	if settings != nil {
		return settings.OutputFormat
	}
	return outputFormat
}
