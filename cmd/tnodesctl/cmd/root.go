package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Davknapp/tnodes/pkg/telemetry"
	"github.com/Davknapp/tnodes/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string
	logger     utils.Logger

	// telemetry shutdown, set once PersistentPreRunE has run
	telemetryShutdown telemetry.ShutdownFunc
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "tnodesctl",
	Short: "Simulate and inspect distributed quadtree-forest node numbering",
	Long: `tnodesctl drives the conforming node-numbering algorithm in
internal/tnodes across a cohort of simulated MPI ranks.

It builds a synthetic forest, runs the traversal/exchange/global-numbering
pipeline per rank over an in-process transport fabric, and reports the
resulting node counts, optionally persisting per-rank summaries and
archiving the per-rank node-id vectors and non-local id tables.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)

		shutdown, err := telemetry.Init(cmd.Context())
		if err != nil {
			logger.Warn("Failed to initialize telemetry: %v", err)
			shutdown = func(context.Context) error { return nil }
		}
		telemetryShutdown = shutdown

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if telemetryShutdown != nil {
			if err := telemetryShutdown(cmd.Context()); err != nil {
				logger.Warn("Failed to shut down telemetry: %v", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (defaults to ./config.yaml)")

	binName := BinName()
	rootCmd.Example = `  # Run a 4-rank chain simulation and print a summary
  ` + binName + ` simulate --ranks 4 --elements-per-rank 16

  # Run a simulation and persist per-rank summaries to the resultstore
  ` + binName + ` simulate --ranks 4 --elements-per-rank 16 --run-id demo-1 --persist

  # Print version information
  ` + binName + ` version`
}

// GetLogger returns the configured logger.
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
