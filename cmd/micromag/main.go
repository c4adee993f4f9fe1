// Command micromag runs micromagnetic simulations described by run files
// and inspects their regions and stored snapshots.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/micromag/internal/config"
	"github.com/banshee-data/micromag/internal/monitoring"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "micromag",
		Short: "Micromagnetic simulation runner",
		Long: `micromag builds a simulation from a JSON or YAML run file: a regular
grid, named quantities, regions painted from an image or classified by a
Lua script, and periodic outputs. It then steps the simulation in time.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			if !cmd.Flags().Changed("log-level") {
				env, err := config.ParseEnv()
				if err != nil {
					return err
				}
				level = env.LogLevel
			}
			l, err := monitoring.ParseLevel(level)
			if err != nil {
				return err
			}
			monitoring.Configure(l, cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "ops", "Log streams to write: off, ops, diag or trace (env MICROMAG_LOG_LEVEL)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newRegionsCmd(),
		newSnapshotsCmd(),
	)
	return rootCmd
}
