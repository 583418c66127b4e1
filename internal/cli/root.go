// Package cli defines the harvest command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/harvest/internal/version"
	"github.com/example/harvest/internal/wire"
)

// RootCmd returns the harvest root command with every subcommand attached.
func RootCmd() *cobra.Command {
	var opts wire.Options

	cmd := &cobra.Command{
		Use:     "harvest",
		Short:   "Harvest - daily check-in, unlock and stake across many accounts",
		Version: version.String(),
		Long: `Harvest drives a fleet of accounts through a remote task service.
Each account gets its own proxy identity and browser session; progress is
checkpointed after every account so an interrupted run resumes cleanly.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			wire.Configure(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default .harvest/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "run history database (default ~/.harvest/harvest.db)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "log as JSON instead of console text")

	cmd.AddCommand(RunCmd())
	cmd.AddCommand(StatsCmd())
	cmd.AddCommand(HistoryCmd())
	cmd.AddCommand(AccountsCmd())
	cmd.AddCommand(UACmd())
	cmd.AddCommand(VersionCmd())

	return cmd
}

// VersionCmd returns the version command
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
