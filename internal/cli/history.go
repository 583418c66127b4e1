package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/harvest/internal/wire"
)

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Long: `List recent runs, newest first.

Examples:
  harvest history
  harvest history --limit 5
  harvest history show <run-id>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.HistoryAdapter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.List(cmd.Context(), limit)
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyPruneCmd())

	return cmd
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its per-account results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.HistoryAdapter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Show(cmd.Context(), args[0])
			return err
		},
	}
}

func historyPruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished runs older than a number of days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return errors.New("--days must be at least 1")
			}
			adapter, err := wire.HistoryAdapter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Prune(cmd.Context(), time.Duration(days)*24*time.Hour)
			return err
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "keep runs started within this many days")

	return cmd
}
