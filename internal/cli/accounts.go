package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/example/harvest/internal/wire"
)

// AccountsCmd returns the accounts command
func AccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Inspect and maintain accounts",
	}

	cmd.AddCommand(accountsListCmd())
	cmd.AddCommand(accountsResetCmd())

	return cmd
}

func accountsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with their identity binding and holdings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adapter, err := wire.AccountAdapter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.List(cmd.Context())
			return err
		},
	}
}

func accountsResetCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "reset [address...]",
		Short: "Clear the proxy and user agent binding of accounts",
		Long: `Clear the proxy and user agent binding of accounts so the next run
assigns fresh ones. Addresses must be given in full.

Examples:
  harvest accounts reset 7xKXtg2CW87dDhRvHGtL4yqqjgnJ7CPzCUzZe2uRzqzr
  harvest accounts reset --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("pass addresses or --all, not both")
			}
			adapter, err := wire.AccountAdapter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, err = adapter.Reset(cmd.Context(), args, all)
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "reset every account")

	return cmd
}
