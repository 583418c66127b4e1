package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/example/harvest/internal/adapters/filesystem"
	"github.com/example/harvest/internal/wire"
)

// UACmd returns the ua command
func UACmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ua",
		Short: "Manage the user agent pool",
	}

	cmd.AddCommand(uaGenerateCmd())

	return cmd
}

func uaGenerateCmd() *cobra.Command {
	var (
		count int
		out   string
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a fresh pool of desktop browser user agents",
		Long: `Write a fresh pool of desktop browser user agents, replacing the file.

Examples:
  harvest ua generate
  harvest ua generate --count 200 --out ua.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			adapter, err := wire.AccountAdapter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return adapter.GenerateUserAgents(cmd.Context(), count, seed, out)
		},
	}

	cmd.Flags().IntVar(&count, "count", filesystem.DefaultUserAgentCount, "number of user agents")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "generator seed for a reproducible pool")

	return cmd
}
