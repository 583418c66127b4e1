package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/harvest/internal/ports/primary"
	"github.com/example/harvest/internal/wire"
)

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var (
		concurrency int
		dryRun      bool
		metricsFile string
	)

	validArgs := make([]string, 0, len(primary.Families))
	for _, f := range primary.Families {
		validArgs = append(validArgs, string(f))
	}

	cmd := &cobra.Command{
		Use:   fmt.Sprintf("run <%s>", strings.Join(validArgs, "|")),
		Short: "Run one operation across every account",
		Long: `Run one operation for every account in the accounts file.

Operations:
  checkin   daily check-in, then collect rewards above the threshold
  unlock    open every unopened box and record the items
  stake     stake every unstaked item in one batch
  all       check-in, unlock and stake in a single session per account

An interrupted run (Ctrl-C) saves progress and exits cleanly; rerun to continue.

Examples:
  harvest run checkin
  harvest run unlock --concurrency 4
  harvest run all --dry-run`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: validArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			family, err := primary.ParseFamily(args[0])
			if err != nil {
				return err
			}

			cfg, err := wire.Config()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.Concurrency
			}
			if concurrency < 1 {
				return errors.New("--concurrency must be at least 1")
			}

			adapter, err := wire.RunAdapter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if _, err := adapter.Run(cmd.Context(), primary.RunRequest{
				Family:      family,
				Concurrency: concurrency,
				DryRun:      dryRun,
			}); err != nil {
				return err
			}

			if metricsFile != "" {
				recorder, err := wire.Metrics()
				if err != nil {
					return err
				}
				if err := recorder.WriteTextfile(metricsFile); err != nil {
					return fmt.Errorf("failed to write metrics: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 1, "accounts processed in parallel (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "evaluate which accounts would run without opening sessions or writing state")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format after the run")

	return cmd
}
