package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/example/harvest/internal/ports/primary"
)

// HistoryAdapter renders recorded runs.
type HistoryAdapter struct {
	service primary.HistoryService
	out     io.Writer
}

// NewHistoryAdapter creates a new HistoryAdapter.
func NewHistoryAdapter(service primary.HistoryService, out io.Writer) *HistoryAdapter {
	return &HistoryAdapter{service: service, out: out}
}

// List prints the most recent runs, newest first.
func (a *HistoryAdapter) List(ctx context.Context, limit int) ([]*primary.RunSummary, error) {
	runs, err := a.service.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No runs recorded.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Start one with:")
		fmt.Fprintln(a.out, "  harvest run checkin")
		return runs, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tFAMILY\tSTARTED\tDURATION\tDONE\tSKIPPED\tERRORS\tSTATUS")
	fmt.Fprintln(w, "--\t------\t-------\t--------\t----\t-------\t------\t------")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.RunID,
			r.Family,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration().Round(time.Second),
			r.Processed,
			r.Skipped,
			r.Errored,
			runStatus(r),
		)
	}
	w.Flush()
	return runs, nil
}

// Show prints one run with its per-account results.
func (a *HistoryAdapter) Show(ctx context.Context, id string) (*primary.RunSummary, error) {
	run, err := a.service.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	RenderSummary(a.out, run, true)
	return run, nil
}

// Prune deletes finished runs older than olderThan.
func (a *HistoryAdapter) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	n, err := a.service.PruneRuns(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Pruned %d run(s) older than %s\n", n, olderThan)
	return n, nil
}

func runStatus(r *primary.RunSummary) string {
	status := "completed"
	switch {
	case r.FinishedAt.IsZero():
		status = "running"
	case r.Interrupted:
		status = "interrupted"
	}
	if r.DryRun {
		status += " (dry run)"
	}
	return status
}
