package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/harvest/internal/ports/primary"
)

// RunAdapter translates the run command into BatchService calls and renders the summary.
type RunAdapter struct {
	service primary.BatchService
	out     io.Writer
}

// NewRunAdapter creates a new RunAdapter.
func NewRunAdapter(service primary.BatchService, out io.Writer) *RunAdapter {
	return &RunAdapter{service: service, out: out}
}

// Run executes one batch run and prints its summary.
func (a *RunAdapter) Run(ctx context.Context, req primary.RunRequest) (*primary.RunSummary, error) {
	summary, err := a.service.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	RenderSummary(a.out, summary, true)
	return summary, nil
}

// RenderSummary prints a run summary. With detail set, each account is listed.
func RenderSummary(out io.Writer, s *primary.RunSummary, detail bool) {
	title := fmt.Sprintf("Run %s: %s", s.RunID, s.Family)
	if s.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(out, "\n%s\n", color.New(color.Bold).Sprint(title))
	fmt.Fprintf(out, "Started:   %s\n", s.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Duration:  %s\n", s.Duration().Round(time.Second))
	fmt.Fprintf(out, "Accounts:  %d total, %s, %s, %s\n",
		s.Total,
		color.New(color.FgGreen).Sprintf("%d processed", s.Processed),
		color.New(color.FgHiBlack).Sprintf("%d skipped", s.Skipped),
		color.New(color.FgRed).Sprintf("%d errored", s.Errored),
	)
	if s.ItemsSucceeded > 0 || s.ItemsFailed > 0 {
		fmt.Fprintf(out, "Items:     %d succeeded, %d failed\n", s.ItemsSucceeded, s.ItemsFailed)
	}
	if s.CheckpointFailures > 0 {
		fmt.Fprintf(out, "%s %d state checkpoint(s) failed; the final save decides what persisted\n",
			color.New(color.FgYellow).Sprint("WARNING:"), s.CheckpointFailures)
	}
	if s.Interrupted {
		fmt.Fprintf(out, "%s run was interrupted; %d of %d accounts were reached\n",
			color.New(color.FgYellow).Sprint("INTERRUPTED:"), len(s.Accounts), s.Total)
	}

	if !detail || len(s.Accounts) == 0 {
		fmt.Fprintln(out)
		return
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tACCOUNT\tOUTCOME\tITEMS\tREASON")
	fmt.Fprintln(w, "-\t-------\t-------\t-----\t------")
	for _, r := range s.Accounts {
		items := "-"
		if r.ItemsSucceeded > 0 || r.ItemsFailed > 0 {
			items = fmt.Sprintf("%d/%d", r.ItemsSucceeded, r.ItemsSucceeded+r.ItemsFailed)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.Index+1, r.Address, r.Outcome, items, r.Reason)
	}
	w.Flush()
	fmt.Fprintln(out)
}
