package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/harvest/internal/core/ledger"
	"github.com/example/harvest/internal/ports/primary"
)

// StatsAdapter renders ledger statistics.
type StatsAdapter struct {
	service primary.StatsService
	out     io.Writer
}

// NewStatsAdapter creates a new StatsAdapter.
func NewStatsAdapter(service primary.StatsService, out io.Writer) *StatsAdapter {
	return &StatsAdapter{service: service, out: out}
}

// tierOrder is the display order of rarity tiers, rarest first.
var tierOrder = []ledger.Tier{ledger.Tier1000x, ledger.Tier100x, ledger.Tier10x, ledger.TierUnknown}

// Show prints the ledger summary followed by per-account holdings.
func (a *StatsAdapter) Show(ctx context.Context) (*primary.LedgerStats, error) {
	stats, err := a.service.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	if stats.Items == 0 {
		fmt.Fprintln(a.out, "No items in the ledger yet.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Unlock some first:")
		fmt.Fprintln(a.out, "  harvest run unlock")
		return stats, nil
	}

	fmt.Fprintf(a.out, "\n%s\n", color.New(color.Bold).Sprint("Ledger"))
	fmt.Fprintf(a.out, "Accounts:  %d with items, %d staked\n", stats.Accounts, stats.AccountsStaked)
	fmt.Fprintf(a.out, "Items:     %d total, %d unlocked, %d pending, %d staked\n",
		stats.Items, stats.ItemsUnlocked, stats.ItemsPending, stats.ItemsStaked)
	fmt.Fprint(a.out, "Rarity:   ")
	for _, tier := range tierOrder {
		if n := stats.ByTier[tier]; n > 0 {
			fmt.Fprintf(a.out, " %s=%d", tierColor(tier).Sprint(tier), n)
		}
	}
	fmt.Fprintln(a.out)

	if len(stats.Holdings) > 0 {
		fmt.Fprintln(a.out)
		w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ACCOUNT\tITEMS\tSTAKED\tBEST")
		fmt.Fprintln(w, "-------\t-----\t------\t----")
		for _, h := range stats.Holdings {
			staked := "no"
			if h.Staked {
				staked = "yes"
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s (%s)\n", h.Address, h.Items, staked, h.Best.Name, h.Best.Tier)
		}
		w.Flush()
	}
	fmt.Fprintln(a.out)

	return stats, nil
}

func tierColor(t ledger.Tier) *color.Color {
	switch t {
	case ledger.Tier1000x:
		return color.New(color.FgHiMagenta)
	case ledger.Tier100x:
		return color.New(color.FgHiYellow)
	case ledger.Tier10x:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgHiBlack)
	}
}
