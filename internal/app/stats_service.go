package app

import (
	"context"
	"fmt"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/ledger"
	"github.com/example/harvest/internal/ports/primary"
	"github.com/example/harvest/internal/ports/secondary"
)

// tierRank orders tiers for picking an account's best item.
var tierRank = map[ledger.Tier]int{
	ledger.TierUnknown: 0,
	ledger.Tier10x:     1,
	ledger.Tier100x:    2,
	ledger.Tier1000x:   3,
}

// StatsServiceImpl implements the StatsService interface.
type StatsServiceImpl struct {
	ledgerStore secondary.LedgerStore
}

// NewStatsService creates a new StatsService with injected dependencies.
func NewStatsService(ledgerStore secondary.LedgerStore) *StatsServiceImpl {
	return &StatsServiceImpl{ledgerStore: ledgerStore}
}

// Stats summarizes the progress ledger.
func (s *StatsServiceImpl) Stats(ctx context.Context) (*primary.LedgerStats, error) {
	l, err := s.ledgerStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress ledger: %w", err)
	}

	out := &primary.LedgerStats{Stats: ledger.Summarize(l)}
	for _, addr := range l.Addresses() {
		items := l.Items(addr)
		if len(items) == 0 {
			continue
		}
		h := primary.Holding{
			Address: account.Short(addr),
			Items:   len(items),
			Staked:  l.IsStaked(addr),
			Best:    ledger.Lookup(items[0].TemplateID),
		}
		for _, it := range items[1:] {
			if t := ledger.Lookup(it.TemplateID); tierRank[t.Tier] > tierRank[h.Best.Tier] {
				h.Best = t
			}
		}
		out.Holdings = append(out.Holdings, h)
	}
	return out, nil
}
