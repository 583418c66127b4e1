// Package stake contains the pure business logic for staking unlocked items.
// This is part of the Functional Core - no I/O, only pure functions.
package stake

import (
	"fmt"
	"time"

	"github.com/example/harvest/internal/core/effects"
	"github.com/example/harvest/internal/core/ledger"
)

// State is the staking state of an account, derived from its ledger items.
type State string

const (
	NoItems          State = "no_items"
	HasUnstakedItems State = "has_unstaked_items"
	AllStaked        State = "all_staked"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// DeriveState classifies an account's items.
// One staked item marks the whole account staked, matching the account-wide remote call.
// StakePending items count as unstaked.
func DeriveState(items []ledger.Item) State {
	if len(items) == 0 {
		return NoItems
	}
	for _, it := range items {
		if it.State == ledger.Staked {
			return AllStaked
		}
	}
	return HasUnstakedItems
}

// CanAttempt evaluates whether the account needs a stake session.
func CanAttempt(items []ledger.Item) GuardResult {
	switch DeriveState(items) {
	case NoItems:
		return GuardResult{Allowed: false, Reason: "no items to stake"}
	case AllStaked:
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("already staked (%d items)", len(items))}
	default:
		return GuardResult{Allowed: true}
	}
}

// Message is the message signed to authorize staking.
func Message(now time.Time) string {
	return fmt.Sprintf("Stake NFTs at %d", now.UnixMilli())
}

// PlanPrepare marks the account's items StakePending and checkpoints before the remote call.
func PlanPrepare(address string) []effects.Effect {
	return []effects.Effect{
		effects.LedgerEffect{Operation: effects.LedgerMarkStakePending, Address: address},
		effects.CheckpointEffect{Store: effects.StoreLedger},
	}
}

// ResultInput is the outcome of a stake submission.
type ResultInput struct {
	Address   string
	Success   bool
	Total     int
	Succeeded int
	Failed    int
	Errors    []string
	Now       time.Time
}

// PlanResult produces the effects of a stake submission.
// Only a successful submission marks items Staked; every item gets the same result.
func PlanResult(in ResultInput) []effects.Effect {
	var out []effects.Effect
	for _, msg := range in.Errors {
		out = append(out, effects.LogEffect{Level: "warn", Message: "stake error reported", Fields: map[string]any{"error": msg}})
	}
	if !in.Success {
		return append(out, effects.LogEffect{Level: "warn", Message: "stake rejected"})
	}
	return append(out,
		effects.LedgerEffect{
			Operation: effects.LedgerMarkStaked,
			Address:   in.Address,
			Result: ledger.StakeResult{
				Total:     in.Total,
				Succeeded: in.Succeeded,
				Failed:    in.Failed,
				At:        in.Now,
			},
		},
		effects.CheckpointEffect{Store: effects.StoreLedger},
		effects.LogEffect{
			Level:   "info",
			Message: "stake succeeded",
			Fields:  map[string]any{"total_nfts": in.Total, "success_count": in.Succeeded, "failed_count": in.Failed},
		},
	)
}
