// Package checkin contains the pure business logic for the daily check-in operation.
// This is part of the Functional Core - no I/O, only pure functions.
package checkin

import (
	"fmt"
	"time"
)

// State is the check-in state of an account for the current local day.
type State string

const (
	NotCheckedInToday     State = "not_checked_in_today"
	AlreadyCheckedInToday State = "already_checked_in_today"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// DeriveState compares the last check-in with now by calendar day in now's location.
func DeriveState(lastCheckin *time.Time, now time.Time) State {
	if lastCheckin == nil {
		return NotCheckedInToday
	}
	last := lastCheckin.In(now.Location())
	ly, lm, ld := last.Date()
	ny, nm, nd := now.Date()
	if ly == ny && lm == nm && ld == nd {
		return AlreadyCheckedInToday
	}
	return NotCheckedInToday
}

// SkipContext provides context for the pre-session skip predicate.
type SkipContext struct {
	Address     string
	LastCheckin *time.Time
	Now         time.Time
}

// CanAttempt evaluates whether the account needs a check-in session at all.
// Rule: an account already checked in today (local cache) is skipped without a session.
func CanAttempt(ctx SkipContext) GuardResult {
	if DeriveState(ctx.LastCheckin, ctx.Now) == AlreadyCheckedInToday {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("already checked in today at %s", ctx.LastCheckin.In(ctx.Now.Location()).Format("15:04")),
		}
	}
	return GuardResult{Allowed: true}
}

// CollectContext provides context for the reward collection guard.
type CollectContext struct {
	Enabled       bool
	PendingEnergy float64
	Threshold     float64
}

// CanCollect evaluates whether accrued rewards should be collected.
// Rule: collection must be enabled and pending energy strictly above the threshold.
func CanCollect(ctx CollectContext) GuardResult {
	if !ctx.Enabled {
		return GuardResult{Allowed: false, Reason: "collection disabled"}
	}
	if ctx.PendingEnergy <= ctx.Threshold {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("pending energy %.2f not above threshold %.2f", ctx.PendingEnergy, ctx.Threshold),
		}
	}
	return GuardResult{Allowed: true}
}

// CollectMessage is the message signed to authorize a collection.
func CollectMessage(now time.Time) string {
	return fmt.Sprintf("Collect energy at %d", now.UnixMilli())
}
