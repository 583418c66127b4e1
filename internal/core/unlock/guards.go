// Package unlock contains the pure business logic for opening boxes.
// This is part of the Functional Core - no I/O, only pure functions.
package unlock

import (
	"fmt"
	"time"

	"github.com/example/harvest/internal/core/effects"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// SkipContext provides context for the pre-session skip predicate.
type SkipContext struct {
	Address  string
	HasItems bool
	IsStaked bool
	// FirstTemplate is shown in the skip reason when the account already holds items.
	FirstTemplate string
}

// CanAttempt evaluates whether the account needs an unlock session.
// Rule: an account holding items that are already staked has nothing left to open.
func CanAttempt(ctx SkipContext) GuardResult {
	if ctx.HasItems && ctx.IsStaked {
		reason := "already holds staked items"
		if ctx.FirstTemplate != "" {
			reason = fmt.Sprintf("already holds staked items (%s)", ctx.FirstTemplate)
		}
		return GuardResult{Allowed: false, Reason: reason}
	}
	return GuardResult{Allowed: true}
}

// OpenMessage is the message signed to open one box.
func OpenMessage(boxID string, now time.Time) string {
	return fmt.Sprintf("Open blind box %s at %d", boxID, now.UnixMilli())
}

// PlanOpened records an opened box and checkpoints the ledger right away,
// so a consumed box is never lost to an interrupt.
func PlanOpened(address, boxID, templateID string) []effects.Effect {
	return []effects.Effect{
		effects.LedgerEffect{Operation: effects.LedgerAppend, Address: address, TemplateID: templateID},
		effects.CheckpointEffect{Store: effects.StoreLedger},
		effects.LogEffect{
			Level:   "info",
			Message: "box opened",
			Fields:  map[string]any{"box_id": boxID, "template_id": templateID},
		},
	}
}

// Outcome tallies a per-account unlock loop.
type Outcome struct {
	Succeeded int
	Failed    int
}

// Record adds one box result.
func (o *Outcome) Record(ok bool) {
	if ok {
		o.Succeeded++
	} else {
		o.Failed++
	}
}
