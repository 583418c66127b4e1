// Package checkin contains the pure business logic for the daily check-in operation.
// This file contains pure planner functions that generate effects.
package checkin

import (
	"time"

	"github.com/example/harvest/internal/core/effects"
)

// StatusInput is the remote eligibility answer for one account.
type StatusInput struct {
	Address  string
	Eligible bool
	Now      time.Time
}

// StatusPlan says whether to submit, and what to apply when not.
type StatusPlan struct {
	Submit  bool
	Effects []effects.Effect
}

// PlanStatus decides what to do with a remote eligibility answer.
// An ineligible account is treated as already checked in: the remote wins over the cache.
func PlanStatus(in StatusInput) StatusPlan {
	if in.Eligible {
		return StatusPlan{Submit: true}
	}
	return StatusPlan{
		Effects: []effects.Effect{
			effects.LogEffect{Level: "info", Message: "already checked in remotely"},
			effects.AccountEffect{Operation: effects.AccountMarkCheckedIn, Address: in.Address, At: in.Now},
		},
	}
}

// SubmitInput is the outcome of a check-in submission.
type SubmitInput struct {
	Address string
	Success bool
	Reward  float64
	Streak  int
	Now     time.Time
}

// PlanSubmit produces the effects of a check-in submission.
// A failed submission changes nothing; the next run retries naturally.
func PlanSubmit(in SubmitInput) []effects.Effect {
	if !in.Success {
		return []effects.Effect{
			effects.LogEffect{Level: "warn", Message: "check-in rejected"},
		}
	}
	return []effects.Effect{
		effects.LogEffect{
			Level:   "info",
			Message: "check-in succeeded",
			Fields:  map[string]any{"energy_reward": in.Reward, "day": in.Streak},
		},
		effects.AccountEffect{Operation: effects.AccountMarkCheckedIn, Address: in.Address, At: in.Now},
	}
}

// CollectInput is the outcome of a collection submission.
type CollectInput struct {
	Success   bool
	Total     int
	Succeeded int
	Failed    int
	Energy    float64
}

// PlanCollect produces log effects for a collection outcome.
// Collection never touches the check-in state.
func PlanCollect(in CollectInput) []effects.Effect {
	if !in.Success {
		return []effects.Effect{effects.LogEffect{Level: "warn", Message: "energy collection rejected"}}
	}
	return []effects.Effect{effects.LogEffect{
		Level:   "info",
		Message: "energy collected",
		Fields: map[string]any{
			"total_nfts":    in.Total,
			"success_count": in.Succeeded,
			"failed_count":  in.Failed,
			"total_energy":  in.Energy,
		},
	}}
}
