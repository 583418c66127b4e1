package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/harvest/internal/config"
	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/checkin"
	"github.com/example/harvest/internal/core/errs"
	"github.com/example/harvest/internal/ports/primary"
)

// checkinFamily drives the daily check-in and the reward collection that follows it.
type checkinFamily struct {
	collect config.Collect
}

func (f *checkinFamily) name() primary.Family { return primary.FamilyCheckin }

func (f *checkinFamily) page() string { return "/tasks" }

func (f *checkinFamily) skip(_ *runState, rec *account.Record, now time.Time) (string, bool) {
	g := checkin.CanAttempt(checkin.SkipContext{Address: rec.Address, LastCheckin: rec.LastCheckin, Now: now})
	return g.Reason, !g.Allowed
}

func (f *checkinFamily) run(ctx context.Context, fc *familyContext) (familyResult, error) {
	status, err := fc.api.CheckinStatus(ctx, fc.address)
	if err != nil {
		return familyResult{}, fmt.Errorf("failed to check daily status: %w", err)
	}

	plan := checkin.PlanStatus(checkin.StatusInput{Address: fc.address, Eligible: status.CanCheckIn, Now: fc.now()})
	note := "already checked in remotely"
	if plan.Submit {
		res, err := fc.api.Checkin(ctx, fc.address)
		if err != nil {
			return familyResult{}, fmt.Errorf("failed to perform daily check-in: %w", err)
		}
		effs := checkin.PlanSubmit(checkin.SubmitInput{
			Address: fc.address,
			Success: res.Success,
			Reward:  res.Reward,
			Streak:  res.Streak,
			Now:     fc.now(),
		})
		if err := fc.exec.Execute(ctx, effs); err != nil {
			return familyResult{}, err
		}
		if !res.Success {
			return familyResult{}, &errs.RemoteError{Op: "check-in", Msg: "rejected by remote"}
		}
		note = fmt.Sprintf("reward %.2f, day %d", res.Reward, res.Streak)
	} else if err := fc.exec.Execute(ctx, plan.Effects); err != nil {
		return familyResult{}, err
	}

	f.collectRewards(ctx, fc)
	return familyResult{note: note}, nil
}

// collectRewards runs after the account is checked in for today.
// Its failures are logged only and never undo the check-in.
func (f *checkinFamily) collectRewards(ctx context.Context, fc *familyContext) {
	if !f.collect.Enabled {
		return
	}
	stats, err := fc.api.RewardStats(ctx, fc.address)
	if err != nil {
		fc.logger.Warn("failed to check reward stats", zap.Error(err))
		return
	}
	pending := 0.0
	if stats.Success {
		pending = stats.PendingEnergy
	}
	g := checkin.CanCollect(checkin.CollectContext{
		Enabled:       f.collect.Enabled,
		PendingEnergy: pending,
		Threshold:     f.collect.Threshold,
	})
	if !g.Allowed {
		fc.logger.Debug("skipping collection", zap.String("reason", g.Reason))
		return
	}

	msg, err := fc.sign(checkin.CollectMessage(fc.now()))
	if err != nil {
		fc.logger.Warn("failed to sign collection", zap.Error(err))
		return
	}
	res, err := fc.api.CollectRewards(ctx, fc.address, msg)
	if err != nil {
		fc.logger.Warn("failed to collect energy", zap.Error(err))
		return
	}
	effs := checkin.PlanCollect(checkin.CollectInput{
		Success:   res.Success,
		Total:     res.Total,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Energy:    res.Energy,
	})
	if err := fc.exec.Execute(ctx, effs); err != nil {
		fc.logger.Warn("failed to apply collection result", zap.Error(err))
	}
}

var _ family = (*checkinFamily)(nil)
