package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/errs"
	"github.com/example/harvest/internal/core/stake"
	"github.com/example/harvest/internal/ports/primary"
)

// stakeFamily submits every unstaked item of an account in one call.
type stakeFamily struct{}

func (f *stakeFamily) name() primary.Family { return primary.FamilyStake }

func (f *stakeFamily) page() string { return "/space" }

func (f *stakeFamily) skip(st *runState, rec *account.Record, _ time.Time) (string, bool) {
	g := stake.CanAttempt(st.items(rec.Address))
	return g.Reason, !g.Allowed
}

func (f *stakeFamily) run(ctx context.Context, fc *familyContext) (familyResult, error) {
	// Items go StakePending and hit disk before the call, so an interrupted
	// stake is visible on restart and retried as unstaked.
	if err := fc.exec.Execute(ctx, stake.PlanPrepare(fc.address)); err != nil {
		return familyResult{}, err
	}

	msg, err := fc.sign(stake.Message(fc.now()))
	if err != nil {
		return familyResult{}, err
	}

	res, err := fc.api.Stake(ctx, fc.address, msg)
	if err != nil {
		return familyResult{}, fmt.Errorf("failed to stake: %w", err)
	}

	effs := stake.PlanResult(stake.ResultInput{
		Address:   fc.address,
		Success:   res.Success,
		Total:     res.Total,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Errors:    res.Errors,
		Now:       fc.now(),
	})
	if err := fc.exec.Execute(ctx, effs); err != nil {
		return familyResult{}, err
	}
	if !res.Success {
		return familyResult{}, &errs.RemoteError{Op: "stake", Msg: "rejected by remote"}
	}

	return familyResult{
		itemsSucceeded: res.Succeeded,
		itemsFailed:    res.Failed,
		note:           fmt.Sprintf("staked %d of %d", res.Succeeded, res.Total),
	}, nil
}

var _ family = (*stakeFamily)(nil)
