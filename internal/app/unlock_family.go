package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/ledger"
	"github.com/example/harvest/internal/core/pacing"
	"github.com/example/harvest/internal/core/unlock"
	"github.com/example/harvest/internal/ports/primary"
)

// unlockFamily opens every unopened box of an account.
type unlockFamily struct{}

func (f *unlockFamily) name() primary.Family { return primary.FamilyUnlock }

func (f *unlockFamily) page() string { return "/space" }

func (f *unlockFamily) skip(st *runState, rec *account.Record, _ time.Time) (string, bool) {
	items := st.items(rec.Address)
	ctx := unlock.SkipContext{
		Address:  rec.Address,
		HasItems: len(items) > 0,
		IsStaked: st.isStaked(rec.Address),
	}
	if len(items) > 0 {
		t := ledger.Lookup(items[0].TemplateID)
		ctx.FirstTemplate = fmt.Sprintf("%s %s", t.Tier, t.Name)
	}
	g := unlock.CanAttempt(ctx)
	return g.Reason, !g.Allowed
}

func (f *unlockFamily) run(ctx context.Context, fc *familyContext) (familyResult, error) {
	boxes, err := fc.api.ListUnopenedBoxes(ctx, fc.address)
	if err != nil {
		return familyResult{}, fmt.Errorf("failed to get boxes: %w", err)
	}
	if len(boxes) == 0 {
		return familyResult{note: "no unopened boxes"}, nil
	}
	fc.logger.Info("opening boxes", zap.Int("count", len(boxes)))

	var outcome unlock.Outcome
	for i, box := range boxes {
		if err := ctx.Err(); err != nil {
			return resultOf(outcome), err
		}

		msg, err := fc.sign(unlock.OpenMessage(box.ID, fc.now()))
		if err != nil {
			outcome.Record(false)
			return resultOf(outcome), err
		}

		res, err := fc.api.OpenBox(ctx, fc.address, box.ID, msg)
		switch {
		case err != nil:
			outcome.Record(false)
			fc.logger.Warn("failed to open box", zap.String("box_id", box.ID), zap.Error(err))
		case res.TemplateID == "":
			outcome.Record(false)
			fc.logger.Warn("box opened without a template id", zap.String("box_id", box.ID))
		default:
			if err := fc.exec.Execute(ctx, unlock.PlanOpened(fc.address, box.ID, res.TemplateID)); err != nil {
				outcome.Record(false)
				return resultOf(outcome), err
			}
			outcome.Record(true)
		}

		if i < len(boxes)-1 {
			if err := fc.pacing.Wait(ctx, pacing.BetweenItems); err != nil {
				return resultOf(outcome), err
			}
		}
	}

	r := resultOf(outcome)
	r.note = fmt.Sprintf("opened %d of %d boxes", outcome.Succeeded, len(boxes))
	return r, nil
}

func resultOf(o unlock.Outcome) familyResult {
	return familyResult{itemsSucceeded: o.Succeeded, itemsFailed: o.Failed}
}

var _ family = (*unlockFamily)(nil)
