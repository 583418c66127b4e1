package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/ports/primary"
)

// compositeFamily runs several families for one account in a single session.
// Each step re-evaluates its own skip predicate, since earlier steps change state
// (an unlock adds the items a stake then needs).
type compositeFamily struct {
	steps []family
}

func (f *compositeFamily) name() primary.Family { return primary.FamilyAll }

func (f *compositeFamily) page() string { return f.steps[0].page() }

// skip holds only when every step would skip.
func (f *compositeFamily) skip(st *runState, rec *account.Record, now time.Time) (string, bool) {
	reasons := make([]string, 0, len(f.steps))
	for _, step := range f.steps {
		reason, skipped := step.skip(st, rec, now)
		if !skipped {
			return "", false
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", step.name(), reason))
	}
	return strings.Join(reasons, "; "), true
}

func (f *compositeFamily) run(ctx context.Context, fc *familyContext) (familyResult, error) {
	var (
		total familyResult
		errs  []error
		notes []string
		ran   int
	)
	for _, step := range f.steps {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rec, ok := fc.state.record(fc.address)
		if !ok {
			return total, fmt.Errorf("unknown account %s", account.Short(fc.address))
		}
		if reason, skipped := step.skip(fc.state, rec, fc.now()); skipped {
			fc.logger.Info("step skipped", zap.String("step", string(step.name())), zap.String("reason", reason))
			continue
		}

		ran++
		res, err := step.run(ctx, fc)
		total.add(res)
		if err != nil {
			fc.logger.Warn("step failed", zap.String("step", string(step.name())), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", step.name(), err))
			continue
		}
		if res.note != "" {
			notes = append(notes, fmt.Sprintf("%s: %s", step.name(), res.note))
		}
	}

	total.note = strings.Join(notes, "; ")
	if ran == 0 && len(errs) == 0 {
		total.skipped = true
	}
	return total, errors.Join(errs...)
}

var _ family = (*compositeFamily)(nil)
