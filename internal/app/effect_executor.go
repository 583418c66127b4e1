package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/effects"
	"github.com/example/harvest/internal/core/ledger"
)

// EffectExecutor interprets and executes effects.
// This is the "Imperative Shell" - the only place state mutations happen.
type EffectExecutor interface {
	Execute(ctx context.Context, effs []effects.Effect) error
}

// stateEffectExecutor applies effects to a run's in-memory stores.
type stateEffectExecutor struct {
	state  *runState
	logger *zap.Logger
}

func newEffectExecutor(state *runState, logger *zap.Logger) *stateEffectExecutor {
	return &stateEffectExecutor{state: state, logger: logger}
}

// Execute processes a slice of effects, executing each in sequence.
func (e *stateEffectExecutor) Execute(ctx context.Context, effs []effects.Effect) error {
	for _, eff := range effs {
		if err := e.executeOne(ctx, eff); err != nil {
			return fmt.Errorf("failed to execute %s effect: %w", eff.EffectType(), err)
		}
	}
	return nil
}

func (e *stateEffectExecutor) executeOne(ctx context.Context, eff effects.Effect) error {
	switch typed := eff.(type) {
	case effects.AccountEffect:
		return e.executeAccount(typed)
	case effects.LedgerEffect:
		return e.executeLedger(typed)
	case effects.CheckpointEffect:
		e.state.checkpoint(ctx, typed.Store)
		return nil
	case effects.LogEffect:
		e.executeLog(typed)
		return nil
	default:
		return fmt.Errorf("unknown effect type: %T", eff)
	}
}

func (e *stateEffectExecutor) executeAccount(eff effects.AccountEffect) error {
	switch eff.Operation {
	case effects.AccountMarkCheckedIn:
		return e.state.updateAccount(eff.Address, func(r *account.Record) {
			r.MarkCheckedIn(eff.At)
		})
	case effects.AccountAssign:
		return e.state.updateAccount(eff.Address, func(r *account.Record) {
			r.IdentityID = eff.IdentityID
			r.UserAgent = eff.UserAgent
		})
	case effects.AccountSetDevice:
		return e.state.updateAccount(eff.Address, func(r *account.Record) {
			if r.DeviceID == "" {
				r.DeviceID = eff.DeviceID
			}
		})
	case effects.AccountDropTransient:
		return e.state.updateAccount(eff.Address, func(r *account.Record) {
			r.DropTransient()
		})
	default:
		return fmt.Errorf("unknown account operation: %s", eff.Operation)
	}
}

func (e *stateEffectExecutor) executeLedger(eff effects.LedgerEffect) error {
	switch eff.Operation {
	case effects.LedgerAppend:
		if eff.TemplateID == "" {
			return fmt.Errorf("append for %s has no template id", account.Short(eff.Address))
		}
		e.state.updateLedger(func(l *ledger.Ledger) { l.Append(eff.Address, eff.TemplateID) })
	case effects.LedgerMarkStakePending:
		e.state.updateLedger(func(l *ledger.Ledger) { l.MarkStakePending(eff.Address) })
	case effects.LedgerMarkStaked:
		e.state.updateLedger(func(l *ledger.Ledger) { l.MarkStaked(eff.Address, eff.Result) })
	default:
		return fmt.Errorf("unknown ledger operation: %s", eff.Operation)
	}
	return nil
}

func (e *stateEffectExecutor) executeLog(eff effects.LogEffect) {
	fields := make([]zap.Field, 0, len(eff.Fields))
	for k, v := range eff.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	switch eff.Level {
	case "debug":
		e.logger.Debug(eff.Message, fields...)
	case "warn":
		e.logger.Warn(eff.Message, fields...)
	case "error":
		e.logger.Error(eff.Message, fields...)
	default:
		e.logger.Info(eff.Message, fields...)
	}
}
