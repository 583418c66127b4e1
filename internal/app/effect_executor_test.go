package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/effects"
	"github.com/example/harvest/internal/core/identity"
	"github.com/example/harvest/internal/core/ledger"
)

func newTestState(t *testing.T, readOnly bool, records ...*account.Record) (*runState, *memAccountStore, *memLedgerStore) {
	t.Helper()
	as := newMemAccountStore(t, records...)
	ls := newMemLedgerStore(t, nil)
	return newRunState(records, ledger.New(), as, ls, zap.NewNop(), readOnly), as, ls
}

func TestEffectExecutor_AccountEffects(t *testing.T) {
	st, _, _ := newTestState(t, false, &account.Record{Address: addr(1), Secret: "s"})
	exec := newEffectExecutor(st, zap.NewNop())
	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.AccountEffect{Operation: effects.AccountMarkCheckedIn, Address: addr(1), At: at},
		effects.AccountEffect{Operation: effects.AccountAssign, Address: addr(1), IdentityID: "px-1", UserAgent: "UA/9"},
	})
	require.NoError(t, err)

	rec, ok := st.record(addr(1))
	require.True(t, ok)
	require.NotNil(t, rec.LastCheckin)
	assert.True(t, rec.LastCheckin.Equal(at))
	assert.Equal(t, "px-1", rec.IdentityID)
	assert.Equal(t, "UA/9", rec.UserAgent)
}

func TestEffectExecutor_PreprocessEffects(t *testing.T) {
	rec := &account.Record{Address: addr(1), Secret: "s", DeviceID: "kept"}
	rec.SetExtra("allCookies", []byte(`[]`))
	rec.SetExtra("referrer", []byte(`"abc"`))
	st, as, _ := newTestState(t, false, rec)
	exec := newEffectExecutor(st, zap.NewNop())

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.AccountEffect{Operation: effects.AccountSetDevice, Address: addr(1), DeviceID: "fresh"},
		effects.AccountEffect{Operation: effects.AccountDropTransient, Address: addr(1)},
		effects.CheckpointEffect{Store: effects.StoreAccounts},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, as.saves)

	got, _ := st.record(addr(1))
	assert.Equal(t, "kept", got.DeviceID, "an existing device id is never replaced")
	_, ok := got.Extra("allCookies")
	assert.False(t, ok)
	_, ok = got.Extra("referrer")
	assert.True(t, ok)
}

func TestPlanPreprocess(t *testing.T) {
	stale := func() *account.Record {
		r := &account.Record{Address: addr(1)}
		r.SetExtra("vcrcsCookie", []byte(`"x"`))
		return r
	}
	assigned := identity.Assignment{Address: addr(1), Identity: identity.Identity{ID: "px-1"}, UserAgent: "UA/1"}
	moved := assigned
	moved.Changed = true

	tests := []struct {
		name string
		rec  *account.Record
		as   identity.Assignment
		want []string
	}{
		{name: "settled record", rec: &account.Record{Address: addr(1), DeviceID: "d"}, as: assigned},
		{name: "new assignment", rec: &account.Record{Address: addr(1), DeviceID: "d"}, as: moved, want: []string{effects.AccountAssign}},
		{name: "missing device", rec: &account.Record{Address: addr(1)}, as: assigned, want: []string{effects.AccountSetDevice}},
		{
			name: "everything",
			rec:  stale(),
			as:   moved,
			want: []string{effects.AccountAssign, effects.AccountSetDevice, effects.AccountDropTransient},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effs := planPreprocess(tt.rec.Clone(), tt.as, func() string { return "dev-1" })

			var ops []string
			for _, eff := range effs {
				ae, ok := eff.(effects.AccountEffect)
				require.True(t, ok, "unexpected effect %T", eff)
				assert.Equal(t, addr(1), ae.Address)
				switch ae.Operation {
				case effects.AccountAssign:
					assert.Equal(t, "px-1", ae.IdentityID)
					assert.Equal(t, "UA/1", ae.UserAgent)
				case effects.AccountSetDevice:
					assert.Equal(t, "dev-1", ae.DeviceID)
				}
				ops = append(ops, ae.Operation)
			}
			assert.Equal(t, tt.want, ops)
		})
	}
}

func TestEffectExecutor_UnknownAccountFails(t *testing.T) {
	st, _, _ := newTestState(t, false)
	exec := newEffectExecutor(st, zap.NewNop())

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.AccountEffect{Operation: effects.AccountMarkCheckedIn, Address: addr(1), At: testNow},
	})
	assert.ErrorContains(t, err, "unknown account")
}

func TestEffectExecutor_LedgerEffects(t *testing.T) {
	st, _, ls := newTestState(t, false)
	exec := newEffectExecutor(st, zap.NewNop())
	result := ledger.StakeResult{Total: 2, Succeeded: 2, At: testNow}

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.LedgerEffect{Operation: effects.LedgerAppend, Address: addr(1), TemplateID: "labubu-00000-1"},
		effects.LedgerEffect{Operation: effects.LedgerAppend, Address: addr(1), TemplateID: "labubu-00000-2"},
		effects.LedgerEffect{Operation: effects.LedgerMarkStakePending, Address: addr(1)},
		effects.CheckpointEffect{Store: effects.StoreLedger},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ls.saves)
	for _, it := range ls.ledger(t).Items(addr(1)) {
		assert.Equal(t, ledger.StakePending, it.State)
	}

	err = exec.Execute(context.Background(), []effects.Effect{
		effects.LedgerEffect{Operation: effects.LedgerMarkStaked, Address: addr(1), Result: result},
	})
	require.NoError(t, err)
	assert.True(t, st.isStaked(addr(1)))
	for _, it := range st.items(addr(1)) {
		assert.Equal(t, ledger.Staked, it.State)
		assert.Equal(t, result, *it.Result)
	}
}

func TestEffectExecutor_AppendWithoutTemplateFails(t *testing.T) {
	st, _, _ := newTestState(t, false)
	exec := newEffectExecutor(st, zap.NewNop())

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.LedgerEffect{Operation: effects.LedgerAppend, Address: addr(1)},
	})
	assert.ErrorContains(t, err, "no template id")
	assert.Empty(t, st.items(addr(1)))
}

func TestEffectExecutor_ReadOnlyStateSkipsCheckpoints(t *testing.T) {
	st, as, ls := newTestState(t, true, &account.Record{Address: addr(1), Secret: "s"})
	exec := newEffectExecutor(st, zap.NewNop())

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.CheckpointEffect{Store: effects.StoreAccounts},
		effects.CheckpointEffect{Store: effects.StoreLedger},
	})
	require.NoError(t, err)
	assert.Zero(t, as.saves)
	assert.Zero(t, ls.saves)
}

func TestEffectExecutor_LogLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	st, _, _ := newTestState(t, false)
	exec := newEffectExecutor(st, zap.New(core))

	err := exec.Execute(context.Background(), []effects.Effect{
		effects.LogEffect{Level: "debug", Message: "d"},
		effects.LogEffect{Level: "info", Message: "i", Fields: map[string]any{"reward": 50.0}},
		effects.LogEffect{Level: "warn", Message: "w"},
		effects.LogEffect{Level: "error", Message: "e"},
	})
	require.NoError(t, err)

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, 50.0, entries[1].ContextMap()["reward"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestRunState_RecordIsACopy(t *testing.T) {
	st, _, _ := newTestState(t, false, &account.Record{Address: addr(1), Secret: "s"})

	rec, _ := st.record(addr(1))
	rec.IdentityID = "mutated"

	again, _ := st.record(addr(1))
	assert.Empty(t, again.IdentityID)
}
