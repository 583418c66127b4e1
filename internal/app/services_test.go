package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/identity"
	"github.com/example/harvest/internal/core/ledger"
	"github.com/example/harvest/internal/ports/primary"
	"github.com/example/harvest/internal/ports/secondary"
)

var (
	_ primary.BatchService   = (*BatchServiceImpl)(nil)
	_ primary.StatsService   = (*StatsServiceImpl)(nil)
	_ primary.HistoryService = (*HistoryServiceImpl)(nil)
	_ primary.AccountService = (*AccountServiceImpl)(nil)
)

func TestStatsService_Stats(t *testing.T) {
	l := ledger.New()
	l.Append(addr(1), "labubu-00000-1")
	l.Append(addr(1), "labubu-00000-5")
	l.Append(addr(1), "labubu-00000-4")
	l.Append(addr(2), "labubu-00000-2")
	l.MarkStaked(addr(2), ledger.StakeResult{Total: 1, Succeeded: 1, At: testNow})

	svc := NewStatsService(newMemLedgerStore(t, l))
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Accounts)
	assert.Equal(t, 1, stats.AccountsStaked)
	assert.Equal(t, 4, stats.Items)
	assert.Equal(t, 2, stats.ByTier[ledger.Tier10x])
	assert.Equal(t, 1, stats.ByTier[ledger.Tier100x])
	assert.Equal(t, 1, stats.ByTier[ledger.Tier1000x])

	require.Len(t, stats.Holdings, 2)
	assert.Equal(t, account.Short(addr(1)), stats.Holdings[0].Address)
	assert.Equal(t, 3, stats.Holdings[0].Items)
	assert.False(t, stats.Holdings[0].Staked)
	assert.Equal(t, "Starlight Angel", stats.Holdings[0].Best.Name)
	assert.True(t, stats.Holdings[1].Staked)
}

func TestStatsService_EmptyLedger(t *testing.T) {
	svc := NewStatsService(newMemLedgerStore(t, nil))
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Items)
	assert.Empty(t, stats.Holdings)
}

func TestHistoryService_ListAndGet(t *testing.T) {
	repo := newMockRunRepo()
	ctx := context.Background()
	started := testNow.Add(-time.Minute)
	for _, r := range []*secondary.RunRecord{
		{ID: "run-1", Family: "checkin", Status: "completed", Total: 2, Processed: 2, StartedAt: started, FinishedAt: testNow},
		{ID: "run-2", Family: "unlock", Status: "interrupted", Total: 3, Processed: 1, Errored: 1, StartedAt: started, FinishedAt: testNow},
	} {
		require.NoError(t, repo.Create(ctx, r))
	}
	require.NoError(t, repo.AddAccountResult(ctx, &secondary.RunAccountRecord{
		RunID: "run-2", AccountIndex: 0, Address: "Wallet01...", Outcome: "processed", ItemsSucceeded: 2,
	}))
	require.NoError(t, repo.AddAccountResult(ctx, &secondary.RunAccountRecord{
		RunID: "run-2", AccountIndex: 1, Address: "Wallet02...", Outcome: "errored", Reason: "interrupted",
	}))

	svc := NewHistoryService(repo)

	runs, err := svc.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID, "newest first")
	assert.True(t, runs[0].Interrupted)
	assert.False(t, runs[1].Interrupted)
	assert.Empty(t, runs[0].Accounts)
	assert.Equal(t, time.Minute, runs[1].Duration())

	run, err := svc.GetRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Equal(t, primary.FamilyUnlock, run.Family)
	require.Len(t, run.Accounts, 2)
	assert.Equal(t, primary.OutcomeErrored, run.Accounts[1].Outcome)
	assert.Equal(t, "interrupted", run.Accounts[1].Reason)

	_, err = svc.GetRun(ctx, "missing")
	assert.Error(t, err)
}

func TestHistoryService_PruneRuns(t *testing.T) {
	repo := newMockRunRepo()
	ctx := context.Background()
	for _, r := range []*secondary.RunRecord{
		{ID: "old", Family: "checkin", Status: "completed", StartedAt: testNow.Add(-48 * time.Hour)},
		{ID: "old-running", Family: "unlock", Status: "running", StartedAt: testNow.Add(-48 * time.Hour)},
		{ID: "recent", Family: "stake", Status: "completed", StartedAt: testNow.Add(-time.Hour)},
	} {
		require.NoError(t, repo.Create(ctx, r))
	}

	svc := NewHistoryService(repo)
	svc.now = func() time.Time { return testNow }

	_, err := svc.PruneRuns(ctx, 0)
	assert.Error(t, err)

	n, err := svc.PruneRuns(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	runs, err := svc.ListRuns(ctx, 10)
	require.NoError(t, err)
	ids := make([]string, 0, len(runs))
	for _, r := range runs {
		ids = append(ids, r.RunID)
	}
	assert.ElementsMatch(t, []string{"old-running", "recent"}, ids)
}

func TestAccountService_ListAccountsHidesSecrets(t *testing.T) {
	l := ledger.New()
	l.Append(addr(2), "labubu-00000-3")
	as := newMemAccountStore(t,
		&account.Record{Address: addr(1), Secret: "secret-1", IdentityID: "px-a", UserAgent: "UA/1"},
		&account.Record{Address: addr(2), Secret: "secret-2"})
	svc := NewAccountService(as, newMemLedgerStore(t, l), &staticPools{})

	views, err := svc.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, account.Short(addr(1)), views[0].Address)
	assert.Equal(t, "px-a", views[0].IdentityID)
	assert.Zero(t, views[0].Items)
	assert.Equal(t, 1, views[1].Items)
	assert.NotContains(t, views[0].Address, "secret")
}

func TestAccountService_ResetIdentity(t *testing.T) {
	ctx := context.Background()
	records := func() []*account.Record {
		return []*account.Record{
			{Address: addr(1), Secret: "s", IdentityID: "px-a", UserAgent: "UA/1"},
			{Address: addr(2), Secret: "s", IdentityID: "px-b", UserAgent: "UA/2"},
			{Address: addr(3), Secret: "s"},
		}
	}

	t.Run("selected", func(t *testing.T) {
		as := newMemAccountStore(t, records()...)
		svc := NewAccountService(as, newMemLedgerStore(t, nil), &staticPools{})

		n, err := svc.ResetIdentity(ctx, []string{addr(2)}, false)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, "px-a", as.get(t, addr(1)).IdentityID)
		assert.Empty(t, as.get(t, addr(2)).IdentityID)
		assert.Empty(t, as.get(t, addr(2)).UserAgent)
	})

	t.Run("all", func(t *testing.T) {
		as := newMemAccountStore(t, records()...)
		svc := NewAccountService(as, newMemLedgerStore(t, nil), &staticPools{})

		n, err := svc.ResetIdentity(ctx, nil, true)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 1, as.saves)
	})

	t.Run("nothing to clear writes nothing", func(t *testing.T) {
		as := newMemAccountStore(t, records()...)
		svc := NewAccountService(as, newMemLedgerStore(t, nil), &staticPools{})

		n, err := svc.ResetIdentity(ctx, []string{addr(3)}, false)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Zero(t, as.saves)
	})

	t.Run("unknown address", func(t *testing.T) {
		as := newMemAccountStore(t, records()...)
		svc := NewAccountService(as, newMemLedgerStore(t, nil), &staticPools{})

		_, err := svc.ResetIdentity(ctx, []string{addr(9)}, false)
		assert.ErrorContains(t, err, "not found")
		assert.Zero(t, as.saves)
	})

	t.Run("no selection", func(t *testing.T) {
		svc := NewAccountService(newMemAccountStore(t, records()...), newMemLedgerStore(t, nil), &staticPools{})
		_, err := svc.ResetIdentity(ctx, nil, false)
		assert.Error(t, err)
	})
}

func TestAccountService_GenerateUserAgents(t *testing.T) {
	pools := &staticPools{}
	svc := NewAccountService(newMemAccountStore(t), newMemLedgerStore(t, nil), pools)

	require.NoError(t, svc.GenerateUserAgents(context.Background(), 5, 42, "ua.txt"))
	assert.Equal(t, identity.GenerateUserAgents(5, 42), pools.written["ua.txt"])

	assert.Error(t, svc.GenerateUserAgents(context.Background(), 0, 42, "ua.txt"))
}
