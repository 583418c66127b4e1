package app

import (
	"context"
	"fmt"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/identity"
	"github.com/example/harvest/internal/ports/primary"
	"github.com/example/harvest/internal/ports/secondary"
)

// AccountServiceImpl implements the AccountService interface.
type AccountServiceImpl struct {
	accountStore secondary.AccountStore
	ledgerStore  secondary.LedgerStore
	pools        secondary.PoolSource
}

// NewAccountService creates a new AccountService with injected dependencies.
func NewAccountService(accountStore secondary.AccountStore, ledgerStore secondary.LedgerStore, pools secondary.PoolSource) *AccountServiceImpl {
	return &AccountServiceImpl{
		accountStore: accountStore,
		ledgerStore:  ledgerStore,
		pools:        pools,
	}
}

// ListAccounts returns a secret-free view of every account.
func (s *AccountServiceImpl) ListAccounts(ctx context.Context) ([]*primary.AccountView, error) {
	records, err := s.accountStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	l, err := s.ledgerStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress ledger: %w", err)
	}

	views := make([]*primary.AccountView, 0, len(records))
	for i, r := range records {
		views = append(views, &primary.AccountView{
			Index:       i,
			Address:     account.Short(r.Address),
			IdentityID:  r.IdentityID,
			UserAgent:   r.UserAgent,
			LastCheckin: r.LastCheckin,
			Items:       len(l.Items(r.Address)),
			Staked:      l.IsStaked(r.Address),
		})
	}
	return views, nil
}

// ResetIdentity clears persisted identity bindings so the next run reassigns them.
func (s *AccountServiceImpl) ResetIdentity(ctx context.Context, addresses []string, all bool) (int, error) {
	if !all && len(addresses) == 0 {
		return 0, fmt.Errorf("no accounts given; pass addresses or --all")
	}
	records, err := s.accountStore.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load accounts: %w", err)
	}

	want := make(map[string]bool, len(addresses))
	for _, a := range addresses {
		want[a] = true
	}

	changed := 0
	for _, r := range records {
		if !all && !want[r.Address] {
			continue
		}
		delete(want, r.Address)
		if r.ResetIdentity() {
			changed++
		}
	}
	for a := range want {
		return 0, fmt.Errorf("account %s not found", account.Short(a))
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.accountStore.Save(ctx, records); err != nil {
		return 0, fmt.Errorf("failed to save accounts: %w", err)
	}
	return changed, nil
}

// GenerateUserAgents writes count fresh user agents to path.
func (s *AccountServiceImpl) GenerateUserAgents(ctx context.Context, count int, seed uint64, path string) error {
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}
	return s.pools.WriteUserAgents(ctx, path, identity.GenerateUserAgents(count, seed))
}
