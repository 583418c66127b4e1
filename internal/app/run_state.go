// Package app contains the application services that orchestrate business logic.
package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/effects"
	"github.com/example/harvest/internal/core/ledger"
	"github.com/example/harvest/internal/ports/secondary"
)

// runState owns the in-memory stores of one run.
// Every mutation and every checkpoint goes through mu, so concurrent
// workers never interleave a write with a half-applied change.
type runState struct {
	mu       sync.Mutex
	records  []*account.Record
	byAddr   map[string]*account.Record
	progress *ledger.Ledger

	accountStore secondary.AccountStore
	ledgerStore  secondary.LedgerStore
	logger       *zap.Logger
	readOnly     bool

	checkpointFailures int
}

func newRunState(records []*account.Record, progress *ledger.Ledger, as secondary.AccountStore, ls secondary.LedgerStore, logger *zap.Logger, readOnly bool) *runState {
	byAddr := make(map[string]*account.Record, len(records))
	for _, r := range records {
		byAddr[r.Address] = r
	}
	return &runState{
		records:      records,
		byAddr:       byAddr,
		progress:     progress,
		accountStore: as,
		ledgerStore:  ls,
		logger:       logger,
		readOnly:     readOnly,
	}
}

// record returns a copy of the account record for address.
func (s *runState) record(address string) (*account.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byAddr[address]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// items returns a copy of the ledger items for address.
func (s *runState) items(address string) []ledger.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Items(address)
}

// isStaked reports the ledger's staked marker for address.
func (s *runState) isStaked(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.IsStaked(address)
}

// updateAccount applies fn to the live record under the lock.
func (s *runState) updateAccount(address string, fn func(*account.Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byAddr[address]
	if !ok {
		return fmt.Errorf("unknown account %s", account.Short(address))
	}
	fn(r)
	return nil
}

// updateLedger applies fn to the live ledger under the lock.
func (s *runState) updateLedger(fn func(*ledger.Ledger)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.progress)
}

// checkpoint durably writes the named stores. A failure is logged and
// counted, never returned: the run keeps going and the final flush retries.
func (s *runState) checkpoint(ctx context.Context, stores ...string) {
	if s.readOnly {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, store := range stores {
		var err error
		switch store {
		case effects.StoreAccounts:
			err = s.accountStore.Save(ctx, s.records)
		case effects.StoreLedger:
			err = s.ledgerStore.Save(ctx, s.progress)
		default:
			err = fmt.Errorf("unknown store %q", store)
		}
		if err != nil {
			s.checkpointFailures++
			s.logger.Error("checkpoint failed", zap.String("store", store), zap.Error(err))
		}
	}
}

// flush writes both stores. Used at the end of a run, including after an interrupt.
func (s *runState) flush(ctx context.Context) {
	s.checkpoint(ctx, effects.StoreAccounts, effects.StoreLedger)
}

func (s *runState) failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkpointFailures
}
