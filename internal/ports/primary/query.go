package primary

import (
	"context"
	"time"

	"github.com/example/harvest/internal/core/ledger"
)

// StatsService defines the primary port for ledger statistics.
type StatsService interface {
	Stats(ctx context.Context) (*LedgerStats, error)
}

// LedgerStats is the ledger summary plus a per-account breakdown.
type LedgerStats struct {
	ledger.Stats
	Holdings []Holding
}

// Holding is one account's items.
type Holding struct {
	Address string // truncated
	Items   int
	Staked  bool
	Best    ledger.Template
}

// HistoryService defines the primary port for run history.
type HistoryService interface {
	ListRuns(ctx context.Context, limit int) ([]*RunSummary, error)
	GetRun(ctx context.Context, id string) (*RunSummary, error)

	// PruneRuns deletes finished runs older than the given age. Returns the number removed.
	PruneRuns(ctx context.Context, olderThan time.Duration) (int, error)
}

// AccountService defines the primary port for account maintenance.
type AccountService interface {
	// ListAccounts returns a secret-free view of every account.
	ListAccounts(ctx context.Context) ([]*AccountView, error)

	// ResetIdentity clears proxyId and userAgent for the given addresses, or all when all is set.
	// Returns the number of records changed.
	ResetIdentity(ctx context.Context, addresses []string, all bool) (int, error)

	// GenerateUserAgents writes count fresh user agents to path.
	GenerateUserAgents(ctx context.Context, count int, seed uint64, path string) error
}

// AccountView is a secret-free projection of an account record.
type AccountView struct {
	Index       int
	Address     string // truncated
	IdentityID  string
	UserAgent   string
	LastCheckin *time.Time
	Items       int
	Staked      bool
}
