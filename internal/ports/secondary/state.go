// Package secondary defines the secondary ports (driven adapters) for the application.
// These are the interfaces through which the application drives external systems.
package secondary

import (
	"context"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/ledger"
)

// AccountStore defines the secondary port for the accounts file.
type AccountStore interface {
	// Load reads every account record. Duplicate addresses are a ConfigError.
	Load(ctx context.Context) ([]*account.Record, error)

	// Save durably replaces the stored records. A crash mid-write leaves the old file intact.
	Save(ctx context.Context, records []*account.Record) error
}

// LedgerStore defines the secondary port for the progress ledger file.
type LedgerStore interface {
	// Load reads the ledger. A missing file yields an empty ledger.
	Load(ctx context.Context) (*ledger.Ledger, error)

	// Save durably replaces the stored ledger.
	Save(ctx context.Context, l *ledger.Ledger) error
}

// PoolSource defines the secondary port for the identity and user agent pools.
type PoolSource interface {
	// Proxies returns the ordered proxy pool entries.
	Proxies(ctx context.Context) ([]string, error)

	// UserAgents returns the user agent pool. When none exists it returns a
	// generated pool with generated set, without saving it.
	UserAgents(ctx context.Context) (agents []string, generated bool, err error)

	// WriteUserAgents replaces the user agent pool file at path.
	WriteUserAgents(ctx context.Context, path string, agents []string) error
}
