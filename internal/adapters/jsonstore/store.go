// Package jsonstore persists accounts and the progress ledger as JSON files.
// Every save rewrites the whole file through an atomic rename, so a crash
// leaves either the previous or the new content on disk.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/errs"
	"github.com/example/harvest/internal/core/ledger"
	"github.com/example/harvest/internal/ports/secondary"
)

const (
	accountsPerm = 0o600
	ledgerPerm   = 0o644
)

// AccountStore implements secondary.AccountStore over a JSON array file.
type AccountStore struct {
	path       string
	passphrase string
}

// NewAccountStore creates an account store at path.
// A non-empty passphrase encrypts the file on every write.
func NewAccountStore(path, passphrase string) *AccountStore {
	return &AccountStore{path: path, passphrase: passphrase}
}

// Load reads every account record. A missing or unreadable file is a ConfigError.
func (s *AccountStore) Load(ctx context.Context) ([]*account.Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Configf(err, "accounts file %s not found", s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}

	if isEncrypted(data) {
		if s.passphrase == "" {
			return nil, errs.Configf(nil, "accounts file %s is encrypted; set HARVEST_STATE_PASSPHRASE", s.path)
		}
		if data, err = open(s.passphrase, data); err != nil {
			return nil, errs.Configf(err, "failed to decrypt accounts file %s", s.path)
		}
	}

	var records []*account.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errs.Configf(err, "accounts file %s is not a JSON array of accounts", s.path)
	}
	for i, r := range records {
		if r == nil {
			return nil, errs.Configf(nil, "accounts file %s: entry %d is null", s.path, i)
		}
	}
	return records, nil
}

// Save rewrites the whole file.
func (s *AccountStore) Save(ctx context.Context, records []*account.Record) error {
	if records == nil {
		records = []*account.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	if s.passphrase != "" {
		if data, err = seal(s.passphrase, data); err != nil {
			return fmt.Errorf("failed to encrypt accounts: %w", err)
		}
	}
	if err := renameio.WriteFile(s.path, data, accountsPerm); err != nil {
		return fmt.Errorf("failed to write accounts file: %w", err)
	}
	return nil
}

// LedgerStore implements secondary.LedgerStore over a JSON object file.
type LedgerStore struct {
	path string
}

// NewLedgerStore creates a ledger store at path.
func NewLedgerStore(path string) *LedgerStore {
	return &LedgerStore{path: path}
}

// Load reads the ledger. A missing file is an empty ledger.
func (s *LedgerStore) Load(ctx context.Context) (*ledger.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ledger.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	l := ledger.New()
	if err := json.Unmarshal(data, l); err != nil {
		return nil, errs.Configf(err, "progress file %s is malformed", s.path)
	}
	return l, nil
}

// Save rewrites the whole file.
func (s *LedgerStore) Save(ctx context.Context, l *ledger.Ledger) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, ledgerPerm); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	return nil
}

// Ensure stores implement the interfaces
var (
	_ secondary.AccountStore = (*AccountStore)(nil)
	_ secondary.LedgerStore  = (*LedgerStore)(nil)
)
