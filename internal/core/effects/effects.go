// Package effects defines effect types as data structures representing state mutations.
// This is the foundation of the Functional Core / Imperative Shell pattern.
// Effects are pure data - they describe what should happen, not how.
package effects

import (
	"time"

	"github.com/example/harvest/internal/core/ledger"
)

// Effect is the base interface for all effects.
// Effects represent mutations as data that can be interpreted by the shell.
type Effect interface {
	// EffectType returns a string identifier for the effect type.
	EffectType() string
}

// Account operations.
const (
	AccountMarkCheckedIn = "mark_checked_in"
	AccountAssign        = "assign_identity"
	AccountSetDevice     = "set_device"
	AccountDropTransient = "drop_transient"
)

// Ledger operations.
const (
	LedgerAppend           = "append"
	LedgerMarkStakePending = "mark_stake_pending"
	LedgerMarkStaked       = "mark_staked"
)

// Checkpoint targets.
const (
	StoreAccounts = "accounts"
	StoreLedger   = "ledger"
)

// LogEffect represents a logging operation.
type LogEffect struct {
	Level   string
	Message string
	Fields  map[string]any
}

func (e LogEffect) EffectType() string { return "log" }

// AccountEffect mutates one account record.
type AccountEffect struct {
	Operation  string // e.g., "mark_checked_in", "assign_identity"
	Address    string
	At         time.Time
	IdentityID string
	UserAgent  string
	DeviceID   string
}

func (e AccountEffect) EffectType() string { return "account" }

// LedgerEffect mutates one address in the progress ledger.
type LedgerEffect struct {
	Operation  string // e.g., "append", "mark_stake_pending", "mark_staked"
	Address    string
	TemplateID string
	Result     ledger.StakeResult
}

func (e LedgerEffect) EffectType() string { return "ledger" }

// CheckpointEffect asks the shell to durably write a store now.
type CheckpointEffect struct {
	Store string // "accounts" or "ledger"
}

func (e CheckpointEffect) EffectType() string { return "checkpoint" }
