package identity

import (
	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/errs"
)

// Assignment binds one account to its identity and user agent for a run.
type Assignment struct {
	AccountIndex int
	Address      string
	Identity     Identity
	UserAgent    string
	// Changed is true when the assignment differs from what the record persisted.
	Changed bool
}

// AllocateInput holds pre-loaded records and pools. No I/O in the allocator.
type AllocateInput struct {
	Accounts   []*account.Record
	Proxies    []string
	UserAgents []string
}

// Allocate assigns every account a distinct pool entry.
//
// Entries that normalize to the same identity count once, so no two accounts
// ever share an egress route. Account i takes unique entry i, unless its
// persisted identity id still matches an entry in the pool, in which case it
// keeps that entry. Accounts without a usable persisted id take the first
// unclaimed entry at or after their own position, wrapping around. The unique
// pool must be at least as long as the account list.
func Allocate(in AllocateInput) ([]Assignment, error) {
	pool := make([]Identity, 0, len(in.Proxies))
	byID := make(map[string]int, len(in.Proxies))
	for _, raw := range in.Proxies {
		id := NewIdentity(raw)
		if _, dup := byID[id.ID]; dup {
			continue
		}
		byID[id.ID] = len(pool)
		pool = append(pool, id)
	}

	if len(pool) < len(in.Accounts) {
		dups := len(in.Proxies) - len(pool)
		if dups > 0 {
			return nil, errs.Configf(errs.ErrInsufficientIdentities,
				"%d accounts but only %d distinct proxy entries (%d duplicates)", len(in.Accounts), len(pool), dups)
		}
		return nil, errs.Configf(errs.ErrInsufficientIdentities,
			"%d accounts but only %d proxy entries", len(in.Accounts), len(pool))
	}

	claimed := make([]bool, len(pool))
	slot := make([]int, len(in.Accounts))
	for i := range slot {
		slot[i] = -1
	}

	// Persisted bindings first, so a sticky account is never displaced by a positional one.
	for i, rec := range in.Accounts {
		if rec.IdentityID == "" {
			continue
		}
		if j, ok := byID[rec.IdentityID]; ok && !claimed[j] {
			claimed[j] = true
			slot[i] = j
		}
	}

	for i := range in.Accounts {
		if slot[i] >= 0 {
			continue
		}
		for k := 0; k < len(pool); k++ {
			j := (i + k) % len(pool)
			if !claimed[j] {
				claimed[j] = true
				slot[i] = j
				break
			}
		}
	}

	out := make([]Assignment, len(in.Accounts))
	for i, rec := range in.Accounts {
		ua := rec.UserAgent
		if ua == "" {
			ua = PickUserAgent(rec.Address, in.UserAgents)
			if ua == "" {
				return nil, errs.Configf(nil, "user agent pool is empty and %s has none", rec)
			}
		}
		id := pool[slot[i]]
		out[i] = Assignment{
			AccountIndex: i,
			Address:      rec.Address,
			Identity:     id,
			UserAgent:    ua,
			Changed:      id.ID != rec.IdentityID || ua != rec.UserAgent,
		}
	}
	return out, nil
}
