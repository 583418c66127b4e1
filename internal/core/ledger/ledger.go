// Package ledger contains the ProgressLedger: per-address records of unlocked items
// and their staking state. This is part of the Functional Core - no I/O.
package ledger

import "time"

// State is the unlock state of a single item.
type State string

const (
	// Unlocked items came out of a box and have not been submitted for staking.
	Unlocked State = "unlocked"
	// StakePending items were part of a stake submission whose outcome is not recorded.
	StakePending State = "stake_pending"
	// Staked items are confirmed staked. Terminal.
	Staked State = "staked"
)

// rank orders states so transitions can be checked for monotonicity.
func (s State) rank() int {
	switch s {
	case Unlocked:
		return 0
	case StakePending:
		return 1
	case Staked:
		return 2
	default:
		return -1
	}
}

// Valid reports whether s is a known state.
func (s State) Valid() bool { return s.rank() >= 0 }

// StakeResult is the account-level outcome snapshot of a stake call.
type StakeResult struct {
	Total     int
	Succeeded int
	Failed    int
	At        time.Time
}

// Item is one unlocked item. StakedAt and Result are only set in the Staked state.
type Item struct {
	TemplateID string
	State      State
	StakedAt   *time.Time
	Result     *StakeResult
}

// Ledger maps account addresses to their ordered items.
// Address order is the order addresses were first seen, so rewrites are stable.
type Ledger struct {
	entries map[string][]Item
	order   []string
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{entries: make(map[string][]Item)}
}

// Addresses returns every address with an entry, in first-seen order.
func (l *Ledger) Addresses() []string {
	return append([]string(nil), l.order...)
}

// Items returns a copy of the items recorded for address.
func (l *Ledger) Items(address string) []Item {
	items := l.entries[address]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// HasItems reports whether address has at least one item.
func (l *Ledger) HasItems(address string) bool {
	return len(l.entries[address]) > 0
}

// IsStaked reports whether any item for address is Staked.
// The remote stake call applies per account, so one marker is enough.
func (l *Ledger) IsStaked(address string) bool {
	for _, it := range l.entries[address] {
		if it.State == Staked {
			return true
		}
	}
	return false
}

// Append records a newly unlocked item.
func (l *Ledger) Append(address, templateID string) {
	l.touch(address)
	l.entries[address] = append(l.entries[address], Item{TemplateID: templateID, State: Unlocked})
}

// MarkStakePending moves every Unlocked item of address to StakePending.
// Returns the number of items changed.
func (l *Ledger) MarkStakePending(address string) int {
	return l.transition(address, func(it *Item) bool {
		if it.State != Unlocked {
			return false
		}
		it.State = StakePending
		return true
	})
}

// MarkStaked moves every not-yet-staked item of address to Staked and attaches result.
// Already-Staked items keep their original result. Returns the number of items changed.
func (l *Ledger) MarkStaked(address string, result StakeResult) int {
	return l.transition(address, func(it *Item) bool {
		if it.State == Staked {
			return false
		}
		at := result.At
		r := result
		it.State = Staked
		it.StakedAt = &at
		it.Result = &r
		return true
	})
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := New()
	for _, addr := range l.order {
		c.touch(addr)
		for _, it := range l.entries[addr] {
			c.entries[addr] = append(c.entries[addr], it.clone())
		}
	}
	return c
}

func (l *Ledger) touch(address string) {
	if l.entries == nil {
		l.entries = make(map[string][]Item)
	}
	if _, ok := l.entries[address]; !ok {
		l.entries[address] = nil
		l.order = append(l.order, address)
	}
}

func (l *Ledger) transition(address string, apply func(*Item) bool) int {
	items := l.entries[address]
	changed := 0
	for i := range items {
		if apply(&items[i]) {
			changed++
		}
	}
	return changed
}

func (it Item) clone() Item {
	c := it
	if it.StakedAt != nil {
		t := *it.StakedAt
		c.StakedAt = &t
	}
	if it.Result != nil {
		r := *it.Result
		c.Result = &r
	}
	return c
}

// CanTransition reports whether moving from one state to another keeps the ledger monotonic.
func CanTransition(from, to State) bool {
	return from.Valid() && to.Valid() && to.rank() >= from.rank()
}
