// Package pacing holds the inter-request delay policy of a batch run.
package pacing

import (
	"context"
	"math/rand/v2"
	"time"
)

// Kind selects which delay applies.
type Kind int

const (
	// AfterAccount follows a processed or errored account.
	AfterAccount Kind = iota
	// AfterSkip follows a skipped account.
	AfterSkip
	// BetweenItems separates consecutive item operations within one account.
	BetweenItems
)

// Policy is a fixed delay per kind plus optional uniform jitter in [0, Jitter).
type Policy struct {
	Account time.Duration
	Skip    time.Duration
	Item    time.Duration
	Jitter  time.Duration

	// rand returns a value in [0, n); nil uses math/rand/v2.
	rand func(n int64) int64
	// sleep waits for d; nil uses Sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// Default matches the long-standing fixed delays: 3s per account, 1s per skip, 2s per item.
func Default() Policy {
	return Policy{Account: 3 * time.Second, Skip: time.Second, Item: 2 * time.Second}
}

// WithRand returns a copy of p using fn as its jitter source.
func (p Policy) WithRand(fn func(n int64) int64) Policy {
	p.rand = fn
	return p
}

// WithSleep returns a copy of p that waits through fn instead of a timer.
func (p Policy) WithSleep(fn func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = fn
	return p
}

// Delay returns the delay for kind.
func (p Policy) Delay(kind Kind) time.Duration {
	var d time.Duration
	switch kind {
	case AfterAccount:
		d = p.Account
	case AfterSkip:
		d = p.Skip
	case BetweenItems:
		d = p.Item
	}
	if p.Jitter > 0 {
		r := p.rand
		if r == nil {
			r = rand.Int64N
		}
		d += time.Duration(r(int64(p.Jitter)))
	}
	return d
}

// Wait sleeps for the kind's delay or until ctx is done.
func (p Policy) Wait(ctx context.Context, kind Kind) error {
	if p.sleep != nil {
		return p.sleep(ctx, p.Delay(kind))
	}
	return Sleep(ctx, p.Delay(kind))
}

// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
