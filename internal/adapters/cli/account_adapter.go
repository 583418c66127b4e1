package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/example/harvest/internal/ports/primary"
)

// AccountAdapter translates account maintenance commands into AccountService calls.
type AccountAdapter struct {
	service primary.AccountService
	out     io.Writer
}

// NewAccountAdapter creates a new AccountAdapter.
func NewAccountAdapter(service primary.AccountService, out io.Writer) *AccountAdapter {
	return &AccountAdapter{service: service, out: out}
}

// List prints every account without its secret.
func (a *AccountAdapter) List(ctx context.Context) ([]*primary.AccountView, error) {
	views, err := a.service.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(views) == 0 {
		fmt.Fprintln(a.out, "No accounts found.")
		return views, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tACCOUNT\tIDENTITY\tLAST CHECK-IN\tITEMS\tSTAKED")
	fmt.Fprintln(w, "-\t-------\t--------\t-------------\t-----\t------")
	for _, v := range views {
		identityID := v.IdentityID
		if identityID == "" {
			identityID = "-"
		}
		last := "never"
		if v.LastCheckin != nil {
			last = v.LastCheckin.Local().Format(time.DateTime)
		}
		staked := "no"
		if v.Staked {
			staked = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n", v.Index+1, v.Address, identityID, last, v.Items, staked)
	}
	w.Flush()
	return views, nil
}

// Reset clears the identity binding of the given accounts, or all of them.
func (a *AccountAdapter) Reset(ctx context.Context, addresses []string, all bool) (int, error) {
	if !all && len(addresses) == 0 {
		return 0, errors.New("name at least one account or pass --all")
	}
	n, err := a.service.ResetIdentity(ctx, addresses, all)
	if err != nil {
		return 0, fmt.Errorf("failed to reset identities: %w", err)
	}
	fmt.Fprintf(a.out, "✓ Reset identity on %d account(s)\n", n)
	if n > 0 {
		fmt.Fprintln(a.out, "  New bindings are assigned on the next run.")
	}
	return n, nil
}

// GenerateUserAgents writes a fresh user agent pool.
func (a *AccountAdapter) GenerateUserAgents(ctx context.Context, count int, seed uint64, path string) error {
	if count <= 0 {
		return fmt.Errorf("count must be positive, got %d", count)
	}
	if err := a.service.GenerateUserAgents(ctx, count, seed, path); err != nil {
		return fmt.Errorf("failed to generate user agents: %w", err)
	}
	target := path
	if target == "" {
		target = "the configured user agent file"
	}
	fmt.Fprintf(a.out, "✓ Wrote %d user agents to %s\n", count, target)
	return nil
}
