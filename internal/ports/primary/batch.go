// Package primary defines the primary ports (driving adapters) for the application.
// These are the interfaces the CLI uses to drive the application services.
package primary

import (
	"context"
	"fmt"
	"time"
)

// Family is a kind of batch run.
type Family string

const (
	FamilyCheckin Family = "checkin"
	FamilyUnlock  Family = "unlock"
	FamilyStake   Family = "stake"
	// FamilyAll runs check-in, unlock and stake for each account in one session.
	FamilyAll Family = "all"
)

// Families lists the valid families in display order.
var Families = []Family{FamilyCheckin, FamilyUnlock, FamilyStake, FamilyAll}

// ParseFamily validates a family name.
func ParseFamily(s string) (Family, error) {
	for _, f := range Families {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown operation %q (want checkin, unlock, stake or all)", s)
}

// Outcome is the per-account result of a run.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeErrored   Outcome = "errored"
)

// BatchService defines the primary port for batch runs.
type BatchService interface {
	// Run drives every account through the family's operation.
	// Only configuration errors detected before the loop are returned as errors.
	Run(ctx context.Context, req RunRequest) (*RunSummary, error)
}

// RunRequest contains the parameters of a batch run.
type RunRequest struct {
	Family      Family
	Concurrency int  // <= 1 means sequential
	DryRun      bool // evaluate predicates only; no sessions, no state writes
}

// AccountResult is one account's outcome.
type AccountResult struct {
	Index          int
	Address        string // truncated
	Outcome        Outcome
	Reason         string
	ItemsSucceeded int
	ItemsFailed    int
}

// RunSummary is the result of a batch run.
type RunSummary struct {
	RunID              string
	Family             Family
	DryRun             bool
	Total              int
	Processed          int
	Skipped            int
	Errored            int
	ItemsSucceeded     int
	ItemsFailed        int
	Interrupted        bool
	CheckpointFailures int
	StartedAt          time.Time
	FinishedAt         time.Time
	Accounts           []AccountResult
}

// Duration returns the wall time of the run.
func (s *RunSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
