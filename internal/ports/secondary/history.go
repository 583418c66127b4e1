package secondary

import (
	"context"
	"time"
)

// RunRepository defines the secondary port for run history persistence.
type RunRepository interface {
	// Create persists a new run in the running state.
	Create(ctx context.Context, run *RunRecord) error

	// Finish stores the final counters of a run.
	Finish(ctx context.Context, run *RunRecord) error

	// AddAccountResult appends one per-account outcome to a run.
	AddAccountResult(ctx context.Context, result *RunAccountRecord) error

	// GetByID retrieves a run by its ID.
	GetByID(ctx context.Context, id string) (*RunRecord, error)

	// List retrieves the most recent runs, newest first.
	List(ctx context.Context, limit int) ([]*RunRecord, error)

	// ListAccountResults retrieves the per-account outcomes of a run in account order.
	ListAccountResults(ctx context.Context, runID string) ([]*RunAccountRecord, error)

	// DeleteFinishedBefore removes finished runs started before cutoff, with their results.
	// Returns the number of runs removed.
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// RunRecord represents a batch run as stored in persistence.
type RunRecord struct {
	ID                 string
	Family             string
	Status             string // "running", "completed", "interrupted"
	DryRun             bool
	Total              int
	Processed          int
	Skipped            int
	Errored            int
	ItemsSucceeded     int
	ItemsFailed        int
	CheckpointFailures int
	StartedAt          time.Time
	FinishedAt         time.Time
}

// RunAccountRecord represents one account outcome within a run.
// Address is stored truncated.
type RunAccountRecord struct {
	RunID          string
	AccountIndex   int
	Address        string
	Outcome        string
	Reason         string
	ItemsSucceeded int
	ItemsFailed    int
}

// RunMetrics defines the secondary port for run instrumentation.
type RunMetrics interface {
	AccountFinished(family, outcome string)
	ItemsFinished(family string, succeeded, failed int)
	RunFinished(family string, d time.Duration, interrupted bool)
}
