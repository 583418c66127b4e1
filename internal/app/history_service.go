package app

import (
	"context"
	"fmt"
	"time"

	"github.com/example/harvest/internal/ports/primary"
	"github.com/example/harvest/internal/ports/secondary"
)

// HistoryServiceImpl implements the HistoryService interface.
type HistoryServiceImpl struct {
	runRepo secondary.RunRepository
	now     func() time.Time
}

// NewHistoryService creates a new HistoryService with injected dependencies.
func NewHistoryService(runRepo secondary.RunRepository) *HistoryServiceImpl {
	return &HistoryServiceImpl{runRepo: runRepo, now: time.Now}
}

// ListRuns returns the most recent runs without per-account detail.
func (s *HistoryServiceImpl) ListRuns(ctx context.Context, limit int) ([]*primary.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	records, err := s.runRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	out := make([]*primary.RunSummary, 0, len(records))
	for _, r := range records {
		out = append(out, s.recordToSummary(r))
	}
	return out, nil
}

// GetRun returns one run with its per-account results.
func (s *HistoryServiceImpl) GetRun(ctx context.Context, id string) (*primary.RunSummary, error) {
	r, err := s.runRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := s.recordToSummary(r)

	results, err := s.runRepo.ListAccountResults(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load account results: %w", err)
	}
	for _, a := range results {
		summary.Accounts = append(summary.Accounts, primary.AccountResult{
			Index:          a.AccountIndex,
			Address:        a.Address,
			Outcome:        primary.Outcome(a.Outcome),
			Reason:         a.Reason,
			ItemsSucceeded: a.ItemsSucceeded,
			ItemsFailed:    a.ItemsFailed,
		})
	}
	return summary, nil
}

// PruneRuns deletes finished runs started more than olderThan ago.
func (s *HistoryServiceImpl) PruneRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("prune age must be positive, got %s", olderThan)
	}
	n, err := s.runRepo.DeleteFinishedBefore(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Helper methods

func (s *HistoryServiceImpl) recordToSummary(r *secondary.RunRecord) *primary.RunSummary {
	return &primary.RunSummary{
		RunID:              r.ID,
		Family:             primary.Family(r.Family),
		DryRun:             r.DryRun,
		Total:              r.Total,
		Processed:          r.Processed,
		Skipped:            r.Skipped,
		Errored:            r.Errored,
		ItemsSucceeded:     r.ItemsSucceeded,
		ItemsFailed:        r.ItemsFailed,
		Interrupted:        r.Status == "interrupted",
		CheckpointFailures: r.CheckpointFailures,
		StartedAt:          r.StartedAt,
		FinishedAt:         r.FinishedAt,
	}
}
