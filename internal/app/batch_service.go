package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/harvest/internal/config"
	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/effects"
	"github.com/example/harvest/internal/core/errs"
	"github.com/example/harvest/internal/core/identity"
	"github.com/example/harvest/internal/core/pacing"
	"github.com/example/harvest/internal/logging"
	"github.com/example/harvest/internal/ports/primary"
	"github.com/example/harvest/internal/ports/secondary"
)

// flushTimeout bounds the final write after the run context is gone.
const flushTimeout = 30 * time.Second

// BatchDeps are the collaborators of a BatchService.
type BatchDeps struct {
	Accounts secondary.AccountStore
	Ledger   secondary.LedgerStore
	Pools    secondary.PoolSource
	Sessions secondary.SessionProvider
	Remotes  secondary.RemoteAPIFactory
	Signer   secondary.Signer
	Runs     secondary.RunRepository // optional
	Metrics  secondary.RunMetrics    // optional
	Logger   *zap.Logger
}

// BatchSettings are the tunables of a BatchService.
type BatchSettings struct {
	BaseURL string
	Pacing  pacing.Policy
	Collect config.Collect
}

// BatchServiceImpl implements primary.BatchService.
type BatchServiceImpl struct {
	deps        BatchDeps
	settings    BatchSettings
	families    map[primary.Family]family
	now         func() time.Time
	newID       func() string
	newDeviceID func() string
}

// NewBatchService creates a new BatchService with injected dependencies.
func NewBatchService(deps BatchDeps, settings BatchSettings) *BatchServiceImpl {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	checkinF := &checkinFamily{collect: settings.Collect}
	unlockF := &unlockFamily{}
	stakeF := &stakeFamily{}
	return &BatchServiceImpl{
		deps:     deps,
		settings: settings,
		families: map[primary.Family]family{
			primary.FamilyCheckin: checkinF,
			primary.FamilyUnlock:  unlockF,
			primary.FamilyStake:   stakeF,
			primary.FamilyAll:     &compositeFamily{steps: []family{checkinF, unlockF, stakeF}},
		},
		now:         time.Now,
		newID:       uuid.NewString,
		newDeviceID: newDeviceID,
	}
}

// Run drives every account through the requested family.
// Only errors detected before the loop are returned; per-account failures
// are recorded in the summary.
func (s *BatchServiceImpl) Run(ctx context.Context, req primary.RunRequest) (*primary.RunSummary, error) {
	fam, ok := s.families[req.Family]
	if !ok {
		return nil, errs.Configf(nil, "unknown operation %q", req.Family)
	}
	logger := s.deps.Logger.With(zap.String("family", string(req.Family)))

	records, err := s.deps.Accounts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	if err := account.ValidateSet(records); err != nil {
		return nil, err
	}
	progress, err := s.deps.Ledger.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress ledger: %w", err)
	}
	proxies, err := s.deps.Pools.Proxies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load proxy pool: %w", err)
	}
	agents, generated, err := s.deps.Pools.UserAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user agent pool: %w", err)
	}

	assignments, err := identity.Allocate(identity.AllocateInput{Accounts: records, Proxies: proxies, UserAgents: agents})
	if err != nil {
		return nil, err
	}
	if generated && !req.DryRun {
		if err := s.deps.Pools.WriteUserAgents(ctx, "", agents); err != nil {
			return nil, err
		}
		logger.Info("generated user agent pool", zap.Int("count", len(agents)))
	}
	logger.Info("loaded state",
		zap.Int("accounts", len(records)),
		zap.Int("proxies", len(proxies)),
		zap.Int("user_agents", len(agents)),
		zap.Int("ledger_accounts", len(progress.Addresses())))

	state := newRunState(records, progress, s.deps.Accounts, s.deps.Ledger, logger, req.DryRun)
	s.preprocess(ctx, state, assignments, logger)

	summary := &primary.RunSummary{
		RunID:     s.newID(),
		Family:    req.Family,
		DryRun:    req.DryRun,
		Total:     len(records),
		StartedAt: s.now(),
	}
	s.recordStart(ctx, summary, logger)

	results := s.dispatch(ctx, req, fam, state, assignments)

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()
	state.flush(flushCtx)

	for _, r := range results {
		if r == nil {
			continue
		}
		summary.Accounts = append(summary.Accounts, *r)
		switch r.Outcome {
		case primary.OutcomeProcessed:
			summary.Processed++
		case primary.OutcomeSkipped:
			summary.Skipped++
		case primary.OutcomeErrored:
			summary.Errored++
		}
		summary.ItemsSucceeded += r.ItemsSucceeded
		summary.ItemsFailed += r.ItemsFailed
	}
	summary.Interrupted = ctx.Err() != nil
	summary.CheckpointFailures = state.failures()
	summary.FinishedAt = s.now()

	s.recordFinish(flushCtx, summary, logger)
	if s.deps.Metrics != nil {
		s.deps.Metrics.RunFinished(string(req.Family), summary.Duration(), summary.Interrupted)
	}

	logger.Info("run finished",
		zap.Int("processed", summary.Processed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errored", summary.Errored),
		zap.Bool("interrupted", summary.Interrupted))
	return summary, nil
}

// preprocess fills lazily assigned fields and persists them once before the loop.
func (s *BatchServiceImpl) preprocess(ctx context.Context, state *runState, assignments []identity.Assignment, logger *zap.Logger) {
	var effs []effects.Effect
	for _, as := range assignments {
		rec, ok := state.record(as.Address)
		if !ok {
			continue
		}
		effs = append(effs, planPreprocess(rec, as, s.newDeviceID)...)
	}
	if len(effs) == 0 {
		return
	}
	effs = append(effs, effects.CheckpointEffect{Store: effects.StoreAccounts})
	if err := newEffectExecutor(state, logger).Execute(ctx, effs); err != nil {
		logger.Warn("preprocessing incomplete", zap.Error(err))
	}
}

// planPreprocess returns the account effects that bring rec in line with its assignment.
// rec must be a copy; it is inspected destructively.
func planPreprocess(rec *account.Record, as identity.Assignment, newDeviceID func() string) []effects.Effect {
	var effs []effects.Effect
	if as.Changed {
		effs = append(effs, effects.AccountEffect{
			Operation:  effects.AccountAssign,
			Address:    as.Address,
			IdentityID: as.Identity.ID,
			UserAgent:  as.UserAgent,
		})
	}
	if rec.DeviceID == "" {
		effs = append(effs, effects.AccountEffect{
			Operation: effects.AccountSetDevice,
			Address:   as.Address,
			DeviceID:  newDeviceID(),
		})
	}
	if rec.DropTransient() {
		effs = append(effs, effects.AccountEffect{Operation: effects.AccountDropTransient, Address: as.Address})
	}
	return effs
}

func newDeviceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// dispatch runs accounts sequentially, or through a bounded worker group when
// concurrency allows. Accounts never dispatched because of cancellation have nil results.
func (s *BatchServiceImpl) dispatch(ctx context.Context, req primary.RunRequest, fam family, state *runState, assignments []identity.Assignment) []*primary.AccountResult {
	results := make([]*primary.AccountResult, len(assignments))

	limit := min(req.Concurrency, len(assignments))
	if limit <= 1 {
		for i, as := range assignments {
			if ctx.Err() != nil {
				break
			}
			results[i] = s.processAccount(ctx, req, fam, state, as)
			if i < len(assignments)-1 {
				if err := s.pace(ctx, req, results[i]); err != nil {
					break
				}
			}
		}
		return results
	}

	// Each in-flight account holds its own identity; Allocate guarantees
	// len(pool) >= len(accounts), so limit never exceeds the pool.
	var g errgroup.Group
	g.SetLimit(limit)
	for i, as := range assignments {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = s.processAccount(ctx, req, fam, state, as)
			// A worker paces only while accounts remain that need its slot.
			if i+limit < len(assignments) {
				_ = s.pace(ctx, req, results[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *BatchServiceImpl) pace(ctx context.Context, req primary.RunRequest, r *primary.AccountResult) error {
	if req.DryRun {
		return ctx.Err()
	}
	kind := pacing.AfterAccount
	if r.Outcome == primary.OutcomeSkipped {
		kind = pacing.AfterSkip
	}
	return s.settings.Pacing.Wait(ctx, kind)
}

// processAccount runs one account end to end. It never returns an error:
// every failure becomes an errored result.
func (s *BatchServiceImpl) processAccount(ctx context.Context, req primary.RunRequest, fam family, state *runState, as identity.Assignment) *primary.AccountResult {
	logger := state.logger.With(logging.Account(as.Address), logging.Identity(as.Identity.ID))
	result := &primary.AccountResult{Index: as.AccountIndex, Address: account.Short(as.Address)}

	rec, ok := state.record(as.Address)
	if !ok {
		return s.finish(req, result, logger, primary.OutcomeErrored, "account vanished from state")
	}

	if reason, skipped := fam.skip(state, rec, s.now()); skipped {
		return s.finish(req, result, logger, primary.OutcomeSkipped, reason)
	}

	proxy, err := identity.ParseProxy(as.Identity.Raw)
	if err != nil {
		return s.finish(req, result, logger, primary.OutcomeErrored, err.Error())
	}
	if req.DryRun {
		return s.finish(req, result, logger, primary.OutcomeProcessed, "dry run: would run via "+proxy.String())
	}

	res, err := s.runFamily(ctx, fam, state, rec, as, proxy, logger)
	result.ItemsSucceeded = res.itemsSucceeded
	result.ItemsFailed = res.itemsFailed
	state.checkpoint(ctx, effects.StoreAccounts, effects.StoreLedger)

	switch {
	case err != nil:
		return s.finish(req, result, logger, primary.OutcomeErrored, describe(err))
	case res.skipped:
		return s.finish(req, result, logger, primary.OutcomeSkipped, "nothing to do")
	default:
		return s.finish(req, result, logger, primary.OutcomeProcessed, res.note)
	}
}

func (s *BatchServiceImpl) runFamily(ctx context.Context, fam family, state *runState, rec *account.Record, as identity.Assignment, proxy identity.Proxy, logger *zap.Logger) (familyResult, error) {
	sess, err := s.deps.Sessions.Open(ctx, secondary.SessionRequest{
		Proxy:     proxy,
		UserAgent: as.UserAgent,
		TargetURL: strings.TrimRight(s.settings.BaseURL, "/") + fam.page(),
	})
	if err != nil {
		return familyResult{}, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			logger.Debug("failed to close session", zap.Error(cerr))
		}
	}()

	fc := &familyContext{
		address: rec.Address,
		secret:  rec.Secret,
		api:     s.deps.Remotes.ForSession(sess),
		signer:  s.deps.Signer,
		exec:    newEffectExecutor(state, logger),
		state:   state,
		pacing:  s.settings.Pacing,
		logger:  logger,
		now:     s.now,
	}
	return fam.run(ctx, fc)
}

func (s *BatchServiceImpl) finish(req primary.RunRequest, r *primary.AccountResult, logger *zap.Logger, outcome primary.Outcome, reason string) *primary.AccountResult {
	r.Outcome = outcome
	r.Reason = reason
	switch outcome {
	case primary.OutcomeErrored:
		logger.Error("account failed", zap.String("reason", reason))
	case primary.OutcomeSkipped:
		logger.Info("account skipped", zap.String("reason", reason))
	default:
		logger.Info("account processed", zap.String("result", reason),
			zap.Int("items_ok", r.ItemsSucceeded), zap.Int("items_failed", r.ItemsFailed))
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.AccountFinished(string(req.Family), string(outcome))
		s.deps.Metrics.ItemsFinished(string(req.Family), r.ItemsSucceeded, r.ItemsFailed)
	}
	return r
}

func (s *BatchServiceImpl) recordStart(ctx context.Context, summary *primary.RunSummary, logger *zap.Logger) {
	if s.deps.Runs == nil {
		return
	}
	err := s.deps.Runs.Create(ctx, &secondary.RunRecord{
		ID:        summary.RunID,
		Family:    string(summary.Family),
		Status:    "running",
		DryRun:    summary.DryRun,
		Total:     summary.Total,
		StartedAt: summary.StartedAt,
	})
	if err != nil {
		logger.Warn("failed to record run start", zap.Error(err))
	}
}

func (s *BatchServiceImpl) recordFinish(ctx context.Context, summary *primary.RunSummary, logger *zap.Logger) {
	if s.deps.Runs == nil {
		return
	}
	status := "completed"
	if summary.Interrupted {
		status = "interrupted"
	}
	for _, a := range summary.Accounts {
		err := s.deps.Runs.AddAccountResult(ctx, &secondary.RunAccountRecord{
			RunID:          summary.RunID,
			AccountIndex:   a.Index,
			Address:        a.Address,
			Outcome:        string(a.Outcome),
			Reason:         a.Reason,
			ItemsSucceeded: a.ItemsSucceeded,
			ItemsFailed:    a.ItemsFailed,
		})
		if err != nil {
			logger.Warn("failed to record account result", zap.Error(err))
			break
		}
	}
	err := s.deps.Runs.Finish(ctx, &secondary.RunRecord{
		ID:                 summary.RunID,
		Family:             string(summary.Family),
		Status:             status,
		DryRun:             summary.DryRun,
		Total:              summary.Total,
		Processed:          summary.Processed,
		Skipped:            summary.Skipped,
		Errored:            summary.Errored,
		ItemsSucceeded:     summary.ItemsSucceeded,
		ItemsFailed:        summary.ItemsFailed,
		CheckpointFailures: summary.CheckpointFailures,
		StartedAt:          summary.StartedAt,
		FinishedAt:         summary.FinishedAt,
	})
	if err != nil {
		logger.Warn("failed to record run finish", zap.Error(err))
	}
}

// describe renders an account failure for the summary.
func describe(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "interrupted"
	}
	return err.Error()
}
