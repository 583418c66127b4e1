package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/example/harvest/internal/core/account"
	"github.com/example/harvest/internal/core/errs"
	"github.com/example/harvest/internal/core/pacing"
	"github.com/example/harvest/internal/ports/primary"
	"github.com/example/harvest/internal/ports/secondary"
)

// family is one operation state machine driven per account.
type family interface {
	// name identifies the family in summaries and metrics.
	name() primary.Family

	// page is the path the session is opened on.
	page() string

	// skip evaluates the pre-session predicate from local state only.
	skip(st *runState, rec *account.Record, now time.Time) (reason string, skipped bool)

	// run performs the operation through an open session.
	run(ctx context.Context, fc *familyContext) (familyResult, error)
}

// familyContext carries everything an operation needs for one account.
type familyContext struct {
	address string
	secret  string
	api     secondary.RemoteAPI
	signer  secondary.Signer
	exec    EffectExecutor
	state   *runState
	pacing  pacing.Policy
	logger  *zap.Logger
	now     func() time.Time
}

// familyResult is what an operation reports back to the orchestrator.
type familyResult struct {
	itemsSucceeded int
	itemsFailed    int
	note           string
	// skipped is set when a composite run found nothing to do once the session was open.
	skipped bool
}

func (r *familyResult) add(o familyResult) {
	r.itemsSucceeded += o.itemsSucceeded
	r.itemsFailed += o.itemsFailed
}

// sign wraps the signer so every failure surfaces as a SigningError.
func (fc *familyContext) sign(message string) (secondary.SignedMessage, error) {
	sig, err := fc.signer.Sign(fc.secret, message)
	if err != nil {
		return secondary.SignedMessage{}, signingError(err)
	}
	return secondary.SignedMessage{Message: message, Signature: sig}, nil
}

func signingError(err error) error {
	var se *errs.SigningError
	if errors.As(err, &se) {
		return err
	}
	return &errs.SigningError{Err: err}
}
