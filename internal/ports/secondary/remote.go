package secondary

import (
	"context"

	"github.com/example/harvest/internal/core/identity"
)

// SessionRequest describes the session an account needs.
type SessionRequest struct {
	Proxy     identity.Proxy
	UserAgent string
	TargetURL string
}

// SessionProvider defines the secondary port for acquiring authenticated sessions.
type SessionProvider interface {
	// Open returns a session routed through req.Proxy, or a SessionError.
	Open(ctx context.Context, req SessionRequest) (Session, error)
}

// HTTPRequest is one request issued through a session.
type HTTPRequest struct {
	Method  string
	URL     string
	Body    []byte
	Headers map[string]string
}

// HTTPResponse is the raw answer to an HTTPRequest.
type HTTPResponse struct {
	Status int
	Body   []byte
}

// Session is an opaque authenticated context. Close must always be called.
type Session interface {
	Do(ctx context.Context, req HTTPRequest) (*HTTPResponse, error)
	Close() error
}

// SignedMessage is a message and its signature.
type SignedMessage struct {
	Message   string
	Signature string
}

// Signer defines the secondary port for producing message signatures.
type Signer interface {
	// Sign signs message with the account's secret. Failures are SigningErrors.
	Sign(secret, message string) (string, error)
}

// CheckinStatus is the remote eligibility answer.
type CheckinStatus struct {
	CanCheckIn bool
}

// CheckinResult is the answer to a check-in submission.
type CheckinResult struct {
	Success bool
	Reward  float64
	Streak  int
}

// RewardStats is the remote view of accrued rewards.
type RewardStats struct {
	Success       bool
	PendingEnergy float64
}

// BatchResult is the shared shape of collect and stake answers.
type BatchResult struct {
	Success   bool
	Total     int
	Succeeded int
	Failed    int
	Energy    float64
	Errors    []string
}

// Box is one unopened box.
type Box struct {
	ID string
}

// OpenResult is the answer to a box opening.
type OpenResult struct {
	TemplateID string
}

// RemoteAPI defines the secondary port for the remote task service.
// Implementations return RemoteError on non-success and never retry.
type RemoteAPI interface {
	CheckinStatus(ctx context.Context, address string) (*CheckinStatus, error)
	Checkin(ctx context.Context, address string) (*CheckinResult, error)
	RewardStats(ctx context.Context, address string) (*RewardStats, error)
	CollectRewards(ctx context.Context, address string, msg SignedMessage) (*BatchResult, error)
	ListUnopenedBoxes(ctx context.Context, address string) ([]Box, error)
	OpenBox(ctx context.Context, address, boxID string, msg SignedMessage) (*OpenResult, error)
	Stake(ctx context.Context, address string, msg SignedMessage) (*BatchResult, error)
}

// RemoteAPIFactory binds a RemoteAPI to an open session.
type RemoteAPIFactory interface {
	ForSession(s Session) RemoteAPI
}
