// Package remote implements the task service API on top of an open session.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/example/harvest/internal/config"
	"github.com/example/harvest/internal/core/errs"
	"github.com/example/harvest/internal/ports/secondary"
)

// baseHeaders are sent with every call, matching what the site's own pages send.
var baseHeaders = map[string]string{
	"accept":             "*/*",
	"accept-language":    "en-GB,en-US;q=0.9,en;q=0.8",
	"priority":           "u=1, i",
	"sec-ch-ua-mobile":   "?0",
	"sec-ch-ua-platform": `"Windows"`,
	"sec-fetch-dest":     "empty",
	"sec-fetch-mode":     "cors",
	"sec-fetch-site":     "same-origin",
}

// Factory implements secondary.RemoteAPIFactory.
type Factory struct {
	baseURL string
	rps     float64
	burst   int
	timeout time.Duration
	now     func() time.Time
}

// NewFactory creates a client factory for baseURL.
func NewFactory(baseURL string, cfg config.Remote) *Factory {
	return &Factory{
		baseURL: strings.TrimRight(baseURL, "/"),
		rps:     cfg.RPS,
		burst:   cfg.Burst,
		timeout: cfg.Timeout,
		now:     time.Now,
	}
}

// ForSession returns a client bound to s. Each session gets its own limiter.
func (f *Factory) ForSession(s secondary.Session) secondary.RemoteAPI {
	limit := rate.Inf
	if f.rps > 0 {
		limit = rate.Limit(f.rps)
	}
	burst := max(f.burst, 1)
	return &Client{
		session: s,
		baseURL: f.baseURL,
		limiter: rate.NewLimiter(limit, burst),
		timeout: f.timeout,
		now:     f.now,
	}
}

// Client implements secondary.RemoteAPI.
type Client struct {
	session secondary.Session
	baseURL string
	limiter *rate.Limiter
	timeout time.Duration
	now     func() time.Time
}

type checkinStatusResponse struct {
	CanCheckIn bool `json:"can_check_in"`
}

type checkinResponse struct {
	Success      bool    `json:"success"`
	EnergyReward float64 `json:"energy_reward"`
	CheckInCount int     `json:"check_in_count"`
}

type statsResponse struct {
	Success bool `json:"success"`
	Data    struct {
		PendingEnergy float64 `json:"pending_energy"`
	} `json:"data"`
}

type batchResponse struct {
	Success bool `json:"success"`
	Data    struct {
		TotalNFTs     int      `json:"total_nfts"`
		SuccessCount  int      `json:"success_count"`
		FailedCount   int      `json:"failed_count"`
		TotalEnergy   float64  `json:"total_energy"`
		ErrorMessages []string `json:"error_messages"`
	} `json:"data"`
}

type boxesResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type openResponse struct {
	TemplateID string `json:"template_id"`
}

type signedBody struct {
	BoxID     string `json:"box_id,omitempty"`
	Signature string `json:"signature"`
	Message   string `json:"message"`
}

// CheckinStatus asks whether the account can check in today.
func (c *Client) CheckinStatus(ctx context.Context, address string) (*secondary.CheckinStatus, error) {
	var resp checkinStatusResponse
	headers := map[string]string{
		"cache-control": "no-cache, no-store, must-revalidate",
		"expires":       "0",
		"pragma":        "no-cache",
	}
	if err := c.call(ctx, "check-in status", http.MethodGet, c.userURL(address, "check-in-status", true), nil, headers, &resp); err != nil {
		return nil, err
	}
	return &secondary.CheckinStatus{CanCheckIn: resp.CanCheckIn}, nil
}

// Checkin submits today's check-in.
func (c *Client) Checkin(ctx context.Context, address string) (*secondary.CheckinResult, error) {
	var resp checkinResponse
	if err := c.call(ctx, "check-in", http.MethodPost, c.userURL(address, "check-in", false), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &secondary.CheckinResult{Success: resp.Success, Reward: resp.EnergyReward, Streak: resp.CheckInCount}, nil
}

// RewardStats reads accrued, uncollected energy.
func (c *Client) RewardStats(ctx context.Context, address string) (*secondary.RewardStats, error) {
	var resp statsResponse
	if err := c.call(ctx, "reward stats", http.MethodGet, c.userURL(address, "nfts/stats", false), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &secondary.RewardStats{Success: resp.Success, PendingEnergy: resp.Data.PendingEnergy}, nil
}

// CollectRewards claims accrued energy.
func (c *Client) CollectRewards(ctx context.Context, address string, msg secondary.SignedMessage) (*secondary.BatchResult, error) {
	var resp batchResponse
	body := signedBody{Signature: msg.Signature, Message: msg.Message}
	if err := c.call(ctx, "collect energy", http.MethodPost, c.userURL(address, "nfts/collect-energy", false), body, nil, &resp); err != nil {
		return nil, err
	}
	return toBatch(resp), nil
}

// ListUnopenedBoxes lists the account's unopened boxes.
func (c *Client) ListUnopenedBoxes(ctx context.Context, address string) ([]secondary.Box, error) {
	var resp boxesResponse
	u := c.userURL(address, "blind-boxes", false)
	q := url.Values{}
	q.Set("status", "unopened")
	q.Set("_t", c.stamp())
	u += "?" + q.Encode()

	if err := c.call(ctx, "list boxes", http.MethodGet, u, nil, c.spaceReferer(), &resp); err != nil {
		return nil, err
	}
	boxes := make([]secondary.Box, 0, len(resp.Data))
	for _, b := range resp.Data {
		boxes = append(boxes, secondary.Box{ID: b.ID})
	}
	return boxes, nil
}

// OpenBox opens one box.
func (c *Client) OpenBox(ctx context.Context, address, boxID string, msg secondary.SignedMessage) (*secondary.OpenResult, error) {
	var resp openResponse
	body := signedBody{BoxID: boxID, Signature: msg.Signature, Message: msg.Message}
	if err := c.call(ctx, "open box", http.MethodPost, c.userURL(address, "blind-boxes/open", false), body, c.spaceReferer(), &resp); err != nil {
		return nil, err
	}
	return &secondary.OpenResult{TemplateID: resp.TemplateID}, nil
}

// Stake stakes every unstaked item of the account.
func (c *Client) Stake(ctx context.Context, address string, msg secondary.SignedMessage) (*secondary.BatchResult, error) {
	var resp batchResponse
	body := signedBody{Signature: msg.Signature, Message: msg.Message}
	if err := c.call(ctx, "stake", http.MethodPost, c.userURL(address, "nfts/stake", false), body, nil, &resp); err != nil {
		return nil, err
	}
	return toBatch(resp), nil
}

// Helper methods

func (c *Client) userURL(address, path string, stamped bool) string {
	u := fmt.Sprintf("%s/api/users/%s/%s", c.baseURL, url.PathEscape(address), path)
	if stamped {
		u += "?_t=" + c.stamp()
	}
	return u
}

func (c *Client) stamp() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10)
}

func (c *Client) spaceReferer() map[string]string {
	return map[string]string{"referer": c.baseURL + "/space"}
}

// call issues one request and decodes a 2xx JSON body into out.
func (c *Client) call(ctx context.Context, op, method, u string, body any, extra map[string]string, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	headers := make(map[string]string, len(baseHeaders)+len(extra)+1)
	for k, v := range baseHeaders {
		headers[k] = v
	}
	for k, v := range extra {
		headers[k] = v
	}

	req := secondary.HTTPRequest{Method: method, URL: u, Headers: headers}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		req.Body = data
		headers["content-type"] = "application/json"
	}

	resp, err := c.session.Do(ctx, req)
	if err != nil {
		return &errs.RemoteError{Op: op, Err: err}
	}
	if resp.Status < 200 || resp.Status > 299 {
		return &errs.RemoteError{Op: op, Status: resp.Status, Msg: http.StatusText(resp.Status)}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &errs.RemoteError{Op: op, Status: resp.Status, Msg: "invalid response body", Err: err}
	}
	return nil
}

func toBatch(resp batchResponse) *secondary.BatchResult {
	return &secondary.BatchResult{
		Success:   resp.Success,
		Total:     resp.Data.TotalNFTs,
		Succeeded: resp.Data.SuccessCount,
		Failed:    resp.Data.FailedCount,
		Energy:    resp.Data.TotalEnergy,
		Errors:    resp.Data.ErrorMessages,
	}
}

// Ensure implementations satisfy the interfaces
var (
	_ secondary.RemoteAPIFactory = (*Factory)(nil)
	_ secondary.RemoteAPI        = (*Client)(nil)
)
