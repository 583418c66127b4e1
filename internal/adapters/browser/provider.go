// Package browser opens authenticated sessions through a headless browser.
// Each session is its own browser process routed through the account's proxy,
// so cookies and challenge state never leak between accounts.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/example/harvest/internal/config"
	"github.com/example/harvest/internal/core/errs"
	"github.com/example/harvest/internal/core/identity"
	"github.com/example/harvest/internal/core/pacing"
	"github.com/example/harvest/internal/ports/secondary"
)

// Provider launches one browser per session.
type Provider struct {
	cfg    config.Browser
	logger *zap.Logger
}

// NewProvider creates a session provider.
func NewProvider(cfg config.Browser, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{cfg: cfg, logger: logger.Named("browser")}
}

// Open launches a browser behind req.Proxy, loads req.TargetURL and waits for
// the page to settle past any challenge. The browser is torn down on failure.
func (p *Provider) Open(ctx context.Context, req secondary.SessionRequest) (secondary.Session, error) {
	target, err := url.Parse(req.TargetURL)
	if err != nil || target.Host == "" {
		return nil, &errs.SessionError{Msg: "invalid target url"}
	}

	l := p.launcher(req.Proxy)
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		l.Kill()
		return nil, &errs.SessionError{Msg: "launch browser", Err: err}
	}

	sessCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{launcher: l, cancel: cancel}

	s.browser = rod.New().ControlURL(controlURL).Context(sessCtx)
	if err := s.browser.Connect(); err != nil {
		s.Close()
		return nil, &errs.SessionError{Msg: "connect browser", Err: err}
	}

	if err := p.preparePage(ctx, s, req); err != nil {
		s.Close()
		return nil, err
	}

	p.logger.Debug("session opened",
		zap.String("target", target.Host),
		zap.Bool("proxy_auth", req.Proxy.HasAuth()),
	)
	return s, nil
}

func (p *Provider) launcher(proxy identity.Proxy) *launcher.Launcher {
	l := launcher.New().
		Headless(p.cfg.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage")
	if p.cfg.Bin != "" {
		l = l.Bin(p.cfg.Bin)
	} else if bin, ok := launcher.LookPath(); ok {
		l = l.Bin(bin)
	}
	if proxy.Host != "" {
		l = l.Proxy(proxy.Server())
	}
	return l
}

func (p *Provider) preparePage(ctx context.Context, s *Session, req secondary.SessionRequest) error {
	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return &errs.SessionError{Msg: "create page", Err: err}
	}
	s.page = page

	if req.Proxy.HasAuth() {
		s.handleProxyAuth(req.Proxy.Username, req.Proxy.Password)
	}

	if req.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: req.UserAgent}); err != nil {
			return &errs.SessionError{Msg: "set user agent", Err: err}
		}
	}
	if p.cfg.ViewportWidth > 0 && p.cfg.ViewportHeight > 0 {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             p.cfg.ViewportWidth,
			Height:            p.cfg.ViewportHeight,
			DeviceScaleFactor: 1.0,
			Mobile:            false,
		})
		if err != nil {
			return &errs.SessionError{Msg: "set viewport", Err: err}
		}
	}

	nav := page.Context(ctx)
	if p.cfg.NavigationTimeout > 0 {
		nav = nav.Timeout(p.cfg.NavigationTimeout)
	}
	if err := nav.Navigate(req.TargetURL); err != nil {
		return &errs.SessionError{Msg: "navigate", Err: err}
	}
	if err := nav.WaitLoad(); err != nil {
		return &errs.SessionError{Msg: "wait for load", Err: err}
	}

	// Challenge pages resolve on their own; give them time before judging the landing.
	if err := pacing.Sleep(ctx, p.cfg.Settle); err != nil {
		return &errs.SessionError{Msg: "settle", Err: err}
	}

	info, err := page.Context(ctx).Info()
	if err != nil {
		return &errs.SessionError{Msg: "read page info", Err: err}
	}
	return checkLanding(req.TargetURL, info.URL, info.Title)
}

// checkLanding rejects a session whose page ended up off-site or on an error page.
func checkLanding(target, current, title string) error {
	want, err := url.Parse(target)
	if err != nil {
		return &errs.SessionError{Msg: "invalid target url"}
	}
	got, err := url.Parse(current)
	if err != nil || !strings.EqualFold(got.Hostname(), want.Hostname()) {
		return &errs.SessionError{Msg: fmt.Sprintf("redirected away from %s", want.Hostname())}
	}
	lower := strings.ToLower(title)
	for _, marker := range []string{"error", "blocked"} {
		if strings.Contains(lower, marker) {
			return &errs.SessionError{Msg: fmt.Sprintf("landing page reports %q", title)}
		}
	}
	return nil
}

var _ secondary.SessionProvider = (*Provider)(nil)
