package browser

import (
	"context"
	"errors"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/example/harvest/internal/ports/secondary"
)

// fetchJS issues a request from inside the page so it carries the page's cookies
// and challenge clearance.
const fetchJS = `async (url, method, headers, body) => {
	const res = await fetch(url, {
		method: method,
		headers: headers,
		body: body === "" ? undefined : body,
		mode: "cors",
		credentials: "include",
	});
	return { status: res.status, body: await res.text() };
}`

// Session is one live browser page.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cancel   context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// Do runs req through the page's fetch.
func (s *Session) Do(ctx context.Context, req secondary.HTTPRequest) (*secondary.HTTPResponse, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, errors.New("session closed")
	}

	// fetch rejects null headers, so always pass an object.
	headers := make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		headers[k] = v
	}
	res, err := s.page.Context(ctx).Evaluate(&rod.EvalOptions{
		JS:           fetchJS,
		JSArgs:       []interface{}{req.URL, req.Method, headers, string(req.Body)},
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, err
	}
	return &secondary.HTTPResponse{
		Status: res.Value.Get("status").Int(),
		Body:   []byte(res.Value.Get("body").Str()),
	}, nil
}

// Close tears down the browser process. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}

// handleProxyAuth answers every proxy credential challenge for the page's lifetime.
func (s *Session) handleProxyAuth(username, password string) {
	page := s.page
	page.EnableDomain(&proto.FetchEnable{HandleAuthRequests: true})
	wait := page.EachEvent(
		func(e *proto.FetchRequestPaused) {
			_ = proto.FetchContinueRequest{RequestID: e.RequestID}.Call(page)
		},
		func(e *proto.FetchAuthRequired) {
			_ = proto.FetchContinueWithAuth{
				RequestID: e.RequestID,
				AuthChallengeResponse: &proto.FetchAuthChallengeResponse{
					Response: proto.FetchAuthChallengeResponseResponseProvideCredentials,
					Username: username,
					Password: password,
				},
			}.Call(page)
		},
	)
	go wait()
}

var _ secondary.Session = (*Session)(nil)
