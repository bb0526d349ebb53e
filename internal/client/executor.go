package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/foodscan/internal/domain/auth"
)

// Executor performs calls against the pricing service with the correct
// authorization header and a bounded refresh-and-retry policy: at most one
// retry per logical call, triggered only by a 401 on a login-password
// session. Other statuses and transport errors propagate immediately.
type Executor struct {
	http    *http.Client
	base    *url.URL
	session *auth.SessionManager
}

// NewExecutor creates an executor for the pricing service at baseURL.
func NewExecutor(httpClient *http.Client, baseURL string, session *auth.SessionManager) (*Executor, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	return &Executor{
		http:    httpClient,
		base:    base,
		session: session,
	}, nil
}

// Do sends one request. A non-nil body is JSON-encoded. The caller owns the
// response body.
func (e *Executor) Do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode body")
		}
	}

	// Proactive refresh: an expired login session is refreshed before the
	// first send rather than burning a round trip on a guaranteed 401.
	sess := e.session.Session()
	if sess.Method == auth.MethodLoginPassword && e.session.Expired() {
		if _, err := e.session.Refresh(ctx); err != nil {
			zctx.From(ctx).Warn("Proactive session refresh failed", zap.Error(err))
		}
	}

	requestID := uuid.New().String()
	res, err := e.send(ctx, method, path, query, payload, requestID)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusUnauthorized {
		return res, nil
	}
	if e.session.Session().Method != auth.MethodLoginPassword {
		// Token refresh is a no-op, so retrying an apiToken 401 cannot help.
		return res, nil
	}

	ok, err := e.session.Refresh(ctx)
	if err != nil || !ok {
		zctx.From(ctx).Warn("Session refresh after 401 failed", zap.Error(err))
		return res, nil
	}

	// Exactly one resend of the identical request with rebuilt headers.
	drain(res)
	retry, err := e.send(ctx, method, path, query, payload, requestID)
	if err != nil {
		return nil, err
	}
	return retry, nil
}

func (e *Executor) send(ctx context.Context, method, path string, query url.Values, payload []byte, requestID string) (*http.Response, error) {
	u := *e.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", requestID)
	setAuthHeaders(req, e.session.Session())

	res, err := e.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	return res, nil
}

// setAuthHeaders applies the authorization carrier for the current session:
// bearer token for apiToken, session cookie (bearer fallback) for
// loginPassword, nothing for an unauthenticated session.
func setAuthHeaders(req *http.Request, s auth.Session) {
	switch s.Method {
	case auth.MethodAPIToken:
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	case auth.MethodLoginPassword:
		switch {
		case s.Cookie != "":
			req.Header.Set("Cookie", "session="+s.Cookie)
		case s.AccessToken != "":
			req.Header.Set("Authorization", "Bearer "+s.AccessToken)
		}
	}
}

// drain discards and closes a response body so the connection can be reused.
func drain(res *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
	_ = res.Body.Close()
}
