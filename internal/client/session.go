package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/foodscan/internal/domain/auth"
)

// SessionClient performs the credential exchange against the pricing
// service's session endpoint. It goes directly over the HTTP client rather
// than the Executor: no session exists yet at that point. It implements
// auth.LoginClient.
type SessionClient struct {
	http *http.Client
	url  string
}

// NewSession creates a login client for the session endpoint at sessionURL;
// it may live on a different host than the price API itself.
func NewSession(httpClient *http.Client, sessionURL string) *SessionClient {
	return &SessionClient{
		http: httpClient,
		url:  sessionURL,
	}
}

// Login submits the form-encoded credential exchange and returns the raw
// response pieces for the session manager to interpret.
func (c *SessionClient) Login(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	form := url.Values{
		"user_id":  []string{username},
		"password": []string{password},
		"action":   []string{"process"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build login request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "credential exchange")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read login response")
	}

	// Services commonly set several cookies in separate headers (CSRF token
	// plus session); all of them must reach the session extraction.
	return &auth.LoginResult{
		StatusCode: res.StatusCode,
		SetCookie:  strings.Join(res.Header.Values("Set-Cookie"), ", "),
		Body:       body,
	}, nil
}
