package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LoginClient performs the credential exchange against the pricing service's
// session endpoint. Implementations submit the form-encoded fields and return
// the raw response pieces without interpreting them.
type LoginClient interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

// LoginResult carries the parts of a credential-exchange response the session
// manager needs to extract a session identifier.
type LoginResult struct {
	StatusCode int
	// SetCookie is the raw Set-Cookie header value, empty when absent.
	SetCookie string
	// Body is the response body, inspected for JSON token fields when no
	// session cookie is present.
	Body []byte
}

// Session is the authenticated context against the pricing service. A nil
// ExpiresAt means the session never expires (token auth, or a login session
// created without an explicit timeout).
type Session struct {
	Method      Method
	AccessToken string
	// Cookie carries the session identifier for login-based sessions when it
	// arrived via a cookie; preferred over AccessToken when building headers.
	Cookie    string
	ExpiresAt *time.Time
}

// Status is a read-only snapshot of the session manager's state.
type Status struct {
	Authenticated  bool
	Method         Method
	Expired        bool
	HasCredentials bool
}

// SessionManager owns the lifecycle of one authenticated session: login,
// expiry tracking, refresh. It is an explicit object passed to collaborators,
// so tests can hold several independent sessions.
//
// Configure and Refresh funnel network logins through a singleflight group:
// concurrent callers racing on an expired session share one in-flight
// exchange instead of issuing independent login attempts.
type SessionManager struct {
	login LoginClient
	now   func() time.Time

	sf singleflight.Group

	mu      sync.Mutex
	creds   Credentials
	session Session
}

// NewSessionManager creates a manager that exchanges credentials through the
// given login client.
func NewSessionManager(login LoginClient) *SessionManager {
	return &SessionManager{
		login: login,
		now:   time.Now,
	}
}

// Configure installs the credential bundle and establishes a session for it.
// For MethodAPIToken the stored token becomes the access token directly and
// the session never expires. For MethodLoginPassword the login protocol runs;
// the returned bool reports whether it produced a session. MethodNone leaves
// the session unauthenticated and returns false with a nil error: read-only
// mode, not a failure.
//
// A non-nil error is returned only for transport failures; a rejected login
// or an unextractable identifier reports false, nil.
func (m *SessionManager) Configure(ctx context.Context, creds Credentials) (bool, error) {
	m.mu.Lock()
	m.creds = creds
	m.session = Session{Method: creds.Method}
	m.mu.Unlock()

	switch creds.Method {
	case MethodAPIToken:
		m.mu.Lock()
		m.session.AccessToken = creds.Token
		m.session.ExpiresAt = nil
		m.mu.Unlock()
		return true, nil
	case MethodLoginPassword:
		return m.exchange(ctx)
	default:
		return false, nil
	}
}

// Refresh discards the current session identifier and re-runs the login
// protocol with the originally supplied credentials. Token sessions refresh
// as a no-op success without a network call; with no stored credentials of
// either kind it fails immediately, also without a network call.
func (m *SessionManager) Refresh(ctx context.Context) (bool, error) {
	m.mu.Lock()
	creds := m.creds
	m.mu.Unlock()

	switch creds.Method {
	case MethodAPIToken:
		m.mu.Lock()
		m.session.AccessToken = creds.Token
		m.session.ExpiresAt = nil
		m.mu.Unlock()
		return true, nil
	case MethodLoginPassword:
		m.mu.Lock()
		m.session.AccessToken = ""
		m.session.Cookie = ""
		m.mu.Unlock()
		return m.exchange(ctx)
	default:
		return false, nil
	}
}

// exchange runs the credential exchange once, coalescing concurrent callers.
func (m *SessionManager) exchange(ctx context.Context) (bool, error) {
	v, err, _ := m.sf.Do("login", func() (interface{}, error) {
		return m.doLogin(ctx)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (m *SessionManager) doLogin(ctx context.Context) (bool, error) {
	m.mu.Lock()
	username, password := m.creds.Username, m.creds.Password
	timeout := m.creds.SessionTimeout
	m.mu.Unlock()

	res, err := m.login.Login(ctx, username, password)
	if err != nil {
		return false, err
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		zctx.From(ctx).Warn("Credential exchange rejected",
			zap.Int("status", res.StatusCode))
		return false, nil
	}

	id, fromCookie := extractSessionID(res)
	if id == "" {
		zctx.From(ctx).Warn("Credential exchange succeeded but returned no session identifier")
		return false, nil
	}

	expires := m.now().Add(timeout)

	m.mu.Lock()
	m.session.AccessToken = id
	if fromCookie {
		m.session.Cookie = id
	}
	m.session.ExpiresAt = &expires
	m.mu.Unlock()

	return true, nil
}

// Expired reports whether the current session has passed its expiry time.
// Token sessions and sessions without an expiry never expire.
func (m *SessionManager) Expired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiredLocked()
}

func (m *SessionManager) expiredLocked() bool {
	if m.session.Method == MethodAPIToken {
		return false
	}
	if m.session.ExpiresAt == nil {
		return false
	}
	return m.now().After(*m.session.ExpiresAt)
}

// Authenticated reports whether a non-expired session identifier is held.
func (m *SessionManager) Authenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.AccessToken != "" && !m.expiredLocked()
}

// Status returns a point-in-time snapshot of the authentication state.
func (m *SessionManager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		Authenticated:  m.session.AccessToken != "" && !m.expiredLocked(),
		Method:         m.session.Method,
		Expired:        m.expiredLocked(),
		HasCredentials: m.creds.Method != MethodNone,
	}
}

// Session returns a copy of the current session for header building.
func (m *SessionManager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Close wipes stored credentials and the session identifier.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds.wipe()
	m.session = Session{}
}

// sessionCookiePattern matches a session=<value> attribute inside a
// Set-Cookie header.
var sessionCookiePattern = regexp.MustCompile(`(?:^|[;,]\s*)session=([^;,\s]+)`)

// loginBody is the JSON shape of a token-bearing exchange response. Fields
// are checked in declaration order.
type loginBody struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	SessionID   string `json:"session_id"`
}

// extractSessionID pulls the session identifier out of a login response,
// preferring the session cookie over JSON body fields. fromCookie reports
// which carrier produced it.
func extractSessionID(res *LoginResult) (id string, fromCookie bool) {
	if res.SetCookie != "" {
		if match := sessionCookiePattern.FindStringSubmatch(res.SetCookie); match != nil {
			return match[1], true
		}
	}
	var body loginBody
	if err := json.Unmarshal(res.Body, &body); err != nil {
		return "", false
	}
	switch {
	case body.AccessToken != "":
		return body.AccessToken, false
	case body.Token != "":
		return body.Token, false
	case body.SessionID != "":
		return body.SessionID, false
	}
	return "", false
}
