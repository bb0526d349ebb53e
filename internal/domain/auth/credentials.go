package auth

import (
	"strings"
	"time"
)

// Method identifies how the client authenticates against the pricing service.
// The numeric order defines precedence: when a credential source offers more
// than one method, the highest one wins.
type Method int

const (
	// MethodNone leaves requests unauthenticated. Read endpoints tolerate
	// this; write endpoints will reject it.
	MethodNone Method = iota
	// MethodLoginPassword exchanges a username/password for a session
	// identifier that expires and must be refreshed.
	MethodLoginPassword
	// MethodAPIToken sends a pre-issued bearer token that never expires.
	MethodAPIToken
)

// String returns the wire/config name of the method.
func (m Method) String() string {
	switch m {
	case MethodAPIToken:
		return "api_token"
	case MethodLoginPassword:
		return "login_password"
	default:
		return "none"
	}
}

// Precedes reports whether m wins over other when both are available.
func (m Method) Precedes(other Method) bool {
	return m > other
}

// DefaultSessionTimeout applies when a credential source does not specify one.
const DefaultSessionTimeout = time.Hour

// tokenPlaceholders are sentinel values shipped in sample credential files.
// A token matching one of these is treated as absent.
var tokenPlaceholders = map[string]struct{}{
	"changeme":     {},
	"your-token":   {},
	"<your-token>": {},
}

// Credentials is a resolved, immutable credential bundle. Build one with
// ResolveCredentials; consumers trust the resolved Method and never re-derive
// precedence themselves.
type Credentials struct {
	Method         Method
	Token          string
	Username       string
	Password       string
	SessionTimeout time.Duration
}

// ResolveCredentials derives the authentication method from the raw fields.
// A usable API token (non-empty, not a placeholder) takes precedence over a
// username/password pair; with neither, the method is MethodNone. A zero
// timeout falls back to DefaultSessionTimeout.
func ResolveCredentials(token, username, password string, timeout time.Duration) Credentials {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	c := Credentials{SessionTimeout: timeout}

	if usableToken(token) {
		c.Method = MethodAPIToken
		c.Token = token
		return c
	}
	if username != "" && password != "" {
		c.Method = MethodLoginPassword
		c.Username = username
		c.Password = password
		return c
	}
	return c
}

// usableToken reports whether token is non-empty and not a placeholder.
func usableToken(token string) bool {
	if token == "" {
		return false
	}
	_, placeholder := tokenPlaceholders[strings.ToLower(strings.TrimSpace(token))]
	return !placeholder
}

// wipe zeroes the secret fields so they do not linger in memory after the
// owning manager is closed.
func (c *Credentials) wipe() {
	c.Token = ""
	c.Username = ""
	c.Password = ""
	c.Method = MethodNone
}
