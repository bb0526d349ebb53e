// Package credfile discovers and parses the credential file for the pricing
// service. The file is a JSON document with a nested auth object selecting
// the method and its parameters:
//
//	{"auth": {"method": "login_password", "username": "u", "password": "p",
//	          "session_timeout_seconds": 3600}}
package credfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/foodscan/internal/domain/auth"
)

// FileName is the well-known credential file name.
const FileName = ".foodscan-credentials.json"

// markerFiles identify a project root during the upward directory scan.
var markerFiles = []string{".foodscan-root", "go.mod"}

type document struct {
	Auth struct {
		Method                string `json:"method"`
		Token                 string `json:"token"`
		Username              string `json:"username"`
		Password              string `json:"password"`
		SessionTimeoutSeconds int    `json:"session_timeout_seconds"`
	} `json:"auth"`
}

// Load parses the credential file at path into a resolved bundle. An explicit
// method in the document restricts which parameters are considered; without
// one, the standard precedence applies (token wins over login).
func Load(path string) (auth.Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return auth.Credentials{}, errors.Wrap(err, "read credential file")
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return auth.Credentials{}, errors.Wrap(err, "parse credential file")
	}

	timeout := time.Duration(doc.Auth.SessionTimeoutSeconds) * time.Second
	switch doc.Auth.Method {
	case "api_token":
		return auth.ResolveCredentials(doc.Auth.Token, "", "", timeout), nil
	case "login_password":
		return auth.ResolveCredentials("", doc.Auth.Username, doc.Auth.Password, timeout), nil
	case "none":
		return auth.ResolveCredentials("", "", "", timeout), nil
	default:
		return auth.ResolveCredentials(doc.Auth.Token, doc.Auth.Username, doc.Auth.Password, timeout), nil
	}
}

// Discover walks from start upward looking for FileName. The scan stops after
// the first directory carrying a project marker file, so a credential file
// above the project root is never picked up.
func Discover(start string) (string, bool) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if fileExists(candidate) {
			return candidate, true
		}
		if hasMarker(dir) {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Resolve loads credentials from an explicit path, or discovers the file
// starting at startDir. No file at all is read-only mode, not an error.
func Resolve(path, startDir string) (auth.Credentials, error) {
	if path != "" {
		return Load(path)
	}
	if found, ok := Discover(startDir); ok {
		return Load(found)
	}
	return auth.Credentials{}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func hasMarker(dir string) bool {
	for _, marker := range markerFiles {
		if fileExists(filepath.Join(dir, marker)) {
			return true
		}
	}
	return false
}
