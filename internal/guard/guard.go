// Package guard decides whether a protected location may render.
//
// The check is only "is there a token". Expiry and server-side validity are
// left to the API, which answers 401 and triggers a forced login.
package guard

import (
	"net/url"
	"strings"
)

const (
	// LoginPath is the public login screen
	LoginPath = "/login"
	// HomePath is where a login without a remembered origin lands
	HomePath = "/licenses"
	// FromParam carries the originally requested location through login
	FromParam = "from"
)

// TokenSource is anything that knows whether a token exists
type TokenSource interface {
	HasToken() bool
}

// Decision is the outcome of a guard check
type Decision struct {
	Allowed  bool
	Redirect string
}

// Check allows the requested location when a token exists, otherwise redirects
// to login remembering where the user wanted to go
func Check(src TokenSource, requested string) Decision {
	if src != nil && src.HasToken() {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: LoginURL(requested)}
}

// LoginURL builds the login location carrying from as the return path
func LoginURL(from string) string {
	from = ReturnPath(from)
	if from == HomePath {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{FromParam: {from}}.Encode()
}

// ReturnPath validates a remembered origin. Only local absolute paths are
// accepted; anything else, including the login screen itself, becomes HomePath.
func ReturnPath(raw string) string {
	from := strings.TrimSpace(raw)
	if from == "" || strings.ContainsAny(from, "\\\r\n") {
		return HomePath
	}
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return HomePath
	}

	parsed, err := url.Parse(from)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" || parsed.Path == "" {
		return HomePath
	}
	if parsed.Path == LoginPath || strings.HasPrefix(parsed.Path, LoginPath+"/") {
		return HomePath
	}

	if parsed.RawQuery != "" {
		return parsed.EscapedPath() + "?" + parsed.RawQuery
	}
	return parsed.EscapedPath()
}
