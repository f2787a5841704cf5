package session

import (
	"errors"

	"github.com/benedict-erwin/license-console/pkg/apiclient"
)

// User facing login messages
const (
	MsgLoginFailed = "login failed"
	MsgNoToken     = "no token returned"
	MsgSuperseded  = "another login attempt replaced this one"
)

// ErrLoginSuperseded is returned by a login whose response arrived after a newer login or logout
var ErrLoginSuperseded = errors.New("login superseded by a newer session change")

// AuthError is a failed credential exchange. Message is safe to show on the login form.
type AuthError struct {
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return e.Message
}

// Unwrap returns the transport or API error behind the failure
func (e *AuthError) Unwrap() error {
	return e.Err
}

// newAuthError keeps the server provided message verbatim and falls back to a generic one
func newAuthError(err error) *AuthError {
	if msg, ok := apiclient.ServerMessage(err); ok {
		return &AuthError{Message: msg, Err: err}
	}
	return &AuthError{Message: MsgLoginFailed, Err: err}
}
