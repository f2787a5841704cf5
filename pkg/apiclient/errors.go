package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
)

// ErrUnauthorized matches any *UnauthorizedError via errors.Is
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response from the license API
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string

	// ServerMessage is the body's "message" field only, empty when absent
	ServerMessage string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// UnauthorizedError is a 401 on an authenticated request. By the time the caller
// sees it the token is already cleared and the navigator has been told to go to login.
type UnauthorizedError struct {
	*APIError
}

// Unwrap exposes the underlying APIError
func (e *UnauthorizedError) Unwrap() error {
	return e.APIError
}

// Is reports ErrUnauthorized
func (e *UnauthorizedError) Is(target error) bool {
	return target == ErrUnauthorized
}

// errorBody covers the error shapes the API returns ({message} first, then {error})
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// newAPIError builds an APIError, preferring the server provided message
func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, Status: status}

	var eb errorBody
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		if strings.TrimSpace(eb.Message) != "" {
			e.ServerMessage = eb.Message
		}
		switch {
		case e.ServerMessage != "":
			e.Message = eb.Message
		case strings.TrimSpace(eb.Error) != "":
			e.Message = eb.Error
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// ServerMessage returns the "message" field the API sent with an error response, if any
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ServerMessage == "" {
		return "", false
	}
	return apiErr.ServerMessage, true
}

// Describe turns any client error into a short user facing message
func Describe(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrUnauthorized) {
		return "Your session has expired. Please log in again."
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			return "Not found: " + apiErr.Message
		case http.StatusForbidden:
			return "Access denied: " + apiErr.Message
		}
		if apiErr.Status >= 500 {
			return "The license server failed: " + apiErr.Message
		}
		return apiErr.Message
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "The license server did not respond in time."
	}
	if errors.Is(err, context.Canceled) {
		return "The request was cancelled."
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return "The license server is unreachable."
	}

	return err.Error()
}
