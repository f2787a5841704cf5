package constants

import "github.com/labstack/echo/v4"

const (
	// RequestIDKey is the echo context key of the request id
	RequestIDKey = "x-req-id"

	HeaderRequestID      = "X-Request-ID"
	HeaderCorrelationID  = "X-Correlation-ID"
	HeaderRequestIDShort = "Request-ID"
)

// requestIDHeaders in order of preference
var requestIDHeaders = []string{HeaderRequestID, HeaderCorrelationID, HeaderRequestIDShort}

// GetRequestIDFromHeaders returns the first request id a proxy or caller sent
func GetRequestIDFromHeaders(c echo.Context) string {
	for _, h := range requestIDHeaders {
		if id := c.Request().Header.Get(h); id != "" {
			return id
		}
	}
	return ""
}

// GetRequestID extracts request ID from Echo context
func GetRequestID(c echo.Context) string {
	rid, _ := c.Get(RequestIDKey).(string)
	return rid
}
