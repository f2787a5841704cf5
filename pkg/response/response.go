// Package response writes the console's JSON envelope for health and JSON callers.
package response

import (
	"bytes"
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/internal/constants"
)

// buffers larger than this are dropped instead of pooled
const maxPooledBuffer = 64 * 1024

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Response is the JSON envelope
type Response struct {
	Success   bool   `json:"success"`
	Code      int    `json:"code"`
	Data      any    `json:"data"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

func write(c echo.Context, status int, body Response) error {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		if buf.Cap() < maxPooledBuffer {
			bufferPool.Put(buf)
		}
	}()

	body.RequestID = constants.GetRequestID(c)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
	c.Response().WriteHeader(status)
	_, err := c.Response().Write(buf.Bytes())
	return err
}

// WantsJSON reports whether the caller asked for JSON rather than a page
func WantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}

// Success returns a successful response with data
func Success(c echo.Context, data any) error {
	return write(c, http.StatusOK, Response{Success: true, Data: data, Message: "Successful"})
}

// Fail returns an error response with message
func Fail(c echo.Context, httpStatus int, code int, message string) error {
	return write(c, httpStatus, Response{Code: code, Message: message})
}

// General returns a customizable response
func General(c echo.Context, httpStatus int, code int, data any, message string) error {
	return write(c, httpStatus, Response{Success: httpStatus < 400, Code: code, Data: data, Message: message})
}
