package middleware

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/internal/constants"
	"github.com/benedict-erwin/license-console/pkg/logger"
	"github.com/benedict-erwin/license-console/pkg/utils"
)

// Logger middleware logs console requests with timing and request IDs
func Logger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := utils.Now()

		// Get Request ID from header or generate it
		reqID := constants.GetRequestIDFromHeaders(c)
		if reqID == "" {
			reqID = generateRequestID()
		}
		c.Set(constants.RequestIDKey, reqID)
		c.Response().Header().Set(constants.HeaderRequestID, reqID)

		err := next(c)

		status := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			status = he.Code
		}

		event := logger.WithScope("accessLog").Info().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Int("status", status).
			Int64("latency", time.Since(start).Microseconds()).
			Str("request-id", reqID)
		if location := c.Response().Header().Get(echo.HeaderLocation); location != "" {
			event = event.Str("location", location)
		}
		if p := GetProfile(c); p != nil {
			event = event.Bool("authenticated", p.Session.HasToken())
		}
		if err != nil {
			event = event.Err(err)
		}
		event.Msg("HTTP Request")

		return err
	}
}

// generateRequestID creates unique request identifier with timestamp and random component
func generateRequestID() string {
	return fmt.Sprintf("req-%d-%08x", utils.Now().Unix(), rand.Uint32())
}
