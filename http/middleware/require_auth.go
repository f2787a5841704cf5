package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/internal/guard"
	"github.com/benedict-erwin/license-console/pkg/logger"
)

// RequireAuth lets a request through only when the profile holds a token,
// otherwise it redirects to login remembering the requested location
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var src guard.TokenSource
		if p := GetProfile(c); p != nil {
			src = p.Session
		}

		decision := guard.Check(src, c.Request().URL.RequestURI())
		if decision.Allowed {
			return next(c)
		}

		logger.WithScope("RequireAuth").Debug().
			Str("path", c.Request().URL.Path).
			Str("redirect", decision.Redirect).
			Msg("No token, redirecting to login")
		return c.Redirect(http.StatusSeeOther, decision.Redirect)
	}
}
