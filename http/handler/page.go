package handler

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/benedict-erwin/license-console/http/middleware"
	"github.com/benedict-erwin/license-console/http/view"
	"github.com/benedict-erwin/license-console/internal/licenses"
	"github.com/benedict-erwin/license-console/pkg/apiclient"
	"github.com/benedict-erwin/license-console/pkg/logger"
)

// FlashCookie carries a one-shot message across a redirect
const FlashCookie = "license_console_flash"

// render wraps data into the common page and renders it
func render(c echo.Context, status int, name, title string, data any) error {
	page := view.Page{
		Title: title,
		Data:  data,
		Flash: takeFlash(c),
	}
	if token, ok := c.Get(echomw.DefaultCSRFConfig.ContextKey).(string); ok {
		page.CSRF = token
	}
	if p := middleware.GetProfile(c); p != nil {
		snap := p.Session.Snapshot()
		page.Authenticated = snap.Authenticated()
		page.User, _ = snap.Claims.Subject()
	}
	return c.Render(status, name, page)
}

// fail renders an API error as a page. A 401 is handed back to the profile
// middleware, which performs the redirect to login.
func fail(c echo.Context, err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}

	status := errorStatus(err)
	logger.WithScope("handler").Warn().
		Err(err).
		Str("path", c.Request().URL.Path).
		Int("status", status).
		Msg("License API request failed")

	return render(c, status, view.Error, http.StatusText(status), map[string]string{
		"Message": apiclient.Describe(err),
	})
}

// errorStatus maps a client error onto the status of the rendered page
func errorStatus(err error) int {
	var apiErr *apiclient.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Status
	case errors.Is(err, licenses.ErrMissingID):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// redirectWithFlash stores a flash message and redirects with 303
func redirectWithFlash(c echo.Context, target, kind, message string) error {
	c.SetCookie(&http.Cookie{
		Name:     FlashCookie,
		Value:    url.Values{"kind": {kind}, "msg": {message}}.Encode(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusSeeOther, target)
}

// takeFlash reads and expires the flash cookie
func takeFlash(c echo.Context) *view.Flash {
	cookie, err := c.Cookie(FlashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	c.SetCookie(&http.Cookie{
		Name:     FlashCookie,
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	values, err := url.ParseQuery(cookie.Value)
	if err != nil || values.Get("msg") == "" {
		return nil
	}
	kind := values.Get("kind")
	if kind != "success" && kind != "error" {
		kind = "success"
	}
	return &view.Flash{Kind: kind, Message: values.Get("msg")}
}
