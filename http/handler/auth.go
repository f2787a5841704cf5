package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/http/middleware"
	"github.com/benedict-erwin/license-console/http/view"
	"github.com/benedict-erwin/license-console/internal/guard"
	"github.com/benedict-erwin/license-console/internal/session"
	"github.com/benedict-erwin/license-console/pkg/logger"
)

type loginData struct {
	From     string
	Username string
	Error    string
}

// Home sends the root and unknown locations to the license list
func Home(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, guard.HomePath)
}

// LoginForm shows the login page, or skips it when a token is already held
func LoginForm(c echo.Context) error {
	from := guard.ReturnPath(c.QueryParam(guard.FromParam))
	if middleware.GetProfile(c).Session.HasToken() {
		return c.Redirect(http.StatusSeeOther, from)
	}
	return render(c, http.StatusOK, view.Login, "Sign in", loginData{From: from})
}

// Login exchanges the submitted credentials and returns to the remembered location
func Login(c echo.Context) error {
	p := middleware.GetProfile(c)
	from := guard.ReturnPath(c.FormValue(guard.FromParam))
	username := strings.TrimSpace(c.FormValue("username"))

	err := p.Session.Login(c.Request().Context(), username, c.FormValue("password"))
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, session.ErrLoginSuperseded) {
			status = http.StatusConflict
		}
		return render(c, status, view.Login, "Sign in", loginData{
			From:     from,
			Username: username,
			Error:    session.DisplayMessage(err),
		})
	}

	logger.WithScope("Login").Info().Str("profile", p.ID).Str("redirect", from).Msg("Signed in")
	return c.Redirect(http.StatusSeeOther, from)
}

// Logout forgets the token of this browser
func Logout(c echo.Context) error {
	middleware.GetProfile(c).Session.Logout(c.Request().Context())
	return redirectWithFlash(c, guard.LoginPath, "success", "You have been signed out.")
}
