package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/http/middleware"
	"github.com/benedict-erwin/license-console/http/view"
	"github.com/benedict-erwin/license-console/internal/licenses"
	"github.com/benedict-erwin/license-console/pkg/apiclient"
	"github.com/benedict-erwin/license-console/pkg/utils"
)

type listData struct {
	Query string
	Items []licenses.License
	Total int
}

type licenseData struct {
	License licenses.License
}

type formData struct {
	ID      string
	License licenses.License
	Error   string
}

func detailPath(id string) string {
	return "/licenses/" + id
}

// ListLicenses shows every license, narrowed by ?q=
func ListLicenses(c echo.Context) error {
	all, err := middleware.GetProfile(c).Licenses.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	query := strings.TrimSpace(c.QueryParam("q"))
	return render(c, http.StatusOK, view.List, "Licenses", listData{
		Query: query,
		Items: licenses.Filter(all, query),
		Total: len(all),
	})
}

// ShowLicense shows one license
func ShowLicense(c echo.Context) error {
	l, err := middleware.GetProfile(c).Licenses.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return render(c, http.StatusOK, view.Detail, "License "+l.ID, licenseData{License: *l})
}

// NewLicense shows an empty form
func NewLicense(c echo.Context) error {
	return render(c, http.StatusOK, view.Form, "New license", formData{License: licenses.License{Active: true}})
}

// CreateLicense posts the form as a new license
func CreateLicense(c echo.Context) error {
	l, err := licenseFromForm(c)
	if err != nil {
		return render(c, http.StatusUnprocessableEntity, view.Form, "New license", formData{License: l, Error: err.Error()})
	}

	created, err := middleware.GetProfile(c).Licenses.Create(c.Request().Context(), l)
	if err != nil {
		return formError(c, "New license", formData{License: l}, err)
	}
	if created.ID == "" {
		return redirectWithFlash(c, "/licenses", "success", "License created.")
	}
	return redirectWithFlash(c, detailPath(created.ID), "success", "License created.")
}

// EditLicense shows the form filled with the current license
func EditLicense(c echo.Context) error {
	l, err := middleware.GetProfile(c).Licenses.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return render(c, http.StatusOK, view.Form, "Edit license "+c.Param("id"), formData{ID: c.Param("id"), License: *l})
}

// UpdateLicense replaces the license with the submitted form, keeping fields the form does not carry
func UpdateLicense(c echo.Context) error {
	id := c.Param("id")
	svc := middleware.GetProfile(c).Licenses
	title := "Edit license " + id

	current, err := svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}

	submitted, err := licenseFromForm(c)
	if err != nil {
		return render(c, http.StatusUnprocessableEntity, view.Form, title, formData{ID: id, License: submitted, Error: err.Error()})
	}
	submitted.CreatedAt = current.CreatedAt

	if _, err := svc.Update(c.Request().Context(), id, submitted); err != nil {
		return formError(c, title, formData{ID: id, License: submitted}, err)
	}
	return redirectWithFlash(c, detailPath(id), "success", "License updated.")
}

// ConfirmDeleteLicense asks before deleting
func ConfirmDeleteLicense(c echo.Context) error {
	l, err := middleware.GetProfile(c).Licenses.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return render(c, http.StatusOK, view.Delete, "Delete license "+l.ID, licenseData{License: *l})
}

// DeleteLicense removes the license and returns to the list
func DeleteLicense(c echo.Context) error {
	id := c.Param("id")
	if err := middleware.GetProfile(c).Licenses.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return err
		}
		return redirectWithFlash(c, "/licenses", "error", apiclient.Describe(err))
	}
	return redirectWithFlash(c, "/licenses", "success", fmt.Sprintf("License %s deleted.", id))
}

// formError re-renders a form with the API's complaint; a 401 goes to login
func formError(c echo.Context, title string, data formData, err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}
	data.Error = apiclient.Describe(err)
	status := errorStatus(err)
	if status < 400 || status >= 500 {
		status = http.StatusBadGateway
	}
	return render(c, status, view.Form, title, data)
}

func licenseFromForm(c echo.Context) (licenses.License, error) {
	l := licenses.License{
		Key:      strings.TrimSpace(c.FormValue("key")),
		Audience: strings.TrimSpace(c.FormValue("aud")),
		Active:   c.FormValue("active") == "true",
	}
	if raw := strings.TrimSpace(c.FormValue("expiresAt")); raw != "" {
		t, err := time.ParseInLocation(time.DateOnly, raw, utils.GetLocation())
		if err != nil {
			return l, fmt.Errorf("expiry date %q is not a date like 2030-12-31", raw)
		}
		l.ExpiresAt = licenses.NewTimestamp(t)
	}
	return l, nil
}
