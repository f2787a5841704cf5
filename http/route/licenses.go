package route

import (
	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/http/handler"
	"github.com/benedict-erwin/license-console/http/middleware"
	"github.com/benedict-erwin/license-console/http/registry"
)

// init registers the guarded license routes
func init() {
	registry.Register("/licenses", func(g *echo.Group) {
		g.GET("", handler.ListLicenses)
		g.POST("", handler.CreateLicense)
		g.GET("/new", handler.NewLicense)
		g.GET("/:id", handler.ShowLicense)
		g.POST("/:id", handler.UpdateLicense)
		g.GET("/:id/edit", handler.EditLicense)
		g.GET("/:id/delete", handler.ConfirmDeleteLicense)
		g.POST("/:id/delete", handler.DeleteLicense)
	}, middleware.RequireAuth)
}
