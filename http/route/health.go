package route

import (
	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/http/handler"
	"github.com/benedict-erwin/license-console/http/registry"
)

// init registers health routes
func init() {
	registry.Register("/health", func(g *echo.Group) {
		g.GET("", handler.Health)
		g.GET("/live", handler.HealthLive)
	})
}
