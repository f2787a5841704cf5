package route

import (
	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/http/handler"
	"github.com/benedict-erwin/license-console/http/registry"
)

// init registers the public console routes
func init() {
	registry.Register("", func(g *echo.Group) {
		g.GET("/", handler.Home)
		g.GET("/login", handler.LoginForm)
		g.POST("/login", handler.Login)
		g.POST("/logout", handler.Logout)

		// anything unknown lands on the list, which is guarded
		g.GET("/*", handler.Home)
	})
}
