package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/internal/constants"
	"github.com/benedict-erwin/license-console/internal/services/health"
	"github.com/benedict-erwin/license-console/pkg/response"
	"github.com/benedict-erwin/license-console/pkg/utils"
)

// HealthLive returns basic liveness check
func HealthLive(c echo.Context) error {
	return response.Success(c, map[string]any{
		"status":    "alive",
		"timestamp": utils.FormatTime(utils.Now()),
	})
}

// Health checks the license API and the token store
func Health(c echo.Context) error {
	status := health.CheckHealth(c.Request().Context())
	if status.Status != health.StatusHealthy {
		return response.General(c, http.StatusServiceUnavailable, constants.CodeServiceUnavailable, status, "Health check completed")
	}
	return response.Success(c, status)
}
