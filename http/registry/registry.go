package registry

import (
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/pkg/logger"
)

type SetupFunc func(g *echo.Group)

type group struct {
	middleware []echo.MiddlewareFunc
	setups     []SetupFunc
}

var groupRegistry = make(map[string]*group)

// Register adds a route setup under prefix. Middleware given here applies to
// every route of the prefix, whichever file registered it.
func Register(prefix string, setup SetupFunc, mw ...echo.MiddlewareFunc) {
	logger.WithScope("RegistryRegister").Debug().Str("prefix", prefix).Msg("Registering routes for prefix")
	g, ok := groupRegistry[prefix]
	if !ok {
		g = &group{}
		groupRegistry[prefix] = g
	}
	g.middleware = append(g.middleware, mw...)
	g.setups = append(g.setups, setup)
}

// SetupAllRoutes applies all registered routes, shortest prefix first
func SetupAllRoutes(e *echo.Echo) {
	log := logger.WithScope("SetupAllRoutes")

	if len(groupRegistry) == 0 {
		log.Warn().Msg("No routes registered")
		return
	}

	prefixes := make([]string, 0, len(groupRegistry))
	for prefix := range groupRegistry {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	for _, prefix := range prefixes {
		entry := groupRegistry[prefix]
		log.Debug().Str("prefix", prefix).Int("routes", len(entry.setups)).Msg("Setting up route group")
		g := e.Group(prefix, entry.middleware...)
		for _, setup := range entry.setups {
			setup(g)
		}
	}
}
