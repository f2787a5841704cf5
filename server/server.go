package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/benedict-erwin/license-console/config"
	"github.com/benedict-erwin/license-console/http/middleware"
	"github.com/benedict-erwin/license-console/http/registry"
	"github.com/benedict-erwin/license-console/http/view"
	"github.com/benedict-erwin/license-console/internal/constants"
	"github.com/benedict-erwin/license-console/internal/guard"
	"github.com/benedict-erwin/license-console/internal/services/health"
	"github.com/benedict-erwin/license-console/pkg/apiclient"
	"github.com/benedict-erwin/license-console/pkg/logger"
	"github.com/benedict-erwin/license-console/pkg/redis"
	"github.com/benedict-erwin/license-console/pkg/response"
	"github.com/benedict-erwin/license-console/pkg/tokenstore"

	_ "github.com/benedict-erwin/license-console/http/route"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Options wires a console instance
type Options struct {
	Backend      tokenstore.Backend
	API          *apiclient.Client
	CookieName   string
	SecureCookie bool
	TTL          time.Duration
	Capacity     int
}

// New builds the console echo instance with every registered route
func New(opts Options) (*echo.Echo, error) {
	if opts.Backend == nil || opts.API == nil {
		return nil, errors.New("console needs a token backend and an API client")
	}

	renderer, err := view.New()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Logger)
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.CSRFWithConfig(echomw.CSRFConfig{
		Skipper:        isHealth,
		TokenLookup:    "form:_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   opts.SecureCookie,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	e.Use(middleware.ProfileMiddleware(middleware.ProfileConfig{
		Backend:    opts.Backend,
		API:        opts.API,
		CookieName: opts.CookieName,
		Secure:     opts.SecureCookie,
		TTL:        opts.TTL,
		Capacity:   opts.Capacity,
		Skipper:    isHealth,
	}))

	registry.SetupAllRoutes(e)
	return e, nil
}

func isHealth(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/health")
}

// errorHandler renders errors as pages, or as the JSON envelope for health and JSON callers
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	// safety net, the profile middleware normally redirects first
	if errors.Is(err, apiclient.ErrUnauthorized) {
		c.Redirect(http.StatusSeeOther, guard.LoginPath)
		return
	}

	status := http.StatusInternalServerError
	message := constants.GetErrorMessage(constants.CodeInternalError)
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		message = constants.GetErrorMessage(constants.CodeFromStatus(status))
		if he.Message != nil {
			message = fmt.Sprintf("%v", he.Message)
		}
	} else {
		logger.WithScope("errorHandler").Error().Err(err).Str("path", c.Request().URL.Path).Msg("Unhandled error")
	}

	switch {
	case c.Request().Method == http.MethodHead:
		c.NoContent(status)
	case isHealth(c) || response.WantsJSON(c):
		response.Fail(c, status, constants.CodeFromStatus(status), message)
	default:
		c.Render(status, view.Error, view.Page{
			Title: http.StatusText(status),
			Data:  map[string]string{"Message": message},
		})
	}
}

// newBackend picks the token backend from config
func newBackend(ctx context.Context, cfg *config.Config) (tokenstore.Backend, health.Check, error) {
	switch cfg.Console.Store {
	case "", StoreMemory:
		return tokenstore.NewLRUBackend(cfg.Console.Capacity, cfg.Console.TTL), func(context.Context) error { return nil }, nil
	case StoreRedis:
		if err := redis.Init(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis token store: %w", err)
		}
		return tokenstore.NewRedisBackend(redis.GetClient(), cfg.Console.TTL), redis.Health, nil
	default:
		return nil, nil, fmt.Errorf("unsupported console store %q", cfg.Console.Store)
	}
}

// Start runs the console until SIGINT or SIGTERM. A non-nil listener (from
// overseer) is used instead of binding the configured port.
func Start(cfg *config.Config, ln net.Listener) error {
	log := logger.WithScope("startServer")
	ctx := context.Background()

	backend, storeCheck, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer redis.Close()

	api, err := apiclient.New(cfg.API.BaseURL, tokenstore.NewMemory(), apiclient.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return err
	}

	health.Init(cfg.App.Version, map[string]health.Check{
		"api":         api.Ping,
		"token_store": storeCheck,
	})

	e, err := New(Options{
		Backend:      backend,
		API:          api,
		CookieName:   cfg.Console.CookieName,
		SecureCookie: cfg.Console.SecureCookie,
		TTL:          cfg.Console.TTL,
		Capacity:     cfg.Console.Capacity,
	})
	if err != nil {
		return err
	}
	log.Debug().Int("routes", len(e.Routes())).Msg("Registered routes")

	// Start server with graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Console.Port)
		if ln != nil {
			e.Listener = ln
			addr = ln.Addr().String()
		}
		log.Info().
			Str("addr", addr).
			Str("api", api.BaseURL()).
			Str("store", cfg.Console.Store).
			Msg("Starting console")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Console failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down console...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Console shutdown failed")
		return err
	}

	log.Info().Msg("Console gracefully stopped")
	return nil
}
