package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/internal/licenses"
	"github.com/benedict-erwin/license-console/internal/session"
	"github.com/benedict-erwin/license-console/pkg/apiclient"
	"github.com/benedict-erwin/license-console/pkg/logger"
	"github.com/benedict-erwin/license-console/pkg/tokenstore"
)

// ProfileKey is the echo context key holding the request's *Profile
const ProfileKey = "profile"

const (
	profileIDLength = 16
	defaultSessions = 1024
)

// Profile is one browser's view of the console for a single request.
// The session is shared by every request of the profile and re-read from
// the token store when the request starts.
type Profile struct {
	ID       string
	Store    tokenstore.Store
	Session  *session.Session
	API      *apiclient.Client
	Licenses *licenses.Service

	mu     sync.Mutex
	target string
}

// Navigate records a forced navigation; the profile middleware performs it
// once the handler returns
func (p *Profile) Navigate(_ context.Context, target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.target = target
}

// NavigationTarget returns the pending forced navigation, if any
func (p *Profile) NavigationTarget() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target, p.target != ""
}

// ProfileConfig wires the profile middleware
type ProfileConfig struct {
	Backend    tokenstore.Backend
	API        *apiclient.Client
	CookieName string
	Secure     bool
	TTL        time.Duration
	Capacity   int // live profile sessions kept in memory
	Skipper    func(c echo.Context) bool
}

// sessionCache keeps one session per profile so that a logout or a newer
// login supersedes a login still waiting for the API
type sessionCache struct {
	mu      sync.Mutex
	cache   *expirable.LRU[string, *session.Session]
	backend tokenstore.Backend
	api     *apiclient.Client
}

func newSessionCache(cfg ProfileConfig) *sessionCache {
	size := cfg.Capacity
	if size <= 0 {
		size = defaultSessions
	}
	return &sessionCache{
		cache:   expirable.NewLRU[string, *session.Session](size, nil, cfg.TTL),
		backend: cfg.Backend,
		api:     cfg.API,
	}
}

// get returns the profile's session, in step with the token store
func (s *sessionCache) get(ctx context.Context, id string) *session.Session {
	s.mu.Lock()
	sess, ok := s.cache.Get(id)
	if !ok {
		store := tokenstore.ForProfile(s.backend, id)
		sess = session.New(ctx, store, s.api.For(store, nil))
		s.cache.Add(id, sess)
	}
	s.mu.Unlock()

	if ok {
		sess.Sync(ctx)
	}
	return sess
}

// ProfileMiddleware identifies the browser by cookie and attaches its Profile.
// A 401 from the API during the request ends in a 303 to the login page.
func ProfileMiddleware(cfg ProfileConfig) echo.MiddlewareFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = "license_console_profile"
	}
	sessions := newSessionCache(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			// Setup logger scope
			log := logger.WithScope("ProfileMiddleware")

			// Resolve or issue the profile id
			id := readProfileID(c, cfg.CookieName)
			if id == "" {
				var err error
				if id, err = newProfileID(); err != nil {
					log.Error().Err(err).Msg("Failed to generate profile id")
					return err
				}
				c.SetCookie(&http.Cookie{
					Name:     cfg.CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
				log.Debug().Msg("Issued new profile")
			}

			// Build the per-request pipeline
			ctx := c.Request().Context()
			p := &Profile{ID: id, Store: tokenstore.ForProfile(cfg.Backend, id)}
			p.API = cfg.API.For(p.Store, p)
			p.Session = sessions.get(ctx, id)
			p.Licenses = licenses.NewService(p.API)
			c.Set(ProfileKey, p)

			err := next(c)

			// Perform a navigation forced by a 401
			if target, ok := p.NavigationTarget(); ok && !c.Response().Committed {
				log.Info().
					Str("path", c.Request().URL.Path).
					Msg("Session expired, redirecting to login")
				return c.Redirect(http.StatusSeeOther, target)
			}
			return err
		}
	}
}

// GetProfile returns the request's profile, nil outside ProfileMiddleware
func GetProfile(c echo.Context) *Profile {
	p, _ := c.Get(ProfileKey).(*Profile)
	return p
}

func readProfileID(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	raw, err := hex.DecodeString(cookie.Value)
	if err != nil || len(raw) != profileIDLength {
		return ""
	}
	return cookie.Value
}

func newProfileID() (string, error) {
	buf := make([]byte, profileIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
