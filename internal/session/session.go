package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/benedict-erwin/license-console/pkg/apiclient"
	"github.com/benedict-erwin/license-console/pkg/jwtclaims"
	"github.com/benedict-erwin/license-console/pkg/logger"
	"github.com/benedict-erwin/license-console/pkg/tokenstore"
)

// LoginPath is the API endpoint exchanging credentials for a token
const LoginPath = "/auth/login"

// State of a session
type State int

const (
	Anonymous State = iota
	Authenticated
)

// String returns the state name
func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Requester is the slice of the HTTP client the session needs
type Requester interface {
	DoAnonymous(ctx context.Context, method, path string, in, out any) error
}

// Snapshot is a read-only view of the session
type Snapshot struct {
	State  State
	Token  string
	Claims jwtclaims.Claims
}

// Authenticated reports whether a token is present
func (s Snapshot) Authenticated() bool {
	return s.State == Authenticated
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token            string `json:"token"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// Session owns the current token and its decoded claims.
//
// Every Login and Logout starts a new generation. A login response that comes
// back after a newer generation started is dropped, so overlapping logins
// cannot overwrite each other and a logout cannot be undone by a slow login.
type Session struct {
	mu     sync.Mutex
	store  tokenstore.Store
	api    Requester
	token  string
	claims jwtclaims.Claims
	gen    uint64
	log    *logger.ScopedLogger
}

// New starts a session from whatever the store holds. A token that does not
// decode still counts as authenticated, just without claims.
func New(ctx context.Context, store tokenstore.Store, api Requester) *Session {
	s := &Session{
		store: store,
		api:   api,
		log:   logger.WithScope("session"),
	}
	s.load(ctx)
	return s
}

func (s *Session) load(ctx context.Context) {
	token, ok := s.store.Get(ctx)
	if !ok {
		s.token, s.claims = "", nil
		return
	}
	s.token = token
	s.claims = jwtclaims.Decode(token)
	if s.claims == nil {
		s.log.Debug().Msg("Stored token has no readable claims")
	}
}

// Login exchanges credentials for a token and stores it
func (s *Session) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	var resp loginResponse
	err := s.api.DoAnonymous(ctx, http.MethodPost, LoginPath, loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		s.log.Info().Str("username", username).Msg("Login rejected")
		return newAuthError(err)
	}
	if resp.Token == "" {
		return &AuthError{Message: MsgNoToken}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.log.Debug().Str("username", username).Msg("Discarding superseded login response")
		return ErrLoginSuperseded
	}

	s.store.Set(ctx, resp.Token)
	s.token = resp.Token
	s.claims = jwtclaims.Decode(resp.Token)

	s.log.Info().Str("username", username).Bool("claims", s.claims != nil).Msg("Login succeeded")
	return nil
}

// Logout forgets the token. It never fails and makes no server call.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.store.Clear(ctx)
	s.token, s.claims = "", nil
}

// Sync re-reads the store, picking up a logout forced by the HTTP client
func (s *Session) Sync(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx)
	return s.snapshot()
}

// Snapshot returns the in-memory state
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// HasToken reports whether the session currently holds a token
func (s *Session) HasToken() bool {
	return s.Snapshot().Authenticated()
}

func (s *Session) snapshot() Snapshot {
	if s.token == "" {
		return Snapshot{State: Anonymous}
	}
	return Snapshot{State: Authenticated, Token: s.token, Claims: s.claims}
}

// DisplayMessage is what a login form shows for err
func DisplayMessage(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	if errors.Is(err, ErrLoginSuperseded) {
		return MsgSuperseded
	}
	return apiclient.Describe(err)
}

var _ Requester = (*apiclient.Client)(nil)
