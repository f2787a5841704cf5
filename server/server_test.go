package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/config"
	"github.com/benedict-erwin/license-console/pkg/apiclient"
	"github.com/benedict-erwin/license-console/pkg/tokenstore"
)

const (
	profileID = "00112233445566778899aabbccddeeff"
	csrfToken = "test-csrf-token"
)

// fakeAPI is a license API with one account and an in-memory collection
type fakeAPI struct {
	mu       sync.Mutex
	good     string
	licenses map[string]map[string]any

	// when set, a login announces itself and waits for release
	loginArrived chan struct{}
	loginRelease chan struct{}
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	good, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	api := &fakeAPI{
		good: good,
		licenses: map[string]map[string]any{
			"42": {"id": "42", "key": "LIC-42", "aud": "acme", "active": true},
			"7":  {"id": "7", "key": "LIC-7", "aud": "globex", "active": false},
		},
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/auth/login" && f.loginArrived != nil {
		f.loginArrived <- struct{}{}
		<-f.loginRelease
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/api/auth/login" {
		var creds struct{ Username, Password string }
		json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "alice" || creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"status":401,"error":"Unauthorized","message":"invalid credentials","path":"/api/auth/login"}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"token": f.good, "expiresInSeconds": 3600})
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+f.good {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"status":401,"message":"token expired"}`)
		return
	}

	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/licenses"), "/")
	switch {
	case id == "" && r.Method == http.MethodGet:
		out := make([]map[string]any, 0, len(f.licenses))
		for _, l := range f.licenses {
			out = append(out, l)
		}
		json.NewEncoder(w).Encode(out)
	case id == "" && r.Method == http.MethodPost:
		var l map[string]any
		json.NewDecoder(r.Body).Decode(&l)
		l["id"] = "101"
		f.licenses["101"] = l
		json.NewEncoder(w).Encode(l)
	case r.Method == http.MethodGet:
		l, ok := f.licenses[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"status":404,"message":"license `+id+` not found"}`)
			return
		}
		json.NewEncoder(w).Encode(l)
	case r.Method == http.MethodPut:
		var l map[string]any
		json.NewDecoder(r.Body).Decode(&l)
		f.licenses[id] = l
		json.NewEncoder(w).Encode(l)
	case r.Method == http.MethodDelete:
		delete(f.licenses, id)
		w.WriteHeader(http.StatusNoContent)
	}
}

type console struct {
	e       *echo.Echo
	backend *tokenstore.LRUBackend
	api     *fakeAPI
}

func newConsole(t *testing.T) *console {
	t.Helper()
	fake, srv := newFakeAPI(t)

	client, err := apiclient.New(srv.URL+"/api", nil)
	if err != nil {
		t.Fatal(err)
	}
	backend := tokenstore.NewLRUBackend(16, time.Hour)

	e, err := New(Options{Backend: backend, API: client, TTL: time.Hour})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &console{e: e, backend: backend, api: fake}
}

// do sends a request as the test browser: fixed profile and CSRF cookies
func (c *console) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		form.Set("_csrf", csrfToken)
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	req.AddCookie(&http.Cookie{Name: "license_console_profile", Value: profileID})
	req.AddCookie(&http.Cookie{Name: "_csrf", Value: csrfToken})

	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec
}

func (c *console) token() (string, bool) {
	token, ok, _ := c.backend.Load(context.Background(), profileID)
	return token, ok
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303; body: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func TestLoginReturnsToRequestedPage(t *testing.T) {
	c := newConsole(t)

	// guarded page without token remembers the origin
	expectRedirect(t, c.do(http.MethodGet, "/licenses/42", nil), "/login?from=%2Flicenses%2F42")

	rec := c.do(http.MethodGet, "/login?from=%2Flicenses%2F42", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `value="/licenses/42"`) {
		t.Fatalf("login page = %d, body: %s", rec.Code, rec.Body.String())
	}

	rec = c.do(http.MethodPost, "/login", url.Values{
		"username": {"alice"},
		"password": {"secret"},
		"from":     {"/licenses/42"},
	})
	expectRedirect(t, rec, "/licenses/42")

	if token, ok := c.token(); !ok || token != c.api.good {
		t.Fatalf("stored token = %q, %v", token, ok)
	}

	rec = c.do(http.MethodGet, "/licenses/42", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d, body: %s", rec.Code, rec.Body.String())
	}
	for _, want := range []string{"LIC-42", "acme", "alice"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("detail page missing %q", want)
		}
	}
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	c := newConsole(t)

	rec := c.do(http.MethodPost, "/login", url.Values{"username": {"bob"}, "password": {"wrong"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid credentials") {
		t.Errorf("body does not show the server message: %s", rec.Body.String())
	}
	if _, ok := c.token(); ok {
		t.Error("token stored after failed login")
	}
}

func TestLoginRejectsOffsiteReturn(t *testing.T) {
	c := newConsole(t)
	rec := c.do(http.MethodPost, "/login", url.Values{
		"username": {"alice"},
		"password": {"secret"},
		"from":     {"//evil.example.com/"},
	})
	expectRedirect(t, rec, "/licenses")
}

func TestUnauthorizedResponseForcesLogin(t *testing.T) {
	c := newConsole(t)
	c.backend.Save(context.Background(), profileID, "expired-token")

	expectRedirect(t, c.do(http.MethodGet, "/licenses", nil), "/login")

	if _, ok := c.token(); ok {
		t.Error("token still stored after 401")
	}
	// the next guarded request no longer passes the guard
	expectRedirect(t, c.do(http.MethodGet, "/licenses/42", nil), "/login?from=%2Flicenses%2F42")
}

func TestLogoutDuringLoginWins(t *testing.T) {
	c := newConsole(t)
	c.api.loginArrived = make(chan struct{})
	c.api.loginRelease = make(chan struct{})

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- c.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"secret"}})
	}()
	<-c.api.loginArrived

	expectRedirect(t, c.do(http.MethodPost, "/logout", url.Values{}), "/login")
	close(c.api.loginRelease)

	rec := <-done
	if rec.Code != http.StatusConflict {
		t.Fatalf("late login status = %d, want 409; body: %s", rec.Code, rec.Body.String())
	}
	if token, ok := c.token(); ok {
		t.Fatalf("late login stored token %q after logout", token)
	}
	expectRedirect(t, c.do(http.MethodGet, "/licenses", nil), "/login")
}

func TestSessionFollowsStoreBetweenRequests(t *testing.T) {
	c := newConsole(t)
	c.backend.Save(context.Background(), profileID, c.api.good)
	if rec := c.do(http.MethodGet, "/licenses", nil); rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	// token dropped outside this request, e.g. by another console instance
	c.backend.Delete(context.Background(), profileID)
	expectRedirect(t, c.do(http.MethodGet, "/licenses", nil), "/login")
}

func TestLogoutClearsToken(t *testing.T) {
	c := newConsole(t)
	c.backend.Save(context.Background(), profileID, c.api.good)

	rec := c.do(http.MethodPost, "/logout", url.Values{})
	expectRedirect(t, rec, "/login")
	if _, ok := c.token(); ok {
		t.Error("token still stored after logout")
	}
	if !strings.Contains(strings.Join(rec.Header().Values("Set-Cookie"), ";"), "license_console_flash=") {
		t.Error("logout did not set a flash message")
	}
}

func TestListFilters(t *testing.T) {
	c := newConsole(t)
	c.backend.Save(context.Background(), profileID, c.api.good)

	rec := c.do(http.MethodGet, "/licenses?q=GLOBEX", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "LIC-7") || strings.Contains(body, "LIC-42") {
		t.Errorf("filtered list wrong: %s", body)
	}
	if !strings.Contains(body, "1 of 2 licenses") {
		t.Error("list does not show counts")
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	c := newConsole(t)
	c.backend.Save(context.Background(), profileID, c.api.good)

	rec := c.do(http.MethodPost, "/licenses", url.Values{
		"key":       {"LIC-NEW"},
		"aud":       {"initech"},
		"active":    {"true"},
		"expiresAt": {"2031-01-02"},
	})
	expectRedirect(t, rec, "/licenses/101")
	if got := c.api.licenses["101"]["key"]; got != "LIC-NEW" {
		t.Errorf("created key = %v", got)
	}

	rec = c.do(http.MethodPost, "/licenses/42", url.Values{"key": {"LIC-42b"}, "aud": {"acme"}})
	expectRedirect(t, rec, "/licenses/42")
	if got := c.api.licenses["42"]["active"]; got != false {
		t.Errorf("updated active = %v, want false", got)
	}

	rec = c.do(http.MethodGet, "/licenses/42/delete", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "cannot be undone") {
		t.Fatalf("confirm page = %d", rec.Code)
	}

	expectRedirect(t, c.do(http.MethodPost, "/licenses/42/delete", url.Values{}), "/licenses")
	if _, ok := c.api.licenses["42"]; ok {
		t.Error("license 42 still exists")
	}
}

func TestInvalidExpiryRerendersForm(t *testing.T) {
	c := newConsole(t)
	c.backend.Save(context.Background(), profileID, c.api.good)

	rec := c.do(http.MethodPost, "/licenses", url.Values{"key": {"K"}, "expiresAt": {"tomorrow"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not a date") {
		t.Errorf("form does not explain the error: %s", rec.Body.String())
	}
}

func TestNotFoundRendersErrorPage(t *testing.T) {
	c := newConsole(t)
	c.backend.Save(context.Background(), profileID, c.api.good)

	rec := c.do(http.MethodGet, "/licenses/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Not found: license 999 not found") {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestUnknownPathsGoHome(t *testing.T) {
	c := newConsole(t)
	expectRedirect(t, c.do(http.MethodGet, "/", nil), "/licenses")
	expectRedirect(t, c.do(http.MethodGet, "/nowhere/at/all", nil), "/licenses")
}

func TestPostWithoutCSRFIsRejected(t *testing.T) {
	c := newConsole(t)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("username=alice&password=secret"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)

	if rec.Code < 400 {
		t.Fatalf("status = %d, want a client error", rec.Code)
	}
}

func TestNewProfileCookieIssued(t *testing.T) {
	c := newConsole(t)
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	if !strings.Contains(strings.Join(rec.Header().Values("Set-Cookie"), ";"), "license_console_profile=") {
		t.Error("no profile cookie issued")
	}
}

func TestHealthJSON(t *testing.T) {
	c := newConsole(t)
	rec := c.do(http.MethodGet, "/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Success || body.Data["status"] != "alive" {
		t.Errorf("body = %+v", body)
	}
}

func TestNewBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.Console.Capacity = 4
	cfg.Console.TTL = time.Minute

	backend, check, err := newBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newBackend(memory) error = %v", err)
	}
	if _, ok := backend.(*tokenstore.LRUBackend); !ok {
		t.Errorf("backend = %T", backend)
	}
	if err := check(context.Background()); err != nil {
		t.Errorf("memory check error = %v", err)
	}

	cfg.Console.Store = "etcd"
	if _, _, err := newBackend(context.Background(), cfg); err == nil {
		t.Error("newBackend(etcd) error = nil")
	}
}
